package models

import "time"

// PolicyStatus represents the lifecycle status of an insurance policy.
type PolicyStatus string

const (
	PolicyActive    PolicyStatus = "active"
	PolicySuspended PolicyStatus = "suspended"
	PolicyCancelled PolicyStatus = "cancelled"
	PolicyExpired   PolicyStatus = "expired"
)

// Policy is one insurance policy held by a customer.
type Policy struct {
	PolicyNumber string       `json:"policyNumber" bson:"policyNumber"`
	PolicyType   string       `json:"policyType" bson:"policyType"`
	Status       PolicyStatus `json:"status" bson:"status"`
	Premium      float64      `json:"premium" bson:"premium"`
	StartDate    *time.Time   `json:"startDate,omitempty" bson:"startDate,omitempty"`
	EndDate      *time.Time   `json:"endDate,omitempty" bson:"endDate,omitempty"`
	LastPayment  *time.Time   `json:"lastPayment,omitempty" bson:"lastPayment,omitempty"`
	NextDueDate  *time.Time   `json:"nextDueDate,omitempty" bson:"nextDueDate,omitempty"`
}

// PaymentRecord is one entry of a customer's payment history.
type PaymentRecord struct {
	Date   time.Time `json:"date" bson:"date"`
	Amount float64   `json:"amount" bson:"amount"`
	Method string    `json:"method" bson:"method"`
	Status string    `json:"status" bson:"status"`
}

// Customer is the business-data entity referenced read-only by the core.
// It is owned by the customer/business-data collaborator; the dialogue
// engine only queries it by tax id or policy number.
type Customer struct {
	CustomerID     string          `json:"customerId" bson:"customerId"`
	Name           string          `json:"name" bson:"name"`
	TaxID          string          `json:"taxId" bson:"taxId"`
	Phone          string          `json:"phone" bson:"phone"`
	Email          string          `json:"email,omitempty" bson:"email,omitempty"`
	Policies       []Policy        `json:"policies" bson:"policies"`
	PaymentHistory []PaymentRecord `json:"paymentHistory,omitempty" bson:"paymentHistory,omitempty"`
}

// ActivePolicies returns the customer's policies with active status.
func (c *Customer) ActivePolicies() []Policy {
	var active []Policy
	for _, p := range c.Policies {
		if p.Status == PolicyActive {
			active = append(active, p)
		}
	}
	return active
}
