// Package identify extracts identification tokens from free text.
package identify

import "regexp"

var (
	// taxIDPattern matches a CPF (11 digits) or CNPJ (14 digits).
	taxIDPattern = regexp.MustCompile(`\b(\d{11}|\d{14})\b`)

	// policyPattern matches a policy number: a 6 to 12 digit run.
	policyPattern = regexp.MustCompile(`\b(\d{6,12})\b`)
)

// Extraction holds the identification tokens found in a message.
// Absent fields are empty strings; extraction never fails.
type Extraction struct {
	TaxID        string `json:"taxId,omitempty"`
	PolicyNumber string `json:"policyNumber,omitempty"`
}

// Empty reports whether no token was found.
func (e Extraction) Empty() bool {
	return e.TaxID == "" && e.PolicyNumber == ""
}

// Extract pulls a tax id and/or policy number out of free text.
// A digit run identical to the matched tax id is not double-counted as
// a policy number.
func Extract(text string) Extraction {
	var result Extraction

	if m := taxIDPattern.FindString(text); m != "" {
		result.TaxID = m
	}

	for _, m := range policyPattern.FindAllString(text, -1) {
		if m != result.TaxID {
			result.PolicyNumber = m
			break
		}
	}

	return result
}

// HasIdentification reports whether the text contains an
// identification-shaped token.
func HasIdentification(text string) bool {
	return taxIDPattern.MatchString(text) || policyPattern.MatchString(text)
}
