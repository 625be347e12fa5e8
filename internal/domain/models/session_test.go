package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/billyagent/dialogue-service/internal/domain/models"
)

func TestNewSession_Defaults(t *testing.T) {
	sess := models.NewSession("user-1", "+5511999990000", "", 30*time.Minute)

	assert.NotEmpty(t, sess.SessionID)
	assert.Equal(t, "Cliente", sess.UserName)
	assert.Equal(t, models.StatusActive, sess.Status)
	assert.Equal(t, models.FlowGreeting, sess.CurrentFlow)
	assert.False(t, sess.IsExpired())
	assert.False(t, sess.IsTerminal())
}

func TestSession_IsExpired(t *testing.T) {
	sess := models.NewSession("user-1", "", "", -time.Minute)
	assert.True(t, sess.IsExpired())
}

func TestSession_IsTerminal(t *testing.T) {
	sess := models.NewSession("user-1", "", "", time.Minute)

	for _, status := range []models.SessionStatus{
		models.StatusCompleted, models.StatusEscalated, models.StatusTimeout,
	} {
		sess.Status = status
		assert.True(t, sess.IsTerminal(), "status %s should be terminal", status)
	}

	sess.Status = models.StatusActive
	assert.False(t, sess.IsTerminal())
}

func TestSession_AppendEntry_CapDropsOldest(t *testing.T) {
	sess := models.NewSession("user-1", "", "", time.Minute)

	for i := 0; i < 5; i++ {
		sess.AppendEntry(models.ConversationEntry{
			Origin: models.OriginUser,
			Text:   string(rune('a' + i)),
		}, 3)
	}

	assert.Len(t, sess.History, 3)
	assert.Equal(t, "c", sess.History[0].Text)
	assert.Equal(t, "e", sess.History[2].Text)
	assert.Equal(t, 5, sess.Analytics.TotalMessages)
}

func TestSession_AppendEntry_DefaultsTypeAndTimestamp(t *testing.T) {
	sess := models.NewSession("user-1", "", "", time.Minute)

	sess.AppendEntry(models.ConversationEntry{Origin: models.OriginSystem, Text: "olá"}, 50)

	entry := sess.History[0]
	assert.Equal(t, "text", entry.Type)
	assert.False(t, entry.Timestamp.IsZero())
	assert.Equal(t, 1, sess.Analytics.SystemResponses)
}

func TestSession_MergeCustomerData_KeepsExistingFields(t *testing.T) {
	sess := models.NewSession("user-1", "", "", time.Minute)

	sess.MergeCustomerData(models.CustomerData{TaxID: "12345678901"})
	sess.MergeCustomerData(models.CustomerData{CustomerName: "Maria", Verified: true})
	sess.MergeCustomerData(models.CustomerData{})

	assert.Equal(t, "12345678901", sess.Customer.TaxID)
	assert.Equal(t, "Maria", sess.Customer.CustomerName)
	assert.True(t, sess.Customer.Verified)
}

func TestSession_RecentHistory(t *testing.T) {
	sess := models.NewSession("user-1", "", "", time.Minute)
	for i := 0; i < 4; i++ {
		sess.AppendEntry(models.ConversationEntry{Origin: models.OriginUser, Text: "m"}, 50)
	}

	assert.Len(t, sess.RecentHistory(2), 2)
	assert.Len(t, sess.RecentHistory(10), 4)
	assert.Len(t, sess.RecentHistory(0), 4)
}

func TestFlowState_Valid(t *testing.T) {
	assert.True(t, models.FlowGreeting.Valid())
	assert.True(t, models.FlowEscalation.Valid())
	assert.False(t, models.FlowState("warp").Valid())
	assert.False(t, models.FlowState("").Valid())
}
