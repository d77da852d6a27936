package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fieldsync/internal/crm"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fullPayload() crm.ContactPayload {
	return crm.ContactPayload{
		FirstName: "Ada", LastName: "Lovelace", Phone: "8015550100",
		Email: "ada@example.com", City: "Provo", Address: "123 Main St",
		State: "UT", Zip: "84601", Tags: []string{"vip"}, Channel: crm.ChannelAPI,
	}
}

func TestNoMatchAlwaysCreates(t *testing.T) {
	d := Decide(Candidate{Payload: crm.ContactPayload{Phone: "8015550100"}}, nil)

	assert.Equal(t, ActionCreate, d.Action)
	assert.Equal(t, ReasonNoExistingMatch, d.Reason)
	assert.Nil(t, d.Target)
}

func TestManualChannelDominatesRecencyAndCompleteness(t *testing.T) {
	// A much newer, much more complete source record must still be skipped
	// when the existing contact was manually curated.
	existing := &crm.Contact{
		ID:        "c1",
		Phone:     "8015550100",
		Channel:   "Manual",
		UpdatedAt: t0.Format(time.RFC3339),
	}
	candidate := Candidate{
		Payload:   fullPayload(),
		UpdatedAt: t0.Add(30 * 24 * time.Hour).Format(time.RFC3339),
	}

	d := Decide(candidate, existing)

	assert.Equal(t, ActionSkip, d.Action)
	assert.Equal(t, ReasonManualChannel, d.Reason)
}

func TestUnrecognizedChannelTreatedAsManual(t *testing.T) {
	existing := &crm.Contact{ID: "c1", Channel: "Zapier"}
	d := Decide(Candidate{Payload: fullPayload()}, existing)

	assert.Equal(t, ActionSkip, d.Action)
	assert.Equal(t, ReasonManualChannel, d.Reason)
}

func TestBlankChannelIsNotManual(t *testing.T) {
	existing := &crm.Contact{ID: "c1", UpdatedAt: t0.Format(time.RFC3339)}
	candidate := Candidate{
		Payload:   crm.ContactPayload{Phone: "8015550100"},
		UpdatedAt: t0.Add(time.Second).Format(time.RFC3339),
	}

	d := Decide(candidate, existing)

	assert.Equal(t, ActionUpdate, d.Action)
	assert.Equal(t, ReasonSourceNewer, d.Reason)
}

func TestSourceNewerBySecondUpdates(t *testing.T) {
	existing := &crm.Contact{
		ID: "c1", Phone: "8015550100", Channel: crm.ChannelAPI,
		UpdatedAt: t0.Format(time.RFC3339),
	}
	candidate := Candidate{
		Payload:   crm.ContactPayload{Phone: "8015550100"},
		UpdatedAt: t0.Add(time.Second).Format(time.RFC3339),
	}

	d := Decide(candidate, existing)

	assert.Equal(t, ActionUpdate, d.Action)
	assert.Equal(t, ReasonSourceNewer, d.Reason)
	assert.Equal(t, existing, d.Target)
}

func TestEqualTimestampsDoNotTriggerRecency(t *testing.T) {
	existing := &crm.Contact{
		ID: "c1", Phone: "8015550100", Channel: crm.ChannelAPI,
		UpdatedAt: t0.Format(time.RFC3339),
	}
	candidate := Candidate{
		Payload:   crm.ContactPayload{Phone: "8015550100"},
		UpdatedAt: t0.Format(time.RFC3339),
	}

	d := Decide(candidate, existing)

	assert.Equal(t, ActionSkip, d.Action)
	assert.Equal(t, ReasonNothingNewer, d.Reason)
}

func TestUnparsableTimestampFallsThroughToCompleteness(t *testing.T) {
	existing := &crm.Contact{
		ID: "c1", Phone: "8015550100", Channel: crm.ChannelAPI,
		UpdatedAt: "not-a-date",
	}
	// Source looks newer but recency cannot be determined; candidate is more
	// complete, so rule 4 decides.
	candidate := Candidate{
		Payload:   fullPayload(),
		UpdatedAt: t0.Format(time.RFC3339),
	}

	d := Decide(candidate, existing)

	assert.Equal(t, ActionUpdate, d.Action)
	assert.Equal(t, ReasonSourceMoreComplete, d.Reason)
}

func TestMoreCompleteSourceUpdates(t *testing.T) {
	existing := &crm.Contact{ID: "c1", Phone: "8015550100", Channel: crm.ChannelAPI}
	candidate := Candidate{Payload: fullPayload()}

	d := Decide(candidate, existing)

	assert.Equal(t, ActionUpdate, d.Action)
	assert.Equal(t, ReasonSourceMoreComplete, d.Reason)
}

func TestEqualCompletenessSkips(t *testing.T) {
	existing := &crm.Contact{
		ID: "c1", FirstName: "Ada", Phone: "8015550100", Channel: crm.ChannelAPI,
	}
	candidate := Candidate{
		Payload: crm.ContactPayload{FirstName: "Ada", Phone: "8015550100"},
	}

	d := Decide(candidate, existing)

	assert.Equal(t, ActionSkip, d.Action)
	assert.Equal(t, ReasonNothingNewer, d.Reason)
}

func TestLessCompleteSourceSkips(t *testing.T) {
	existing := &crm.Contact{
		ID: "c1", FirstName: "Ada", LastName: "Lovelace",
		Phone: "8015550100", Email: "ada@example.com", Channel: crm.ChannelAPI,
	}
	candidate := Candidate{Payload: crm.ContactPayload{Phone: "8015550100"}}

	d := Decide(candidate, existing)

	assert.Equal(t, ActionSkip, d.Action)
}
