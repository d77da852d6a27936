package service

import "fieldsync/internal/crm"

// Action is the reported outcome of one sync attempt.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionSkipped Action = "skipped"
	ActionError   Action = "error"
)

// Skip reasons produced by the orchestrator itself; merge-policy reasons pass
// through unchanged.
const (
	ReasonNoPhone      = "no_phone"
	ReasonDuplicate    = "duplicate"
	ReasonRejected     = "rejected"
	ReasonLookupFailed = "lookup_failed"
)

// Result is produced once per sync attempt.
type Result struct {
	Action  Action       `json:"action"`
	Contact *crm.Contact `json:"contact,omitempty"`
	Reason  string       `json:"reason,omitempty"`
	Err     error        `json:"-"`
}

// Message renders a human-readable description of the result.
func (r Result) Message() string {
	if r.Err != nil {
		return string(r.Action) + ": " + r.Err.Error()
	}
	if r.Reason != "" {
		return string(r.Action) + ": " + r.Reason
	}
	return string(r.Action)
}

// BatchResult aggregates outcome counts plus the ordered per-record results.
type BatchResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  int      `json:"errors"`
	Results []Result `json:"results"`
}

func (b *BatchResult) add(r Result) {
	switch r.Action {
	case ActionCreated:
		b.Created++
	case ActionUpdated:
		b.Updated++
	case ActionSkipped:
		b.Skipped++
	case ActionError:
		b.Errors++
	}
	b.Results = append(b.Results, r)
}
