// Package policy decides, for an inbound candidate and an optional matched
// contact, whether to create, update, or skip.
package policy

import (
	"time"

	"fieldsync/internal/crm"
	"fieldsync/internal/sync/score"
)

// Action is the outcome of a merge decision.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionSkip   Action = "skip"
)

// Reason explains which rule produced the decision.
type Reason string

const (
	ReasonNoExistingMatch    Reason = "no_existing_match"
	ReasonManualChannel      Reason = "manual_channel"
	ReasonSourceNewer        Reason = "source_newer"
	ReasonSourceMoreComplete Reason = "source_more_complete"
	ReasonNothingNewer       Reason = "nothing_newer"
)

// Candidate pairs a transformed write payload with the source record's
// timestamp. The timestamp stays off the payload because the CRM owns
// updated_at on its side.
type Candidate struct {
	Payload   crm.ContactPayload
	UpdatedAt string
}

// Decision is the result of Decide. Target is the matched contact for
// updates, nil otherwise.
type Decision struct {
	Action Action
	Reason Reason
	Target *crm.Contact
}

// Decide applies the merge rules in strict priority order; the first matching
// rule wins.
//
// Rule priority:
//  1. No existing match -> create.
//  2. Existing contact has a non-blank channel other than "API" -> skip.
//     Treated as manually curated; holds even if the source is newer and
//     more complete. Unrecognized channel values count as manual.
//  3. Both timestamps parse and the source is strictly later -> update.
//     A missing or unparsable timestamp on either side means recency cannot
//     be determined, not that the source is newer.
//  4. Candidate scores strictly higher on completeness -> update.
//  5. Otherwise -> skip.
func Decide(candidate Candidate, existing *crm.Contact) Decision {
	// Rule 1: nothing to merge with.
	if existing == nil {
		return Decision{Action: ActionCreate, Reason: ReasonNoExistingMatch}
	}

	// Rule 2: manual-edit protection dominates recency and completeness.
	if existing.Channel != "" && existing.Channel != crm.ChannelAPI {
		return Decision{Action: ActionSkip, Reason: ReasonManualChannel, Target: existing}
	}

	// Rule 3: recency, only when both sides are parsable.
	srcTime, srcOK := parseTimestamp(candidate.UpdatedAt)
	dstTime, dstOK := parseTimestamp(existing.UpdatedAt)
	if srcOK && dstOK && srcTime.After(dstTime) {
		return Decision{Action: ActionUpdate, Reason: ReasonSourceNewer, Target: existing}
	}

	// Rule 4: completeness fallback.
	if score.Score(score.FromPayload(candidate.Payload)) > score.Score(score.FromContact(*existing)) {
		return Decision{Action: ActionUpdate, Reason: ReasonSourceMoreComplete, Target: existing}
	}

	// Rule 5: nothing to do.
	return Decision{Action: ActionSkip, Reason: ReasonNothingNewer, Target: existing}
}

// timestampLayouts covers the wire formats both APIs emit.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
