// Package score computes a completeness heuristic for contact-shaped records.
// Scores are only meaningful relative to another record of the same shape;
// they are never an absolute quality gate.
package score

import (
	"strings"

	"fieldsync/internal/crm"
)

// Fields is the shared shape scored for both stored contacts and candidate
// payloads, so the two sides compare like for like.
type Fields struct {
	FirstName string
	LastName  string
	Phone     string
	Email     string
	City      string
	Street    string
	State     string
	Zip       string
	Tags      []string
}

// Weights: core identity fields count a full point, supporting address
// details and tags half a point. No upper bound.
const (
	coreWeight       = 1.0
	supportingWeight = 0.5
)

// Score returns the deterministic weighted completeness sum for f.
func Score(f Fields) float64 {
	var s float64
	for _, v := range []string{f.FirstName, f.LastName, f.Phone, f.Email, f.City} {
		if strings.TrimSpace(v) != "" {
			s += coreWeight
		}
	}
	for _, v := range []string{f.Street, f.State, f.Zip} {
		if strings.TrimSpace(v) != "" {
			s += supportingWeight
		}
	}
	if len(f.Tags) > 0 {
		s += supportingWeight
	}
	return s
}

// FromContact extracts scorable fields from a stored CRM contact.
func FromContact(c crm.Contact) Fields {
	return Fields{
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Phone:     c.Phone,
		Email:     c.Email,
		City:      c.City,
		Street:    c.Address,
		State:     c.State,
		Zip:       c.Zip,
		Tags:      c.Tags,
	}
}

// FromPayload extracts scorable fields from a candidate write payload.
func FromPayload(p crm.ContactPayload) Fields {
	return Fields{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Phone:     p.Phone,
		Email:     p.Email,
		City:      p.City,
		Street:    p.Address,
		State:     p.State,
		Zip:       p.Zip,
		Tags:      p.Tags,
	}
}
