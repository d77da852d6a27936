// Package transform maps field-service customer records into CRM contact
// payloads, including tag synthesis.
package transform

import (
	"context"
	"strings"
	"time"

	"fieldsync/internal/crm"
	"fieldsync/internal/source"
)

// Tag markers attached to every synced contact.
const (
	TagSourceSystem      = "fieldservice"
	TagModeInitial       = "initial"
	TagModeRealtime      = "realtime"
	TagHasServiceHistory = "has-service-history"
)

// AddressTypeService is preferred when picking the address to map.
const AddressTypeService = "service"

// JobHistory resolves the most recent completed-job timestamp for a customer.
// The bool is false when no completed job exists.
type JobHistory interface {
	LastCompletedJob(ctx context.Context, customerID string) (time.Time, bool, error)
}

// Options controls tag synthesis and the optional job-history lookup.
type Options struct {
	// IsInitialSync switches the sync-mode tag between initial and realtime.
	IsInitialSync bool
	// IncludeServiceHistory enables the job-history lookup. Bulk runs opt out
	// to avoid one extra network call per record.
	IncludeServiceHistory bool
}

// Transformer builds CRM payloads from source customers.
type Transformer struct {
	jobs JobHistory
}

// New creates a Transformer. jobs may be nil when service history is never
// requested.
func New(jobs JobHistory) *Transformer {
	return &Transformer{jobs: jobs}
}

// Transform builds the candidate payload for a customer. When
// opts.IncludeServiceHistory is set and a job-history collaborator is wired,
// the most recent completed-job date is resolved and stamped into the tag
// set. A job-history failure degrades to "no history found" rather than
// failing the record; the tag is simply absent.
func (t *Transformer) Transform(ctx context.Context, cust source.Customer, opts Options) crm.ContactPayload {
	var lastService *time.Time
	if opts.IncludeServiceHistory && t.jobs != nil {
		if ts, ok, err := t.jobs.LastCompletedJob(ctx, cust.ID); err == nil && ok {
			lastService = &ts
		}
	}
	return buildPayload(cust, opts, lastService)
}

// TransformSync is the synchronous variant: same mapping, but the job-history
// collaborator is never called, so the service-history tags are absent.
func (t *Transformer) TransformSync(cust source.Customer, opts Options) crm.ContactPayload {
	return buildPayload(cust, opts, nil)
}

func buildPayload(cust source.Customer, opts Options, lastService *time.Time) crm.ContactPayload {
	payload := crm.ContactPayload{
		FirstName: strings.TrimSpace(cust.FirstName),
		LastName:  strings.TrimSpace(cust.LastName),
		Phone:     pickPhone(cust),
		Email:     strings.TrimSpace(cust.Email),
		Channel:   crm.ChannelAPI,
	}

	if addr := pickAddress(cust.Addresses); addr != nil {
		payload.City = strings.TrimSpace(addr.City)
		payload.Address = joinStreet(addr.Street, addr.StreetLine2)
		payload.State = strings.TrimSpace(addr.State)
		payload.Zip = strings.TrimSpace(addr.Zip)
	}

	payload.Tags = buildTags(cust, payload, opts, lastService)
	return payload
}

// pickPhone prefers the mobile number, falls back to the home number.
func pickPhone(cust source.Customer) string {
	if p := strings.TrimSpace(cust.MobileNumber); p != "" {
		return p
	}
	return strings.TrimSpace(cust.HomeNumber)
}

// pickAddress prefers the service-typed address, falls back to the first one.
func pickAddress(addresses []source.Address) *source.Address {
	for i := range addresses {
		if addresses[i].Type == AddressTypeService {
			return &addresses[i]
		}
	}
	if len(addresses) > 0 {
		return &addresses[0]
	}
	return nil
}

// joinStreet concatenates the primary street line and the optional second
// line. A blank result is returned empty so it is omitted from the payload.
func joinStreet(street, line2 string) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{street, line2} {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// buildTags assembles the tag set: source-system marker, sync-mode marker,
// optional state, optional service-history marker, optional zip, every source
// tag, and finally the date-stamped last-service tag. Deduplicated as a set;
// first-occurrence order is preserved for determinism.
func buildTags(cust source.Customer, payload crm.ContactPayload, opts Options, lastService *time.Time) []string {
	tags := make([]string, 0, len(cust.Tags)+6)
	tags = append(tags, TagSourceSystem)
	if opts.IsInitialSync {
		tags = append(tags, TagModeInitial)
	} else {
		tags = append(tags, TagModeRealtime)
	}
	if payload.State != "" {
		tags = append(tags, payload.State)
	}
	if lastService != nil {
		tags = append(tags, TagHasServiceHistory)
	}
	if payload.Zip != "" {
		tags = append(tags, payload.Zip)
	}
	for _, tag := range cust.Tags {
		if s := strings.TrimSpace(tag); s != "" {
			tags = append(tags, s)
		}
	}
	if lastService != nil {
		tags = append(tags, lastService.Format("2006-01-02"))
	}
	return dedupe(tags)
}

// dedupe removes duplicates keeping the first occurrence of each tag.
func dedupe(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
