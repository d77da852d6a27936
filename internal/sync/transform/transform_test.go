package transform

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldsync/internal/crm"
	"fieldsync/internal/source"
)

type fakeJobHistory struct {
	ts    time.Time
	found bool
	err   error
	calls int
}

func (f *fakeJobHistory) LastCompletedJob(context.Context, string) (time.Time, bool, error) {
	f.calls++
	return f.ts, f.found, f.err
}

func sampleCustomer() source.Customer {
	return source.Customer{
		ID:           "cust-1",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		MobileNumber: "+1 (801) 555-0100",
		HomeNumber:   "801-555-0199",
		Email:        "ada@example.com",
		Addresses: []source.Address{
			{Type: "billing", Street: "9 Billing Rd", City: "Ogden", State: "UT", Zip: "84401"},
			{Type: "service", Street: "123 Main St", StreetLine2: "Unit 4", City: "Provo", State: "UT", Zip: "84601"},
		},
		Tags:      []string{"vip"},
		UpdatedAt: "2026-03-01T12:00:00Z",
	}
}

func TestMobilePreferredOverHome(t *testing.T) {
	p := New(nil).TransformSync(sampleCustomer(), Options{})
	assert.Equal(t, "+1 (801) 555-0100", p.Phone)
}

func TestHomeNumberFallback(t *testing.T) {
	cust := sampleCustomer()
	cust.MobileNumber = ""
	p := New(nil).TransformSync(cust, Options{})
	assert.Equal(t, "801-555-0199", p.Phone)
}

func TestNoPhoneYieldsEmpty(t *testing.T) {
	cust := sampleCustomer()
	cust.MobileNumber = ""
	cust.HomeNumber = "  "
	p := New(nil).TransformSync(cust, Options{})
	assert.Empty(t, p.Phone)
}

func TestServiceAddressPreferred(t *testing.T) {
	p := New(nil).TransformSync(sampleCustomer(), Options{})

	assert.Equal(t, "Provo", p.City)
	assert.Equal(t, "123 Main St Unit 4", p.Address)
	assert.Equal(t, "UT", p.State)
	assert.Equal(t, "84601", p.Zip)
}

func TestFirstAddressFallbackWhenNoServiceType(t *testing.T) {
	cust := sampleCustomer()
	cust.Addresses = []source.Address{
		{Type: "billing", Street: "9 Billing Rd", City: "Ogden", State: "UT", Zip: "84401"},
	}

	p := New(nil).TransformSync(cust, Options{})

	assert.Equal(t, "Ogden", p.City)
	assert.Equal(t, "9 Billing Rd", p.Address)
	assert.Equal(t, "UT", p.State)
	assert.Equal(t, "84401", p.Zip)
}

func TestNoAddressesLeavesFieldsAbsent(t *testing.T) {
	cust := sampleCustomer()
	cust.Addresses = nil

	p := New(nil).TransformSync(cust, Options{})

	assert.Empty(t, p.City)
	assert.Empty(t, p.Address)
	assert.Empty(t, p.State)
	assert.Empty(t, p.Zip)
}

func TestBlankFieldsOmittedFromWirePayload(t *testing.T) {
	cust := sampleCustomer()
	cust.Email = ""
	cust.Addresses = nil

	p := New(nil).TransformSync(cust, Options{})

	raw, err := json.Marshal(p)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.NotContains(t, decoded, "email")
	assert.NotContains(t, decoded, "city")
	assert.NotContains(t, decoded, "address")
	assert.NotContains(t, decoded, "state")
	assert.NotContains(t, decoded, "zip")
	assert.Contains(t, decoded, "phone")
}

func TestTagSynthesisRealtime(t *testing.T) {
	p := New(nil).TransformSync(sampleCustomer(), Options{})

	assert.Equal(t, []string{TagSourceSystem, TagModeRealtime, "UT", "84601", "vip"}, p.Tags)
}

func TestTagSynthesisInitial(t *testing.T) {
	p := New(nil).TransformSync(sampleCustomer(), Options{IsInitialSync: true})

	assert.Equal(t, []string{TagSourceSystem, TagModeInitial, "UT", "84601", "vip"}, p.Tags)
}

func TestTagsDeduplicatedPreservingFirstOccurrence(t *testing.T) {
	cust := sampleCustomer()
	cust.Tags = []string{"UT", "vip", "vip", TagSourceSystem}

	p := New(nil).TransformSync(cust, Options{})

	assert.Equal(t, []string{TagSourceSystem, TagModeRealtime, "UT", "84601", "vip"}, p.Tags)
}

func TestTagOrderDeterministicAcrossCalls(t *testing.T) {
	tr := New(nil)
	first := tr.TransformSync(sampleCustomer(), Options{})
	for i := 0; i < 5; i++ {
		assert.Equal(t, first.Tags, tr.TransformSync(sampleCustomer(), Options{}).Tags)
	}
}

func TestServiceHistoryTagAppended(t *testing.T) {
	jobs := &fakeJobHistory{ts: time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC), found: true}

	p := New(jobs).Transform(context.Background(), sampleCustomer(), Options{IncludeServiceHistory: true})

	assert.Equal(t, 1, jobs.calls)
	assert.Equal(t, []string{TagSourceSystem, TagModeRealtime, "UT", TagHasServiceHistory, "84601", "vip", "2026-01-15"}, p.Tags)
}

func TestServiceHistorySkippedWhenNotRequested(t *testing.T) {
	jobs := &fakeJobHistory{found: true, ts: time.Now()}

	p := New(jobs).Transform(context.Background(), sampleCustomer(), Options{IncludeServiceHistory: false})

	assert.Zero(t, jobs.calls, "job history must not be called when the caller opts out")
	assert.NotContains(t, p.Tags, TagHasServiceHistory)
}

func TestServiceHistoryFailureDegradesToNoTag(t *testing.T) {
	jobs := &fakeJobHistory{err: errors.New("boom")}

	p := New(jobs).Transform(context.Background(), sampleCustomer(), Options{IncludeServiceHistory: true})

	assert.NotContains(t, p.Tags, TagHasServiceHistory)
}

func TestSyncVariantNeverCallsJobHistory(t *testing.T) {
	jobs := &fakeJobHistory{found: true, ts: time.Now()}

	New(jobs).TransformSync(sampleCustomer(), Options{IncludeServiceHistory: true})

	assert.Zero(t, jobs.calls)
}

func TestChannelStampedAsAPI(t *testing.T) {
	p := New(nil).TransformSync(sampleCustomer(), Options{})
	assert.Equal(t, crm.ChannelAPI, p.Channel)
}
