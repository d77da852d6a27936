// Package index maintains a process-local, time-bounded snapshot of the
// downstream contact set keyed by normalized phone.
package index

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"fieldsync/internal/crm"
	"fieldsync/internal/platform/metrics"
	"fieldsync/internal/sync/phone"
)

// Snapshot is an immutable view of the contact set at build time.
//
// At most one entry exists per normalized phone: when duplicate phones exist
// downstream, the last one seen during the paginated build wins, and which
// one that is depends on listing order.
type Snapshot struct {
	byPhone  map[string]crm.Contact
	contacts []crm.Contact
	builtAt  time.Time
}

// LookupByPhone returns the contact whose normalized phone equals the
// normalized input, or nil. An empty or digit-free phone never matches.
func (s *Snapshot) LookupByPhone(raw string) *crm.Contact {
	if s == nil {
		return nil
	}
	key := phone.Normalize(raw)
	if key == "" {
		return nil
	}
	if c, ok := s.byPhone[key]; ok {
		return &c
	}
	return nil
}

// LookupByEmail scans the cached contacts for a case-insensitive exact email
// match. Linear on purpose: email is the fallback match strategy, not the
// primary one, so it is not worth a second map.
func (s *Snapshot) LookupByEmail(email string) *crm.Contact {
	if s == nil {
		return nil
	}
	needle := strings.ToLower(strings.TrimSpace(email))
	if needle == "" {
		return nil
	}
	for i := range s.contacts {
		if strings.ToLower(s.contacts[i].Email) == needle {
			return &s.contacts[i]
		}
	}
	return nil
}

// Size returns the number of cached contacts.
func (s *Snapshot) Size() int {
	if s == nil {
		return 0
	}
	return len(s.contacts)
}

// BuiltAt returns when the snapshot was constructed.
func (s *Snapshot) BuiltAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.builtAt
}

// Lookup is the explicit outcome of a resolver lookup: found a contact, found
// nothing, or the lookup itself failed. Callers decide whether a failure
// degrades to "no match".
type Lookup struct {
	Contact *crm.Contact
	Err     error
}

// Found reports whether a contact was matched.
func (l Lookup) Found() bool { return l.Err == nil && l.Contact != nil }

// Failed reports whether the lookup could not be performed.
func (l Lookup) Failed() bool { return l.Err != nil }

// Config tunes a Resolver.
type Config struct {
	// TTL is how long a snapshot is reused before a rebuild. Zero means the
	// default of 5 minutes.
	TTL time.Duration
	// PageLimit is the page size used while fetching contacts.
	PageLimit int
	// MaxPages caps pagination against a misbehaving API.
	MaxPages int
	// Clock is injectable for tests; defaults to time.Now.
	Clock func() time.Time
}

// Resolver builds and caches Snapshots. A cached snapshot younger than the
// TTL is reused unless a caller forces a refresh. Concurrent rebuild requests
// are collapsed into a single fetch.
type Resolver struct {
	lister    crm.ContactLister
	ttl       time.Duration
	pageLimit int
	maxPages  int
	now       func() time.Time
	metrics   *metrics.Metrics

	group singleflight.Group

	mu      sync.RWMutex
	current *Snapshot
}

// NewResolver creates a Resolver over the given contact lister.
func NewResolver(lister crm.ContactLister, cfg Config, m *metrics.Metrics) *Resolver {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Resolver{
		lister:    lister,
		ttl:       cfg.TTL,
		pageLimit: cfg.PageLimit,
		maxPages:  cfg.MaxPages,
		now:       cfg.Clock,
		metrics:   m,
	}
}

// Resolve returns a usable snapshot, rebuilding when the cached one is absent,
// older than the TTL, or forceRefresh is set. A fetch failure surfaces to the
// caller; the stale snapshot, if any, is left in place.
func (r *Resolver) Resolve(ctx context.Context, forceRefresh bool) (*Snapshot, error) {
	if !forceRefresh {
		if snap := r.cached(); snap != nil {
			return snap, nil
		}
	}

	v, err, _ := r.group.Do("rebuild", func() (any, error) {
		// Another caller may have rebuilt while we waited on the flight.
		if !forceRefresh {
			if snap := r.cached(); snap != nil {
				return snap, nil
			}
		}
		return r.rebuild(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// LookupByPhone resolves a snapshot (reusing the cache) and looks up the
// phone. A rebuild failure is reported as a failed Lookup rather than an
// error so callers can choose to fail open.
func (r *Resolver) LookupByPhone(ctx context.Context, raw string) Lookup {
	snap, err := r.Resolve(ctx, false)
	if err != nil {
		return Lookup{Err: err}
	}
	return Lookup{Contact: snap.LookupByPhone(raw)}
}

// LookupByEmail is the email analogue of LookupByPhone.
func (r *Resolver) LookupByEmail(ctx context.Context, email string) Lookup {
	snap, err := r.Resolve(ctx, false)
	if err != nil {
		return Lookup{Err: err}
	}
	return Lookup{Contact: snap.LookupByEmail(email)}
}

// Invalidate drops the cached snapshot; the next Resolve rebuilds.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	r.current = nil
	r.mu.Unlock()
}

func (r *Resolver) cached() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return nil
	}
	if r.now().Sub(r.current.builtAt) >= r.ttl {
		return nil
	}
	return r.current
}

// rebuild fetches the complete contact set through a bounded pager and
// indexes it by normalized phone.
func (r *Resolver) rebuild(ctx context.Context) (*Snapshot, error) {
	pager := crm.NewContactPager(r.lister, r.pageLimit, r.maxPages)

	snap := &Snapshot{
		byPhone: make(map[string]crm.Contact),
		builtAt: r.now(),
	}
	for pager.More() {
		batch, err := pager.Next(ctx)
		if err != nil {
			r.metrics.ObserveIndexRebuild(0, err)
			return nil, err
		}
		for _, c := range batch {
			snap.contacts = append(snap.contacts, c)
			if key := phone.Normalize(c.Phone); key != "" {
				snap.byPhone[key] = c
			}
		}
	}

	r.mu.Lock()
	r.current = snap
	r.mu.Unlock()

	r.metrics.ObserveIndexRebuild(snap.Size(), nil)
	return snap, nil
}
