// Package service orchestrates the sync pipeline: transform, match against
// the contact index, decide via the merge policy, and execute the downstream
// write.
package service

import (
	"context"
	"log/slog"
	"time"

	"fieldsync/internal/crm"
	"fieldsync/internal/platform/metrics"
	"fieldsync/internal/platform/tracer"
	"fieldsync/internal/source"
	"fieldsync/internal/sync/index"
	"fieldsync/internal/sync/policy"
	"fieldsync/internal/sync/transform"
	dErrors "fieldsync/pkg/domain-errors"
)

// Options controls one sync invocation.
type Options struct {
	// Index reuses a pre-built snapshot instead of resolving one per record.
	// Batch runs set this once; webhook invocations leave it nil.
	Index *index.Snapshot
	// IsInitialSync switches the sync-mode tag between initial and realtime.
	IsInitialSync bool
	// IncludeServiceHistory enables the per-record job-history lookup.
	IncludeServiceHistory bool
	// StrictLookup turns an index lookup failure into an error result.
	// When false (the historical behavior) a failed lookup degrades to
	// "no match found" and the record proceeds toward create.
	StrictLookup bool
}

// Config wires a Service.
type Config struct {
	Transformer *transform.Transformer
	Index       IndexResolver
	CRM         CRMWriter
	Throttle    Throttle
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	Tracer      tracer.Tracer
}

// Service sequences the sync pipeline for single records and batches. It is
// the failure boundary for per-record problems: SyncOne never raises, it
// reports.
//
// The contact index is best-effort shared state: two near-simultaneous
// invocations for the same phone can both see "no match" and both create,
// producing a duplicate downstream record. Accepted trade-off; the index TTL
// bounds the staleness window.
type Service struct {
	transformer *transform.Transformer
	index       IndexResolver
	crm         CRMWriter
	throttle    Throttle
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      tracer.Tracer
}

// New creates a Service. Metrics and Throttle may be nil; a nil Tracer or
// Logger falls back to noop/default.
func New(cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = tracer.NewNoop()
	}
	return &Service{
		transformer: cfg.Transformer,
		index:       cfg.Index,
		crm:         cfg.CRM,
		throttle:    cfg.Throttle,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
		tracer:      cfg.Tracer,
	}
}

// SyncOne syncs a single source customer. Records without any phone are
// skipped before any downstream call: phone is the mandatory join key, and a
// record that cannot be deduplicated is never written.
func (s *Service) SyncOne(ctx context.Context, cust source.Customer, opts Options) Result {
	ctx, span := s.tracer.Start(ctx, "sync.record",
		tracer.String("customer_id", cust.ID),
		tracer.Bool("initial_sync", opts.IsInitialSync),
	)

	result := s.syncOne(ctx, cust, opts)

	span.SetAttributes(
		tracer.String("action", string(result.Action)),
		tracer.String("reason", result.Reason),
	)
	span.End(result.Err)

	s.metrics.ObserveSyncResult(string(result.Action))
	s.logResult(ctx, cust, result)
	return result
}

func (s *Service) syncOne(ctx context.Context, cust source.Customer, opts Options) Result {
	payload := s.transformer.Transform(ctx, cust, transform.Options{
		IsInitialSync:         opts.IsInitialSync,
		IncludeServiceHistory: opts.IncludeServiceHistory,
	})

	if payload.Phone == "" {
		return Result{Action: ActionSkipped, Reason: ReasonNoPhone}
	}

	match, lookupErr := s.findMatch(ctx, payload, opts)
	if lookupErr != nil {
		if opts.StrictLookup {
			return Result{Action: ActionError, Reason: ReasonLookupFailed, Err: lookupErr}
		}
		// Historical fail-open behavior: treat the failed lookup as a miss
		// and let the record proceed toward create.
		match = nil
	}

	decision := policy.Decide(policy.Candidate{Payload: payload, UpdatedAt: cust.UpdatedAt}, match)

	switch decision.Action {
	case policy.ActionCreate:
		return s.create(ctx, payload)
	case policy.ActionUpdate:
		return s.update(ctx, decision.Target, payload)
	default:
		return Result{Action: ActionSkipped, Reason: string(decision.Reason), Contact: decision.Target}
	}
}

// findMatch resolves the working snapshot and matches by normalized phone,
// falling back to a case-insensitive email scan.
func (s *Service) findMatch(ctx context.Context, payload crm.ContactPayload, opts Options) (*crm.Contact, error) {
	snap := opts.Index
	if snap == nil {
		var err error
		snap, err = s.index.Resolve(ctx, false)
		if err != nil {
			return nil, err
		}
	}

	if match := snap.LookupByPhone(payload.Phone); match != nil {
		return match, nil
	}
	if payload.Email != "" {
		return snap.LookupByEmail(payload.Email), nil
	}
	return nil, nil
}

func (s *Service) create(ctx context.Context, payload crm.ContactPayload) Result {
	start := time.Now()
	created, err := s.crm.CreateContact(ctx, payload)
	s.metrics.ObserveDownstreamLatency("create_contact", time.Since(start))
	if err != nil {
		// A duplicate or validation rejection means the contact already
		// exists or is unacceptable; the batch proceeds.
		if reason, rejected := rejectionReason(err); rejected {
			return Result{Action: ActionSkipped, Reason: reason}
		}
		return Result{Action: ActionError, Err: err}
	}
	return Result{Action: ActionCreated, Contact: created}
}

func (s *Service) update(ctx context.Context, target *crm.Contact, payload crm.ContactPayload) Result {
	start := time.Now()
	updated, err := s.crm.UpdateContact(ctx, target.ID, payload)
	s.metrics.ObserveDownstreamLatency("update_contact", time.Since(start))
	if err != nil {
		if reason, rejected := rejectionReason(err); rejected {
			return Result{Action: ActionSkipped, Reason: reason, Contact: target}
		}
		return Result{Action: ActionError, Err: err}
	}
	return Result{Action: ActionUpdated, Contact: updated}
}

func rejectionReason(err error) (string, bool) {
	switch {
	case dErrors.HasCode(err, dErrors.CodeConflict):
		return ReasonDuplicate, true
	case dErrors.HasCode(err, dErrors.CodeBadRequest), dErrors.HasCode(err, dErrors.CodeValidation):
		return ReasonRejected, true
	default:
		return "", false
	}
}

// SyncBatch syncs records sequentially, sharing one pre-built index snapshot
// and pacing writes with the throttle. An index build failure is returned as
// an error because the batch cannot proceed without a baseline; per-record
// failures are absorbed into the batch counts.
func (s *Service) SyncBatch(ctx context.Context, customers []source.Customer, opts Options) (BatchResult, error) {
	var batch BatchResult

	if opts.Index == nil {
		snap, err := s.index.Resolve(ctx, true)
		if err != nil {
			return batch, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to build contact index for batch")
		}
		opts.Index = snap
	}

	for i, cust := range customers {
		if i > 0 && s.throttle != nil {
			if err := s.throttle.Wait(ctx); err != nil {
				return batch, err
			}
		}
		batch.add(s.SyncOne(ctx, cust, opts))
	}
	return batch, nil
}

func (s *Service) logResult(ctx context.Context, cust source.Customer, result Result) {
	attrs := []any{
		"customer_id", cust.ID,
		"action", result.Action,
	}
	if result.Reason != "" {
		attrs = append(attrs, "reason", result.Reason)
	}
	if result.Contact != nil {
		attrs = append(attrs, "contact_id", result.Contact.ID)
	}
	if result.Err != nil {
		attrs = append(attrs, "error", result.Err.Error())
		s.logger.ErrorContext(ctx, "sync record failed", attrs...)
		return
	}
	s.logger.InfoContext(ctx, "sync record", attrs...)
}
