package service

import (
	"context"

	"fieldsync/internal/crm"
	"fieldsync/internal/sync/index"
)

// CRMWriter is the downstream write surface the orchestrator needs.
type CRMWriter interface {
	CreateContact(ctx context.Context, payload crm.ContactPayload) (*crm.Contact, error)
	UpdateContact(ctx context.Context, id string, payload crm.ContactPayload) (*crm.Contact, error)
}

// IndexResolver supplies contact index snapshots.
type IndexResolver interface {
	Resolve(ctx context.Context, forceRefresh bool) (*index.Snapshot, error)
}

// Throttle paces downstream writes during batch runs. *rate.Limiter satisfies
// it directly.
type Throttle interface {
	Wait(ctx context.Context) error
}
