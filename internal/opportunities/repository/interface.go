// Package repository persists opportunity aggregates. Every save is a
// compare-and-swap on the aggregate revision.
package repository

import (
	"context"
	"errors"

	"climas_backend/internal/opportunities/domain"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no opportunity has the requested id.
	ErrNotFound = errors.New("opportunity not found")
	// ErrRevisionMismatch is returned when the stored revision moved since load.
	ErrRevisionMismatch = errors.New("opportunity revision mismatch")
)

// DefaultListLimit caps List when ListFilter.Limit is not positive.
const DefaultListLimit = 100

// ListFilter narrows List. A zero Stage matches every stage.
type ListFilter struct {
	Stage  domain.Stage
	Limit  int
	Offset int
}

func (f ListFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

// Store is the persistence collaborator of the opportunity pipeline.
type Store interface {
	// Create stores a new aggregate at revision 1.
	Create(ctx context.Context, opp *domain.Opportunity) error
	// Load returns an independent copy of the stored aggregate.
	Load(ctx context.Context, id uuid.UUID) (*domain.Opportunity, error)
	// CompareAndSwap replaces the aggregate if its stored revision still equals
	// expectedRevision and bumps opp.Revision on success.
	CompareAndSwap(ctx context.Context, opp *domain.Opportunity, expectedRevision int64) error
	// List returns aggregates ordered by creation time, newest first.
	List(ctx context.Context, filter ListFilter) ([]*domain.Opportunity, error)
}
