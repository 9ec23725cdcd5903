// Package service orchestrates the opportunity pipeline: it serializes work per
// opportunity, applies domain rules, persists with compare-and-swap and
// publishes domain events after every committed change.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"climas_backend/internal/catalog"
	"climas_backend/internal/events"
	"climas_backend/internal/opportunities/domain"
	"climas_backend/internal/opportunities/repository"
	"climas_backend/internal/pricing"
	"climas_backend/internal/quotes"
	"climas_backend/internal/quotes/snapshot"
	"climas_backend/platform/apperr"
	"climas_backend/platform/logger"
	"climas_backend/platform/metrics"

	"github.com/google/uuid"
)

// SnapshotCache serves immutable quotation versions.
type SnapshotCache interface {
	Get(ctx context.Context, opportunityID uuid.UUID, version int, load snapshot.LoadFunc) (quotes.Quotation, error)
}

// CatalogResolver prices catalog references.
type CatalogResolver interface {
	Resolve(refs []catalog.LineRef) ([]pricing.Material, error)
}

// QuotationExporter renders a quotation into a stored document.
type QuotationExporter interface {
	ExportQuotation(ctx context.Context, opp domain.Opportunity, q quotes.Quotation) (fileKey string, downloadURL string, err error)
}

// PhoneNormalizer formats phone numbers to E.164.
type PhoneNormalizer interface {
	E164(input string) (string, error)
}

// Service provides business logic for the opportunity pipeline.
type Service struct {
	store    repository.Store
	eventBus events.Bus
	log      *logger.Logger
	locks    *keyedMutex
	now      func() time.Time

	metrics   *metrics.Metrics
	cache     SnapshotCache     // optional
	catalog   CatalogResolver   // optional
	exporter  QuotationExporter // optional
	phone     PhoneNormalizer   // optional
	documents *documentStore    // optional
}

// New creates a new pipeline service.
func New(store repository.Store, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{
		store:    store,
		eventBus: eventBus,
		log:      log,
		locks:    newKeyedMutex(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetMetrics injects the Prometheus metrics.
func (s *Service) SetMetrics(m *metrics.Metrics) { s.metrics = m }

// SetSnapshotCache injects the cache for superseded quotation versions.
func (s *Service) SetSnapshotCache(c SnapshotCache) { s.cache = c }

// SetCatalog injects the catalog used by material imports.
func (s *Service) SetCatalog(c CatalogResolver) { s.catalog = c }

// SetExporter injects the quotation document exporter.
func (s *Service) SetExporter(e QuotationExporter) { s.exporter = e }

// SetPhoneNormalizer injects the phone normalizer used on contact data.
func (s *Service) SetPhoneNormalizer(p PhoneNormalizer) { s.phone = p }

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

type mutation func(opp *domain.Opportunity, now time.Time) error

// mutate runs fn on the latest state of the opportunity while holding its
// lock and persists the result only if fn succeeded.
func (s *Service) mutate(ctx context.Context, op string, id uuid.UUID, fn mutation) (*domain.Opportunity, error) {
	start := time.Now()
	opp, err := s.mutateLocked(ctx, op, id, fn)
	s.metrics.ObserveOperation(op, outcome(err), time.Since(start))
	return opp, err
}

func (s *Service) mutateLocked(ctx context.Context, op string, id uuid.UUID, fn mutation) (*domain.Opportunity, error) {
	unlock, err := s.locks.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	opp, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	expected := opp.Revision
	if err := fn(opp, s.now()); err != nil {
		return nil, err
	}

	if err := s.store.CompareAndSwap(ctx, opp, expected); err != nil {
		switch {
		case errors.Is(err, repository.ErrRevisionMismatch):
			s.log.WithContext(ctx).ConcurrencyConflict(op, id.String(), expected)
			return nil, apperr.Conflict("opportunity was modified concurrently").
				WithField("revision", fmt.Sprintf("%d", expected))
		case errors.Is(err, repository.ErrNotFound):
			return nil, notFound(id)
		default:
			s.log.WithContext(ctx).DatabaseError(op, err)
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	s.log.WithContext(ctx).PipelineOperation(op, id.String(), string(opp.Stage), slog.Int64("revision", opp.Revision))
	return opp, nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*domain.Opportunity, error) {
	opp, err := s.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound(id)
		}
		return nil, fmt.Errorf("load opportunity: %w", err)
	}
	return opp, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(ctx, event)
}

func notFound(id uuid.UUID) error {
	return apperr.NotFound("opportunity not found").WithField("id", id.String())
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return apperr.GetKind(err).String()
}
