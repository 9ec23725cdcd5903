package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"climas_backend/internal/opportunities/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore stores each aggregate as a JSONB document next to the columns
// used for filtering and the revision used for compare-and-swap.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, opp *domain.Opportunity) error {
	opp.Revision = 1
	doc, err := json.Marshal(opp)
	if err != nil {
		opp.Revision = 0
		return fmt.Errorf("encode opportunity: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO opportunities (id, stage, revision, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, opp.ID, string(opp.Stage), opp.Revision, doc, opp.CreatedAt, opp.UpdatedAt)
	if err != nil {
		opp.Revision = 0
		return fmt.Errorf("insert opportunity: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, id uuid.UUID) (*domain.Opportunity, error) {
	var (
		doc      []byte
		revision int64
	)
	err := s.pool.QueryRow(ctx, `
		SELECT document, revision FROM opportunities WHERE id = $1
	`, id).Scan(&doc, &revision)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load opportunity: %w", err)
	}

	opp, err := decode(doc)
	if err != nil {
		return nil, err
	}
	opp.Revision = revision
	return opp, nil
}

func (s *PostgresStore) CompareAndSwap(ctx context.Context, opp *domain.Opportunity, expectedRevision int64) error {
	opp.Revision = expectedRevision + 1
	doc, err := json.Marshal(opp)
	if err != nil {
		opp.Revision = expectedRevision
		return fmt.Errorf("encode opportunity: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE opportunities
		SET stage = $3, revision = revision + 1, document = $4, updated_at = $5
		WHERE id = $1 AND revision = $2
	`, opp.ID, expectedRevision, string(opp.Stage), doc, opp.UpdatedAt)
	if err != nil {
		opp.Revision = expectedRevision
		return fmt.Errorf("update opportunity: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	opp.Revision = expectedRevision
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM opportunities WHERE id = $1)`, opp.ID).Scan(&exists); err != nil {
		return fmt.Errorf("check opportunity: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrRevisionMismatch
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]*domain.Opportunity, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT document, revision
		FROM opportunities
		WHERE ($1::text = '' OR stage = $1)
		ORDER BY created_at DESC, id ASC
		LIMIT $2 OFFSET $3
	`, string(filter.Stage), filter.limit(), filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}
	defer rows.Close()

	items := make([]*domain.Opportunity, 0)
	for rows.Next() {
		var (
			doc      []byte
			revision int64
		)
		if err := rows.Scan(&doc, &revision); err != nil {
			return nil, err
		}
		opp, err := decode(doc)
		if err != nil {
			return nil, err
		}
		opp.Revision = revision
		items = append(items, opp)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}
