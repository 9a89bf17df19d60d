package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stakingScope/internal/model"
	"stakingScope/internal/storage"
)

// Store provides Postgres persistence for operations and validator
// associations.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Init applies the minimal schema.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS operations (
			hash                TEXT PRIMARY KEY,
			block_number        BIGINT NOT NULL,
			operation_timestamp TIMESTAMPTZ NOT NULL,
			quantity            DOUBLE PRECISION NOT NULL,
			usd_value           DOUBLE PRECISION NOT NULL,
			kind                TEXT NOT NULL,
			from_wallet         TEXT NOT NULL,
			to_wallet           TEXT NOT NULL,
			extrinsic_index     TEXT NOT NULL,
			created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (extrinsic_index, kind)
		);

		CREATE TABLE IF NOT EXISTS validators (
			nominator  TEXT PRIMARY KEY,
			validator  TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`)
	if err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// NotExisting returns the candidates whose (extrinsic_index, kind) pair is
// not yet persisted, preserving input order.
func (s *Store) NotExisting(ctx context.Context, candidates []model.Operation) ([]model.Operation, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	indexes := make([]string, 0, len(candidates))
	for _, op := range candidates {
		indexes = append(indexes, op.ExtrinsicIndex)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT extrinsic_index, kind FROM operations WHERE extrinsic_index = ANY($1)
	`, indexes)
	if err != nil {
		return nil, fmt.Errorf("query existing operations: %w", err)
	}
	defer rows.Close()

	existing := make(map[string]struct{})
	for rows.Next() {
		var index, kind string
		if err := rows.Scan(&index, &kind); err != nil {
			return nil, err
		}
		existing[index+"|"+kind] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	fresh := make([]model.Operation, 0, len(candidates))
	for _, op := range candidates {
		if _, ok := existing[storage.OperationKey(op)]; ok {
			continue
		}
		fresh = append(fresh, op)
	}
	return fresh, nil
}

// SaveOperations inserts a reconciled batch; already-persisted hashes are
// left untouched.
func (s *Store) SaveOperations(ctx context.Context, ops []model.Operation) error {
	if len(ops) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, op := range ops {
		batch.Queue(`
			INSERT INTO operations (
				hash, block_number, operation_timestamp, quantity, usd_value,
				kind, from_wallet, to_wallet, extrinsic_index, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
			ON CONFLICT (hash) DO NOTHING
		`,
			op.Hash,
			int64(op.BlockNumber),
			op.Timestamp,
			op.Quantity,
			op.USDValue,
			string(op.Kind),
			op.FromWallet,
			op.ToWallet,
			op.ExtrinsicIndex,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range ops {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// ImportOrUpdate upserts associations keyed by nominator. Row-level
// conflicts from concurrent stages serialize on the primary key.
func (s *Store) ImportOrUpdate(ctx context.Context, assocs []model.ValidatorAssociation) error {
	if len(assocs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, assoc := range assocs {
		batch.Queue(`
			INSERT INTO validators (nominator, validator, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (nominator)
			DO UPDATE SET validator = EXCLUDED.validator, updated_at = now()
		`, assoc.Nominator, assoc.Validator)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range assocs {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// NotExistingNominators returns nominators with no stored association,
// preserving input order.
func (s *Store) NotExistingNominators(ctx context.Context, nominators []string) ([]string, error) {
	if len(nominators) == 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT nominator FROM validators WHERE nominator = ANY($1)
	`, nominators)
	if err != nil {
		return nil, fmt.Errorf("query existing nominators: %w", err)
	}
	defer rows.Close()

	existing := make(map[string]struct{})
	for rows.Next() {
		var nominator string
		if err := rows.Scan(&nominator); err != nil {
			return nil, err
		}
		existing[nominator] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	missing := make([]string, 0, len(nominators))
	for _, nominator := range nominators {
		if _, ok := existing[nominator]; !ok {
			missing = append(missing, nominator)
		}
	}
	return missing, nil
}

// ValidatorByNominator returns the stored association, or nil if absent.
func (s *Store) ValidatorByNominator(ctx context.Context, nominator string) (*model.ValidatorAssociation, error) {
	if nominator == "" {
		return nil, fmt.Errorf("nominator required")
	}

	var assoc model.ValidatorAssociation
	row := s.pool.QueryRow(ctx, `
		SELECT nominator, validator FROM validators WHERE nominator = $1
	`, nominator)
	if err := row.Scan(&assoc.Nominator, &assoc.Validator); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &assoc, nil
}
