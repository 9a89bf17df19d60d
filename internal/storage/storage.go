package storage

import (
	"context"

	"stakingScope/internal/model"
)

// OperationStore is the dedup baseline and durable sink for operations.
type OperationStore interface {
	// NotExisting returns the subset of candidates not already persisted.
	// Candidates are identified by (extrinsic_index, kind) since the final
	// hash is not assigned until the end of a run.
	NotExisting(ctx context.Context, candidates []model.Operation) ([]model.Operation, error)
	// SaveOperations persists a reconciled batch.
	SaveOperations(ctx context.Context, ops []model.Operation) error
}

// ValidatorStore keeps nominator→validator associations.
type ValidatorStore interface {
	// ImportOrUpdate upserts associations keyed by nominator.
	ImportOrUpdate(ctx context.Context, assocs []model.ValidatorAssociation) error
	// NotExistingNominators returns the subset of nominators with no
	// stored association.
	NotExistingNominators(ctx context.Context, nominators []string) ([]string, error)
	// ValidatorByNominator returns nil when the nominator has no
	// association.
	ValidatorByNominator(ctx context.Context, nominator string) (*model.ValidatorAssociation, error)
}

// OperationKey is the pre-hash identity used for deduplication.
func OperationKey(op model.Operation) string {
	return op.ExtrinsicIndex + "|" + string(op.Kind)
}
