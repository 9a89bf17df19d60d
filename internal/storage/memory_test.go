package storage

import (
	"context"
	"reflect"
	"testing"

	"stakingScope/internal/model"
)

func TestMemoryStoreOperationDedup(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	ops := []model.Operation{
		{Kind: model.KindStake, ExtrinsicIndex: "1-1"},
		{Kind: model.KindRequestUnstake, ExtrinsicIndex: "1-2"},
	}

	fresh, err := store.NotExisting(ctx, ops)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(fresh, ops) {
		t.Fatalf("empty store must pass all candidates: %+v", fresh)
	}

	if err := store.SaveOperations(ctx, ops[:1]); err != nil {
		t.Fatalf("save: %v", err)
	}

	fresh, err = store.NotExisting(ctx, ops)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fresh) != 1 || fresh[0].ExtrinsicIndex != "1-2" {
		t.Fatalf("expected only the unsaved candidate, got %+v", fresh)
	}

	// same extrinsic under a different kind is a distinct identity
	other := []model.Operation{{Kind: model.KindReStake, ExtrinsicIndex: "1-1"}}
	fresh, err = store.NotExisting(ctx, other)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fresh) != 1 {
		t.Fatalf("kind must participate in the dedup key, got %+v", fresh)
	}
}

func TestMemoryStoreValidators(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.ImportOrUpdate(ctx, []model.ValidatorAssociation{
		{Nominator: "nom-1", Validator: "val-1"},
	}); err != nil {
		t.Fatalf("import: %v", err)
	}

	missing, err := store.NotExistingNominators(ctx, []string{"nom-1", "nom-2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(missing, []string{"nom-2"}) {
		t.Fatalf("expected nom-2 missing, got %+v", missing)
	}

	assoc, err := store.ValidatorByNominator(ctx, "nom-1")
	if err != nil || assoc == nil || assoc.Validator != "val-1" {
		t.Fatalf("expected val-1, got %+v (%v)", assoc, err)
	}

	if assoc, err := store.ValidatorByNominator(ctx, "nom-2"); err != nil || assoc != nil {
		t.Fatalf("unknown nominator must yield nil, got %+v (%v)", assoc, err)
	}

	// upsert replaces the validator for an existing nominator
	if err := store.ImportOrUpdate(ctx, []model.ValidatorAssociation{
		{Nominator: "nom-1", Validator: "val-9"},
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	assoc, _ = store.ValidatorByNominator(ctx, "nom-1")
	if assoc == nil || assoc.Validator != "val-9" {
		t.Fatalf("expected val-9 after upsert, got %+v", assoc)
	}
}
