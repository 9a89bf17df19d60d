package storage

import (
	"context"
	"sync"

	"stakingScope/internal/model"
)

// MemoryStore is an in-process implementation of both store interfaces.
// It serves tests and runs without a configured database.
type MemoryStore struct {
	mu         sync.Mutex
	operations map[string]model.Operation
	validators map[string]model.ValidatorAssociation
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		operations: make(map[string]model.Operation),
		validators: make(map[string]model.ValidatorAssociation),
	}
}

// NotExisting filters out candidates already saved, preserving input order.
func (s *MemoryStore) NotExisting(_ context.Context, candidates []model.Operation) ([]model.Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := make([]model.Operation, 0, len(candidates))
	for _, op := range candidates {
		if _, ok := s.operations[OperationKey(op)]; ok {
			continue
		}
		fresh = append(fresh, op)
	}
	return fresh, nil
}

// SaveOperations stores operations keyed by their dedup identity.
func (s *MemoryStore) SaveOperations(_ context.Context, ops []model.Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, op := range ops {
		s.operations[OperationKey(op)] = op
	}
	return nil
}

// ImportOrUpdate upserts associations keyed by nominator.
func (s *MemoryStore) ImportOrUpdate(_ context.Context, assocs []model.ValidatorAssociation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, assoc := range assocs {
		s.validators[assoc.Nominator] = assoc
	}
	return nil
}

// NotExistingNominators returns nominators without a stored association.
func (s *MemoryStore) NotExistingNominators(_ context.Context, nominators []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	missing := make([]string, 0, len(nominators))
	for _, nominator := range nominators {
		if _, ok := s.validators[nominator]; !ok {
			missing = append(missing, nominator)
		}
	}
	return missing, nil
}

// ValidatorByNominator returns the stored association, or nil if absent.
func (s *MemoryStore) ValidatorByNominator(_ context.Context, nominator string) (*model.ValidatorAssociation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	assoc, ok := s.validators[nominator]
	if !ok {
		return nil, nil
	}
	return &assoc, nil
}
