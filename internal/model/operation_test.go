package model

import "testing"

func TestKindForCallTable(t *testing.T) {
	want := map[CallKind]OperationKind{
		CallBond:             KindStake,
		CallBondExtra:        KindStake,
		CallRebond:           KindStake,
		CallNominate:         KindReStake,
		CallUnbond:           KindRequestUnstake,
		CallWithdrawUnbonded: KindWithdrawUnstaked,
	}

	calls := StakingCalls()
	if len(calls) != len(want) {
		t.Fatalf("expected %d call kinds, got %d", len(want), len(calls))
	}
	for _, call := range calls {
		if got := KindForCall(call); got != want[call] {
			t.Fatalf("call %s: expected %s, got %s", call, want[call], got)
		}
	}
}

func TestSetHashDeterministicAndUnique(t *testing.T) {
	base := Operation{
		Kind:           KindStake,
		FromWallet:     "from",
		ToWallet:       "to",
		ExtrinsicIndex: "10-1",
	}

	first := base
	first.SetHash()
	second := base
	second.SetHash()
	if first.Hash == "" || first.Hash != second.Hash {
		t.Fatalf("hash must be stable for identical tuples: %q vs %q", first.Hash, second.Hash)
	}

	seen := map[string]struct{}{first.Hash: {}}
	variants := []Operation{
		{Kind: KindReStake, FromWallet: "from", ToWallet: "to", ExtrinsicIndex: "10-1"},
		{Kind: KindStake, FromWallet: "other", ToWallet: "to", ExtrinsicIndex: "10-1"},
		{Kind: KindStake, FromWallet: "from", ToWallet: NoValidator, ExtrinsicIndex: "10-1"},
		{Kind: KindStake, FromWallet: "from", ToWallet: "to", ExtrinsicIndex: "10-2"},
	}
	for _, v := range variants {
		v.SetHash()
		if _, dup := seen[v.Hash]; dup {
			t.Fatalf("hash collision for distinct tuple: %+v", v)
		}
		seen[v.Hash] = struct{}{}
	}
}

func TestAssociationsFromOperations(t *testing.T) {
	ops := []Operation{
		{FromWallet: "nom-1", ToWallet: "val-1", Kind: KindReStake},
		{FromWallet: "nom-2", ToWallet: NoValidator, Kind: KindStake},
		{FromWallet: "nom-3", ToWallet: "", Kind: KindStake},
	}

	assocs := AssociationsFromOperations(ops)
	if len(assocs) != 1 {
		t.Fatalf("expected 1 association, got %d", len(assocs))
	}
	if assocs[0].Nominator != "nom-1" || assocs[0].Validator != "val-1" {
		t.Fatalf("unexpected association: %+v", assocs[0])
	}
}
