package model

// CallKind is a staking pallet call name as reported by the explorer.
type CallKind string

const (
	CallBond             CallKind = "bond"
	CallBondExtra        CallKind = "bond_extra"
	CallRebond           CallKind = "rebond"
	CallNominate         CallKind = "nominate"
	CallUnbond           CallKind = "unbond"
	CallWithdrawUnbonded CallKind = "withdraw_unbonded"
)

// StakingCalls lists every call kind the reconciler fans out over.
func StakingCalls() []CallKind {
	return []CallKind{
		CallBond,
		CallBondExtra,
		CallRebond,
		CallNominate,
		CallUnbond,
		CallWithdrawUnbonded,
	}
}

// KindForCall maps a single-call extrinsic to its operation kind.
// The mapping is total over StakingCalls.
func KindForCall(call CallKind) OperationKind {
	switch call {
	case CallNominate:
		return KindReStake
	case CallUnbond:
		return KindRequestUnstake
	case CallWithdrawUnbonded:
		return KindWithdrawUnstaked
	default:
		return KindStake
	}
}
