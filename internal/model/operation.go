package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// NoValidator marks an operation whose destination validator is unresolved.
const NoValidator = "none"

// OperationKind classifies a staking operation.
type OperationKind string

const (
	KindStake            OperationKind = "Stake"
	KindReStake          OperationKind = "ReStake"
	KindRequestUnstake   OperationKind = "RequestUnstake"
	KindWithdrawUnstaked OperationKind = "WithdrawUnstaked"
)

// Operation is a canonical staking operation reconciled from explorer records.
type Operation struct {
	Hash           string        `json:"hash"`
	BlockNumber    uint64        `json:"block_number"`
	Timestamp      time.Time     `json:"timestamp"`
	Quantity       float64       `json:"quantity"`
	USDValue       float64       `json:"usd_value"`
	Kind           OperationKind `json:"kind"`
	FromWallet     string        `json:"from_wallet"`
	ToWallet       string        `json:"to_wallet"`
	ExtrinsicIndex string        `json:"extrinsic_index"`
}

// SetHash assigns the operation identity. It must run after ToWallet is
// fully resolved; the digest is stable for a given
// (extrinsic_index, kind, from_wallet, to_wallet) tuple.
func (o *Operation) SetHash() {
	sum := sha256.Sum256([]byte(o.ExtrinsicIndex + "|" + string(o.Kind) + "|" + o.FromWallet + "|" + o.ToWallet))
	o.Hash = hex.EncodeToString(sum[:])
}
