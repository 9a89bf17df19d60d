package subscan

import (
	"strconv"

	"stakingScope/internal/model"
)

// EnrichFromEvents backfills FromWallet and Quantity on a simple, non-batch
// operation from its extrinsic's emitted events. The staking record must sit
// at ordinal position 1, carry at least two parameters, open with a "stash"
// or "who" account and close with an "amount". Any deviation rejects the
// operation instead of correcting it.
func EnrichFromEvents(op model.Operation, events []model.Event) (model.Operation, *Skip) {
	reject := func(reason string) (model.Operation, *Skip) {
		return model.Operation{}, &Skip{Index: op.ExtrinsicIndex, Reason: reason}
	}

	if len(events) < 2 {
		return reject("fewer than two events")
	}
	stakeEvent := events[1]

	if len(stakeEvent.Params) < 2 {
		return reject("stake event has fewer than two params")
	}

	stashParam := stakeEvent.Params[0]
	if stashParam.Name != "stash" && stashParam.Name != "who" {
		return reject("first param is not stash or who")
	}

	amountParam := stakeEvent.Params[len(stakeEvent.Params)-1]
	if amountParam.Name != "amount" {
		return reject("last param is not amount")
	}

	address, err := decodeAccountID(stashParam.Value)
	if err != nil {
		return reject(err.Error())
	}

	amount, err := strconv.ParseFloat(amountParam.Value, 64)
	if err != nil {
		return reject("unparsable amount " + strconv.Quote(amountParam.Value))
	}

	op.FromWallet = address
	op.ToWallet = model.NoValidator
	op.Quantity = amount / planckPerUnit
	return op, nil
}
