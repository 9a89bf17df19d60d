package subscan

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"stakingScope/internal/model"
)

// planckPerUnit converts fixed-point integer amount strings (12 decimals)
// into decimal units.
const planckPerUnit = 1e12

// unbondEpsilon is the threshold above which an unbond amount dominates
// batch classification.
const unbondEpsilon = 1e-12

// Skip records a record-level decode rejection and the reason it was
// dropped. Skipped records are absent from results, never errors.
type Skip struct {
	Index  string
	Reason string
}

// eventRecord is the wire shape of one entry under scan/event/params.
type eventRecord struct {
	EventIndex string        `json:"event_index"`
	Params     []paramRecord `json:"params"`
}

type paramRecord struct {
	Name     string          `json:"name"`
	TypeName string          `json:"type_name"`
	Value    json.RawMessage `json:"value"`
}

// detailEventRecord is the wire shape of one event under scan/extrinsic;
// its params arrive as a JSON-encoded string.
type detailEventRecord struct {
	EventIndex string `json:"event_index"`
	Params     string `json:"params"`
}

type extrinsicDetail struct {
	Event []detailEventRecord `json:"event"`
}

// extrinsicRecord is the wire shape of one entry under scan/extrinsics.
type extrinsicRecord struct {
	Success        bool   `json:"success"`
	BlockTimestamp int64  `json:"block_timestamp"`
	AccountID      string `json:"account_id"`
	BlockNum       uint64 `json:"block_num"`
	ExtrinsicIndex string `json:"extrinsic_index"`
	Params         string `json:"params"`
}

type extrinsicsPage struct {
	Extrinsics []extrinsicRecord `json:"extrinsics"`
}

// batchParam and batchCall describe the nested call list of a utility
// batch extrinsic.
type batchParam struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

type batchCall struct {
	CallName string       `json:"call_name"`
	Params   []batchParam `json:"params"`
}

func normalizeEvents(records []eventRecord) ([]model.Event, []Skip) {
	events := make([]model.Event, 0, len(records))
	var skips []Skip

	for _, rec := range records {
		if rec.EventIndex == "" {
			skips = append(skips, Skip{Reason: "missing event_index"})
			continue
		}
		params, paramSkips := normalizeParams(rec.EventIndex, rec.Params)
		skips = append(skips, paramSkips...)
		events = append(events, model.Event{Index: rec.EventIndex, Params: params})
	}
	return events, skips
}

func normalizeDetailEvents(records []detailEventRecord) ([]model.Event, []Skip) {
	events := make([]model.Event, 0, len(records))
	var skips []Skip

	for _, rec := range records {
		var raw []paramRecord
		if err := json.Unmarshal([]byte(rec.Params), &raw); err != nil {
			skips = append(skips, Skip{Index: rec.EventIndex, Reason: "unparsable event params"})
			continue
		}
		params, paramSkips := normalizeParams(rec.EventIndex, raw)
		skips = append(skips, paramSkips...)
		events = append(events, model.Event{Index: rec.EventIndex, Params: params})
	}
	return events, skips
}

// normalizeParams keeps only params whose value is a plain string scalar,
// matching the explorer's encoding for account ids and amounts.
func normalizeParams(index string, raw []paramRecord) ([]model.EventParam, []Skip) {
	params := make([]model.EventParam, 0, len(raw))
	var skips []Skip

	for _, p := range raw {
		value, ok := rawString(p.Value)
		if !ok {
			skips = append(skips, Skip{Index: index, Reason: fmt.Sprintf("param %q: non-string value", p.Name)})
			continue
		}
		params = append(params, model.EventParam{
			Name:     p.Name,
			TypeName: p.TypeName,
			Value:    value,
		})
	}
	return params, skips
}

// normalizeOperations builds operation skeletons from single-call staking
// extrinsics. Quantity and valuation stay zero until enrichment. Nominate
// skeletons resolve their destination from the targets param when it
// decodes, so nominate-scoped queries can seed validator associations.
func normalizeOperations(records []extrinsicRecord, call model.CallKind) ([]model.Operation, []Skip) {
	ops := make([]model.Operation, 0, len(records))
	var skips []Skip

	for _, rec := range records {
		if !rec.Success {
			skips = append(skips, Skip{Index: rec.ExtrinsicIndex, Reason: "extrinsic not successful"})
			continue
		}
		op := model.Operation{
			BlockNumber:    rec.BlockNum,
			Timestamp:      time.UnixMilli(rec.BlockTimestamp * 1000).UTC(),
			Kind:           model.KindForCall(call),
			FromWallet:     rec.AccountID,
			ToWallet:       model.NoValidator,
			ExtrinsicIndex: rec.ExtrinsicIndex,
		}
		if call == model.CallNominate {
			if target, ok := nominateTargetFromParams(rec.Params); ok {
				op.ToWallet = target
			}
		}
		ops = append(ops, op)
	}
	return ops, skips
}

// decodeBatchOperations decodes utility batch extrinsics. Each bundle may
// contain at most one each of bond, bond_extra, unbond, and nominate; the
// three amounts sum into Quantity and the nominate target becomes ToWallet.
func decodeBatchOperations(records []extrinsicRecord) ([]model.Operation, []Skip) {
	ops := make([]model.Operation, 0, len(records))
	var skips []Skip

	for _, rec := range records {
		if !rec.Success {
			skips = append(skips, Skip{Index: rec.ExtrinsicIndex, Reason: "extrinsic not successful"})
			continue
		}
		op, skip := decodeBatchExtrinsic(rec)
		if skip != nil {
			skips = append(skips, *skip)
			continue
		}
		ops = append(ops, op)
	}
	return ops, skips
}

func decodeBatchExtrinsic(rec extrinsicRecord) (model.Operation, *Skip) {
	reject := func(reason string) (model.Operation, *Skip) {
		return model.Operation{}, &Skip{Index: rec.ExtrinsicIndex, Reason: reason}
	}

	var params []batchParam
	if err := json.Unmarshal([]byte(rec.Params), &params); err != nil {
		return reject("unparsable batch params")
	}
	if len(params) == 0 {
		return reject("batch params empty")
	}

	var calls []batchCall
	if err := json.Unmarshal(params[0].Value, &calls); err != nil {
		return reject("batch value is not a call list")
	}

	bondAmount, err := callAmount(calls, "bond", "value")
	if err != nil {
		return reject(err.Error())
	}
	bondExtraAmount, err := callAmount(calls, "bond_extra", "max_additional")
	if err != nil {
		return reject(err.Error())
	}
	unbondAmount, err := callAmount(calls, "unbond", "value")
	if err != nil {
		return reject(err.Error())
	}

	toWallet := model.NoValidator
	if nominate := findCall(calls, "nominate"); nominate != nil {
		target, err := nominateTarget(nominate)
		if err != nil {
			return reject(err.Error())
		}
		toWallet = target
	}

	kind := model.KindStake
	switch {
	case unbondAmount > unbondEpsilon:
		kind = model.KindRequestUnstake
	case toWallet != model.NoValidator:
		kind = model.KindReStake
	}

	return model.Operation{
		BlockNumber:    rec.BlockNum,
		Timestamp:      time.UnixMilli(rec.BlockTimestamp * 1000).UTC(),
		Quantity:       bondAmount + bondExtraAmount + unbondAmount,
		Kind:           kind,
		FromWallet:     rec.AccountID,
		ToWallet:       toWallet,
		ExtrinsicIndex: rec.ExtrinsicIndex,
	}, nil
}

func findCall(calls []batchCall, name string) *batchCall {
	for i := range calls {
		if calls[i].CallName == name {
			return &calls[i]
		}
	}
	return nil
}

// callAmount extracts the named fixed-point amount from a sub-call and
// converts it to decimal units. An absent sub-call contributes zero.
func callAmount(calls []batchCall, callName, paramName string) (float64, error) {
	call := findCall(calls, callName)
	if call == nil {
		return 0, nil
	}

	for _, p := range call.Params {
		if p.Name != paramName {
			continue
		}
		text, ok := rawString(p.Value)
		if !ok {
			return 0, fmt.Errorf("%s %s: non-string amount", callName, paramName)
		}
		amount, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return 0, fmt.Errorf("%s %s: unparsable amount %q", callName, paramName, text)
		}
		return amount / planckPerUnit, nil
	}
	return 0, fmt.Errorf("%s: missing %s param", callName, paramName)
}

// nominateTarget decodes the first nomination target's account id into its
// SS58 text form.
func nominateTarget(call *batchCall) (string, error) {
	if len(call.Params) == 0 {
		return "", fmt.Errorf("nominate: missing targets param")
	}

	var targets []struct {
		ID string `json:"Id"`
	}
	if err := json.Unmarshal(call.Params[0].Value, &targets); err != nil {
		return "", fmt.Errorf("nominate: unparsable targets")
	}
	if len(targets) == 0 || targets[0].ID == "" {
		return "", fmt.Errorf("nominate: no target account")
	}

	address, err := decodeAccountID(targets[0].ID)
	if err != nil {
		return "", fmt.Errorf("nominate target: %w", err)
	}
	return address, nil
}

// nominateTargetFromParams decodes the first nomination target from a
// single-call nominate extrinsic's params. Malformed or absent targets
// leave the destination unresolved rather than dropping the record.
func nominateTargetFromParams(params string) (string, bool) {
	var raw []batchParam
	if err := json.Unmarshal([]byte(params), &raw); err != nil || len(raw) == 0 {
		return "", false
	}
	call := batchCall{CallName: "nominate", Params: raw}
	target, err := nominateTarget(&call)
	if err != nil {
		return "", false
	}
	return target, true
}

func rawString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
