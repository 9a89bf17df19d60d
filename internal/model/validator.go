package model

// ValidatorAssociation links a nominator to the validator it delegates to.
type ValidatorAssociation struct {
	Nominator string `json:"nominator"`
	Validator string `json:"validator"`
}

// AssociationsFromOperations derives nominator→validator pairs from
// operations with a resolved destination. Unresolved targets are skipped.
func AssociationsFromOperations(ops []Operation) []ValidatorAssociation {
	assocs := make([]ValidatorAssociation, 0, len(ops))
	for _, op := range ops {
		if op.ToWallet == NoValidator || op.ToWallet == "" {
			continue
		}
		assocs = append(assocs, ValidatorAssociation{
			Nominator: op.FromWallet,
			Validator: op.ToWallet,
		})
	}
	return assocs
}
