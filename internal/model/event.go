package model

// Event is an on-chain emitted log entry with named, typed parameters.
type Event struct {
	Index  string       `json:"event_index"`
	Params []EventParam `json:"params"`
}

// EventParam is a single named event parameter with its string-encoded value.
type EventParam struct {
	Name     string `json:"name"`
	TypeName string `json:"type_name"`
	Value    string `json:"value"`
}
