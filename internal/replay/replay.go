// Package replay models the output of the external protocol-decoding
// collaborator: a lazily-read stream of discriminated event records plus a
// materialized roster, both as JSONL/JSON files, optionally zstd-compressed.
package replay

// Record kinds emitted by the decoder. Records with any other kind are
// carried through and dropped by the event filter.
const (
	KindBankWrite     = "bank_write"
	KindBankSignature = "bank_signature"
	KindChat          = "chat"
)

// Chat recipient classes.
const (
	RecipientAll        = "all"
	RecipientAllies     = "allies"
	RecipientIndividual = "individual"
	RecipientBattlenet  = "battlenet"
	RecipientObservers  = "observers"
)

// GameloopsPerSecond converts gameloop counters to wall-clock game time.
const GameloopsPerSecond = 16

// Record is one decoded event. Only the fields matching its kind are
// populated; unknown extra fields in the input are ignored.
type Record struct {
	Kind     string `json:"kind"`
	Seq      uint64 `json:"seq"`
	Gameloop uint64 `json:"gameloop"`
	Slot     int    `json:"slot"`

	// bank_write / bank_signature
	Bank      string `json:"bank,omitempty"`
	Section   string `json:"section,omitempty"`
	Key       string `json:"key,omitempty"`
	ValueKind string `json:"value_kind,omitempty"`
	ValueData string `json:"value_data,omitempty"`
	Signed    bool   `json:"signed,omitempty"`
	Signature string `json:"signature,omitempty"`

	// chat
	Recipient string `json:"recipient,omitempty"`
	Text      string `json:"text,omitempty"`
}

// Preload reports whether the record falls inside the pre-game preload
// window. The window closes at the first record with a positive gameloop.
func (r Record) Preload() bool { return r.Gameloop == 0 }
