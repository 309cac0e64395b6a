// Package rebuild folds a decoded, time-ordered event stream into the bank
// documents each player's client would have written to disk. One accumulator
// serves one replay; batch parallelism happens at replay granularity with no
// shared state.
package rebuild

import (
	"errors"
	"fmt"
	"io"

	"github.com/Talv/sc2-repdump/internal/bank"
	"github.com/Talv/sc2-repdump/internal/replay"
	"github.com/Talv/sc2-repdump/internal/roster"
)

// ErrUnknownPlayerSlot aborts a replay whose event stream references a slot
// absent from the roster. Other replays in a batch are unaffected.
var ErrUnknownPlayerSlot = errors.New("unknown player slot")

// ErrAccumulatorFinalized is returned when records are applied after the
// state machine reached Finalized.
var ErrAccumulatorFinalized = errors.New("accumulator already finalized")

// State of the accumulator: Empty until the first record, Accumulating
// while folding, Finalized once the input is exhausted.
type State int

const (
	StateEmpty State = iota
	StateAccumulating
	StateFinalized
)

// Warning records one recoverable per-event problem. Warnings accumulate
// beside successful output and never abort the replay.
type Warning struct {
	Seq    uint64 `json:"seq,omitempty"`
	Line   int    `json:"line,omitempty"`
	Reason string `json:"reason"`
}

// DocRef identifies a document by its owning slot and bank name.
type DocRef struct {
	Slot int
	Bank string
}

// Result is the outcome of one replay's fold.
type Result struct {
	// Documents in first-reference order, all finalized.
	Documents []*bank.Document
	Warnings  []Warning
	// ClientSignatures holds the signature bytes the client originally
	// recorded, hex-encoded, for documents whose stream carried one. Used
	// for verification against the recomputed signature.
	ClientSignatures map[DocRef]string
}

// Source yields decoded records in stream order. *replay.Reader satisfies
// it; tests use in-memory slices.
type Source interface {
	Next() (replay.Record, error)
}

// Accumulator folds preload bank writes into documents, one per distinct
// (slot, bank) pair, with last-write-wins semantics per (section, key).
// Writes sharing a sequence position resolve deterministically: the later
// one in iteration order wins.
type Accumulator struct {
	reg   *roster.Registry
	state State

	docs  map[DocRef]*bank.Document
	order []DocRef
	sigs  map[DocRef]string

	warnings []Warning
}

func New(reg *roster.Registry) *Accumulator {
	return &Accumulator{
		reg:  reg,
		docs: make(map[DocRef]*bank.Document),
		sigs: make(map[DocRef]string),
	}
}

func (a *Accumulator) State() State { return a.state }

// Run consumes the source until exhaustion or until the preload window
// closes (first record with a positive gameloop), then finalizes. Malformed
// records become warnings; an unknown player slot is fatal for the replay.
func (a *Accumulator) Run(src Source) (Result, error) {
	if a.state == StateFinalized {
		return Result{}, ErrAccumulatorFinalized
	}
	for {
		rec, err := src.Next()
		if err == io.EOF {
			break
		}
		var mErr *replay.MalformedRecordError
		if errors.As(err, &mErr) {
			a.warnings = append(a.warnings, Warning{Line: mErr.Line, Reason: mErr.Err.Error()})
			continue
		}
		if err != nil {
			return Result{}, err
		}
		if !rec.Preload() {
			break
		}
		if err := a.Apply(rec); err != nil {
			return Result{}, err
		}
	}
	return a.Finalize()
}

// Apply folds one record. Non-bank records and unknown kinds are dropped
// without error.
func (a *Accumulator) Apply(rec replay.Record) error {
	if a.state == StateFinalized {
		return ErrAccumulatorFinalized
	}
	a.state = StateAccumulating

	switch rec.Kind {
	case replay.KindBankWrite:
		return a.applyWrite(rec)
	case replay.KindBankSignature:
		return a.applySignature(rec)
	default:
		return nil
	}
}

func (a *Accumulator) applyWrite(rec replay.Record) error {
	w, err := filterWrite(rec)
	if err != nil {
		a.warnings = append(a.warnings, Warning{Seq: rec.Seq, Reason: err.Error()})
		return nil
	}
	if _, ok := a.reg.BySlot(w.Slot); !ok {
		return fmt.Errorf("%w: slot %d (seq %d, bank %q)", ErrUnknownPlayerSlot, w.Slot, w.Seq, w.Bank)
	}
	doc := a.document(DocRef{Slot: w.Slot, Bank: w.Bank})
	return doc.SetValue(w.Section, w.Key, w.Value, w.Signed)
}

func (a *Accumulator) applySignature(rec replay.Record) error {
	if _, ok := a.reg.BySlot(rec.Slot); !ok {
		return fmt.Errorf("%w: slot %d (seq %d, bank %q)", ErrUnknownPlayerSlot, rec.Slot, rec.Seq, rec.Bank)
	}
	if !validBankName(rec.Bank) {
		a.warnings = append(a.warnings, Warning{Seq: rec.Seq, Reason: fmt.Sprintf("invalid bank name %q", rec.Bank)})
		return nil
	}
	if rec.Signature != "" {
		a.sigs[DocRef{Slot: rec.Slot, Bank: rec.Bank}] = rec.Signature
	}
	return nil
}

// document returns the bank document for ref, creating it on first
// reference. A (slot, bank) pair with no writes never gets a document.
func (a *Accumulator) document(ref DocRef) *bank.Document {
	if doc, ok := a.docs[ref]; ok {
		return doc
	}
	doc := bank.NewDocument(ref.Slot, ref.Bank)
	a.docs[ref] = doc
	a.order = append(a.order, ref)
	return doc
}

// Finalize closes the state machine: every open document is finalized and
// the result handed over. Further Apply calls fail.
func (a *Accumulator) Finalize() (Result, error) {
	if a.state == StateFinalized {
		return Result{}, ErrAccumulatorFinalized
	}
	a.state = StateFinalized

	res := Result{
		Documents:        make([]*bank.Document, 0, len(a.order)),
		Warnings:         a.warnings,
		ClientSignatures: make(map[DocRef]string),
	}
	for _, ref := range a.order {
		doc := a.docs[ref]
		doc.Finalize()
		res.Documents = append(res.Documents, doc)
		if sig, ok := a.sigs[ref]; ok {
			res.ClientSignatures[ref] = sig
		}
	}
	return res, nil
}
