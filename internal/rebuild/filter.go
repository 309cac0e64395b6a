package rebuild

import (
	"fmt"
	"strings"

	"github.com/Talv/sc2-repdump/internal/bank"
	"github.com/Talv/sc2-repdump/internal/replay"
)

// PreloadWrite is one filtered bank write: the unit the accumulator folds.
type PreloadWrite struct {
	Slot    int
	Bank    string
	Section string
	Key     string
	Value   bank.Value
	Signed  bool
	Seq     uint64
}

// filterWrite converts a bank_write record into a PreloadWrite. An error
// means the single record is malformed; the caller counts a warning and
// moves on.
func filterWrite(rec replay.Record) (PreloadWrite, error) {
	if !validBankName(rec.Bank) {
		return PreloadWrite{}, fmt.Errorf("invalid bank name %q", rec.Bank)
	}
	if rec.Section == "" {
		return PreloadWrite{}, fmt.Errorf("bank %q: empty section name", rec.Bank)
	}
	if rec.Key == "" {
		return PreloadWrite{}, fmt.Errorf("bank %q: empty key name", rec.Bank)
	}
	v, err := bank.Parse(rec.ValueKind, rec.ValueData)
	if err != nil {
		return PreloadWrite{}, fmt.Errorf("bank %q key %q: %w", rec.Bank, rec.Key, err)
	}
	return PreloadWrite{
		Slot:    rec.Slot,
		Bank:    rec.Bank,
		Section: rec.Section,
		Key:     rec.Key,
		Value:   v,
		Signed:  rec.Signed,
		Seq:     rec.Seq,
	}, nil
}

// validBankName accepts names usable as a client bank filename: non-empty,
// no control characters, no path separators or reserved filename characters.
func validBankName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return false
		}
		if strings.ContainsRune(`/\:*?"<>|`, r) {
			return false
		}
	}
	return true
}
