package bank

import (
	"errors"
	"fmt"
)

// ErrFinalized is returned when a write is attempted on a finalized document.
var ErrFinalized = errors.New("document is finalized")

// Key holds the current value for a named key plus the signed marker carried
// from the write event that last set it.
type Key struct {
	name   string
	value  Value
	signed bool
}

func (k *Key) Name() string { return k.name }
func (k *Key) Value() Value { return k.value }
func (k *Key) Signed() bool { return k.signed }

// Section is an insertion-ordered, name-keyed group of keys.
type Section struct {
	name  string
	keys  []*Key
	index map[string]*Key
}

func (s *Section) Name() string { return s.name }

// Keys returns the section's keys in insertion order.
func (s *Section) Keys() []*Key { return s.keys }

func (s *Section) Key(name string) (*Key, bool) {
	k, ok := s.index[name]
	return k, ok
}

// Document is the in-memory form of one bank owned by one player slot.
// Sections and keys are created lazily on first write; a later write to the
// same (section, key) overwrites in place, so replaying the same event
// sequence any number of times yields the same final state.
type Document struct {
	slot      int
	name      string
	sections  []*Section
	index     map[string]*Section
	finalized bool
}

func NewDocument(slot int, name string) *Document {
	return &Document{
		slot:  slot,
		name:  name,
		index: make(map[string]*Section),
	}
}

func (d *Document) Slot() int    { return d.slot }
func (d *Document) Name() string { return d.name }

// Sections returns the document's sections in insertion order.
func (d *Document) Sections() []*Section { return d.sections }

func (d *Document) Section(name string) (*Section, bool) {
	s, ok := d.index[name]
	return s, ok
}

// SetValue records a write of value into (section, key). Both are created on
// first reference; subsequent writes replace the key's value and signed
// marker. Names are case-sensitive and must be non-empty.
func (d *Document) SetValue(section, key string, value Value, signed bool) error {
	if d.finalized {
		return fmt.Errorf("%w: write to %s/%s", ErrFinalized, section, key)
	}
	if section == "" {
		return fmt.Errorf("empty section name")
	}
	if key == "" {
		return fmt.Errorf("empty key name")
	}

	sec, ok := d.index[section]
	if !ok {
		sec = &Section{name: section, index: make(map[string]*Key)}
		d.index[section] = sec
		d.sections = append(d.sections, sec)
	}

	if k, ok := sec.index[key]; ok {
		k.value = value
		k.signed = signed
		return nil
	}
	k := &Key{name: key, value: value, signed: signed}
	sec.index[key] = k
	sec.keys = append(sec.keys, k)
	return nil
}

// Finalize freezes the document. Any SetValue after Finalize fails with
// ErrFinalized. Finalize is idempotent.
func (d *Document) Finalize() {
	d.finalized = true
}

func (d *Document) Finalized() bool { return d.finalized }

// Signed reports whether any key in the document carries a signed value.
// Derived from the tree on demand, never stored.
func (d *Document) Signed() bool {
	for _, sec := range d.sections {
		for _, k := range sec.keys {
			if k.signed {
				return true
			}
		}
	}
	return false
}

func (d *Document) SectionCount() int { return len(d.sections) }

func (d *Document) KeyCount() int {
	n := 0
	for _, sec := range d.sections {
		n += len(sec.keys)
	}
	return n
}
