package bank

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind enumerates the persisted value kinds a bank can hold. The wire codes
// match the client protocol's data-kind enum; UNIT/POINT/COMPLEX variants are
// not representable as a single stored value and are rejected upstream.
type Kind int

const (
	KindFixed Kind = iota
	KindFlag
	KindInt
	KindString
	KindText
)

// MaxStringLen is the byte limit for the bounded string kind. Longer payloads
// belong to the text kind.
const MaxStringLen = 255

var kindNames = map[Kind]string{
	KindFixed:  "fixed",
	KindFlag:   "flag",
	KindInt:    "int",
	KindString: "string",
	KindText:   "text",
}

var kindByName = map[string]Kind{
	"fixed":  KindFixed,
	"flag":   KindFlag,
	"int":    KindInt,
	"string": KindString,
	"text":   KindText,
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Attr is the attribute name carrying the value in the serialized form.
// Identical to String for the supported kinds.
func (k Kind) Attr() string { return k.String() }

// ParseKind maps a decoder kind tag to a Kind.
func ParseKind(s string) (Kind, error) {
	k, ok := kindByName[s]
	if !ok {
		return 0, fmt.Errorf("unsupported value kind %q", s)
	}
	return k, nil
}

// ErrTypeMismatch is returned by typed accessors when the stored kind does
// not match the accessor's kind.
var ErrTypeMismatch = errors.New("value type mismatch")

// Value is an immutable tagged variant of one of the five persisted kinds.
// A later write to the same key replaces the Value, it never mutates one.
type Value struct {
	kind  Kind
	num   int64 // int; flag as 0/1; fixed mantissa
	scale int   // fixed: count of fractional decimal digits
	str   string
}

func NewInt(v int64) Value { return Value{kind: KindInt, num: v} }

func NewText(s string) Value { return Value{kind: KindText, str: s} }

func NewFlag(v bool) Value {
	var b int64
	if v {
		b = 1
	}
	return Value{kind: KindFlag, num: b}
}

// NewFixed builds a fixed-point value from an integer mantissa and a decimal
// scale (number of fractional digits). Scale 0 renders as a plain integer.
func NewFixed(mantissa int64, scale int) Value {
	if scale < 0 {
		scale = 0
	}
	return Value{kind: KindFixed, num: mantissa, scale: scale}
}

func NewString(s string) (Value, error) {
	if len(s) > MaxStringLen {
		return Value{}, fmt.Errorf("string value exceeds %d bytes (%d)", MaxStringLen, len(s))
	}
	return Value{kind: KindString, str: s}, nil
}

// Parse constructs a Value from a decoder payload: a kind tag plus the raw
// textual form the client wrote. No floating point is involved for the fixed
// kind; the decimal text is kept exact as mantissa+scale.
func Parse(kind, raw string) (Value, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return Value{}, err
	}
	switch k {
	case KindInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("int value %q: %w", raw, err)
		}
		return NewInt(n), nil
	case KindFixed:
		m, scale, err := parseFixed(raw)
		if err != nil {
			return Value{}, err
		}
		return NewFixed(m, scale), nil
	case KindFlag:
		switch raw {
		case "0", "false":
			return NewFlag(false), nil
		case "1", "true":
			return NewFlag(true), nil
		}
		return Value{}, fmt.Errorf("flag value %q: want 0 or 1", raw)
	case KindString:
		return NewString(raw)
	case KindText:
		return NewText(raw), nil
	}
	return Value{}, fmt.Errorf("unsupported value kind %q", kind)
}

func parseFixed(raw string) (mantissa int64, scale int, err error) {
	s := raw
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	intPart, fracPart, hasDot := strings.Cut(s, ".")
	if intPart == "" && fracPart == "" {
		return 0, 0, fmt.Errorf("fixed value %q: empty", raw)
	}
	if intPart == "" {
		intPart = "0"
	}
	if hasDot && fracPart == "" {
		return 0, 0, fmt.Errorf("fixed value %q: trailing dot", raw)
	}
	digits := intPart + fracPart
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, 0, fmt.Errorf("fixed value %q: invalid digit", raw)
		}
	}
	m, perr := strconv.ParseInt(digits, 10, 64)
	if perr != nil {
		return 0, 0, fmt.Errorf("fixed value %q: %w", raw, perr)
	}
	if neg {
		m = -m
	}
	return m, len(fracPart), nil
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) Int() (int64, error) {
	if v.kind != KindInt {
		return 0, fmt.Errorf("%w: have %s, want int", ErrTypeMismatch, v.kind)
	}
	return v.num, nil
}

func (v Value) Flag() (bool, error) {
	if v.kind != KindFlag {
		return false, fmt.Errorf("%w: have %s, want flag", ErrTypeMismatch, v.kind)
	}
	return v.num != 0, nil
}

func (v Value) Fixed() (mantissa int64, scale int, err error) {
	if v.kind != KindFixed {
		return 0, 0, fmt.Errorf("%w: have %s, want fixed", ErrTypeMismatch, v.kind)
	}
	return v.num, v.scale, nil
}

func (v Value) Str() (string, error) {
	if v.kind != KindString {
		return "", fmt.Errorf("%w: have %s, want string", ErrTypeMismatch, v.kind)
	}
	return v.str, nil
}

func (v Value) Text() (string, error) {
	if v.kind != KindText {
		return "", fmt.Errorf("%w: have %s, want text", ErrTypeMismatch, v.kind)
	}
	return v.str, nil
}

// Render produces the exact textual form the serialized document carries.
// Fixed values reproduce the original decimal representation digit for digit.
func (v Value) Render() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.num, 10)
	case KindFlag:
		if v.num != 0 {
			return "1"
		}
		return "0"
	case KindFixed:
		return renderFixed(v.num, v.scale)
	default:
		return v.str
	}
}

func renderFixed(mantissa int64, scale int) string {
	if scale == 0 {
		return strconv.FormatInt(mantissa, 10)
	}
	neg := mantissa < 0
	abs := mantissa
	if neg {
		abs = -abs
	}
	digits := strconv.FormatInt(abs, 10)
	for len(digits) <= scale {
		digits = "0" + digits
	}
	out := digits[:len(digits)-scale] + "." + digits[len(digits)-scale:]
	if neg {
		out = "-" + out
	}
	return out
}
