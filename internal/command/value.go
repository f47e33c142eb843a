package command

import (
	"fmt"
	"strconv"
	"time"
)

// Value holds one bound argument's concrete data. Only the field matching
// the descriptor's ArgType is meaningful; the rest are zero. Object-typed
// arguments (Host, HostGroup, Contact, ContactGroup, ServiceGroup,
// Timeperiod) use StringV for the object name; Service uses both
// HostName and StringV (the service description), since a service
// argument consumes two positional tokens.
type Value struct {
	BoolV      bool
	IntV       int
	ULongV     uint64
	TimestampV time.Time
	DoubleV    float64
	StringV    string
	HostName   string // only meaningful when Type == Service
}

// strictParseInt mirrors strtol: rejects empty input and trailing
// garbage, and surfaces overflow, matching the upstream parse_integer.
func strictParseInt(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty integer")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q: %w", s, err)
	}
	if n > int64(int(^uint(0)>>1)) || n < int64(-int(^uint(0)>>1)-1) {
		return 0, fmt.Errorf("integer %q overflows", s)
	}
	return int(n), nil
}

// strictParseULong mirrors strtoul: rejects empty input, a leading '-'
// (strtoul on most libcs silently wraps negative input, but the upstream
// parse_ulong explicitly rejects a leading minus — see parse_ulong in
// src/naemon/utils.c), and any trailing non-numeric characters.
func strictParseULong(s string) (uint64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty unsigned integer")
	}
	if s[0] == '-' {
		return 0, fmt.Errorf("unsigned integer %q must not be negative", s)
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid unsigned integer %q: %w", s, err)
	}
	return n, nil
}

// strictParseDouble mirrors strtod: rejects empty input and any
// trailing non-numeric characters ("12abc" is a parse error, not 12).
func strictParseDouble(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty double")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid double %q: %w", s, err)
	}
	return f, nil
}

// ParseValue converts a raw token into a typed Value per the argument
// descriptor's type. TIMESTAMP is a terminal case in its own right: it
// shares the ULONG scanner (a timestamp is, on the wire, an unsigned
// decimal integer) but never falls through to or from the ULONG case,
// matching the decision recorded in SPEC_FULL.md's Open Questions.
func ParseValue(t ArgType, raw string) (Value, error) {
	switch t {
	case Bool:
		switch raw {
		case "0":
			return Value{BoolV: false}, nil
		case "1":
			return Value{BoolV: true}, nil
		default:
			return Value{}, fmt.Errorf("bool argument must be 0 or 1, got %q", raw)
		}
	case Int:
		n, err := strictParseInt(raw)
		if err != nil {
			return Value{}, err
		}
		return Value{IntV: n}, nil
	case ULong:
		n, err := strictParseULong(raw)
		if err != nil {
			return Value{}, err
		}
		return Value{ULongV: n}, nil
	case Timestamp:
		n, err := strictParseULong(raw)
		if err != nil {
			return Value{}, err
		}
		return Value{TimestampV: time.Unix(int64(n), 0)}, nil
	case Double:
		f, err := strictParseDouble(raw)
		if err != nil {
			return Value{}, err
		}
		return Value{DoubleV: f}, nil
	case String, Host, HostGroup, ServiceGroup, Contact, ContactGroup, Timeperiod, CustomVar:
		return Value{StringV: raw}, nil
	case Service:
		return Value{StringV: raw}, nil
	default:
		return Value{}, fmt.Errorf("unsupported argument type %v", t)
	}
}
