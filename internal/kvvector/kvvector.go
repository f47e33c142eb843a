// Package kvvector implements an ordered, duplicate-allowing key/value
// vector with a compact wire encoding, used by the Worker RPC protocol and
// by anything else that needs to move structured data across a pipe
// without pulling in a general-purpose serialization format.
package kvvector

import (
	"bytes"
	"fmt"
)

// Pair is a single key/value entry. Keys are not required to be unique;
// callers that want map-like semantics should dedupe before adding.
type Pair struct {
	Key   []byte
	Value []byte
}

// KVVector is an ordered collection of Pairs. The zero value is ready to
// use. Unlike the upstream C kvvec, there's no separate alloc/grow step —
// append does that for us — but Sort/Lookup preserve the same semantics:
// sorted vectors binary-search, unsorted ones scan linearly.
type KVVector struct {
	pairs  []Pair
	sorted bool
}

// New returns an empty vector, optionally pre-sizing its backing slice.
func New(hint int) *KVVector {
	kv := &KVVector{}
	if hint > 0 {
		kv.pairs = make([]Pair, 0, hint)
	}
	return kv
}

// Len returns the number of pairs.
func (v *KVVector) Len() int { return len(v.pairs) }

// Pairs returns the underlying pairs in insertion (or sorted) order.
// Callers must not mutate the returned slice's length.
func (v *KVVector) Pairs() []Pair { return v.pairs }

// Add appends a key/value pair. Adding after Sort marks the vector
// unsorted again, matching the upstream kvv_sorted invalidation on insert.
func (v *KVVector) Add(key, value []byte) {
	v.pairs = append(v.pairs, Pair{Key: key, Value: value})
	v.sorted = false
}

// AddString is a convenience wrapper around Add for string-typed callers.
func (v *KVVector) AddString(key, value string) {
	v.Add([]byte(key), []byte(value))
}

// AddLong encodes a signed integer the way kvvec_addkv_long does (%ld).
func (v *KVVector) AddLong(key string, value int64) {
	v.AddString(key, fmt.Sprintf("%d", value))
}

// cmpBytes implements val_compare: memcmp over the shorter length, then
// break ties by length. nil sorts before any non-nil value.
func cmpBytes(a, b []byte) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	if diff := bytes.Compare(a[:min(len(a), len(b))], b[:min(len(a), len(b))]); diff != 0 {
		return diff
	}
	return len(a) - len(b)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func cmpPair(a, b Pair) int {
	if d := cmpBytes(a.Key, b.Key); d != 0 {
		return d
	}
	return cmpBytes(a.Value, b.Value)
}

// Sort orders pairs by (key, then value) using memcmp-then-length
// ordering, matching the upstream kv_compare/val_compare pair. After Sort,
// Lookup uses binary search.
func (v *KVVector) Sort() {
	// an insertion sort over cmpPair is enough for the small vectors this
	// protocol deals in.
	sortPairs(v.pairs)
	v.sorted = true
}

func sortPairs(pairs []Pair) {
	// simple, stable, non-recursive sort: the vectors here are a handful
	// of command/downtime/notification fields, never worth qsort's
	// constant-factor tuning.
	for i := 1; i < len(pairs); i++ {
		for j := i; j > 0 && cmpPair(pairs[j-1], pairs[j]) > 0; j-- {
			pairs[j-1], pairs[j] = pairs[j], pairs[j-1]
		}
	}
}

// Lookup finds the first pair with the given key. If the vector is
// sorted, it binary-searches by key only (ties among equal keys resolve
// to an unspecified but deterministic match, mirroring kvvec_fetch's
// behavior of returning whichever matching node the search lands on).
// If unsorted, it scans linearly in insertion order and returns the
// first match, so duplicate keys resolve predictably.
func (v *KVVector) Lookup(key []byte) (Pair, bool) {
	if v.sorted {
		lo, hi := 0, len(v.pairs)
		for lo < hi {
			mid := (lo + hi) / 2
			diff := cmpBytes(v.pairs[mid].Key, key)
			if diff > 0 {
				hi = mid
			} else if diff < 0 {
				lo = mid + 1
			} else {
				return v.pairs[mid], true
			}
		}
		return Pair{}, false
	}
	for _, p := range v.pairs {
		if bytes.Equal(p.Key, key) {
			return p, true
		}
	}
	return Pair{}, false
}

// LookupString is a convenience wrapper returning the value as a string.
func (v *KVVector) LookupString(key string) (string, bool) {
	p, ok := v.Lookup([]byte(key))
	if !ok {
		return "", false
	}
	return string(p.Value), true
}

// DecodePolicy controls whether Decode copies key/value bytes out of the
// input buffer (COPY) or keeps slices referencing it (ASSIGN, the default
// — cheaper, but the caller must keep the source buffer alive).
type DecodePolicy int

const (
	// Assign keeps Pair.Key/Value as subslices of the input buffer.
	Assign DecodePolicy = iota
	// Copy duplicates each key/value into its own backing array.
	Copy
)

// Encode produces the compact wire form: each pair is "key<kvsep>value<pairsep>",
// matching kvvec2buf. An empty value still gets its kvsep but no bytes
// before the pair separator.
func Encode(v *KVVector, kvSep, pairSep byte) []byte {
	var buf bytes.Buffer
	for _, p := range v.pairs {
		buf.Write(p.Key)
		buf.WriteByte(kvSep)
		buf.Write(p.Value)
		buf.WriteByte(pairSep)
	}
	return buf.Bytes()
}

// Decode parses a buffer produced by Encode (or an equivalent wire
// producer) back into a vector, matching buf2kvvec_prealloc. Decoding
// stops at a key whose first byte is zero; an unterminated last pair (no
// trailing pairSep after its value) is accepted, matching the upstream
// "last pair doesn't need a pair separator" behavior — but a pair whose
// key segment contains no kvSep at all is a hard parse error rather than
// a silent skip, because without a key/value boundary there's no pair to
// even partially recover. This resolves the grammar ambiguity around
// unterminated input without ever indexing past the scanned token: every
// lookup below is bounds-checked before use, so a short/garbled buffer
// produces an error, not a panic.
func Decode(data []byte, kvSep, pairSep byte, policy DecodePolicy) (*KVVector, error) {
	v := New(0)
	offset := 0
	for offset < len(data) {
		if data[offset] == 0 {
			break
		}
		rest := data[offset:]
		sepIdx := bytes.IndexByte(rest, kvSep)
		if sepIdx < 0 {
			return nil, fmt.Errorf("kvvector: truncated pair at offset %d: no key separator found", offset)
		}
		if p := bytes.IndexByte(rest, pairSep); p >= 0 && p < sepIdx {
			return nil, fmt.Errorf("kvvector: truncated pair at offset %d: no key separator found", offset)
		}
		key := rest[:sepIdx]
		afterKey := rest[sepIdx+1:]

		var value []byte
		pairIdx := bytes.IndexByte(afterKey, pairSep)
		if pairIdx < 0 {
			// Unterminated last pair: the remainder of the buffer is the
			// value, with no trailing pair separator required.
			value = afterKey
			offset = len(data)
		} else {
			value = afterKey[:pairIdx]
			offset += sepIdx + 1 + pairIdx + 1
		}

		if policy == Copy {
			k := make([]byte, len(key))
			copy(k, key)
			val := make([]byte, len(value))
			copy(val, value)
			v.Add(k, val)
		} else {
			v.Add(key, value)
		}
	}
	return v, nil
}
