package xschema

import (
	"fmt"
	"sort"
	"strconv"
)

// KeyTuple is a canonicalized, comparable representation of the values
// extracted at an extension site: a single value for [Whole] member specs,
// or an ordered list of member values for [Keys] specs (spec §4.E).
//
// Two tuples compare equal iff every element canonicalizes identically:
// JSON numbers compare by numeric value (1 and 1.0 are the same key),
// strings compare byte-wise, and mappings/sequences compare structurally
// after recursively canonicalizing their elements.
type KeyTuple struct {
	elems []string // canonical, comparable encoding of each tuple element
}

// Elements reports how many values make up the tuple.
func (t KeyTuple) Elements() int { return len(t.elems) }

// Equal reports whether two tuples canonicalize identically.
func (t KeyTuple) Equal(other KeyTuple) bool {
	if len(t.elems) != len(other.elems) {
		return false
	}
	for i := range t.elems {
		if t.elems[i] != other.elems[i] {
			return false
		}
	}

	return true
}

// Key returns a single string uniquely identifying the tuple, suitable for
// use as a map key. Distinct tuples never collide; equal tuples always
// produce the same key.
func (t KeyTuple) Key() string {
	s := ""
	for _, e := range t.elems {
		s += strconv.Itoa(len(e)) + ":" + e + "|"
	}

	return s
}

func (t KeyTuple) String() string {
	return fmt.Sprintf("%v", t.elems)
}

// NewWholeTuple builds a 1-element [KeyTuple] from a single resolved value.
func NewWholeTuple(v any) KeyTuple {
	return KeyTuple{elems: []string{canonicalize(v)}}
}

// NewMemberTuple builds a [KeyTuple] from the ordered values found at a set
// of member names within a mapping. Missing members are recorded as an
// untypeable marker distinct from any present value, so a tuple with an
// absent member never equals one where that member is present and null.
func NewMemberTuple(obj map[string]any, members []string) KeyTuple {
	elems := make([]string, len(members))
	for i, m := range members {
		if v, ok := obj[m]; ok {
			elems[i] = canonicalize(v)
		} else {
			elems[i] = "\x00missing"
		}
	}

	return KeyTuple{elems: elems}
}

// canonicalize produces a byte-wise-comparable encoding of a decoded JSON
// value such that distinct JSON representations of the same value (e.g.
// 1 and 1.0, or two structurally equal objects with keys in different
// order) canonicalize identically.
func canonicalize(v any) string {
	switch t := v.(type) {
	case nil:
		return "n"
	case bool:
		if t {
			return "b1"
		}

		return "b0"
	case string:
		return "s" + t
	case float64:
		return "f" + strconv.FormatFloat(t, 'g', -1, 64)
	case int:
		return "f" + strconv.FormatFloat(float64(t), 'g', -1, 64)
	case int64:
		return "f" + strconv.FormatFloat(float64(t), 'g', -1, 64)
	case uint64:
		return "f" + strconv.FormatFloat(float64(t), 'g', -1, 64)
	case float32:
		return "f" + strconv.FormatFloat(float64(t), 'g', -1, 64)
	case []any:
		s := "a["
		for _, e := range t {
			s += canonicalize(e) + ","
		}

		return s + "]"
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		s := "o{"
		for _, k := range keys {
			s += "s" + k + ":" + canonicalize(t[k]) + ","
		}

		return s + "}"
	default:
		return fmt.Sprintf("x%v", t)
	}
}
