// Package decode turns the sparse vPIC variable list into a VehicleSummary.
package decode

import (
	"strconv"
	"strings"

	"github.com/WessleyAI/vincheck/engine/vpic"
)

// Key addresses a decoder variable either by numeric id or by name.
type Key struct {
	id   int
	name string
}

// ID returns a key matching VariableId.
func ID(n int) Key { return Key{id: n} }

// Name returns a key matching Variable, case-insensitively.
func Name(s string) Key { return Key{name: s} }

func (k Key) String() string {
	if k.name != "" {
		return "name:" + k.name
	}
	return "id:" + strconv.Itoa(k.id)
}

func (k Key) matches(r vpic.DecodeResult) bool {
	if k.name != "" {
		return strings.EqualFold(r.Variable, k.name)
	}
	return r.VariableID == k.id
}

// Fields is a decode result set.
type Fields []vpic.DecodeResult

// Lookup returns the value of the first entry matching k. Later duplicates are
// never consulted, so an empty first match is a miss.
func (f Fields) Lookup(k Key) (string, bool) {
	for _, r := range f {
		if !k.matches(r) {
			continue
		}
		if r.Value == nil || *r.Value == "" {
			return "", false
		}
		return *r.Value, true
	}
	return "", false
}

// ByID is Lookup(ID(id)).
func (f Fields) ByID(id int) (string, bool) { return f.Lookup(ID(id)) }

// ByName is Lookup(Name(name)).
func (f Fields) ByName(name string) (string, bool) { return f.Lookup(Name(name)) }

// FirstOf returns the first non-empty value among keys, in order.
func (f Fields) FirstOf(keys ...Key) (string, bool) {
	for _, k := range keys {
		if v, ok := f.Lookup(k); ok {
			return v, true
		}
	}
	return "", false
}

// Or returns the first non-empty value among keys or fallback.
func (f Fields) Or(fallback string, keys ...Key) string {
	if v, ok := f.FirstOf(keys...); ok {
		return v
	}
	return fallback
}
