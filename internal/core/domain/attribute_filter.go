package domain

import (
	"errors"
	"fmt"
)

// Filter operators. Leaves compare a file attribute against a value;
// compounds combine child filters.
const (
	FilterEq  = "eq"
	FilterNe  = "ne"
	FilterGt  = "gt"
	FilterGte = "gte"
	FilterLt  = "lt"
	FilterLte = "lte"
	FilterAnd = "and"
	FilterOr  = "or"
)

// AttributeFilter restricts candidate chunks by file-level key/value
// attributes. It is a tree: a node is either a comparison leaf
// ({"type":"eq","key":"author","value":"jane"}) or a compound node
// ({"type":"and","filters":[...]}). The orchestrator enforces no depth
// limit; the backend rejects pathological trees.
type AttributeFilter struct {
	Type    string            `json:"type"`
	Key     string            `json:"key,omitempty"`
	Value   any               `json:"value,omitempty"`
	Filters []AttributeFilter `json:"filters,omitempty"`
}

// IsCompound reports whether this node combines child filters.
func (f *AttributeFilter) IsCompound() bool {
	return f.Type == FilterAnd || f.Type == FilterOr
}

// Validate checks the tree shape: leaves need a key, compounds need at
// least one child, and operators must be known.
func (f *AttributeFilter) Validate() error {
	switch f.Type {
	case FilterAnd, FilterOr:
		if len(f.Filters) == 0 {
			return WrapError(ErrInvalidInput, "validate filter",
				fmt.Errorf("compound %q filter has no children", f.Type))
		}
		for i := range f.Filters {
			if err := f.Filters[i].Validate(); err != nil {
				return err
			}
		}
		return nil
	case FilterEq, FilterNe, FilterGt, FilterGte, FilterLt, FilterLte:
		if f.Key == "" {
			return WrapError(ErrInvalidInput, "validate filter",
				errors.New("comparison filter requires a key"))
		}
		if f.Value == nil {
			return WrapError(ErrInvalidInput, "validate filter",
				fmt.Errorf("comparison filter on %q requires a value", f.Key))
		}
		return nil
	default:
		return WrapError(ErrInvalidInput, "validate filter",
			fmt.Errorf("unknown filter operator %q", f.Type))
	}
}

// FilterEquals builds an equality leaf.
func FilterEquals(key string, value any) *AttributeFilter {
	return &AttributeFilter{Type: FilterEq, Key: key, Value: value}
}

// FilterAll builds an "and" compound over the given children.
func FilterAll(children ...AttributeFilter) *AttributeFilter {
	return &AttributeFilter{Type: FilterAnd, Filters: children}
}

// FilterAny builds an "or" compound over the given children.
func FilterAny(children ...AttributeFilter) *AttributeFilter {
	return &AttributeFilter{Type: FilterOr, Filters: children}
}
