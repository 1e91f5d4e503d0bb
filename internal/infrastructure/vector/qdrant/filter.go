package qdrant

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ScriptSmith/hadrian-sub004/internal/core/domain"
)

// maxFilterDepth bounds attribute filter recursion. Deeper trees are
// rejected rather than translated.
const maxFilterDepth = 8

// translateFilter turns a domain chunk filter into a Qdrant filter
// object. File-id restrictions and the attribute tree are combined under
// a single "must" so both have to hold.
func translateFilter(filter *domain.ChunkFilter) (map[string]any, error) {
	if filter == nil {
		return nil, nil
	}

	var must []any
	if len(filter.FileIDs) > 0 {
		ids := make([]string, 0, len(filter.FileIDs))
		for _, id := range filter.FileIDs {
			ids = append(ids, id.String())
		}
		must = append(must, map[string]any{
			"key":   "file_id",
			"match": map[string]any{"any": ids},
		})
	}

	if filter.Attributes != nil {
		if err := filter.Attributes.Validate(); err != nil {
			return nil, err
		}
		cond, err := translateAttribute(filter.Attributes, 0)
		if err != nil {
			return nil, err
		}
		must = append(must, cond)
	}

	if len(must) == 0 {
		return nil, nil
	}
	return map[string]any{"must": must}, nil
}

func translateAttribute(f *domain.AttributeFilter, depth int) (map[string]any, error) {
	if depth >= maxFilterDepth {
		return nil, domain.WrapError(domain.ErrInvalidInput, "translate filter",
			fmt.Errorf("filter nesting exceeds depth %d", maxFilterDepth))
	}

	if f.IsCompound() {
		children := make([]any, 0, len(f.Filters))
		for i := range f.Filters {
			cond, err := translateAttribute(&f.Filters[i], depth+1)
			if err != nil {
				return nil, err
			}
			children = append(children, cond)
		}
		if f.Type == domain.FilterAnd {
			return map[string]any{"must": children}, nil
		}
		return map[string]any{"should": children}, nil
	}

	key := "attributes." + f.Key
	switch f.Type {
	case domain.FilterEq:
		return map[string]any{"key": key, "match": map[string]any{"value": f.Value}}, nil
	case domain.FilterNe:
		return map[string]any{
			"must_not": []any{
				map[string]any{"key": key, "match": map[string]any{"value": f.Value}},
			},
		}, nil
	case domain.FilterGt, domain.FilterGte, domain.FilterLt, domain.FilterLte:
		n, err := numericValue(f.Value)
		if err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "translate filter",
				fmt.Errorf("range filter on %q: %w", f.Key, err))
		}
		return map[string]any{"key": key, "range": map[string]any{f.Type: n}}, nil
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "translate filter",
			fmt.Errorf("unknown filter operator %q", f.Type))
	}
}

func numericValue(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	default:
		return 0, errors.New("value is not numeric")
	}
}
