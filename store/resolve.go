package store

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/minios-linux/termkit/term"
)

var errStop = errors.New("stop iteration")

// Query selects the translation returned by Resolve.
type Query struct {
	// Name is matched exactly. With a Source it narrows the match,
	// without one it is the lookup key.
	Name string
	// Types restricts the term type; empty accepts any type.
	Types []term.Type
	// Lang is matched exactly.
	Lang string
	// Source, when set, is the lookup key and the fallback result.
	Source string
	// ResIDs restricts res_id when non-empty.
	ResIDs []int64
}

func (q Query) cacheKey() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "r\x00%s\x00%s\x00%s\x00", q.Name, q.Lang, q.Source)
	for _, t := range q.Types {
		sb.WriteString(string(t))
		sb.WriteByte(',')
	}
	sb.WriteByte(0)
	for _, id := range q.ResIDs {
		fmt.Fprintf(&sb, "%d,", id)
	}
	return sb.String()
}

func (q Query) accepts(t *term.Term) bool {
	if t.Value == "" {
		return false
	}
	if len(q.Types) > 0 && !slices.Contains(q.Types, t.Type) {
		return false
	}
	if q.Source != "" && q.Name != "" && t.Name != q.Name {
		return false
	}
	if len(q.ResIDs) > 0 && !slices.Contains(q.ResIDs, t.ResID) {
		return false
	}
	return true
}

// Resolve returns the translation best matching q. When nothing
// matches it returns q.Source, which is empty for name lookups.
// Results are memoized until the next write.
func (s *Store) Resolve(ctx context.Context, q Query) (string, error) {
	key := q.cacheKey()
	if v, ok := s.cache.Get(key); ok {
		return v.(string), nil
	}

	value := q.Source
	err := s.View(ctx, func(tx *Tx) error {
		idx, field := tx.byName, q.Name
		if q.Source != "" {
			idx, field = tx.bySource, q.Source
		}
		return tx.scan(idx, q.Lang, field, func(t *term.Term) error {
			if q.accepts(t) {
				value = t.Value
				return errStop
			}
			return nil
		})
	})
	if err != nil && !errors.Is(err, errStop) {
		return "", err
	}

	s.cache.Add(key, value)
	return value, nil
}

// ResolveIDs returns the translations of name for each record id that
// has one. Ids without a translation are absent from the result.
func (s *Store) ResolveIDs(ctx context.Context, name string, typ term.Type, lang string, ids []int64) (map[int64]string, error) {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	key := fmt.Sprintf("i\x00%s\x00%s\x00%s\x00%v", name, typ, lang, sorted)
	if v, ok := s.cache.Get(key); ok {
		return maps.Clone(v.(map[int64]string)), nil
	}

	out := make(map[int64]string, len(ids))
	err := s.View(ctx, func(tx *Tx) error {
		return tx.scan(tx.byName, lang, name, func(t *term.Term) error {
			if t.Type != typ || t.Value == "" || !slices.Contains(sorted, t.ResID) {
				return nil
			}
			if _, seen := out[t.ResID]; !seen {
				out[t.ResID] = t.Value
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.cache.Add(key, maps.Clone(out))
	return out, nil
}
