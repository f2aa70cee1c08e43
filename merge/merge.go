// Package merge imports a batch of translated rows for one language into
// the term store.
//
// A batch goes through three phases. Stage normalizes the rows into an
// arena and marks the ones that reference records by external id.
// Resolve maps those external ids to record ids in one registry call and
// drops orphans. Merge then runs, in a single store transaction, an
// optional overwrite pass over matching persisted rows followed by an
// insert pass for rows that match nothing.
package merge

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/minios-linux/termkit/store"
	"github.com/minios-linux/termkit/term"
)

// Row is one incoming translation. Exactly one of ResID (possibly 0 for
// terms that are not record-scoped) or XMLID identifies the record.
type Row struct {
	Type     term.Type
	Name     string
	ResID    int64
	XMLID    string
	Module   string
	Source   string
	Value    string
	Comments []string
}

// Options control one merge call.
type Options struct {
	// Overwrite replaces persisted values with non-empty incoming ones.
	Overwrite bool
	// Module is used for rows that carry no module of their own.
	Module string
}

// Result summarizes a merge. Rows = Staged + Invalid, and Staged =
// Orphans + rows that reached the merge passes.
type Result struct {
	Rows     int
	Staged   int
	Invalid  int
	Orphans  int
	Updated  int
	Inserted int
}

// Resolver maps external ids to record ids. Refs it cannot resolve are
// absent from the result.
type Resolver interface {
	Lookup(ctx context.Context, refs []store.XMLRef) (map[store.XMLRef]int64, error)
}

// Engine merges row batches into a store.
type Engine struct {
	st       *store.Store
	resolver Resolver
	log      zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithResolver replaces the store's own external id registry.
func WithResolver(r Resolver) Option {
	return func(e *Engine) { e.resolver = r }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l.With().Str("sys", "merge").Logger() }
}

// New creates an Engine over st.
func New(st *store.Store, opts ...Option) *Engine {
	e := &Engine{st: st, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	if e.resolver == nil {
		e.resolver = st.Registry()
	}
	return e
}

// staged is one arena slot.
type staged struct {
	term       term.Term
	ref        store.XMLRef
	unresolved bool
	orphan     bool
}

// Merge imports rows for lang. Unresolvable and invalid rows are counted
// and dropped; only stage, registry or transaction failures are
// returned, and on error nothing is written.
func (e *Engine) Merge(ctx context.Context, lang string, rows []Row, opts Options) (Result, error) {
	res := Result{Rows: len(rows)}

	arena := e.stage(lang, rows, opts, &res)
	if err := e.resolve(ctx, arena, &res); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	err := e.st.Update(ctx, func(tx *store.Tx) error {
		if opts.Overwrite {
			n, err := overwrite(tx, arena)
			if err != nil {
				return err
			}
			res.Updated = n
		}
		n, err := insert(tx, arena)
		if err != nil {
			return err
		}
		res.Inserted = n
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("merging %d rows: %w", len(rows), err)
	}

	e.log.Info().
		Str("lang", lang).
		Int("rows", res.Rows).
		Int("invalid", res.Invalid).
		Int("orphans", res.Orphans).
		Int("updated", res.Updated).
		Int("inserted", res.Inserted).
		Msg("merge finished")
	return res, nil
}

// stage copies valid rows into the arena.
func (e *Engine) stage(lang string, rows []Row, opts Options, res *Result) []*staged {
	arena := make([]*staged, 0, len(rows))
	for _, r := range rows {
		s := &staged{term: term.Term{
			Lang:     lang,
			Type:     r.Type,
			Name:     r.Name,
			ResID:    r.ResID,
			Source:   r.Source,
			Value:    r.Value,
			Module:   r.Module,
			Comments: r.Comments,
		}}

		if r.XMLID != "" {
			refModule, refName, ok := strings.Cut(r.XMLID, ".")
			if !ok {
				refModule, refName = "", r.XMLID
			}
			if refModule == "" {
				refModule = firstNonEmpty(r.Module, opts.Module)
			}
			model, _, _ := strings.Cut(r.Name, ",")
			s.ref = store.XMLRef{Module: refModule, Name: refName, Model: model}
			s.unresolved = true
			if s.term.Module == "" {
				s.term.Module = refModule
			}
		}
		if s.term.Module == "" {
			s.term.Module = opts.Module
		}

		if s.term.Module == "" || s.term.Type == "" || s.term.Source == "" || (s.unresolved && s.ref.Module == "") {
			res.Invalid++
			e.log.Debug().Str("name", r.Name).Str("src", r.Source).Msg("row without module reference")
			continue
		}
		arena = append(arena, s)
	}
	res.Staged = len(arena)
	return arena
}

// resolve maps every unresolved external id in one registry call and
// marks the rows that stay unresolved as orphans.
func (e *Engine) resolve(ctx context.Context, arena []*staged, res *Result) error {
	var refs []store.XMLRef
	seen := make(map[store.XMLRef]bool)
	for _, s := range arena {
		if s.unresolved && !seen[s.ref] {
			seen[s.ref] = true
			refs = append(refs, s.ref)
		}
	}
	if len(refs) == 0 {
		return nil
	}

	ids, err := e.resolver.Lookup(ctx, refs)
	if err != nil {
		return fmt.Errorf("resolving %d external ids: %w", len(refs), err)
	}
	for _, s := range arena {
		if !s.unresolved {
			continue
		}
		id, ok := ids[s.ref]
		if !ok {
			s.orphan = true
			res.Orphans++
			e.log.Debug().Str("xmlid", s.ref.Module+"."+s.ref.Name).Msg("dropping orphan row")
			continue
		}
		if !term.DescriptionModel(s.ref.Model) {
			s.term.ResID = id
		}
	}
	return nil
}

// overwrite writes non-empty incoming values over the persisted rows of
// the same slot.
func overwrite(tx *store.Tx, arena []*staged) (int, error) {
	updated := 0
	for _, s := range arena {
		if s.orphan || s.term.Value == "" {
			continue
		}
		slots, err := tx.FindSlots(&s.term)
		if err != nil {
			return 0, err
		}
		for _, p := range slots {
			if p.Value == s.term.Value && p.State == term.StateTranslated {
				continue
			}
			translated := term.StateTranslated
			if _, err := tx.Update(p.ID, term.Patch{Value: term.String(s.term.Value), State: &translated}); err != nil {
				return 0, err
			}
			updated++
		}
	}
	return updated, nil
}

// insert adds every staged row whose slot is still empty. Rows inserted
// earlier in the batch occupy their slot for later ones.
func insert(tx *store.Tx, arena []*staged) (int, error) {
	inserted := 0
	for _, s := range arena {
		if s.orphan {
			continue
		}
		slots, err := tx.FindSlots(&s.term)
		if err != nil {
			return 0, err
		}
		if len(slots) > 0 {
			continue
		}
		t := s.term
		if err := tx.Insert(&t); err != nil {
			return 0, err
		}
		inserted++
	}
	return inserted, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
