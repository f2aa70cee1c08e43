// Package store persists translation terms in a bbolt database and
// serves memoized lookups over them.
//
// Terms live in the "terms" bucket keyed by their big-endian id. Two
// index buckets map "lang\x00name\x00id" and "lang\x00source\x00id" to
// nothing, so lookups by name or by source are prefix scans. External
// ids of records are kept in the "xmlids" bucket (see Registry).
package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.etcd.io/bbolt"

	"github.com/minios-linux/termkit/term"
)

var (
	termsBucket  = []byte("terms")
	nameIndex    = []byte("idx_name")
	sourceIndex  = []byte("idx_source")
	xmlidsBucket = []byte("xmlids")
)

// ErrNotFound is returned when a term id does not exist.
var ErrNotFound = errors.New("term not found")

// DefaultCacheSize is the LRU capacity used when no cache is supplied.
const DefaultCacheSize = 8192

// Store is a bbolt-backed term table with a memoized read path.
type Store struct {
	db    *bbolt.DB
	cache Cache
	log   zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithCache replaces the default LRU cache.
func WithCache(c Cache) Option {
	return func(s *Store) { s.cache = c }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l.With().Str("sys", "store").Logger() }
}

// Open opens (creating if needed) the database at path.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		c, err := NewLRU(DefaultCacheSize)
		if err != nil {
			return nil, err
		}
		s.cache = c
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{termsBucket, nameIndex, sourceIndex, xmlidsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	s.db = db
	return s, nil
}

// Close releases the database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Cache returns the lookup cache.
func (s *Store) Cache() Cache {
	return s.cache
}

// Update runs fn in a read-write transaction. If fn wrote any term, the
// whole lookup cache is invalidated after the commit and before Update
// returns. An error from fn rolls back every write.
func (s *Store) Update(ctx context.Context, fn func(*Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var dirty bool
	err := s.db.Update(func(btx *bbolt.Tx) error {
		tx := newTx(btx)
		err := fn(tx)
		dirty = tx.dirty
		return err
	})
	if err != nil {
		return err
	}
	if dirty {
		s.cache.InvalidateAll()
		s.log.Debug().Msg("lookup cache invalidated")
	}
	return nil
}

// View runs fn in a read-only transaction.
func (s *Store) View(ctx context.Context, fn func(*Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(btx *bbolt.Tx) error {
		return fn(newTx(btx))
	})
}

// Create inserts t and sets its ID.
func (s *Store) Create(ctx context.Context, t *term.Term) error {
	return s.Update(ctx, func(tx *Tx) error { return tx.Insert(t) })
}

// Write applies p to the term with the given id.
func (s *Store) Write(ctx context.Context, id uint64, p term.Patch) (*term.Term, error) {
	var out *term.Term
	err := s.Update(ctx, func(tx *Tx) error {
		var err error
		out, err = tx.Update(id, p)
		return err
	})
	return out, err
}

// Delete removes terms by id.
func (s *Store) Delete(ctx context.Context, ids ...uint64) error {
	return s.Update(ctx, func(tx *Tx) error {
		for _, id := range ids {
			if err := tx.Delete(id); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteResource removes every model term of the given records.
func (s *Store) DeleteResource(ctx context.Context, model string, resIDs ...int64) (int, error) {
	var n int
	err := s.Update(ctx, func(tx *Tx) error {
		var err error
		n, err = tx.DeleteResource(model, resIDs...)
		return err
	})
	return n, err
}

// Search returns the terms matching f, ordered by id.
func (s *Store) Search(ctx context.Context, f Filter) ([]*term.Term, error) {
	var out []*term.Term
	err := s.View(ctx, func(tx *Tx) error {
		var err error
		out, err = tx.Search(f)
		return err
	})
	return out, err
}

// Stats counts terms per language and state.
func (s *Store) Stats(ctx context.Context) (map[string]map[term.State]int, error) {
	stats := make(map[string]map[term.State]int)
	err := s.View(ctx, func(tx *Tx) error {
		return tx.terms.ForEach(func(_, v []byte) error {
			var t term.Term
			if err := json.Unmarshal(v, &t); err != nil {
				return err
			}
			if stats[t.Lang] == nil {
				stats[t.Lang] = make(map[term.State]int)
			}
			stats[t.Lang][t.State]++
			return nil
		})
	})
	return stats, err
}

// Filter selects terms in Search. Zero-valued fields match anything,
// except Lang which is matched exactly unless AllLangs is set.
type Filter struct {
	Lang     string
	AllLangs bool
	Module   string
	Name     string
	Source   string
	Types    []term.Type
	ResIDs   []int64
}

func (f Filter) match(t *term.Term) bool {
	if !f.AllLangs && t.Lang != f.Lang {
		return false
	}
	if f.Module != "" && t.Module != f.Module {
		return false
	}
	if f.Name != "" && t.Name != f.Name {
		return false
	}
	if f.Source != "" && t.Source != f.Source {
		return false
	}
	if len(f.Types) > 0 && !slices.Contains(f.Types, t.Type) {
		return false
	}
	if len(f.ResIDs) > 0 && !slices.Contains(f.ResIDs, t.ResID) {
		return false
	}
	return true
}

// Tx is a store transaction.
type Tx struct {
	tx       *bbolt.Tx
	terms    *bbolt.Bucket
	byName   *bbolt.Bucket
	bySource *bbolt.Bucket
	xmlids   *bbolt.Bucket
	dirty    bool
}

func newTx(btx *bbolt.Tx) *Tx {
	return &Tx{
		tx:       btx,
		terms:    btx.Bucket(termsBucket),
		byName:   btx.Bucket(nameIndex),
		bySource: btx.Bucket(sourceIndex),
		xmlids:   btx.Bucket(xmlidsBucket),
	}
}

func idKey(id uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, id)
	return b
}

func indexPrefix(lang, field string) []byte {
	b := make([]byte, 0, len(lang)+len(field)+2)
	b = append(b, lang...)
	b = append(b, 0)
	b = append(b, field...)
	return append(b, 0)
}

func indexKey(lang, field string, id uint64) []byte {
	return append(indexPrefix(lang, field), idKey(id)...)
}

// Get loads a term by id.
func (tx *Tx) Get(id uint64) (*term.Term, error) {
	v := tx.terms.Get(idKey(id))
	if v == nil {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	var t term.Term
	if err := json.Unmarshal(v, &t); err != nil {
		return nil, fmt.Errorf("decoding term %d: %w", id, err)
	}
	return &t, nil
}

// Insert stores t under a fresh id and derives its state from Value.
func (tx *Tx) Insert(t *term.Term) error {
	id, err := tx.terms.NextSequence()
	if err != nil {
		return err
	}
	t.ID = id
	t.Normalize()
	return tx.put(t)
}

func (tx *Tx) put(t *term.Term) error {
	v, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encoding term %d: %w", t.ID, err)
	}
	if err := tx.terms.Put(idKey(t.ID), v); err != nil {
		return err
	}
	if err := tx.byName.Put(indexKey(t.Lang, t.Name, t.ID), nil); err != nil {
		return err
	}
	if err := tx.bySource.Put(indexKey(t.Lang, t.Source, t.ID), nil); err != nil {
		return err
	}
	tx.dirty = true
	return nil
}

func (tx *Tx) unindex(t *term.Term) error {
	if err := tx.byName.Delete(indexKey(t.Lang, t.Name, t.ID)); err != nil {
		return err
	}
	return tx.bySource.Delete(indexKey(t.Lang, t.Source, t.ID))
}

// Update applies p to the term with the given id.
func (tx *Tx) Update(id uint64, p term.Patch) (*term.Term, error) {
	t, err := tx.Get(id)
	if err != nil {
		return nil, err
	}
	if err := tx.unindex(t); err != nil {
		return nil, err
	}
	t.Apply(p)
	return t, tx.put(t)
}

// Delete removes the term with the given id.
func (tx *Tx) Delete(id uint64) error {
	t, err := tx.Get(id)
	if err != nil {
		return err
	}
	if err := tx.unindex(t); err != nil {
		return err
	}
	tx.dirty = true
	return tx.terms.Delete(idKey(id))
}

// DeleteResource removes every model term named "<model>,..." whose
// res_id is one of resIDs, and returns how many were removed.
func (tx *Tx) DeleteResource(model string, resIDs ...int64) (int, error) {
	prefix := model + ","
	var doomed []uint64
	err := tx.each(func(t *term.Term) error {
		if t.Type == term.TypeModel && strings.HasPrefix(t.Name, prefix) && slices.Contains(resIDs, t.ResID) {
			doomed = append(doomed, t.ID)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	for _, id := range doomed {
		if err := tx.Delete(id); err != nil {
			return 0, err
		}
	}
	return len(doomed), nil
}

// FindSlots returns the persisted terms occupying the same slot as t.
func (tx *Tx) FindSlots(t *term.Term) ([]*term.Term, error) {
	var out []*term.Term
	err := tx.scan(tx.bySource, t.Lang, t.Source, func(p *term.Term) error {
		if term.SameSlot(p, t) {
			out = append(out, p)
		}
		return nil
	})
	return out, err
}

// Search returns the terms matching f. A Name or Source with a fixed
// language uses the matching index; everything else scans the table.
func (tx *Tx) Search(f Filter) ([]*term.Term, error) {
	var out []*term.Term
	collect := func(t *term.Term) error {
		if f.match(t) {
			out = append(out, t)
		}
		return nil
	}
	var err error
	switch {
	case !f.AllLangs && f.Source != "":
		err = tx.scan(tx.bySource, f.Lang, f.Source, collect)
	case !f.AllLangs && f.Name != "":
		err = tx.scan(tx.byName, f.Lang, f.Name, collect)
	default:
		err = tx.each(collect)
	}
	return out, err
}

// scan visits, in id order, the terms indexed under lang and field.
func (tx *Tx) scan(idx *bbolt.Bucket, lang, field string, fn func(*term.Term) error) error {
	prefix := indexPrefix(lang, field)
	c := idx.Cursor()
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		if len(k) != len(prefix)+8 {
			continue
		}
		t, err := tx.Get(binary.BigEndian.Uint64(k[len(prefix):]))
		if err != nil {
			return err
		}
		if err := fn(t); err != nil {
			return err
		}
	}
	return nil
}

func (tx *Tx) each(fn func(*term.Term) error) error {
	return tx.terms.ForEach(func(_, v []byte) error {
		var t term.Term
		if err := json.Unmarshal(v, &t); err != nil {
			return err
		}
		return fn(&t)
	})
}
