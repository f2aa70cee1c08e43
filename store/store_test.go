package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/minios-linux/termkit/term"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "terms.db"))
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateGetAndState(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	tm := &term.Term{Lang: "fr", Type: term.TypeView, Name: "model,foo", Source: "Name", Module: "m", State: term.StateTranslated}
	if err := s.Create(ctx, tm); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if tm.ID == 0 {
		t.Fatal("Create should assign an id")
	}
	if tm.State != term.StateToTranslate {
		t.Fatalf("state of empty value = %q, want to_translate", tm.State)
	}

	got, err := s.Write(ctx, tm.ID, term.Patch{Value: term.String("Nom")})
	if err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if got.State != term.StateTranslated || got.Value != "Nom" {
		t.Fatalf("after write: %+v", got)
	}

	if err := s.Delete(ctx, tm.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	err = s.View(ctx, func(tx *Tx) error {
		_, err := tx.Get(tm.ID)
		return err
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete = %v, want ErrNotFound", err)
	}
}

func TestResolveBySourceAndName(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	rows := []*term.Term{
		{Lang: "fr", Type: term.TypeView, Name: "model,foo", Source: "Name", Value: "Nom", Module: "m"},
		{Lang: "fr", Type: term.TypeField, Name: "res.partner,name", Source: "Name", Value: "Nom du partenaire", Module: "base"},
		{Lang: "fr", Type: term.TypeModel, Name: "res.country,name", ResID: 75, Source: "France", Value: "France (FR)", Module: "base"},
		{Lang: "fr", Type: term.TypeCode, Name: "a.py", Source: "Empty", Module: "m"},
	}
	for _, r := range rows {
		if err := s.Create(ctx, r); err != nil {
			t.Fatalf("Create error: %v", err)
		}
	}

	tests := []struct {
		name string
		q    Query
		want string
	}{
		{"name lookup", Query{Name: "model,foo", Types: []term.Type{term.TypeView}, Lang: "fr"}, "Nom"},
		{"source narrowed by name", Query{Name: "res.partner,name", Types: []term.Type{term.TypeField}, Lang: "fr", Source: "Name"}, "Nom du partenaire"},
		{"source with type filter", Query{Types: []term.Type{term.TypeView}, Lang: "fr", Source: "Name"}, "Nom"},
		{"res id filter", Query{Name: "res.country,name", Types: []term.Type{term.TypeModel}, Lang: "fr", ResIDs: []int64{75}}, "France (FR)"},
		{"res id mismatch", Query{Name: "res.country,name", Types: []term.Type{term.TypeModel}, Lang: "fr", ResIDs: []int64{1}}, ""},
		{"missing source echoes", Query{Types: []term.Type{term.TypeView}, Lang: "fr", Source: "Unknown"}, "Unknown"},
		{"empty value counts as missing", Query{Types: []term.Type{term.TypeCode}, Lang: "fr", Source: "Empty"}, "Empty"},
		{"other language", Query{Name: "model,foo", Types: []term.Type{term.TypeView}, Lang: "de"}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.Resolve(ctx, tc.q)
			if err != nil {
				t.Fatalf("Resolve error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Resolve = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestWritesInvalidateWholeCache(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	tm := &term.Term{Lang: "fr", Type: term.TypeView, Name: "model,foo", Source: "Name", Value: "Nom", Module: "m"}
	if err := s.Create(ctx, tm); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	q := Query{Name: "model,foo", Types: []term.Type{term.TypeView}, Lang: "fr"}
	if got, _ := s.Resolve(ctx, q); got != "Nom" {
		t.Fatalf("Resolve = %q", got)
	}
	if _, err := s.ResolveIDs(ctx, "model,foo", term.TypeView, "fr", []int64{0}); err != nil {
		t.Fatalf("ResolveIDs error: %v", err)
	}
	if s.Cache().Len() != 2 {
		t.Fatalf("cache len = %d, want 2", s.Cache().Len())
	}

	// unrelated write still clears everything
	other := &term.Term{Lang: "de", Type: term.TypeCode, Name: "x.py", Source: "Other", Module: "x"}
	if err := s.Create(ctx, other); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if s.Cache().Len() != 0 {
		t.Fatalf("cache len after write = %d, want 0", s.Cache().Len())
	}

	if _, err := s.Write(ctx, tm.ID, term.Patch{Value: term.String("Nom complet")}); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if got, _ := s.Resolve(ctx, q); got != "Nom complet" {
		t.Fatalf("Resolve after write = %q, want fresh value", got)
	}
}

func TestFailedUpdateRollsBackAndKeepsCache(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	s.Cache().Add("k", "v")

	boom := errors.New("boom")
	err := s.Update(ctx, func(tx *Tx) error {
		if err := tx.Insert(&term.Term{Lang: "fr", Type: term.TypeCode, Name: "a.py", Source: "A"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update err = %v, want boom", err)
	}
	all, err := s.Search(ctx, Filter{AllLangs: true})
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("rolled back insert is visible: %+v", all)
	}
	if s.Cache().Len() != 1 {
		t.Fatal("rolled back transaction should not clear the cache")
	}
}

func TestResolveIDs(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	for _, r := range []*term.Term{
		{Lang: "fr", Type: term.TypeModel, Name: "res.country,name", ResID: 1, Source: "Belgium", Value: "Belgique"},
		{Lang: "fr", Type: term.TypeModel, Name: "res.country,name", ResID: 2, Source: "Germany", Value: "Allemagne"},
		{Lang: "fr", Type: term.TypeModel, Name: "res.country,name", ResID: 3, Source: "Spain"},
	} {
		if err := s.Create(ctx, r); err != nil {
			t.Fatalf("Create error: %v", err)
		}
	}

	got, err := s.ResolveIDs(ctx, "res.country,name", term.TypeModel, "fr", []int64{2, 1, 3, 4})
	if err != nil {
		t.Fatalf("ResolveIDs error: %v", err)
	}
	if len(got) != 2 || got[1] != "Belgique" || got[2] != "Allemagne" {
		t.Fatalf("ResolveIDs = %v", got)
	}

	got[1] = "mutated"
	again, _ := s.ResolveIDs(ctx, "res.country,name", term.TypeModel, "fr", []int64{1, 2, 3, 4})
	if again[1] != "Belgique" {
		t.Fatal("cached map must not be shared with callers")
	}
}

func TestFindSlotsAndDeleteResource(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	persisted := &term.Term{Lang: "fr", Type: term.TypeView, Name: "model,foo", Source: "Name", Module: "m"}
	country := &term.Term{Lang: "fr", Type: term.TypeModel, Name: "res.country,name", ResID: 9, Source: "Peru", Module: "base"}
	for _, r := range []*term.Term{persisted, country} {
		if err := s.Create(ctx, r); err != nil {
			t.Fatalf("Create error: %v", err)
		}
	}

	err := s.View(ctx, func(tx *Tx) error {
		incoming := &term.Term{Lang: "fr", Type: term.TypeView, Name: "model,foo", Source: "Name", Module: "m", ResID: 12}
		slots, err := tx.FindSlots(incoming)
		if err != nil {
			return err
		}
		if len(slots) != 1 || slots[0].ID != persisted.ID {
			t.Fatalf("FindSlots = %+v", slots)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View error: %v", err)
	}

	n, err := s.DeleteResource(ctx, "res.country", 9)
	if err != nil || n != 1 {
		t.Fatalf("DeleteResource = %d, %v", n, err)
	}
	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if stats["fr"][term.StateToTranslate] != 1 {
		t.Fatalf("Stats = %v", stats)
	}
}

func TestRegistryLookupScopedByModel(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	reg := s.Registry()
	if err := reg.Register(ctx, XMLRef{Module: "base", Name: "fr", Model: "res.country"}, 75); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	hit := XMLRef{Module: "base", Name: "fr", Model: "res.country"}
	wrongModel := XMLRef{Module: "base", Name: "fr", Model: "res.partner"}
	missing := XMLRef{Module: "sale", Name: "nope", Model: "res.country"}
	got, err := reg.Lookup(ctx, []XMLRef{hit, wrongModel, missing})
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	if len(got) != 1 || got[hit] != 75 {
		t.Fatalf("Lookup = %v", got)
	}
}

func TestLRUEvictionAndInvalidate(t *testing.T) {
	if _, err := NewLRU(0); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("NewLRU(0) err = %v", err)
	}
	c, _ := NewLRU(2)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Get("a")
	c.Add("c", 3)
	if _, ok := c.Get("b"); ok {
		t.Fatal("least recently used entry should be evicted")
	}
	if v, ok := c.Get("a"); !ok || v.(int) != 1 {
		t.Fatal("recently used entry should survive")
	}
	c.InvalidateAll()
	if c.Len() != 0 {
		t.Fatalf("Len after InvalidateAll = %d", c.Len())
	}
}
