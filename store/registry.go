package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// XMLRef names a record by external id ("module.name"). Model, when
// set, scopes the lookup to records of that model.
type XMLRef struct {
	Module string
	Name   string
	Model  string
}

func (r XMLRef) key() []byte {
	return []byte(r.Module + "." + r.Name)
}

type xmlRecord struct {
	Model string `json:"model"`
	ResID int64  `json:"res_id"`
}

// Registry maps external ids to numeric record ids.
type Registry struct {
	s *Store
}

// Registry returns the external id registry kept alongside the terms.
func (s *Store) Registry() *Registry {
	return &Registry{s: s}
}

// Register records that ref denotes resID. Registering does not touch
// terms and leaves the lookup cache alone.
func (r *Registry) Register(ctx context.Context, ref XMLRef, resID int64) error {
	if ref.Module == "" || ref.Name == "" {
		return fmt.Errorf("external id %q.%q is incomplete", ref.Module, ref.Name)
	}
	v, err := json.Marshal(xmlRecord{Model: ref.Model, ResID: resID})
	if err != nil {
		return err
	}
	return r.s.Update(ctx, func(tx *Tx) error {
		return tx.xmlids.Put(ref.key(), v)
	})
}

// Lookup resolves refs in one read transaction. Unknown refs, and refs
// registered under a different model, are absent from the result.
func (r *Registry) Lookup(ctx context.Context, refs []XMLRef) (map[XMLRef]int64, error) {
	out := make(map[XMLRef]int64, len(refs))
	err := r.s.View(ctx, func(tx *Tx) error {
		for _, ref := range refs {
			v := tx.xmlids.Get(ref.key())
			if v == nil {
				continue
			}
			var rec xmlRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decoding external id %s: %w", ref.key(), err)
			}
			if ref.Model != "" && rec.Model != "" && rec.Model != ref.Model {
				continue
			}
			out[ref] = rec.ResID
		}
		return nil
	})
	return out, err
}
