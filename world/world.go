// Package world is the persisted-object boundary the engine consumes: a
// store of object records with identity, kind, and containment. The engine
// only reads records; the one mutation it may request is moving an object.
package world

import (
	"fmt"

	"github.com/harrowmud/harrow/engine"
)

// Record is one persisted object.
type Record struct {
	ID         string         `yaml:"id"`
	KindName   string         `yaml:"kind"`
	ObjectName string         `yaml:"name"`
	Location   string         `yaml:"location"`
	Attrs      map[string]any `yaml:"attributes"`

	kind engine.StateKind
}

func (r *Record) Identity() string {
	return r.ID
}

func (r *Record) Kind() engine.StateKind {
	return r.kind
}

func (r *Record) Name() string {
	if r.ObjectName != "" {
		return r.ObjectName
	}
	return r.ID
}

// Attributes exposes the persisted attribute snapshot, with the location
// folded in so states and triggers can read it uniformly.
func (r *Record) Attributes() map[string]any {
	attrs := make(map[string]any, len(r.Attrs)+1)
	for k, v := range r.Attrs {
		attrs[k] = v
	}
	if r.Location != "" {
		attrs["location"] = r.Location
	}
	return attrs
}

// Store is an in-memory object source. Iteration order of contents is
// record insertion order, so flows see deterministic collections.
type Store struct {
	records map[string]*Record
	order   []string
}

var _ engine.ObjectSource = (*Store)(nil)

func NewStore() *Store {
	return &Store{records: make(map[string]*Record)}
}

// Add validates and registers a record.
func (s *Store) Add(rec *Record) error {
	if rec.ID == "" {
		return fmt.Errorf("object record has no id")
	}
	if _, ok := s.records[rec.ID]; ok {
		return fmt.Errorf("duplicate object id %q", rec.ID)
	}
	kind, err := engine.ParseStateKind(rec.KindName)
	if err != nil {
		return fmt.Errorf("object %q: %w", rec.ID, err)
	}
	rec.kind = kind
	s.records[rec.ID] = rec
	s.order = append(s.order, rec.ID)
	return nil
}

func (s *Store) Object(id string) (engine.Object, bool) {
	rec, ok := s.records[id]
	if !ok {
		return nil, false
	}
	return rec, true
}

// Contents lists the objects located in the given container, in insertion
// order.
func (s *Store) Contents(id string) []engine.Object {
	var out []engine.Object
	for _, rid := range s.order {
		if rec := s.records[rid]; rec.Location == id {
			out = append(out, rec)
		}
	}
	return out
}

// Move relocates an object into a destination container.
func (s *Store) Move(id, destinationID string) error {
	rec, ok := s.records[id]
	if !ok {
		return fmt.Errorf("unknown object %q", id)
	}
	if _, ok := s.records[destinationID]; !ok {
		return fmt.Errorf("unknown destination %q", destinationID)
	}
	rec.Location = destinationID
	return nil
}

// Records returns all record ids in insertion order.
func (s *Store) Records() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
