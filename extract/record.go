package extract

import (
	"context"

	"github.com/minios-linux/termkit/term"
)

// Record is a stored business record with its translatable values.
type Record struct {
	ResID  int64
	XMLID  string
	Values map[string]string
}

// RecordSource holds the records of one model.
type RecordSource struct {
	ModuleName string
	Model      string
	// Fields are the translatable fields, in emission order.
	Fields  []string
	Records []Record
}

func (s *RecordSource) Kind() Kind     { return KindRecord }
func (s *RecordSource) Module() string { return s.ModuleName }

// Extract emits one model term per translatable field of each record.
// Records already claimed by an earlier source are overridden there
// and skipped here.
func (s *RecordSource) Extract(ctx context.Context, e *Emitter) error {
	for _, rec := range s.Records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !e.Claim(s.Model, rec.ResID) {
			continue
		}
		resID := rec.ResID
		if term.DescriptionModel(s.Model) {
			resID = 0
		}
		for _, field := range s.Fields {
			value, ok := rec.Values[field]
			if !ok {
				continue
			}
			e.Emit(Candidate{
				Type:   term.TypeModel,
				Name:   s.Model + "," + field,
				ResID:  resID,
				XMLID:  rec.XMLID,
				Source: value,
			})
		}
	}
	return nil
}

// FieldDef describes one field of a model.
type FieldDef struct {
	Name         string
	Label        string
	Help         string
	Translatable bool
	Selection    []string
}

// FieldSource holds the field definitions of one model.
type FieldSource struct {
	ModuleName string
	Model      string
	Fields     []FieldDef
}

func (s *FieldSource) Kind() Kind     { return KindFieldMeta }
func (s *FieldSource) Module() string { return s.ModuleName }

// Extract emits the label, help and selection options of every
// translatable field.
func (s *FieldSource) Extract(ctx context.Context, e *Emitter) error {
	for _, f := range s.Fields {
		if !f.Translatable {
			continue
		}
		name := s.Model + "," + f.Name
		e.Emit(Candidate{Type: term.TypeField, Name: name, Source: f.Label})
		if f.Help != "" {
			e.Emit(Candidate{Type: term.TypeHelp, Name: name, Source: f.Help})
		}
		for _, opt := range f.Selection {
			e.Emit(Candidate{Type: term.TypeSelection, Name: name, Source: opt})
		}
	}
	return ctx.Err()
}

// Constraint is a validation (Python) or uniqueness (SQL) constraint.
type Constraint struct {
	Name    string
	Message string
	SQL     bool
	// Owner is the module declaring the constraint; empty means local.
	Owner string
	// Computed marks messages built at runtime.
	Computed bool
}

// ConstraintSource holds the constraints of one model.
type ConstraintSource struct {
	ModuleName  string
	Model       string
	Constraints []Constraint
}

func (s *ConstraintSource) Kind() Kind     { return KindConstraint }
func (s *ConstraintSource) Module() string { return s.ModuleName }

func (s *ConstraintSource) Extract(ctx context.Context, e *Emitter) error {
	for _, c := range s.Constraints {
		if c.Computed || (c.Owner != "" && c.Owner != s.ModuleName) {
			continue
		}
		if c.SQL {
			e.Emit(Candidate{Type: term.TypeSQLConstraint, Name: s.Model + "," + c.Name, Source: c.Message})
		} else {
			e.Emit(Candidate{Type: term.TypeConstraint, Name: s.Model, Source: c.Message})
		}
	}
	return ctx.Err()
}
