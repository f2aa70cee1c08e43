// Package term defines the translation term model shared by the codecs,
// the extractor, the store and the merge engine.
package term

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Type selects the identity rule and the origin of a term.
type Type string

const (
	TypeField         Type = "field"
	TypeModel         Type = "model"
	TypeSelection     Type = "selection"
	TypeView          Type = "view"
	TypeHelp          Type = "help"
	TypeCode          Type = "code"
	TypeReport        Type = "report"
	TypeConstraint    Type = "constraint"
	TypeSQLConstraint Type = "sql_constraint"
	TypeWizardButton  Type = "wizard_button"
	TypeWizardField   Type = "wizard_field"
	TypeWizardView    Type = "wizard_view"
	TypeXSL           Type = "xsl"
	TypeRML           Type = "rml"
)

// Types lists every known term type in declaration order.
var Types = []Type{
	TypeField, TypeModel, TypeSelection, TypeView, TypeHelp, TypeCode,
	TypeReport, TypeConstraint, TypeSQLConstraint, TypeWizardButton,
	TypeWizardField, TypeWizardView, TypeXSL, TypeRML,
}

// ErrUnknownType is returned by ParseType for tokens outside Types.
var ErrUnknownType = errors.New("unknown term type")

// ParseType converts a token such as "view" into a Type.
func ParseType(s string) (Type, error) {
	t := Type(strings.TrimSpace(s))
	for _, known := range Types {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownType, s)
}

// State is the translation progress of a term.
type State string

const (
	StateToTranslate State = "to_translate"
	StateInProgress  State = "inprogress"
	StateTranslated  State = "translated"
)

// Term is a single translatable unit.
type Term struct {
	ID       uint64   `json:"id"`
	Lang     string   `json:"lang,omitempty"`
	Type     Type     `json:"type"`
	Name     string   `json:"name"`
	ResID    int64    `json:"res_id,omitempty"`
	Source   string   `json:"src"`
	Value    string   `json:"value,omitempty"`
	Module   string   `json:"module,omitempty"`
	State    State    `json:"state"`
	Comments []string `json:"comments,omitempty"`
}

// Normalize derives State from Value.
func (t *Term) Normalize() {
	if t.Value != "" {
		t.State = StateTranslated
	} else {
		t.State = StateToTranslate
	}
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Source   *string
	Value    *string
	State    *State
	Comments []string
}

// Apply writes p into t and keeps State consistent with Value.
//
// Writing the source or an empty value resets the state to to_translate,
// unless a non-empty value is written in the same patch. A term without
// a value is never translated.
func (t *Term) Apply(p Patch) {
	if p.Source != nil {
		t.Source = *p.Source
	}
	if p.Comments != nil {
		t.Comments = p.Comments
	}
	if p.State != nil {
		t.State = *p.State
	}
	switch {
	case p.Value != nil && *p.Value != "":
		t.Value = *p.Value
		t.State = StateTranslated
	case p.Value != nil:
		t.Value = ""
		t.State = StateToTranslate
	case p.Source != nil:
		t.State = StateToTranslate
	}
	if t.Value == "" && t.State == StateTranslated {
		t.State = StateToTranslate
	}
}

// String ptr helper for building patches.
func String(s string) *string { return &s }

// Target is one reference of a PO entry: a term type, its qualifier and
// either a numeric record id or a symbolic external id.
type Target struct {
	Type  Type
	Name  string
	ResID int64
	XMLID string
}

func (t Target) String() string {
	ref := fmt.Sprint(t.ResID)
	if t.XMLID != "" {
		ref = t.XMLID
	}
	return fmt.Sprintf("%s:%s:%s", t.Type, t.Name, ref)
}

// SameSlot reports whether incoming denotes the same translatable slot
// as the persisted row.
func SameSlot(persisted, incoming *Term) bool {
	if persisted.Lang != incoming.Lang ||
		persisted.Type != incoming.Type ||
		persisted.Name != incoming.Name ||
		persisted.Source != incoming.Source ||
		persisted.Module != incoming.Module {
		return false
	}
	switch persisted.Type {
	case TypeModel:
		return persisted.ResID == incoming.ResID
	case TypeView:
		return persisted.ResID == 0 || persisted.ResID == incoming.ResID
	}
	return true
}

// DescriptionModel reports whether records of model describe a model or
// a menu. Their model terms are stored with res_id 0.
func DescriptionModel(model string) bool {
	return model == "ir.model" || model == "ir.ui.menu"
}

// ErrInvalidLang is wrapped by NormalizeLang for unparseable codes.
var ErrInvalidLang = errors.New("invalid language code")

// NormalizeLang validates a language code and returns it in the
// underscore form used in file names and rows ("pt_BR"). The empty
// string denotes a template and is returned unchanged.
func NormalizeLang(code string) (string, error) {
	if code == "" {
		return "", nil
	}
	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidLang, code, err)
	}
	base, _ := tag.Base()
	out := base.String()
	if region, conf := tag.Region(); conf == language.Exact {
		out += "_" + region.String()
	}
	return out, nil
}
