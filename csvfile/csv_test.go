package csvfile

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/minios-linux/termkit/term"
)

func TestWriteHeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	err := NewWriter(&buf).WriteRows([]Row{
		{Module: "m", Target: term.Target{Type: term.TypeView, Name: "model,foo"}, Source: "Name", Value: "Nom"},
		{Module: "base", Target: term.Target{Type: term.TypeModel, Name: "res.country,name", XMLID: "base.fr"}, Source: "France, metropolitan"},
	})
	if err != nil {
		t.Fatalf("WriteRows error: %v", err)
	}
	want := "module,type,name,res_id,src,value\n" +
		"m,view,\"model,foo\",0,Name,Nom\n" +
		"base,model,\"res.country,name\",base.fr,\"France, metropolitan\",\n"
	if got := buf.String(); got != want {
		t.Fatalf("output mismatch:\n%s\nwant:\n%s", got, want)
	}
}

func TestReadRoundTripAndCodeCollapse(t *testing.T) {
	input := "module,type,name,res_id,src,value\n" +
		"sale,code,sale/models.py,10,Quotation,Devis\n" +
		"sale,code,sale/wizard.py,22,Quotation,Devis\n" +
		"sale,view,\"sale.order,form\",0,Quotation,Devis\n" +
		",model,\"res.country,name\",base.fr,France,France\n"

	rows, err := ReadAll(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadAll error: %v", err)
	}
	want := []Row{
		{Module: "sale", Target: term.Target{Type: term.TypeCode, Name: "sale/models.py", ResID: 10}, Source: "Quotation", Value: "Devis"},
		{Module: "sale", Target: term.Target{Type: term.TypeView, Name: "sale.order,form"}, Source: "Quotation", Value: "Devis"},
		{Module: "base", Target: term.Target{Type: term.TypeModel, Name: "res.country,name", XMLID: "base.fr"}, Source: "France", Value: "France"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestReadRejectsBadHeader(t *testing.T) {
	_, err := ReadAll(strings.NewReader("module,type,name,res_id,source,value\n"))
	var herr *HeaderError
	if !errors.As(err, &herr) {
		t.Fatalf("err = %v, want *HeaderError", err)
	}
}
