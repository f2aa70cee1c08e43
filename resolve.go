package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minios-linux/termkit/i18n"
	"github.com/minios-linux/termkit/store"
	"github.com/minios-linux/termkit/term"
)

// ---------------------------------------------------------------------------
// resolve (look up one translation)
// ---------------------------------------------------------------------------

type resolveArgs struct {
	name   string
	types  []string
	lang   string
	source string
	resIDs []int64
}

func newResolveCmd() *cobra.Command {
	var a resolveArgs

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: i18n.T("Look up the translation of one term"),
		Long: `Print the stored translation of a term. When nothing matches, the
source text is printed (or nothing without --source).

With several --res-id values every record is resolved and printed as
"id<TAB>value".

Examples:
  termkit resolve --lang fr --type view --name sale.order --source "Order"
  termkit resolve --lang fr --type model --name res.country,name --res-id 75 --res-id 76`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, a)
		},
	}

	cmd.Flags().StringVar(&a.name, "name", "", "Term name (model,field, view model, file path)")
	cmd.Flags().StringSliceVarP(&a.types, "type", "t", nil, "Term types to match")
	cmd.Flags().StringVarP(&a.lang, "lang", "l", "", "Language (required)")
	cmd.Flags().StringVarP(&a.source, "source", "s", "", "Source text")
	cmd.Flags().Int64SliceVar(&a.resIDs, "res-id", nil, "Record ids")
	_ = cmd.MarkFlagRequired("lang")

	return cmd
}

func parseTypes(names []string) ([]term.Type, error) {
	types := make([]term.Type, 0, len(names))
	for _, n := range names {
		t, err := term.ParseType(n)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

func runResolve(cmd *cobra.Command, a resolveArgs) error {
	ctx := cmd.Context()
	lang, err := term.NormalizeLang(a.lang)
	if err != nil {
		return err
	}
	types, err := parseTypes(a.types)
	if err != nil {
		return err
	}
	if a.name == "" && a.source == "" {
		return errors.New(i18n.T("either --name or --source is required"))
	}

	proj, err := loadProject()
	if err != nil {
		return err
	}
	st, err := proj.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	out := cmd.OutOrStdout()
	if len(a.resIDs) > 1 && len(types) == 1 && a.source == "" {
		values, err := st.ResolveIDs(ctx, a.name, types[0], lang, a.resIDs)
		if err != nil {
			return err
		}
		for _, id := range a.resIDs {
			fmt.Fprintf(out, "%d\t%s\n", id, values[id])
		}
		return nil
	}

	value, err := st.Resolve(ctx, store.Query{Name: a.name, Types: types, Lang: lang, Source: a.source, ResIDs: a.resIDs})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, value)
	return nil
}
