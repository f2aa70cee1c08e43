package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/minios-linux/termkit/config"
	"github.com/minios-linux/termkit/extract"
	"github.com/minios-linux/termkit/i18n"
	"github.com/minios-linux/termkit/lockfile"
	"github.com/minios-linux/termkit/transfer"
)

// ---------------------------------------------------------------------------
// export (extract terms and write them with their translations)
// ---------------------------------------------------------------------------

type exportArgs struct {
	lang    string
	modules []string
	format  string
	output  string
	noLock  bool
}

func newExportCmd() *cobra.Command {
	var a exportArgs

	cmd := &cobra.Command{
		Use:   "export",
		Short: i18n.T("Export terms with their translations"),
		Long: `Extract the terms of the selected modules and write them with the
translations found in the store.

Without --lang a template is written (empty translations). The format is
taken from --format, else from the extension of --output, else po.
Exporting to a file records the exported terms in termkit.lock.

Examples:
  termkit export --lang fr --module sale -o sale_fr.po
  termkit export --module all --format tgz -o templates.tgz
  termkit export --lang de --format csv > de.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), a)
		},
	}

	cmd.Flags().StringVarP(&a.lang, "lang", "l", "", "Target language (empty for a template)")
	cmd.Flags().StringSliceVarP(&a.modules, "module", "m", nil, "Modules to export (default: all)")
	cmd.Flags().StringVarP(&a.format, "format", "f", "", "Output format: po, csv, tgz")
	cmd.Flags().StringVarP(&a.output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&a.noLock, "no-lock", false, "Do not update termkit.lock")

	return cmd
}

// exportFormat picks the format token from the flag or the output name.
func exportFormat(flag, output string) (transfer.Format, error) {
	if flag != "" {
		return transfer.ParseFormat(flag)
	}
	if output != "" && output != "-" {
		return transfer.FormatFromPath(output)
	}
	return transfer.FormatPO, nil
}

func runExport(ctx context.Context, a exportArgs) error {
	format, err := exportFormat(a.format, a.output)
	if err != nil {
		return err
	}

	proj, err := loadProject()
	if err != nil {
		return err
	}
	if err := proj.requireConfig(); err != nil {
		return err
	}
	mods, err := proj.cfg.Select(a.modules)
	if err != nil {
		return err
	}
	sources, err := proj.cfg.Sources(mods)
	if err != nil {
		return err
	}
	logInfo(i18n.T("Exporting %d modules (%d sources)"), len(mods), len(sources))

	st, err := proj.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	var out io.Writer = os.Stdout
	toFile := a.output != "" && a.output != "-"
	if toFile {
		f, err := os.Create(a.output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", a.output, err)
		}
		defer f.Close()
		out = f
	}

	svc := transfer.New(st, transfer.WithHeader(proj.header()), transfer.WithLogger(logger))
	req := transfer.ExportRequest{Lang: a.lang, Modules: a.modules, Format: string(format), Sources: sources}
	if err := svc.Export(ctx, req, out); err != nil {
		if toFile {
			os.Remove(a.output)
		}
		return err
	}

	if toFile {
		logSuccess(i18n.T("Wrote %s"), a.output)
		if !a.noLock {
			if err := updateLock(ctx, proj.cfg, mods, sources); err != nil {
				logWarning(i18n.T("Could not update %s: %v"), lockfile.LockFileName, err)
			}
		}
	}
	return nil
}

// lockEntries groups candidates by module as lock file entries.
func lockEntries(cands []extract.Candidate) map[string]map[string]string {
	out := make(map[string]map[string]string)
	for _, c := range cands {
		m := out[c.Module]
		if m == nil {
			m = make(map[string]string)
			out[c.Module] = m
		}
		m[lockfile.TermKey(c.Target(), c.Source)] = lockfile.TermContent(c.Source, c.Comments)
	}
	return out
}

func extractEntries(ctx context.Context, sources []extract.Source) (map[string]map[string]string, error) {
	cands, err := extract.New(extract.WithLogger(logger)).Run(ctx, sources, nil)
	if err != nil {
		return nil, err
	}
	return lockEntries(cands), nil
}

func updateLock(ctx context.Context, cfg *config.File, mods []*config.Module, sources []extract.Source) error {
	entries, err := extractEntries(ctx, sources)
	if err != nil {
		return err
	}
	lf, err := lockfile.Load(cfg.Root())
	if err != nil {
		return err
	}
	for _, m := range mods {
		lf.Snapshot(m.Name, entries[m.Name])
	}
	if err := lf.Save(); err != nil {
		return err
	}
	logger.Debug().Str("path", filepath.Base(lf.Path())).Str("summary", lf.Summary()).Msg("lock updated")
	return nil
}
