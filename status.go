package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minios-linux/termkit/config"
	"github.com/minios-linux/termkit/i18n"
	"github.com/minios-linux/termkit/langmeta"
	"github.com/minios-linux/termkit/lockfile"
	"github.com/minios-linux/termkit/term"
)

// ---------------------------------------------------------------------------
// status (read-only: store statistics + changes since the last export)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: i18n.T("Show store statistics and changes since the last export"),
		Long: `Show the project, the number of stored terms per language and state,
and for every configured module the terms added, changed or removed in
the sources since the last export. Does not modify any files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context())
		},
	}

	return cmd
}

func runStatus(ctx context.Context) error {
	proj, err := loadProject()
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n%s\n", headingTag(i18n.T("Project")))
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintf(os.Stderr, "  Root:       %s\n", proj.root)
	fmt.Fprintf(os.Stderr, "  Store:      %s\n", storePath(dbPath, proj.root, proj.cfg))
	if proj.cfg != nil {
		fmt.Fprintf(os.Stderr, "  Name:       %s %s\n", proj.cfg.Project, proj.cfg.Version)
		names := make([]string, len(proj.cfg.Modules))
		for i, m := range proj.cfg.Modules {
			names[i] = m.Name
		}
		fmt.Fprintf(os.Stderr, "  Modules:    %s\n", strings.Join(names, ", "))
		if langs := proj.cfg.AllLanguages(); len(langs) > 0 {
			fmt.Fprintf(os.Stderr, "  Languages:  %s\n", strings.Join(langs, ", "))
		}
	} else {
		logInfo(i18n.T("No %s found; module status unavailable."), config.FileName)
	}
	fmt.Fprintln(os.Stderr)

	st, err := proj.openStore()
	if err != nil {
		return err
	}
	stats, err := st.Stats(ctx)
	st.Close()
	if err != nil {
		return err
	}
	writeStats(os.Stderr, stats)

	if proj.cfg == nil {
		return nil
	}
	mods, err := proj.cfg.Select(nil)
	if err != nil {
		return err
	}
	sources, err := proj.cfg.Sources(mods)
	if err != nil {
		return err
	}
	entries, err := extractEntries(ctx, sources)
	if err != nil {
		return err
	}
	lf, err := lockfile.Load(proj.cfg.Root())
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "%s\n", headingTag(i18n.T("Changes since last export")))
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	for _, m := range mods {
		writeModuleDiff(os.Stderr, m.Name, len(entries[m.Name]), lf.Compare(m.Name, entries[m.Name]))
	}
	fmt.Fprintln(os.Stderr)
	return nil
}

// writeStats prints one row per language: translated, pending, progress.
func writeStats(w io.Writer, stats map[string]map[term.State]int) {
	if len(stats) == 0 {
		logInfo(i18n.T("The store is empty. Run 'termkit import' to add translations."))
		return
	}

	langs := make([]string, 0, len(stats))
	for lang := range stats {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	fmt.Fprintf(w, "%s\n", headingTag(i18n.T("Translation Statistics")))
	fmt.Fprintln(w, strings.Repeat("─", 60))
	fmt.Fprintf(w, "%-10s %-22s %-12s %-14s %s\n", "Lang", "Name", "Translated", "To translate", "Progress")
	for _, lang := range langs {
		done := stats[lang][term.StateTranslated]
		todo := stats[lang][term.StateToTranslate]
		percent := 0
		if total := done + todo; total > 0 {
			percent = done * 100 / total
		}
		meta := langmeta.Resolve(lang)
		name := strings.TrimSpace(meta.Flag + " " + meta.Name)
		fmt.Fprintf(w, "%-10s %-22s %-12d %-14d %s\n", lang, name, done, todo, progressBar(percent, 20))
	}
	fmt.Fprintln(w)
}

// writeModuleDiff prints the lock comparison of one module.
func writeModuleDiff(w io.Writer, module string, total int, d lockfile.Diff) {
	if d.Empty() {
		fmt.Fprintf(w, "  %-16s %s\n", module, successTag(fmt.Sprintf(i18n.T("up to date (%d terms)"), total)))
		return
	}
	fmt.Fprintf(w, "  %-16s %s\n", module, warningTag(fmt.Sprintf(i18n.T("%d new, %d changed, %d removed"), len(d.Added), len(d.Changed), len(d.Removed))))
}
