package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/minios-linux/termkit/i18n"
	"github.com/minios-linux/termkit/transfer"
)

// ---------------------------------------------------------------------------
// import (merge a translation file into the store)
// ---------------------------------------------------------------------------

type importArgs struct {
	lang      string
	module    string
	format    string
	overwrite bool
}

func newImportCmd() *cobra.Command {
	var a importArgs

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: i18n.T("Merge a translation file into the store"),
		Long: `Read a PO, CSV or TGZ translation file and merge it into the store in
a single transaction. A malformed file is rejected before anything is
written.

Existing translations are kept unless --overwrite is given. Rows naming
an external id are resolved against the records declared in module
manifests; unresolved rows are skipped and counted as orphans.

Examples:
  termkit import fr.po --lang fr
  termkit import sale_de.csv --lang de --module sale --overwrite`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), args[0], a)
		},
	}

	cmd.Flags().StringVarP(&a.lang, "lang", "l", "", "Language of the file (required)")
	cmd.Flags().StringVarP(&a.module, "module", "m", "", "Module for rows that name none")
	cmd.Flags().StringVarP(&a.format, "format", "f", "", "Input format: po, csv, tgz (default: from file name)")
	cmd.Flags().BoolVar(&a.overwrite, "overwrite", false, "Replace existing translations")
	_ = cmd.MarkFlagRequired("lang")

	return cmd
}

func runImport(ctx context.Context, path string, a importArgs) error {
	format := a.format
	if format == "" {
		f, err := transfer.FormatFromPath(path)
		if err != nil {
			return err
		}
		format = string(f)
	}
	if !fileExists(path) {
		return fmt.Errorf(i18n.T("file not found: %s"), path)
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

	if proj.cfg != nil {
		mods, err := proj.cfg.Select(nil)
		if err != nil {
			return err
		}
		n, err := proj.cfg.Register(ctx, st.Registry(), mods)
		if err != nil {
			return err
		}
		logger.Debug().Int("records", n).Msg("registered external ids")
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	svc := transfer.New(st, transfer.WithLogger(logger))
	res, err := svc.Import(ctx, f, transfer.ImportRequest{
		Format:    format,
		Lang:      a.lang,
		Module:    a.module,
		Overwrite: a.overwrite,
	})
	if err != nil {
		return fmt.Errorf("importing %s: %w", path, err)
	}

	logSuccess(i18n.T("Imported %s: %d inserted, %d updated"), path, res.Inserted, res.Updated)
	if res.Invalid > 0 {
		logWarning(i18n.N("%d row without module or source skipped", "%d rows without module or source skipped", res.Invalid), res.Invalid)
	}
	if res.Orphans > 0 {
		logWarning(i18n.N("%d row with an unknown external id skipped", "%d rows with an unknown external id skipped", res.Orphans), res.Orphans)
	}
	if res.Fuzzy > 0 {
		logInfo(i18n.N("%d fuzzy entry ignored", "%d fuzzy entries ignored", res.Fuzzy), res.Fuzzy)
	}
	return nil
}
