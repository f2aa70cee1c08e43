// termkit: translation term manager. Extracts translatable terms from
// module sources, keeps translations in a local store and exchanges them
// as PO, CSV or TGZ files.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/minios-linux/termkit/config"
	"github.com/minios-linux/termkit/i18n"
	"github.com/minios-linux/termkit/pofile"
	"github.com/minios-linux/termkit/store"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	infoTag    = color.New(color.FgBlue).SprintFunc()
	successTag = color.New(color.FgGreen).SprintFunc()
	warningTag = color.New(color.FgYellow, color.Bold).SprintFunc()
	errorTag   = color.New(color.FgRed).SprintFunc()
	headingTag = color.New(color.FgBlue, color.Bold).SprintFunc()
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", infoTag("[INFO]"), fmt.Sprintf(format, args...))
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", successTag("[OK]"), fmt.Sprintf(format, args...))
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", warningTag("[WARN]"), fmt.Sprintf(format, args...))
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", errorTag("[ERROR]"), fmt.Sprintf(format, args...))
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir string
	dbPath  string
	verbose bool

	logger = zerolog.Nop()
)

// consoleWriter returns a zerolog writer with color only on terminals.
func consoleWriter(f *os.File) io.Writer {
	noColor := !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
	return zerolog.ConsoleWriter{Out: f, NoColor: noColor, TimeFormat: time.TimeOnly}
}

func setupLogging() {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	logger = zerolog.New(consoleWriter(os.Stderr)).Level(level).With().Timestamp().Logger()
}

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "termkit",
		Short: i18n.T("Translation term manager"),
		Long: `termkit: translation term manager.

Extracts translatable terms from views, templates, reports, data records,
field definitions and source code, stores translations per language and
exchanges them as PO, CSV or TGZ files.

Commands:
  export    Export terms with their translations
  import    Merge a translation file into the store
  resolve   Look up the translation of one term
  status    Show store statistics and changes since the last export`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
	}

	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")
	root.PersistentFlags().StringVar(&dbPath, "db", "", "Term store path (default: from .termkit.yaml or .termkit/terms.db)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newExportCmd(),
		newImportCmd(),
		newResolveCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logError("%v", err)
		stop()
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: i18n.T("Show version information"),
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "termkit version %s\n", version)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)
		},
	}

	return cmd
}

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

// project is the loaded project: the config file, when present, and the
// absolute root.
type project struct {
	cfg  *config.File
	root string
}

func loadProject() (*project, error) {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(absRoot)
	if err != nil {
		return nil, err
	}
	return &project{cfg: cfg, root: absRoot}, nil
}

// requireConfig fails with a hint when the project has no config file.
func (p *project) requireConfig() error {
	if p.cfg == nil {
		return fmt.Errorf(i18n.T("no %s found in %s"), config.FileName, p.root)
	}
	return nil
}

// storePath resolves the store location: --db, then the config file,
// then the default under the project root.
func storePath(flag, root string, cfg *config.File) string {
	switch {
	case flag != "":
		return flag
	case cfg != nil:
		return cfg.DBPath()
	}
	return filepath.Join(root, config.DefaultDB)
}

func (p *project) openStore() (*store.Store, error) {
	path := storePath(dbPath, p.root, p.cfg)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	logger.Debug().Str("path", path).Msg("opening term store")
	return store.Open(path, store.WithLogger(logger))
}

func (p *project) header() pofile.Header {
	h := pofile.Header{Project: filepath.Base(p.root)}
	if p.cfg != nil {
		h.Project = p.cfg.Project
		h.Version = p.cfg.Version
	}
	return h
}

// progressBar renders a colored bar followed by the percentage.
func progressBar(percent, width int) string {
	percent = max(0, min(percent, 100))
	filled := percent * width / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	c := color.New(color.FgRed)
	switch {
	case percent >= 100:
		c = color.New(color.FgGreen)
	case percent >= 50:
		c = color.New(color.FgYellow)
	}
	return fmt.Sprintf("%s %3d%%", c.Sprint(bar), percent)
}

// fileExists returns true if the file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
