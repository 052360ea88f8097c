package reportcli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jis-kmc-pg/JISOWMS-sub001/internal/apiapp"
	"github.com/jis-kmc-pg/JISOWMS-sub001/internal/batch"
	"github.com/jis-kmc-pg/JISOWMS-sub001/internal/envutil"
	"github.com/jis-kmc-pg/JISOWMS-sub001/internal/logging"
	"github.com/jis-kmc-pg/JISOWMS-sub001/internal/report"
	"github.com/jis-kmc-pg/JISOWMS-sub001/internal/roster"
	"github.com/jis-kmc-pg/JISOWMS-sub001/internal/security"
	"github.com/jis-kmc-pg/JISOWMS-sub001/internal/source"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var ErrUsage = errors.New("usage")

type globalFlags struct {
	envFile  string
	logLevel string
}

type renderFlags struct {
	dbPath       string
	inputPath    string
	templatePath string
	layoutPath   string
	logoPath     string
	date         string
	out          string
}

func Execute(args []string) error {
	root := newRootCmd()
	root.SetArgs(args)
	err := root.Execute()
	if err != nil && strings.HasPrefix(err.Error(), "unknown command") {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return err
}

// PrintUsage writes the top-level help.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, newRootCmd().UsageString())
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "weeklyreport",
		Short:         "Render weekly work reports into the spreadsheet template",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := envutil.LoadDotEnv(g.envFile); err != nil {
				return fmt.Errorf("load %s: %w", g.envFile, err)
			}
			return nil
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	})
	root.PersistentFlags().StringVar(&g.envFile, "env-file", ".env", "path to .env file")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level (default REPORT_LOG_LEVEL or info)")

	root.AddCommand(setupCmd(g), templateCmd(), renderCmd(g), batchCmd(g), serveCmd())
	return root
}

func setupCmd(g *globalFlags) *cobra.Command {
	var (
		apiKey       string
		templatePath string
		dbPath       string
		force        bool
	)
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Write a .env file for the report service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			generated := false
			if apiKey == "" {
				key, err := security.GenerateAPIKey()
				if err != nil {
					return err
				}
				apiKey, generated = key, true
			}
			hash, err := security.HashAPIKey(apiKey)
			if err != nil {
				return fmt.Errorf("invalid api key: %w", err)
			}

			values := map[string]string{
				"REPORT_ADDR":          ":8080",
				"REPORT_DB_PATH":       dbPath,
				"REPORT_TEMPLATE_PATH": templatePath,
				"REPORT_API_KEY_HASH":  hash,
				"REPORT_BATCH_WORKERS": "4",
				"REPORT_LOG_LEVEL":     "info",
			}
			if err := envutil.WriteDotEnv(g.envFile, values, force); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "wrote %s\n", g.envFile)
			if generated {
				fmt.Fprintf(out, "api key: %s\n", apiKey)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&apiKey, "api-key", "", "api key clients must send as a bearer token (generated when empty)")
	cmd.Flags().StringVar(&templatePath, "template", "templates/weekly-report.xlsx", "report template path")
	cmd.Flags().StringVar(&dbPath, "db", "data.db", "work log database path")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing env file")
	return cmd
}

func templateCmd() *cobra.Command {
	var out, layoutPath string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a blank template that satisfies the layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			layout, err := report.LoadLayout(layoutPath)
			if err != nil {
				return err
			}
			if err := ensureParentDirs(out); err != nil {
				return err
			}
			if err := report.WriteTemplate(out, layout); err != nil {
				return fmt.Errorf("write template: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
	initCmd.Flags().StringVar(&out, "out", "templates/weekly-report.xlsx", "output path")
	initCmd.Flags().StringVar(&layoutPath, "layout", "", "layout file (default built-in)")

	cmd := &cobra.Command{Use: "template", Short: "Manage the report template"}
	cmd.AddCommand(initCmd)
	return cmd
}

func addRenderFlags(cmd *cobra.Command, f *renderFlags) {
	cmd.Flags().StringVar(&f.dbPath, "db", "", "work log database (default REPORT_DB_PATH)")
	cmd.Flags().StringVar(&f.inputPath, "input", "", "JSON input file instead of a database")
	cmd.Flags().StringVar(&f.templatePath, "template", "", "report template (default REPORT_TEMPLATE_PATH)")
	cmd.Flags().StringVar(&f.layoutPath, "layout", "", "layout file (default REPORT_LAYOUT_PATH or built-in)")
	cmd.Flags().StringVar(&f.logoPath, "logo", "", "logo image stamped into the header (default REPORT_LOGO_PATH)")
	cmd.Flags().StringVar(&f.date, "date", "", "reference date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.out, "out", "", "output file")
}

func renderCmd(g *globalFlags) *cobra.Command {
	f := &renderFlags{}
	var employeeID int64
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one employee's weekly report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if employeeID <= 0 {
				return fmt.Errorf("%w: --employee is required", ErrUsage)
			}
			ref, err := parseDate(f.date)
			if err != nil {
				return err
			}
			logger, err := logging.New(logLevel(g), "console")
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			src, closeSource, err := openSource(f)
			if err != nil {
				return err
			}
			defer func() { _ = closeSource() }()
			renderer, err := newRenderer(f, logger)
			if err != nil {
				return err
			}

			data, err := src.LoadReport(cmd.Context(), employeeID, ref)
			if err != nil {
				return err
			}
			doc, err := renderer.Render(cmd.Context(), data)
			if err != nil {
				return err
			}
			out := f.out
			if out == "" {
				out = fmt.Sprintf("WeeklyReport_%d_%s.xlsx", employeeID, f.date)
			}
			if err := writeFile(out, doc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
	addRenderFlags(cmd, f)
	cmd.Flags().Int64Var(&employeeID, "employee", 0, "employee id")
	return cmd
}

func batchCmd(g *globalFlags) *cobra.Command {
	f := &renderFlags{}
	var (
		teamID     int64
		rosterPath string
		format     string
		workers    int
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Render a team's weekly reports into one archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if teamID <= 0 {
				return fmt.Errorf("%w: --team is required", ErrUsage)
			}
			ref, err := parseDate(f.date)
			if err != nil {
				return err
			}
			archiveFormat, err := batch.ParseFormat(format)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrUsage, err)
			}
			logger, err := logging.New(logLevel(g), "console")
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			src, closeSource, err := openSource(f)
			if err != nil {
				return err
			}
			defer func() { _ = closeSource() }()
			if rosterPath != "" {
				entries, err := roster.Load(rosterPath)
				if err != nil {
					return err
				}
				src = roster.Wrap(src, entries)
			}
			renderer, err := newRenderer(f, logger)
			if err != nil {
				return err
			}
			if workers <= 0 {
				workers = envutil.Int("REPORT_BATCH_WORKERS", batch.DefaultWorkers)
			}

			packager := batch.NewPackager(src, renderer, batch.Options{
				Workers: workers,
				Format:  archiveFormat,
				Logger:  logger.Named("batch"),
			})
			res, err := packager.Package(cmd.Context(), teamID, ref)
			if res != nil {
				fmt.Fprintln(cmd.OutOrStdout(), renderManifest(res.Manifest))
			}
			if err != nil {
				return err
			}
			out := f.out
			if out == "" {
				out = res.FileName()
			}
			if err := writeFile(out, res.Archive); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
	addRenderFlags(cmd, f)
	cmd.Flags().Int64Var(&teamID, "team", 0, "team id")
	cmd.Flags().StringVar(&rosterPath, "roster", "", "team roster spreadsheet (.xls or .xlsx)")
	cmd.Flags().StringVar(&format, "format", "zip", "archive format: zip or tar.xz")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent renders (default REPORT_BATCH_WORKERS)")
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the report HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg := apiapp.DefaultConfigFromEnv()
			if err := ensureParentDirs(cfg.DBPath); err != nil {
				return err
			}
			if err := apiapp.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}

func logLevel(g *globalFlags) string {
	if g.logLevel != "" {
		return g.logLevel
	}
	return envutil.String("REPORT_LOG_LEVEL", "info")
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: --date is required", ErrUsage)
	}
	t, err := source.ParseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: --date must be YYYY-MM-DD", ErrUsage)
	}
	return t, nil
}

func openSource(f *renderFlags) (source.Source, func() error, error) {
	if f.inputPath != "" {
		file, err := source.LoadFile(f.inputPath)
		if err != nil {
			return nil, nil, err
		}
		return file, func() error { return nil }, nil
	}
	dbPath := f.dbPath
	if dbPath == "" {
		dbPath = envutil.String("REPORT_DB_PATH", "data.db")
	}
	if _, err := os.Stat(dbPath); err != nil {
		return nil, nil, fmt.Errorf("database %s: %w", dbPath, err)
	}
	db, err := source.OpenSQLite(dbPath)
	if err != nil {
		return nil, nil, err
	}
	return db, db.Close, nil
}

func newRenderer(f *renderFlags, logger *zap.Logger) (*report.Renderer, error) {
	templatePath := f.templatePath
	if templatePath == "" {
		templatePath = envutil.String("REPORT_TEMPLATE_PATH", "templates/weekly-report.xlsx")
	}
	layoutPath := f.layoutPath
	if layoutPath == "" {
		layoutPath = envutil.String("REPORT_LAYOUT_PATH", "")
	}
	layout, err := report.LoadLayout(layoutPath)
	if err != nil {
		return nil, err
	}
	if n := envutil.Int("REPORT_MAX_EXTRA_BLOCKS", 0); n > 0 {
		layout.MaxExtraBlocks = n
	}
	logoPath := f.logoPath
	if logoPath == "" {
		logoPath = envutil.String("REPORT_LOGO_PATH", "")
	}
	var logo []byte
	if logoPath != "" {
		if logo, err = report.LoadLogo(logoPath); err != nil {
			return nil, err
		}
	}
	return report.NewRenderer(report.Options{
		TemplatePath: templatePath,
		Layout:       layout,
		Logo:         logo,
		Logger:       logger.Named("report"),
	})
}

func writeFile(path string, body []byte) error {
	if err := ensureParentDirs(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func ensureParentDirs(paths ...string) error {
	for _, p := range paths {
		dir := filepath.Dir(p)
		if dir == "." || dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
