package cli

import (
	"context"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tabula/internal/config"
	"github.com/roach88/tabula/internal/querysql"
	"github.com/roach88/tabula/internal/store"
)

// DumpOptions holds flags for the dump command.
type DumpOptions struct {
	*RootOptions
	Database string
	Driver   string
	Config   string
	Where    string
}

// DumpResult is the JSON payload of the dump command.
type DumpResult struct {
	Table string      `json:"table"`
	Rows  []store.Row `json:"rows"`
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DumpOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dump <table>",
		Short: "Print the stored rows of a table",
		Long: `Print the rows of a table as stored, without decoding serialized columns.

The database comes from --db, or from the database section of --config.

Example:
  tabula dump post --db ./app.db
  tabula dump post --config tables.yaml --where "title = 'draft'" --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().StringVar(&opts.Driver, "driver", "", "database/sql driver (sqlite3|sqlite)")
	cmd.Flags().StringVar(&opts.Config, "config", "", "config file supplying the database location")
	cmd.Flags().StringVar(&opts.Where, "where", "", "SQL condition selecting rows")

	return cmd
}

func runDump(opts *DumpOptions, table string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	path, driver := opts.Database, opts.Driver
	if opts.Config != "" {
		f, err := config.Load(opts.Config)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeConfigLoad, "cannot load config", err)
		}
		if path == "" {
			path = f.Database.Path
		}
		if driver == "" {
			driver = f.Database.Driver
		}
	}
	if strings.TrimSpace(path) == "" {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "no database: pass --db or --config", nil)
	}

	s, err := store.Open(path, store.WithDriver(driver))
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeOpenFailed, "cannot open database", err)
	}
	defer s.Close()

	stmt := querysql.NewBuilder(s.Dialect(), table).Select(opts.Where, nil, querysql.LockNone)
	slog.Debug("executing statement", "table", table, "op", "dump", "sql", stmt.SQL)
	formatter.VerboseLog("Query: %s", stmt.SQL)

	rows, err := s.Query(context.Background(), stmt.SQL, stmt.Args...)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeQueryFailed, "query failed", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(DumpResult{Table: table, Rows: rows})
	}
	plain := make([]map[string]any, len(rows))
	for i, r := range rows {
		plain[i] = r
	}
	writeRows(formatter.Writer, plain)
	formatter.VerboseLog("%d row(s)", len(rows))
	return nil
}
