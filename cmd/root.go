package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fbz-tec/dbport/internal/logger"
	"github.com/fbz-tec/dbport/internal/metrics"
)

// rootFlags are shared by every subcommand.
type rootFlags struct {
	verbose   bool
	quiet     bool
	logFormat string
	logFile   string
	stats     bool

	logCloser io.Closer
}

func newRootCmd() *cobra.Command {
	rf := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "dbport",
		Short: "Run queries against PostgreSQL, MySQL, SQLite or Redis and export the results",
		Long: `dbport talks to several databases through one interface.
It runs a statement (optionally inside a transaction) and exports the
result set to a file or stdout.

Supported backends: postgresql (postgres), mysql, sqlite, redis.

Supported output formats:
 • CSV : standard text export with customizable delimiter
 • JSON: structured export for API or data processing
 • XML : hierarchical export for interoperability
 • YAML: human-readable structured export for configs and tools
 • SQL : generate INSERT statements
 • XLSX: Excel workbook
 • TEMPLATE: custom output through Go templates`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rf.setupLogging()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if rf.stats {
				logStats()
			}
			if rf.logCloser != nil {
				return rf.logCloser.Close()
			}
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&rf.verbose, "verbose", "v", false, "Enable verbose output with detailed information")
	pf.BoolVarP(&rf.quiet, "quiet", "q", false, "Enable quiet mode: only display error messages")
	pf.StringVar(&rf.logFormat, "log-format", "text", "Log format (text, json)")
	pf.StringVar(&rf.logFile, "log-file", "", "Write logs to a rotating file instead of stderr")
	pf.BoolVar(&rf.stats, "stats", false, "Print connection, query and transaction counters when done")

	rootCmd.AddCommand(newExecCmd(), newBackendsCmd(), newVersionCmd())
	return rootCmd
}

// Execute runs the dbport command line.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func (rf *rootFlags) setupLogging() error {
	if rf.verbose && rf.quiet {
		return fmt.Errorf("cannot use --verbose and --quiet flags together")
	}

	var out io.Writer = os.Stderr
	if rf.logFile != "" {
		w := logger.FileWriter(rf.logFile)
		rf.logCloser = w
		out = w
	}

	switch strings.ToLower(rf.logFormat) {
	case "json":
		logger.UseStructured(out)
	case "text", "":
		if rf.logFile != "" {
			logger.GetLogger().SetOutput(out)
		}
	default:
		return fmt.Errorf("invalid log format %q (use text or json)", rf.logFormat)
	}

	logger.SetQuiet(rf.quiet)
	logger.SetVerbose(rf.verbose)
	if rf.verbose {
		logger.Debug("Verbose mode enabled")
	}
	return nil
}

func logStats() {
	snap, err := metrics.Snapshot()
	if err != nil {
		logger.Warn("Unable to collect statistics: %v", err)
		return
	}
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		logger.Info("%s %g", k, snap[k])
	}
}
