// Package cli implements the regulator command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/MrEthical07/regulator"
	"github.com/MrEthical07/regulator/ruleset"
)

var (
	rulesPath string
	logLevel  string
	devLogs   bool
)

var rootCmd = &cobra.Command{
	Use:           "regulator",
	Short:         "Inspect and exercise bit-set regulated action tables",
	Long:          "Loads YAML rule sets that bind action names to bits, then plans, checks, stores, benchmarks, or signs selectors for them.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rulesPath, "rules", "r", "", "Rule set YAML file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVar(&devLogs, "dev", false, "Human-readable development logs")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	if devLogs {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

// loadRules reads --rules and returns the rule set, its content hash, and a compiled engine.
func loadRules() (*ruleset.RuleSet, string, engine, *zap.Logger, error) {
	if rulesPath == "" {
		return nil, "", nil, nil, fmt.Errorf("--rules is required")
	}
	rs, hash, err := ruleset.Load(rulesPath)
	if err != nil {
		return nil, "", nil, nil, err
	}
	logger, err := newLogger()
	if err != nil {
		return nil, "", nil, nil, err
	}
	eng, err := buildEngine(rs, logger)
	if err != nil {
		return nil, "", nil, nil, err
	}
	logger.Debug("rule set loaded",
		zap.String("name", rs.Name),
		zap.String("hash", hash),
		zap.Int("actions", len(rs.Actions)),
	)
	return rs, hash, eng, logger, nil
}

func buildEngine(rs *ruleset.RuleSet, logger *zap.Logger) (engine, error) {
	cfg, err := regulator.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return newEngine(rs, cfg, logger)
}
