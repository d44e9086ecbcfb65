// Package cmd contains all the commands included in the binary file.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/crillab/sparsenum/config"
	"github.com/crillab/sparsenum/logger"
)

const (
	logFormatFlag = "log-format"
	logFormatConf = "log.format"
	logLevelFlag  = "log-level"
	logLevelConf  = "log.level"
)

var configPaths = []string{"/etc/sparsenum", "$HOME/.sparsenum", "."}

// NewRootCommand returns the sparsenum command. All children commands read their
// configuration from CLI flags, environment variables prefixed with SPARSENUM, or
// config.yaml (in that order).
func NewRootCommand() *cobra.Command {
	return newRootCommand(config.NewViper(configPaths...))
}

func newRootCommand(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:   "sparsenum",
		Short: "Enumerate the best conformations of a sparse protein design problem",
		Long: `Enumerate the best conformations of a sparse protein design problem.

A problem file describes the positions, their choices, an energy matrix and a tree decomposition
of the positions. Conformations (or sequences) are returned in non-decreasing order of energy.`,
		SilenceUsage: true,
	}
	flags := root.PersistentFlags()
	flags.String(logFormatFlag, "text", "log format, either 'text' or 'json'")
	flags.String(logLevelFlag, "info", "log level, one of 'none', 'debug', 'info', 'warn' or 'error'")
	mustBindPFlag(v, logFormatConf, flags.Lookup(logFormatFlag))
	mustBindPFlag(v, logLevelConf, flags.Lookup(logLevelFlag))

	root.AddCommand(
		newEnumerateCommand(v),
		newTreeCommand(),
		newCountCommand(),
		newCheckCommand(v),
	)
	return root
}

// mustBindPFlag attempts to bind a specific key to a pflag (as used by cobra) and panics
// if the binding fails with a non-nil error.
func mustBindPFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic("failed to bind pflag: " + err.Error())
	}
}

// setup reads the configuration managed by v and builds the logger it describes.
func setup(v *viper.Viper) (*config.Config, *logger.ZapLogger, error) {
	cfg, err := config.ReadConfig(v)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.NewLogger(cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
