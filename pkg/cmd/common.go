package cmd

import (
	"fmt"
	"io"
	"sync"

	resourcefilter "github.com/joshmeranda/resourcefilter/pkg"
	"github.com/joshmeranda/resourcefilter/pkg/expr"
	"github.com/joshmeranda/resourcefilter/pkg/filter"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var Version = ""

const (
	FlagNameVerbose = "verbose"
	FlagNameConfig  = "config"
	FlagNameFilter  = "filter"
)

var flagFilter = cli.StringFlag{
	Name:    FlagNameFilter,
	Usage:   "the filter expression records must match, the configured default filter if empty",
	Aliases: []string{"f"},
	EnvVars: []string{"RESOURCEFILTER_FILTER"},
}

func newLogger(ctx *cli.Context) *zap.SugaredLogger {
	if ctx.Bool(FlagNameVerbose) {
		return resourcefilter.NewLogger(resourcefilter.WithLevel(zap.NewAtomicLevelAt(zap.DebugLevel)))
	}

	return resourcefilter.NewLogger()
}

func loadConfig(ctx *cli.Context) (*resourcefilter.Config, error) {
	if path := ctx.Path(FlagNameConfig); path != "" {
		config, err := resourcefilter.ConfigFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("could not load config '%s': %w", path, err)
		}

		return config, nil
	}

	config, err := resourcefilter.ConfigFromDefaultFile()
	if err != nil {
		return nil, fmt.Errorf("could not load default config: %w", err)
	}

	return config, nil
}

// newWarningFunc writes each warning to w. Warnings may come from several workers so writes are serialized.
func newWarningFunc(w io.Writer, logger *zap.SugaredLogger) func(string) {
	mu := &sync.Mutex{}

	return func(message string) {
		logger.Debugf("filter warning: %s", message)

		mu.Lock()
		defer mu.Unlock()

		fmt.Fprintf(w, "WARNING: %s\n", message)
	}
}

// compileFilter compiles the filter flag. Deprecation warnings are written to the app's error writer.
func compileFilter(ctx *cli.Context, config *resourcefilter.Config, logger *zap.SugaredLogger) (*filter.Filter, error) {
	f, err := config.Compile(ctx.String(FlagNameFilter), expr.WithWarningFunc(newWarningFunc(ctx.App.ErrWriter, logger)))
	if err != nil {
		return nil, fmt.Errorf("could not parse filter: %w", err)
	}

	logger.Debugf("compiled filter '%s'", f)

	return f, nil
}
