package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/joshmeranda/resourcefilter/pkg/source"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
)

const stdinPath = "-"

func readDocuments(ctx *cli.Context, include []string) ([]source.Document, error) {
	paths := ctx.Args().Slice()
	if len(paths) == 0 {
		paths = []string{stdinPath}
	}

	var documents []source.Document
	var errs error

	for _, p := range paths {
		var found []source.Document
		var err error

		if p == stdinPath {
			found, err = source.Read(stdinPath, ctx.App.Reader)
		} else {
			found, err = source.Files([]string{p}, include)
		}

		errs = multierr.Append(errs, err)
		documents = append(documents, found...)
	}

	return documents, errs
}

// Eval prints every record read from the given paths which matches the filter as a line of JSON. With --value the
// value of the filter is printed for every record instead.
func Eval(ctx *cli.Context) error {
	logger := newLogger(ctx).Named("eval")

	config, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	f, err := compileFilter(ctx, config, logger)
	if err != nil {
		return err
	}

	include := ctx.StringSlice("include")
	if len(include) == 0 {
		include = config.Include
	}

	documents, errs := readDocuments(ctx, include)
	logger.Debugf("read %d records", len(documents))

	encoder := json.NewEncoder(ctx.App.Writer)
	printValue := ctx.Bool("value")

	for _, document := range documents {
		var output any

		if printValue {
			value, err := f.Value(document.Record)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("could not evaluate record %d of '%s': %w", document.Index, document.Path, err))
				continue
			}

			output = value
		} else {
			matched, err := f.Evaluate(document.Record)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("could not evaluate record %d of '%s': %w", document.Index, document.Path, err))
				continue
			}

			if !matched {
				continue
			}

			output = document.Record
		}

		if err := encoder.Encode(output); err != nil {
			return fmt.Errorf("could not write output: %w", err)
		}
	}

	if errs != nil {
		return fmt.Errorf("could not evaluate every record: %w", errs)
	}

	return nil
}
