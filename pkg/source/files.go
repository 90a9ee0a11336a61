package source

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"
	"github.com/samber/lo"
	"go.uber.org/multierr"
)

// DefaultInclude are the file name patterns read from directories when no others are given.
var DefaultInclude = []string{"*.json", "*.yaml", "*.yml"}

// Document is a single record and where it was read from.
type Document struct {
	Path   string
	Index  int
	Record any
}

// Read decodes every record in r, naming them after name.
func Read(name string, r io.Reader) ([]Document, error) {
	records, err := Decode(r)
	if err != nil {
		return nil, fmt.Errorf("could not decode '%s': %w", name, err)
	}

	return lo.Map(records, func(record any, i int) Document {
		return Document{
			Path:   name,
			Index:  i,
			Record: record,
		}
	}), nil
}

func readFile(path string) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open file '%s': %w", path, err)
	}
	defer f.Close()

	return Read(path, f)
}

// Files reads the records of every path. Directories are walked recursively and only the files whose base name
// matches one of include, or DefaultInclude when include is empty, are read. Files named directly are always read.
// A file which cannot be read does not stop the others, the errors of all such files are combined.
func Files(paths []string, include []string) ([]Document, error) {
	if len(include) == 0 {
		include = DefaultInclude
	}

	patterns := make([]glob.Glob, 0, len(include))
	for _, pattern := range include {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("could not compile include pattern '%s': %w", pattern, err)
		}

		patterns = append(patterns, g)
	}

	matches := func(name string) bool {
		return lo.ContainsBy(patterns, func(g glob.Glob) bool {
			return g.Match(name)
		})
	}

	var documents []Document
	var errs error

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("could not stat '%s': %w", root, err))
			continue
		}

		if !info.IsDir() {
			found, err := readFile(root)
			errs = multierr.Append(errs, err)
			documents = append(documents, found...)

			continue
		}

		err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("could not walk '%s': %w", path, err))
				return nil
			}

			if entry.IsDir() || !matches(entry.Name()) {
				return nil
			}

			found, err := readFile(path)
			errs = multierr.Append(errs, err)
			documents = append(documents, found...)

			return nil
		})

		errs = multierr.Append(errs, err)
	}

	return documents, errs
}
