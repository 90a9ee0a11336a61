package resourcefilter

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"time"

	"github.com/joshmeranda/resourcefilter/pkg/expr"
	"github.com/joshmeranda/resourcefilter/pkg/filter"
	"sigs.k8s.io/yaml"
)

type Config struct {
	// DefaultFilter is used when no filter expression is given.
	DefaultFilter string

	// Aliases maps short key names to the dotted keys they stand for. Names YAML reads as booleans (y, n, yes, no,
	// on, off, true, false) must be quoted.
	Aliases map[string]string

	// Timezone is the IANA name of the location of datetimes which do not specify their own.
	Timezone string

	CaseInsensitiveRegex bool
	DisableHTMLSearch    bool

	// Include are the file name patterns read when walking directories.
	Include []string
}

func DefaultConfig() *Config {
	return &Config{
		DefaultFilter:        "",
		Aliases:              map[string]string{},
		Timezone:             "Local",
		CaseInsensitiveRegex: false,
		DisableHTMLSearch:    false,
		Include:              []string{},
	}
}

func ConfigFromFile(path string) (*Config, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(bytes, &config); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file: %w", err)
	}

	for name := range config.Aliases {
		if name == "true" || name == "false" {
			return nil, fmt.Errorf("alias name was read as the boolean '%s', quote the name in the config file", name)
		}
	}

	return config, nil
}

// ConfigFromDefaultFile reads resourcefilter.yaml from the user config directory. A missing file yields the
// default config.
func ConfigFromDefaultFile() (*Config, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("could not get user config dir: %w", err)
	}

	path := path.Join(dir, "resourcefilter.yaml")

	config, err := ConfigFromFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}

	return config, err
}

func (config *Config) Location() (*time.Location, error) {
	if config.Timezone == "" {
		return time.Local, nil
	}

	location, err := time.LoadLocation(config.Timezone)
	if err != nil {
		return nil, fmt.Errorf("could not load timezone '%s': %w", config.Timezone, err)
	}

	return location, nil
}

func (config *Config) keyAliases() (map[string]expr.Key, error) {
	aliases := make(map[string]expr.Key, len(config.Aliases))

	for alias, name := range config.Aliases {
		key, err := expr.ParseKey(name)
		if err != nil {
			return nil, fmt.Errorf("could not parse key for alias '%s': %w", alias, err)
		}

		aliases[alias] = key
	}

	return aliases, nil
}

// Backend creates a backend with the behavior the config describes, extended or overridden by opts.
func (config *Config) Backend(opts ...expr.BackendOption) (*expr.Backend, error) {
	location, err := config.Location()
	if err != nil {
		return nil, err
	}

	backendOpts := []expr.BackendOption{
		expr.WithLocation(location),
		expr.WithCaseInsensitiveRE(config.CaseInsensitiveRegex),
		expr.WithHTMLSearch(!config.DisableHTMLSearch),
	}

	return expr.NewBackend(append(backendOpts, opts...)...), nil
}

// Compile compiles expression, or DefaultFilter when expression is empty, with the config's aliases and a backend
// built from opts.
func (config *Config) Compile(expression string, opts ...expr.BackendOption) (*filter.Filter, error) {
	if expression == "" {
		expression = config.DefaultFilter
	}

	backend, err := config.Backend(opts...)
	if err != nil {
		return nil, err
	}

	aliases, err := config.keyAliases()
	if err != nil {
		return nil, err
	}

	return filter.Compile(expression, filter.WithBackend(backend), filter.WithAliases(aliases))
}
