package fw

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dshills/firewyrm/fw/emit"
	"github.com/dshills/firewyrm/fw/report"
	"github.com/dshills/firewyrm/fw/store"
	"gopkg.in/yaml.v3"
)

// Config describes a runner in YAML.
//
//	banner: true
//	output:
//	  format: styled   # text, json or styled
//	  path: ""         # empty means stdout
//	events:
//	  format: json     # none, text or json
//	  path: events.jsonl
//	store:
//	  driver: sqlite   # memory, sqlite or mysql; empty disables history
//	  dsn: runs.db
type Config struct {
	Banner *bool        `yaml:"banner"`
	Output OutputConfig `yaml:"output"`
	Events EventsConfig `yaml:"events"`
	Store  StoreConfig  `yaml:"store"`
}

// OutputConfig selects the report line sink.
type OutputConfig struct {
	Format string `yaml:"format"`
	Path   string `yaml:"path"`
}

// EventsConfig selects the event emitter.
type EventsConfig struct {
	Format string `yaml:"format"`
	Path   string `yaml:"path"`
}

// StoreConfig selects the run history store.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// LoadConfig decodes a YAML config from r. Unknown keys are rejected and an
// empty document yields the zero Config.
func LoadConfig(r io.Reader) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigFile reads a YAML config from path.
func LoadConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return LoadConfig(f)
}

// Validate checks the enumerated fields.
func (c Config) Validate() error {
	switch c.Output.Format {
	case "", "text", "json", "styled":
	default:
		return &RunnerError{Message: fmt.Sprintf("unknown output format %q", c.Output.Format), Code: "INVALID_CONFIG"}
	}
	switch c.Events.Format {
	case "", "none", "text", "json":
	default:
		return &RunnerError{Message: fmt.Sprintf("unknown events format %q", c.Events.Format), Code: "INVALID_CONFIG"}
	}
	switch c.Store.Driver {
	case "", "memory":
	case "sqlite", "mysql":
		if c.Store.DSN == "" {
			return &RunnerError{Message: c.Store.Driver + " store needs a dsn", Code: "INVALID_CONFIG"}
		}
	default:
		return &RunnerError{Message: fmt.Sprintf("unknown store driver %q", c.Store.Driver), Code: "INVALID_CONFIG"}
	}
	return nil
}

// Options opens the sinks and store the config describes and returns the
// matching runner options. The returned close function releases them and
// must be called once the runner is done.
func (c Config) Options() ([]Option, func() error, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}

	var closers []io.Closer
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	fail := func(err error) ([]Option, func() error, error) {
		_ = closeAll()
		return nil, nil, err
	}

	var opts []Option
	if c.Banner != nil {
		opts = append(opts, WithBanner(*c.Banner))
	}

	out, err := openOutput(c.Output.Path, &closers)
	if err != nil {
		return fail(err)
	}
	switch c.Output.Format {
	case "json":
		opts = append(opts, WithSink(report.JSONSink(out)))
	case "styled":
		opts = append(opts, WithSink(report.NewStyledSink(out)))
	default:
		opts = append(opts, WithSink(report.WriterSink(out)))
	}

	if c.Events.Format != "" && c.Events.Format != "none" {
		w, err := openOutput(c.Events.Path, &closers)
		if err != nil {
			return fail(err)
		}
		opts = append(opts, WithEmitter(emit.NewLogEmitter(w, c.Events.Format == "json")))
	}

	var st store.Store
	switch c.Store.Driver {
	case "memory":
		st = store.NewMemStore()
	case "sqlite":
		st, err = store.NewSQLiteStore(c.Store.DSN)
	case "mysql":
		st, err = store.NewMySQLStore(c.Store.DSN)
	}
	if err != nil {
		return fail(fmt.Errorf("open %s store: %w", c.Store.Driver, err))
	}
	if st != nil {
		closers = append(closers, st)
		opts = append(opts, WithStore(st))
	}

	return opts, closeAll, nil
}

func openOutput(path string, closers *[]io.Closer) (io.Writer, error) {
	if path == "" {
		return os.Stdout, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	*closers = append(*closers, f)
	return f, nil
}
