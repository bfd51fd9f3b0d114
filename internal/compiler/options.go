package compiler

import (
	"bytes"
	"io"
	"os"
	"slices"

	"github.com/born-ml/layoutnet/internal/parallel"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// BuildOptions configures compilation and execution of a network.
type BuildOptions struct {
	// OptimizeData enables optional format-harmonization refinements.
	// Reorders required for correctness are inserted regardless.
	OptimizeData bool `yaml:"optimize_data"`

	// Outputs names the primitives whose buffers Execute returns. Empty means
	// every primitive without consumers.
	Outputs []string `yaml:"outputs"`

	// Parallel controls dispatch of independent primitives.
	Parallel parallel.Config `yaml:"parallel"`

	// Logger receives debug traces of the passes. Defaults to the logrus
	// standard logger.
	Logger logrus.FieldLogger `yaml:"-"`
}

// Option mutates BuildOptions.
type Option func(*BuildOptions)

// NewBuildOptions returns defaults with opts applied.
// Defaults: OptimizeData off, parallel.DefaultConfig().
func NewBuildOptions(opts ...Option) BuildOptions {
	o := BuildOptions{
		Parallel: parallel.DefaultConfig(),
		Logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// OptimizeData toggles the optional refinements.
func OptimizeData(enabled bool) Option {
	return func(o *BuildOptions) { o.OptimizeData = enabled }
}

// Outputs selects the primitives returned by Execute.
func Outputs(ids ...string) Option {
	return func(o *BuildOptions) { o.Outputs = slices.Clone(ids) }
}

// Workers sets the number of concurrent primitive dispatches. 1 or less
// executes sequentially.
func Workers(n int) Option {
	return func(o *BuildOptions) {
		o.Parallel.NumWorkers = n
		o.Parallel.Enabled = n > 1
	}
}

// Logger sets the logger used by the passes.
func Logger(l logrus.FieldLogger) Option {
	return func(o *BuildOptions) { o.Logger = l }
}

// ParseBuildOptions decodes YAML on top of the defaults. Unknown keys are
// rejected.
//
// Example:
//
//	optimize_data: true
//	outputs: [tile]
//	parallel:
//	  enabled: true
//	  workers: 4
func ParseBuildOptions(data []byte) (BuildOptions, error) {
	o := NewBuildOptions()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&o); err != nil && !errors.Is(err, io.EOF) {
		return BuildOptions{}, errors.Wrap(err, "parse build options")
	}
	return o, nil
}

// LoadBuildOptions reads build options from a YAML file.
func LoadBuildOptions(path string) (BuildOptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BuildOptions{}, errors.Wrapf(err, "read build options %s", path)
	}
	return ParseBuildOptions(data)
}

func (o *BuildOptions) logger() logrus.FieldLogger {
	if o.Logger == nil {
		return logrus.StandardLogger()
	}
	return o.Logger
}
