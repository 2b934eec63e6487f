package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/ironsheep/raster-tools-mcp/internal/engine"
	"github.com/ironsheep/raster-tools-mcp/internal/logging"
	"github.com/ironsheep/raster-tools-mcp/internal/processing"
	"github.com/ironsheep/raster-tools-mcp/internal/raster"
)

// EnvPrefix namespaces the environment variables read by Load.
const EnvPrefix = "RASTERTOOLS"

// Env holds the settings read from the environment.
type Env struct {
	MaxWorkers  int    `envconfig:"MAXWORKERS" default:"0" validate:"gte=0"`
	NoTQDM      bool   `envconfig:"NOTQDM" default:"false"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"text" validate:"oneof=text json"`
	MetricsAddr string `envconfig:"METRICS_ADDR"`
}

var validate = validator.New()

// Load reads the RASTERTOOLS_* environment variables.
func Load() (*Env, error) {
	var env Env
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	env.LogLevel = strings.ToLower(env.LogLevel)
	env.LogFormat = strings.ToLower(env.LogFormat)
	if err := validate.Struct(&env); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &env, nil
}

// Logging returns the logger settings.
func (e *Env) Logging() logging.Config {
	return logging.Config{Level: e.LogLevel, Format: e.LogFormat}
}

// EngineOptions converts the knobs into engine options.
func (e *Env) EngineOptions() []engine.Option {
	var opts []engine.Option
	if e.MaxWorkers > 0 {
		opts = append(opts, engine.WithWorkers(e.MaxWorkers))
	}
	if e.NoTQDM {
		opts = append(opts, engine.WithoutProgress())
	}
	return opts
}

// Job is one filtering run read from a YAML file.
type Job struct {
	Input      string         `yaml:"input" json:"input" validate:"required"`
	Output     string         `yaml:"output" json:"output" validate:"required,nefield=Input"`
	Filter     string         `yaml:"filter" json:"filter" validate:"required"`
	WindowSize int            `yaml:"window_size" json:"window_size" validate:"gte=0"`
	Overlap    int            `yaml:"overlap" json:"overlap" validate:"gte=0"`
	PadMode    string         `yaml:"pad_mode" json:"pad_mode" validate:"omitempty,oneof=none constant edge maximum mean median minimum reflect symmetric wrap"`
	Bands      []int          `yaml:"bands" json:"bands" validate:"omitempty,dive,gte=1"`
	Workers    int            `yaml:"workers" json:"workers" validate:"gte=0"`
	Args       map[string]any `yaml:"args" json:"args"`
}

// ErrInvalidJob is wrapped by every validation failure of LoadJob.
var ErrInvalidJob = errors.New("invalid job")

// LoadJob reads and validates the job file at path.
func LoadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job file: %w", err)
	}
	return ParseJob(data)
}

// ParseJob decodes and validates a YAML job.
func ParseJob(data []byte) (*Job, error) {
	var job Job
	if err := yaml.UnmarshalStrict(data, &job); err != nil {
		return nil, fmt.Errorf("failed to parse job: %w", err)
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return &job, nil
}

// Validate checks the job fields. The filter name and the options against
// the input raster are checked when the job runs.
func (j *Job) Validate() error {
	if err := validate.Struct(j); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			fe := ve[0]
			return fmt.Errorf("%w: %s fails %q", ErrInvalidJob, fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}
	return nil
}

// Unit returns the configured filter named by the job.
func (j *Job) Unit() (*processing.Unit, error) {
	u, err := processing.LookupFilter(j.Filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}
	u.Configure(j.Args)
	return u, nil
}

// Options returns the engine options of the job on top of those derived
// from env, which may be nil.
func (j *Job) Options(env *Env) ([]engine.Option, error) {
	var opts []engine.Option
	if env != nil {
		opts = append(opts, env.EngineOptions()...)
	}
	if j.WindowSize > 0 {
		opts = append(opts, engine.WithWindowSize(j.WindowSize))
	}
	opts = append(opts, engine.WithOverlap(j.Overlap))
	if j.PadMode != "" {
		m, err := raster.ParsePadMode(j.PadMode)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJob, err)
		}
		opts = append(opts, engine.WithPadMode(m))
	}
	if len(j.Bands) > 0 {
		opts = append(opts, engine.WithBands(j.Bands...))
	}
	if j.Workers > 0 {
		opts = append(opts, engine.WithWorkers(j.Workers))
	}
	return opts, nil
}
