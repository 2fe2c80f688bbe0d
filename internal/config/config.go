package config

import (
	_ "embed"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/ledgerd/internal/model"
	"github.com/roach88/ledgerd/internal/operation"
)

//go:embed schema.cue
var schemaSource string

// Execution modes.
const (
	ModeSync  = "sync"
	ModeAsync = "async"
)

// Config is the process configuration. Durations are Go duration strings.
type Config struct {
	OrganizationID string    `yaml:"organization_id" json:"organization_id"`
	Database       string    `yaml:"database" json:"database"`
	Execution      Execution `yaml:"execution" json:"execution"`
	Callback       Callback  `yaml:"callback" json:"callback"`
	Metrics        Metrics   `yaml:"metrics" json:"metrics"`
	Log            Log       `yaml:"log" json:"log"`
}

// Execution selects how operations are run and answered.
type Execution struct {
	Mode         string `yaml:"mode" json:"mode"`
	Response     string `yaml:"response" json:"response"`
	PollInterval string `yaml:"poll_interval" json:"poll_interval"`
	Workers      int    `yaml:"workers" json:"workers"`
}

// Callback configures result delivery for async callback mode.
type Callback struct {
	URL           string  `yaml:"url" json:"url"`
	RatePerSecond float64 `yaml:"rate_per_second" json:"rate_per_second"`
	Burst         int     `yaml:"burst" json:"burst"`
	Timeout       string  `yaml:"timeout" json:"timeout"`
}

// Metrics configures the Prometheus endpoint. An empty Listen disables it.
type Metrics struct {
	Listen string `yaml:"listen" json:"listen"`
}

// Log configures the process logger.
type Log struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Error reports an invalid or unreadable configuration.
type Error struct {
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("config")
	if e.Field != "" {
		b.WriteString(" ")
		b.WriteString(e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Default returns a configuration that runs synchronously against
// ./ledgerd.db. OrganizationID has no default.
func Default() Config {
	return Config{
		Database: "ledgerd.db",
		Execution: Execution{
			Mode:         ModeSync,
			Response:     string(model.ResponsePoll),
			PollInterval: operation.DefaultPollInterval.String(),
			Workers:      4,
		},
		Callback: Callback{
			Burst:   1,
			Timeout: "10s",
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path over Default, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, &Error{Message: "read " + path, Err: err}
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, &Error{Message: "parse " + path, Err: err}
		}
	}
	if err := ApplyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnvOverrides replaces fields with any non-empty LEDGERD_* variable.
func ApplyEnvOverrides(cfg *Config) error {
	if cfg == nil {
		return nil
	}
	setString(&cfg.OrganizationID, "LEDGERD_ORGANIZATION_ID")
	setString(&cfg.Database, "LEDGERD_DATABASE")
	setString(&cfg.Execution.Mode, "LEDGERD_EXECUTION_MODE")
	setString(&cfg.Execution.Response, "LEDGERD_EXECUTION_RESPONSE")
	setString(&cfg.Execution.PollInterval, "LEDGERD_POLL_INTERVAL")
	setString(&cfg.Callback.URL, "LEDGERD_CALLBACK_URL")
	setString(&cfg.Metrics.Listen, "LEDGERD_METRICS_LISTEN")
	setString(&cfg.Log.Level, "LEDGERD_LOG_LEVEL")
	setString(&cfg.Log.Format, "LEDGERD_LOG_FORMAT")

	if v := strings.TrimSpace(os.Getenv("LEDGERD_WORKERS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &Error{Field: "execution.workers", Message: "LEDGERD_WORKERS is not an integer", Err: err}
		}
		cfg.Execution.Workers = n
	}
	if v := strings.TrimSpace(os.Getenv("LEDGERD_CALLBACK_RATE")); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return &Error{Field: "callback.rate_per_second", Message: "LEDGERD_CALLBACK_RATE is not a number", Err: err}
		}
		cfg.Callback.RatePerSecond = r
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Validate checks c against the embedded schema, then the rules that span
// more than one field.
func (c Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return &Error{Message: "schema", Err: err}
	}

	v := schema.Unify(ctx.Encode(c))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fromCUE(err)
	}

	if c.Execution.Mode == ModeAsync && c.Execution.Response == string(model.ResponseCallback) && c.Callback.URL == "" {
		return &Error{Field: "callback.url", Message: "required for async callback mode"}
	}
	for field, d := range map[string]string{
		"execution.poll_interval": c.Execution.PollInterval,
		"callback.timeout":        c.Callback.Timeout,
	} {
		if _, err := time.ParseDuration(d); err != nil {
			return &Error{Field: field, Message: "invalid duration", Err: err}
		}
	}
	return nil
}

func fromCUE(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &Error{Message: "invalid", Err: err}
	}
	first := errs[0]
	format, args := first.Msg()
	return &Error{
		Field:   strings.Join(first.Path(), "."),
		Message: fmt.Sprintf(format, args...),
	}
}

// PollInterval returns the advertised poll interval.
func (c Config) PollInterval() time.Duration {
	d, err := time.ParseDuration(c.Execution.PollInterval)
	if err != nil || d <= 0 {
		return operation.DefaultPollInterval
	}
	return d
}

// ExecutionMode builds the executor mode c describes. In async callback
// mode results are posted to Callback.URL.
func (c Config) ExecutionMode() operation.Mode {
	if c.Execution.Mode != ModeAsync {
		return operation.SyncMode{}
	}

	m := operation.AsyncMode{
		Strategy: model.ResponseStrategy{Kind: model.ResponseKind(c.Execution.Response)},
		Workers:  c.Execution.Workers,
	}
	if m.Strategy.Kind == model.ResponsePoll {
		m.Strategy.PollIntervalMs = c.PollInterval().Milliseconds()
	}
	if m.Strategy.Kind == model.ResponseCallback {
		m.Sink = c.callbackSink()
	}
	return m
}

func (c Config) callbackSink() *operation.HTTPSink {
	var opts []operation.SinkOption
	if d, err := time.ParseDuration(c.Callback.Timeout); err == nil && d > 0 {
		opts = append(opts, operation.WithHTTPClient(&http.Client{Timeout: d}))
	}
	if c.Callback.RatePerSecond > 0 {
		burst := c.Callback.Burst
		if burst < 1 {
			burst = 1
		}
		opts = append(opts, operation.WithRateLimit(c.Callback.RatePerSecond, burst))
	}
	return operation.NewHTTPSink(c.Callback.URL, opts...)
}
