package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/xeptore/tubecast/constants"
	"github.com/xeptore/tubecast/redact"
)

const defaultFilename = "config.yaml"

type Config struct {
	Server      Server      `yaml:"server"`
	Log         Log         `yaml:"log"`
	Credentials Credentials `yaml:"credentials"`
	Downloader  Downloader  `yaml:"downloader"`
	Transcoder  Transcoder  `yaml:"transcoder"`
	Workdir     Workdir     `yaml:"workdir"`
}

func (c *Config) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Dict("server", c.Server.ToDict()).
		Dict("log", c.Log.ToDict()).
		Dict("credentials", c.Credentials.ToDict()).
		Dict("downloader", c.Downloader.ToDict()).
		Dict("transcoder", c.Transcoder.ToDict()).
		Dict("workdir", c.Workdir.ToDict())
}

func (c *Config) setDefaults() {
	c.Server.setDefaults()
	c.Log.setDefaults()
	c.Credentials.setDefaults()
	c.Downloader.setDefaults()
	c.Transcoder.setDefaults()
	c.Workdir.setDefaults()
}

func (c *Config) validate() error {
	if err := c.Server.validate(); nil != err {
		return fmt.Errorf("server config validation failed: %v", err)
	}

	if err := c.Log.validate(); nil != err {
		return fmt.Errorf("log config validation failed: %v", err)
	}

	if err := c.Credentials.validate(); nil != err {
		return fmt.Errorf("credentials config validation failed: %v", err)
	}

	if err := c.Downloader.validate(); nil != err {
		return fmt.Errorf("downloader config validation failed: %v", err)
	}

	if err := c.Transcoder.validate(); nil != err {
		return fmt.Errorf("transcoder config validation failed: %v", err)
	}

	if err := c.Workdir.validate(); nil != err {
		return fmt.Errorf("workdir config validation failed: %v", err)
	}

	return nil
}

type Server struct {
	Addr              string   `yaml:"addr"`
	MaxJobs           int      `yaml:"max_jobs"`
	RateLimit         float64  `yaml:"rate_limit"`
	RateBurst         int      `yaml:"rate_burst"`
	ReadHeaderTimeout Duration `yaml:"read_header_timeout"`
	RequestTimeout    Duration `yaml:"request_timeout"`
	ShutdownTimeout   Duration `yaml:"shutdown_timeout"`
}

func (c *Server) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Str("addr", c.Addr).
		Int("max_jobs", c.MaxJobs).
		Float64("rate_limit", c.RateLimit).
		Int("rate_burst", c.RateBurst).
		Str("read_header_timeout", c.ReadHeaderTimeout.String()).
		Str("request_timeout", c.RequestTimeout.String()).
		Str("shutdown_timeout", c.ShutdownTimeout.String())
}

func (c *Server) setDefaults() {
	if c.Addr == "" {
		c.Addr = ":8000"
	}

	if c.MaxJobs == 0 {
		c.MaxJobs = 2
	}

	if c.RateLimit > 0 && c.RateBurst == 0 {
		c.RateBurst = 1
	}

	if c.ReadHeaderTimeout.Duration == 0 {
		c.ReadHeaderTimeout.Duration = 10 * time.Second
	}

	if c.RequestTimeout.Duration == 0 {
		c.RequestTimeout.Duration = 30 * time.Minute
	}

	if c.ShutdownTimeout.Duration == 0 {
		c.ShutdownTimeout.Duration = 15 * time.Second
	}
}

func (c *Server) validate() error {
	if c.MaxJobs < 0 {
		return errors.New("max_jobs must be greater than 0")
	}

	if c.RateLimit < 0 {
		return errors.New("rate_limit must not be negative")
	}

	if c.RateBurst < 0 {
		return errors.New("rate_burst must not be negative")
	}

	if c.ReadHeaderTimeout.Duration < 0 {
		return errors.New("read_header_timeout must be greater than 0")
	}

	if c.RequestTimeout.Duration < 0 {
		return errors.New("request_timeout must be greater than 0")
	}

	if c.ShutdownTimeout.Duration < 0 {
		return errors.New("shutdown_timeout must be greater than 0")
	}

	return nil
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Log) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Str("level", c.Level).
		Str("format", c.Format)
}

func (c *Log) setDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}

	if c.Format == "" {
		c.Format = "auto"
	}
}

func (c *Log) validate() error {
	if !slices.Contains([]string{"trace", "debug", "info", "warn", "error", "fatal", "panic"}, c.Level) {
		return fmt.Errorf(
			"level must be one of: trace, debug, info, warn, error, fatal, panic, got: %s",
			c.Level,
		)
	}

	if !slices.Contains([]string{"json", "pretty", "auto"}, c.Format) {
		return fmt.Errorf("format must be 'json', 'pretty' or 'auto', got: %s", c.Format)
	}

	return nil
}

// Credentials describes where the cookie blob taken from the environment is written.
type Credentials struct {
	Path string `yaml:"path"`
	Blob string `yaml:"-"`
}

func (c *Credentials) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Str("path", c.Path).
		Str("blob", redact.Blob(c.Blob))
}

func (c *Credentials) setDefaults() {
	if c.Path == "" {
		c.Path = "/tmp/cookies.txt"
	}
}

func (c *Credentials) validate() error {
	return nil
}

const (
	TaggingNative = "native"
	TaggingFFmpeg = "ffmpeg"

	PolicyLadder   = "ladder"
	PolicyFallback = "fallback"
)

type StrategyEntry struct {
	Name    string `yaml:"name"`
	Client  string `yaml:"client"`
	Cookies bool   `yaml:"cookies"`
}

type Downloader struct {
	Binary         string          `yaml:"binary"`
	Tagging        string          `yaml:"tagging"`
	Policy         string          `yaml:"policy"`
	RetryMarker    string          `yaml:"retry_marker"`
	Strategies     []StrategyEntry `yaml:"strategies"`
	ExtraArgs      []string        `yaml:"extra_args"`
	AttemptTimeout Duration        `yaml:"attempt_timeout"`
}

func (c *Downloader) ToDict() *zerolog.Event {
	strategies := zerolog.Arr()
	for _, s := range c.Strategies {
		strategies.Dict(zerolog.Dict().Str("name", s.Name).Str("client", s.Client).Bool("cookies", s.Cookies))
	}

	return zerolog.Dict().
		Str("binary", c.Binary).
		Str("tagging", c.Tagging).
		Str("policy", c.Policy).
		Str("retry_marker", c.RetryMarker).
		Array("strategies", strategies).
		Strs("extra_args", c.ExtraArgs).
		Str("attempt_timeout", c.AttemptTimeout.String())
}

func (c *Downloader) setDefaults() {
	if c.Binary == "" {
		c.Binary = "yt-dlp"
	}

	if c.Tagging == "" {
		c.Tagging = TaggingNative
	}

	if c.Policy == "" {
		c.Policy = PolicyLadder
	}

	if c.RetryMarker == "" {
		c.RetryMarker = "cookies"
	}

	if c.AttemptTimeout.Duration == 0 {
		c.AttemptTimeout.Duration = 15 * time.Minute
	}
}

func (c *Downloader) validate() error {
	if !slices.Contains([]string{TaggingNative, TaggingFFmpeg}, c.Tagging) {
		return fmt.Errorf("tagging must be '%s' or '%s', got: %s", TaggingNative, TaggingFFmpeg, c.Tagging)
	}

	if !slices.Contains([]string{PolicyLadder, PolicyFallback}, c.Policy) {
		return fmt.Errorf("policy must be '%s' or '%s', got: %s", PolicyLadder, PolicyFallback, c.Policy)
	}

	for i, s := range c.Strategies {
		if s.Name == "" {
			return fmt.Errorf("strategies[%d]: name is required", i)
		}
	}

	names := make([]string, 0, len(c.Strategies))
	for _, s := range c.Strategies {
		names = append(names, s.Name)
	}
	if dups := lo.FindDuplicates(names); len(dups) > 0 {
		return fmt.Errorf("strategy names must be unique, duplicated: %v", dups)
	}

	if c.AttemptTimeout.Duration < 0 {
		return errors.New("attempt_timeout must be greater than 0")
	}

	return nil
}

type Transcoder struct {
	Binary  string   `yaml:"binary"`
	Quality string   `yaml:"quality"`
	Timeout Duration `yaml:"timeout"`
}

func (c *Transcoder) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Str("binary", c.Binary).
		Str("quality", c.Quality).
		Str("timeout", c.Timeout.String())
}

func (c *Transcoder) setDefaults() {
	if c.Binary == "" {
		c.Binary = "ffmpeg"
	}

	if c.Quality == "" {
		c.Quality = "0"
	}

	if c.Timeout.Duration == 0 {
		c.Timeout.Duration = 15 * time.Minute
	}
}

func (c *Transcoder) validate() error {
	if c.Timeout.Duration < 0 {
		return errors.New("timeout must be greater than 0")
	}

	return nil
}

type Workdir struct {
	Base string `yaml:"base"`
}

func (c *Workdir) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Str("base", c.Base)
}

func (c *Workdir) setDefaults() {
	if c.Base == "" {
		c.Base = os.TempDir()
	}
}

func (c *Workdir) validate() error {
	if i, err := os.Stat(c.Base); nil != err {
		if errors.Is(err, os.ErrNotExist) {
			return errors.New("base does not exist")
		}

		return fmt.Errorf("failed to stat base: %v", err)
	} else if !i.IsDir() {
		return errors.New("base must be a directory")
	}

	return nil
}

type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return fmt.Errorf("failed to parse duration: %v", err)
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("failed to parse duration: %v", err)
	}

	d.Duration = parsed

	return nil
}

// Load reads the config file, falling back to defaults only when no file was
// explicitly requested and the default one does not exist.
func Load(filename string) (*Config, error) {
	var conf Config

	explicit := len(filename) > 0
	filename = lo.Ternary(explicit, filename, defaultFilename)

	data, err := os.ReadFile(filename)
	switch {
	case nil == err:
		if err := yaml.Unmarshal(data, &conf); nil != err {
			return nil, fmt.Errorf("failed to parse config file %s: %v", filename, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config file %s: %v", filename, err)
	}

	conf.Credentials.Blob = os.Getenv(constants.CookiesEnvVar)
	conf.setDefaults()

	if err := conf.validate(); nil != err {
		return nil, fmt.Errorf("configuration validation failed: %v", err)
	}

	return &conf, nil
}
