package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mgpai22/capconv/internal/caption"
	"github.com/mgpai22/capconv/internal/logging"
	"gopkg.in/yaml.v3"
)

// prefix of every environment override
const EnvPrefix = "CAPCONV_"

// conversion profile, loaded from yaml and overridden by env and flags
type Config struct {
	Read  ReadConfig  `yaml:"read"`
	Write WriteConfig `yaml:"write"`
	Batch BatchConfig `yaml:"batch"`
}

type ReadConfig struct {
	Format                 string   `yaml:"format"` // empty means detect
	Encoding               string   `yaml:"encoding"`
	Language               string   `yaml:"language"`
	ReadInvalidPositioning bool     `yaml:"read_invalid_positioning"`
	DefaultDuration        Duration `yaml:"default_duration"`
}

type WriteConfig struct {
	Format          string `yaml:"format"`
	Language        string `yaml:"language"`
	DefaultSettings bool   `yaml:"default_settings"`
	ForceWriteHours bool   `yaml:"force_write_hours"`
}

type BatchConfig struct {
	Concurrency int    `yaml:"concurrency"`
	OutDir      string `yaml:"out_dir"`
}

// time.Duration that reads "4s" or "1500ms" from yaml
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := parseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// bare numbers are seconds
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return v, nil
}

// cli defaults
func Default() Config {
	return Config{
		Read: ReadConfig{
			Encoding:               "auto",
			ReadInvalidPositioning: true,
			DefaultDuration:        Duration(caption.DefaultCueDuration),
		},
		Write: WriteConfig{
			Format:          string(caption.FormatSRT),
			DefaultSettings: true,
			ForceWriteHours: true,
		},
		Batch: BatchConfig{
			Concurrency: 4,
		},
	}
}

// reads a yaml profile over the defaults; an empty path gives the defaults
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(contents))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// loads KEY=value pairs into the process env without replacing set ones.
// a missing default .env is not an error; a missing explicit file is
func LoadDotEnv(path string) error {
	if path == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// applies CAPCONV_* overrides read through getenv
func (c *Config) ApplyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) error {
		v := getenv(EnvPrefix + key)
		if v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: invalid boolean %q", EnvPrefix, key, v)
		}
		*dst = b
		return nil
	}

	str("FROM", &c.Read.Format)
	str("ENCODING", &c.Read.Encoding)
	str("LANGUAGE", &c.Read.Language)
	str("FORMAT", &c.Write.Format)
	str("WRITE_LANGUAGE", &c.Write.Language)
	str("OUT_DIR", &c.Batch.OutDir)

	if err := boolean("READ_INVALID_POSITIONING", &c.Read.ReadInvalidPositioning); err != nil {
		return err
	}
	if err := boolean("DEFAULT_SETTINGS", &c.Write.DefaultSettings); err != nil {
		return err
	}
	if err := boolean("FORCE_WRITE_HOURS", &c.Write.ForceWriteHours); err != nil {
		return err
	}

	if v := getenv(EnvPrefix + "DEFAULT_DURATION"); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("%sDEFAULT_DURATION: %w", EnvPrefix, err)
		}
		c.Read.DefaultDuration = Duration(d)
	}
	if v := getenv(EnvPrefix + "CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sCONCURRENCY: invalid number %q", EnvPrefix, v)
		}
		c.Batch.Concurrency = n
	}
	return c.Validate()
}

func (c Config) Validate() error {
	if c.Read.Format != "" {
		f, err := caption.ParseFormat(c.Read.Format)
		if err != nil {
			return fmt.Errorf("read.format: %w", err)
		}
		if !f.Readable() {
			return fmt.Errorf("read.format: %s can only be written", f)
		}
	}
	if _, err := caption.ParseFormat(c.Write.Format); err != nil {
		return fmt.Errorf("write.format: %w", err)
	}
	if c.Read.DefaultDuration < 0 {
		return errors.New("read.default_duration must not be negative")
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("batch.concurrency must be at least 1, got %d", c.Batch.Concurrency)
	}
	return nil
}

// source format, empty when it should be detected
func (c Config) SourceFormat() (caption.Format, error) {
	if c.Read.Format == "" {
		return "", nil
	}
	return caption.ParseFormat(c.Read.Format)
}

func (c Config) TargetFormat() (caption.Format, error) {
	return caption.ParseFormat(c.Write.Format)
}

func (c Config) ReadOptions(log *logging.Logger) caption.ReadOptions {
	return caption.ReadOptions{
		Language:               c.Read.Language,
		ReadInvalidPositioning: c.Read.ReadInvalidPositioning,
		DefaultDuration:        time.Duration(c.Read.DefaultDuration),
		Logger:                 log,
	}
}

func (c Config) WriteOptions() caption.WriteOptions {
	return caption.WriteOptions{
		Language:        c.Write.Language,
		DefaultSettings: c.Write.DefaultSettings,
		ForceWriteHours: c.Write.ForceWriteHours,
	}
}

// yaml form of the profile, used by `capconv config`
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
