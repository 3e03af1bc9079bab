// Package config holds the settings shared by the picklist commands. Values
// come from flag defaults, an optional YAML file, and explicitly set flags, in
// that order.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Source SourceConfig `yaml:"source"`
	Kafka  KafkaConfig  `yaml:"kafka"`
	Output OutputConfig `yaml:"output"`
	HTTP   HTTPConfig   `yaml:"http"`
	Log    LogConfig    `yaml:"log"`
}

// SourceConfig selects where orders and recipes are read from.
type SourceConfig struct {
	Kind        string `yaml:"kind"` // file|pebble|postgres
	Orders      string `yaml:"orders"`
	Mappings    string `yaml:"mappings"`
	PebbleDir   string `yaml:"pebbleDir"`
	PostgresURL string `yaml:"postgresUrl"`
}

type KafkaConfig struct {
	Bootstrap     string `yaml:"bootstrap"`
	OrdersTopic   string `yaml:"ordersTopic"`
	PickingTopic  string `yaml:"pickingTopic"`
	ManifestTopic string `yaml:"manifestTopic"`
	GroupID       string `yaml:"groupId"`
}

type OutputConfig struct {
	Format       string `yaml:"format"` // table|csv|json
	Path         string `yaml:"path"`   // empty means stdout
	Quote        bool   `yaml:"quote"`
	Sort         string `yaml:"sort"`
	Desc         bool   `yaml:"desc"`
	Dir          string `yaml:"dir"`
	PublishSink  string `yaml:"publishSink"` // ""|file|kafka|both
	ManifestSink string `yaml:"manifestSink"`
	Snapshot     bool   `yaml:"snapshot"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the settings used when nothing else is given.
func Default() Config {
	c := Config{}
	applyDefaults(&c)
	return c
}

// LoadFile reads the YAML file at path over c. Keys missing from the file keep
// the value already in c.
func LoadFile(path string, c *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Parse(data, c)
}

// Parse decodes YAML data over c.
func Parse(data []byte, c *Config) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config YAML: %w", err)
	}
	applyDefaults(c)
	return nil
}

func applyDefaults(c *Config) {
	if c.Source.Kind == "" {
		c.Source.Kind = "file"
	}
	if c.Source.Orders == "" {
		c.Source.Orders = "data/orders.json"
	}
	if c.Source.Mappings == "" {
		c.Source.Mappings = "data/productMappings.json"
	}
	if c.Source.PebbleDir == "" {
		c.Source.PebbleDir = "./data/archive"
	}
	if c.Kafka.OrdersTopic == "" {
		c.Kafka.OrdersTopic = "picklist.orders"
	}
	if c.Kafka.PickingTopic == "" {
		c.Kafka.PickingTopic = "picklist.picking-list"
	}
	if c.Kafka.ManifestTopic == "" {
		c.Kafka.ManifestTopic = "picklist.manifest"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "picklist-ingest"
	}
	if c.Output.Format == "" {
		c.Output.Format = "table"
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "./out"
	}
	if c.Output.ManifestSink == "" {
		c.Output.ManifestSink = "file"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate reports every setting that cannot be used.
func (c Config) Validate() error {
	var errs []error
	switch c.Source.Kind {
	case "file", "pebble":
	case "postgres":
		if c.Source.PostgresURL == "" {
			errs = append(errs, errors.New("source.postgresUrl is required for the postgres source"))
		}
	default:
		errs = append(errs, fmt.Errorf("source.kind %q: want file|pebble|postgres", c.Source.Kind))
	}
	switch c.Output.Format {
	case "table", "csv", "json":
	default:
		errs = append(errs, fmt.Errorf("output.format %q: want table|csv|json", c.Output.Format))
	}
	if err := checkSink("output.publishSink", c.Output.PublishSink, true, c.Kafka.Bootstrap); err != nil {
		errs = append(errs, err)
	}
	if err := checkSink("output.manifestSink", c.Output.ManifestSink, false, c.Kafka.Bootstrap); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func checkSink(name, sink string, allowEmpty bool, bootstrap string) error {
	switch sink {
	case "":
		if allowEmpty {
			return nil
		}
	case "file":
		return nil
	case "kafka", "both":
		if bootstrap == "" {
			return fmt.Errorf("%s %q needs kafka.bootstrap", name, sink)
		}
		return nil
	}
	return fmt.Errorf("%s %q: want file|kafka|both", name, sink)
}
