package config

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"

	"github.com/viamrobotics/cartesian-interpolator/logging"
)

// unprocessedConfig is the file layout before its sections are decoded.
type unprocessedConfig struct {
	Generator AttributeMap `json:"generator"`
	MQTT      AttributeMap `json:"mqtt"`
	Debug     bool         `json:"debug"`
	LogFile   string       `json:"log_file"`
}

// Read reads a config from the given file. Environment variables referenced as $VAR or ${VAR} are
// substituted first.
func Read(filePath string, logger logging.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from.
func FromReader(originalPath string, r io.Reader, logger logging.Logger) (*Config, error) {
	var raw unprocessedConfig
	decoder := json.NewDecoder(r)
	// keep integer nanoseconds exact
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "failed to decode Config from json")
	}

	cfg := &Config{Debug: raw.Debug, LogFile: raw.LogFile, ConfigFilePath: originalPath}
	if err := decodeSection(raw.Generator, "generator", &cfg.Generator, logger); err != nil {
		return nil, err
	}
	if err := decodeSection(raw.MQTT, "mqtt", &cfg.MQTT, logger); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "failed to validate Config")
	}
	return cfg, nil
}

func decodeSection(attrs AttributeMap, name string, out interface{}, logger logging.Logger) error {
	if len(attrs) == 0 {
		return nil
	}
	unused, err := attrs.Decode(out)
	if err != nil {
		return errors.Wrapf(err, "error decoding %s config", name)
	}
	for _, key := range unused {
		logger.Warnw("unused config key", "section", name, "key", key)
	}
	return nil
}
