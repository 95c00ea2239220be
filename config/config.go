// Package config reads the configuration of the interpolator binary.
package config

import (
	"github.com/go-viper/mapstructure/v2"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/viamrobotics/cartesian-interpolator/generator"
	"github.com/viamrobotics/cartesian-interpolator/transport/mqtt"
)

// Config is the processed configuration.
type Config struct {
	Generator generator.Config `json:"generator"`
	MQTT      mqtt.Config      `json:"mqtt"`
	Debug     bool             `json:"debug"`

	// LogFile, when set, also writes logs to this file with size based rotation.
	LogFile string `json:"log_file,omitempty"`

	ConfigFilePath string `json:"-"`
}

// Validate ensures all parts of the config are valid.
func (c *Config) Validate() error {
	return multierr.Combine(
		c.Generator.Validate("generator"),
		c.MQTT.Validate("mqtt"),
	)
}

// Schema describes the config file as a JSON schema.
func Schema() *jsonschema.Schema {
	return jsonschema.Reflect(&Config{})
}

// AttributeMap is a loosely typed config section as it appears in the file.
type AttributeMap map[string]interface{}

// Decode decodes the attributes into out, a pointer to a struct tagged with json names. Keys that
// map to no field are returned.
func (am AttributeMap) Decode(out interface{}) ([]string, error) {
	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:  "json",
		Result:   out,
		Metadata: &md,
	})
	if err != nil {
		return nil, errors.Wrap(err, "error creating decoder")
	}
	if err := decoder.Decode(map[string]interface{}(am)); err != nil {
		return nil, err
	}
	return md.Unused, nil
}
