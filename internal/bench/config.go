package bench

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/eventcannon/eventcannon/ratecontroller"
)

// LoadConfig reads rate controller tunables from a YAML file. Unknown keys are rejected.
func LoadConfig(path string) (ratecontroller.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ratecontroller.Config{}, fmt.Errorf("reading config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses rate controller tunables from YAML.
func ParseConfig(data []byte) (ratecontroller.Config, error) {
	var config ratecontroller.Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return ratecontroller.Config{}, fmt.Errorf("parsing config: %w", err)
	}

	if config.SmoothingFactor < 0 || config.SmoothingFactor > 1 {
		return ratecontroller.Config{}, fmt.Errorf("invalid smoothingFactor %v: must be in (0, 1]", config.SmoothingFactor)
	}
	if config.CheckWindowMs < 0 {
		return ratecontroller.Config{}, fmt.Errorf("invalid checkWindowMs %v: must be positive", config.CheckWindowMs)
	}
	if config.SpinTimeDivisor < 0 {
		return ratecontroller.Config{}, fmt.Errorf("invalid spinTimeDivisor %v: must be positive", config.SpinTimeDivisor)
	}
	return config, nil
}
