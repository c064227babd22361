package launchcfg

import (
	"encoding/json"
	"fmt"
)

// Fingerprint returns the canonical serialization of cfg. Mapping keys are
// sorted, so two configurations with equal content share a fingerprint.
func Fingerprint(cfg Config) string {
	if cfg == nil {
		cfg = Config{}
	}
	data, err := json.Marshal(Normalize(cfg))
	if err != nil {
		// Values decoded from JSON always marshal.
		return fmt.Sprintf("%v", cfg)
	}
	return string(data)
}

// FromJSON parses a JSON object into a configuration fragment. Empty input
// yields an empty fragment.
func FromJSON(data string) (Config, error) {
	if data == "" {
		return Config{}, nil
	}

	var v any
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return nil, fmt.Errorf("parse launch options: %w", err)
	}

	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("parse launch options: expected a JSON object, got %T", v)
	}
	return Config(m), nil
}

// Defaults returns the built-in base configuration. Inside a container the
// browser runs headless with the sandbox disabled.
func Defaults(inContainer bool) Config {
	if inContainer {
		return Config{
			"headless": true,
			"args":     []any{"--no-sandbox", "--single-process", "--no-zygote"},
		}
	}
	return Config{"headless": false}
}
