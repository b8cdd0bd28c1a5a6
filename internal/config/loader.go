package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds Params by layering, low to high precedence:
//  1. Defaults()
//  2. YAML file at path (or $PITCH_CONFIG when path is empty)
//  3. environment variables with the PITCH_ prefix
//
// Env keys map flat: PITCH_MIN_DWELL_FRAMES -> min_dwell_frames. The result
// is validated before it is returned.
func Load(path string) (*Params, error) {
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv("PITCH_CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadParams, err)
		}
	}

	envProvider := env.Provider("PITCH_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "PITCH_"))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadParams, err)
	}

	cfg := *Defaults()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadParams, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
