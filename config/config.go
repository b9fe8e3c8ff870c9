package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/gridwatt/evrouter/core/metrics"
	"github.com/gridwatt/evrouter/infra/mqtt"
)

type Config struct {
	Router     RouterConfig     `json:"router"`
	Substation SubstationConfig `json:"substation"`
	Metrics    metrics.Config   `json:"metrics"`
	Telemetry  mqtt.Config      `json:"telemetry"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("EV_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "ev_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Router.SetDefaults()
	cfg.Substation.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.Telemetry.SetDefaults()
	// Router.Validate is deferred to the router service: a substation
	// process has no fleet to declare.
	if err := cfg.Substation.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Telemetry.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
