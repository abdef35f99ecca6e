package config

import "fmt"

// Validate checks runtime node config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Format != FormatJSON && cfg.Format != FormatBinary {
		return fmt.Errorf("format must be %q or %q", FormatJSON, FormatBinary)
	}
	if cfg.Difficulty <= 0 {
		return fmt.Errorf("difficulty must be a positive integer, got %d", cfg.Difficulty)
	}
	if cfg.Ingress.Port < 0 || cfg.Ingress.Port > 65535 {
		return fmt.Errorf("ingress.port must be in range [0, 65535]")
	}
	for i, seed := range cfg.Peers.Seeds {
		if seed == "" {
			return fmt.Errorf("peers.seeds[%d] is empty", i)
		}
	}
	return nil
}
