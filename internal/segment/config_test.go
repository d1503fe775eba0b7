package segment

import "testing"

func TestDefaultConfig_Valid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"negative hue delta", func(c *Config) { c.Tolerance.HueDelta = -1 }},
		{"negative fraction", func(c *Config) { c.Tolerance.AdaptiveFraction = -0.1 }},
		{"zero hue max", func(c *Config) { c.Tolerance.HueMax = 0 }},
		{"even median", func(c *Config) { c.Refine.MedianSize = 6 }},
		{"zero kernel", func(c *Config) { c.Refine.KernelSize = 0 }},
		{"unknown contour source", func(c *Config) { c.ContourSource = "closed" }},
		{"zero hull scale", func(c *Config) { c.HullScale = 0 }},
		{"zero iterations", func(c *Config) { c.GrabCut.Iterations = 0 }},
		{"zero components", func(c *Config) { c.GrabCut.Components = 0 }},
		{"negative gamma", func(c *Config) { c.GrabCut.Gamma = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
