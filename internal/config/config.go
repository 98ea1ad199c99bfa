package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDt            = 0.001
	DefaultSteps         = 5000
	DefaultTolerance     = 1e-6
	DefaultMaxIterations = 40
	DefaultParticles     = 16
	DefaultBondLength    = 1.0
	DefaultMass          = 1.0
	DefaultGravity       = 9.81
	DefaultSampleEvery   = 10
)

type Config struct {
	Scenario      string  `yaml:"scenario"`
	Particles     int     `yaml:"particles"`
	Dt            float64 `yaml:"dt"`
	Steps         int     `yaml:"steps"`
	Tolerance     float64 `yaml:"tolerance"`
	MaxIterations int     `yaml:"max_iterations"`
	Scheme        string  `yaml:"scheme"` // gauss-seidel or jacobi
	SampleEvery   int     `yaml:"sample_every"`
	Seed          int64   `yaml:"seed"`

	Physics PhysicsConfig `yaml:"physics"`
}

type PhysicsConfig struct {
	BondLength float64 `yaml:"bond_length"`
	Mass       float64 `yaml:"mass"`
	Gravity    float64 `yaml:"gravity"`
	Stiffness  float64 `yaml:"stiffness"`
	FixedHead  bool    `yaml:"fixed_head"` // pin the first particle in place
}

func DefaultConfig() *Config {
	return &Config{
		Scenario:      "chain",
		Particles:     DefaultParticles,
		Dt:            DefaultDt,
		Steps:         DefaultSteps,
		Tolerance:     DefaultTolerance,
		MaxIterations: DefaultMaxIterations,
		Scheme:        "gauss-seidel",
		SampleEvery:   DefaultSampleEvery,
		Physics: PhysicsConfig{
			BondLength: DefaultBondLength,
			Mass:       DefaultMass,
			Gravity:    DefaultGravity,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
