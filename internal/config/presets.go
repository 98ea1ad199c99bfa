package config

var Presets = map[string]map[string]*Config{
	"chain": {
		"pendulum": {
			Scenario: "chain", Particles: 8, Dt: 0.001, Steps: 10000,
			Tolerance: 1e-6, MaxIterations: 40, Scheme: "gauss-seidel", SampleEvery: 20,
			Physics: PhysicsConfig{BondLength: 1.0, Mass: 1.0, Gravity: 9.81, FixedHead: true},
		},
		"rope": {
			Scenario: "chain", Particles: 32, Dt: 0.0005, Steps: 20000,
			Tolerance: 1e-6, MaxIterations: 60, Scheme: "jacobi", SampleEvery: 50,
			Physics: PhysicsConfig{BondLength: 0.5, Mass: 0.2, Gravity: 9.81, FixedHead: true},
		},
	},
	"water": {
		"box": {
			Scenario: "water", Particles: 30, Dt: 0.0005, Steps: 10000,
			Tolerance: 1e-8, MaxIterations: 40, Scheme: "gauss-seidel", SampleEvery: 20,
			Physics: PhysicsConfig{Mass: 1.0},
		},
	},
	"gas": {
		"drift": {
			Scenario: "gas", Particles: 64, Dt: 0.002, Steps: 5000,
			Tolerance: 1e-6, MaxIterations: 40, SampleEvery: 10,
			Physics: PhysicsConfig{Mass: 1.0},
		},
	},
}
