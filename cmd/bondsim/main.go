package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/san-kum/bondsim/internal/compute"
	"github.com/san-kum/bondsim/internal/config"
	"github.com/san-kum/bondsim/internal/constraint"
	"github.com/san-kum/bondsim/internal/integrators"
	"github.com/san-kum/bondsim/internal/md"
	"github.com/san-kum/bondsim/internal/metrics"
	"github.com/san-kum/bondsim/internal/sim"
	"github.com/san-kum/bondsim/internal/storage"
	"github.com/san-kum/bondsim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	dt         float64
	steps      int
	particles  int
	tolerance  float64
	maxIter    int
	scheme     string
	seed       int64
	sampleRate int
	configFile string
	preset     string
	// Plot axes
	plotParticle  int
	plotComponent int
	// Live view pacing
	stepsPerTick int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bondsim",
		Short: "constrained verlet dynamics lab",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".bondsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run simulation",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a particle trajectory",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotParticle, "particle", 0, "particle index")
	plotCmd.Flags().IntVar(&plotComponent, "axis", 1, "coordinate axis (0=x 1=y 2=z)")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	liveCmd := &cobra.Command{
		Use:   "live [scenario]",
		Short: "run simulation with live visualization",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	addSimFlags(liveCmd)
	liveCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	liveCmd.Flags().IntVar(&stepsPerTick, "steps-per-tick", 10, "simulation steps per frame")

	benchCmd := &cobra.Command{
		Use:   "bench [scenario]",
		Short: "benchmark scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  benchScenario,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [scenario]",
		Short: "list available presets for a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			group, ok := config.Presets[args[0]]
			if !ok {
				fmt.Printf("no presets for scenario: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for name := range group {
				fmt.Printf("  %s\n", name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, liveCmd, benchCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	cmd.Flags().IntVar(&particles, "particles", config.DefaultParticles, "number of particles")
	cmd.Flags().Float64Var(&tolerance, "tolerance", config.DefaultTolerance, "constraint tolerance")
	cmd.Flags().IntVar(&maxIter, "max-iter", config.DefaultMaxIterations, "constraint iteration budget")
	cmd.Flags().StringVar(&scheme, "scheme", "gauss-seidel", "constraint update scheme")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().IntVar(&sampleRate, "sample", config.DefaultSampleEvery, "snapshot interval")
}

// resolveConfig merges preset, config file and CLI flags into one config.
// Flags the user explicitly set win over both file and preset.
func resolveConfig(cmd *cobra.Command, name string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Scenario = name

	if preset != "" {
		p, ok := config.Presets[name][preset]
		if !ok {
			return nil, fmt.Errorf("unknown preset %q for scenario %s", preset, name)
		}
		c := *p
		cfg = &c
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		loaded.Scenario = name
		cfg = loaded
	}

	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("steps") {
		cfg.Steps = steps
	}
	if cmd.Flags().Changed("particles") {
		cfg.Particles = particles
	}
	if cmd.Flags().Changed("tolerance") {
		cfg.Tolerance = tolerance
	}
	if cmd.Flags().Changed("max-iter") {
		cfg.MaxIterations = maxIter
	}
	if cmd.Flags().Changed("scheme") {
		cfg.Scheme = scheme
	}
	if cmd.Flags().Changed("sample") {
		cfg.SampleEvery = sampleRate
	}
	if cmd.Flags().Changed("seed") || cfg.Seed == 0 {
		cfg.Seed = seed
	}

	return cfg, nil
}

// buildDriver assembles the full pipeline for a config: scenario state,
// integrator, constraint solver and driver with the standard metric set.
func buildDriver(cfg *config.Config) (*sim.Driver, *scenario, error) {
	sc, err := buildScenario(cfg)
	if err != nil {
		return nil, nil, err
	}

	backend := compute.GetBackend()

	integ := integrators.NewVerlet()
	if err := integ.Setup(sc.state.Masses, backend, nil); err != nil {
		return nil, nil, err
	}

	solver := constraint.NewSolver()
	if err := solver.SetTolerance(cfg.Tolerance); err != nil {
		return nil, nil, err
	}
	if err := solver.SetMaxIterations(cfg.MaxIterations); err != nil {
		return nil, nil, err
	}
	if err := solver.Setup(sc.state.Masses, sc.constraints, backend, nil); err != nil {
		return nil, nil, err
	}

	var applier integrators.ConstraintApplier
	switch cfg.Scheme {
	case "", "gauss-seidel":
		applier = solver
	case "jacobi":
		applier = constraint.JacobiApplier{S: solver}
	default:
		return nil, nil, fmt.Errorf("unknown scheme %q", cfg.Scheme)
	}

	d := sim.New(sc.state, integ, applier, sc.field)
	d.AddMetric(metrics.NewMaxViolation())
	d.AddMetric(metrics.NewSolverIterations())
	d.AddMetric(metrics.NewKineticEnergy(sc.state.Masses))
	d.AddMetric(metrics.NewEnergyDrift(sc.state.Masses))

	return d, sc, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	driver, sc, err := buildDriver(cfg)
	if err != nil {
		return err
	}

	rec := &violationRecorder{every: cfg.SampleEvery}
	if len(sc.constraints) > 0 {
		driver.AddObserver(rec)
	}

	fmt.Printf("running %s simulation...\n", cfg.Scenario)
	start := time.Now()

	result, err := driver.Run(context.Background(), sim.Config{
		Dt:            cfg.Dt,
		Steps:         cfg.Steps,
		SampleEvery:   cfg.SampleEvery,
		ValidateState: true,
	})
	if err != nil {
		return err
	}

	elapsed := time.Since(start)

	runID, err := st.Save(cfg.Scenario, cfg.Dt, cfg.Seed, cfg.Tolerance, cfg.MaxIterations, cfg.Scheme, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	if len(result.Warnings) > 0 {
		fmt.Printf("convergence warnings: %d\n", len(result.Warnings))
	}
	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6g\n", name, val)
	}

	if len(rec.violations) > 1 {
		fmt.Println()
		fmt.Println(viz.ViolationPlot(rec.violations, 8))
	}

	return nil
}

// violationRecorder samples the solver's worst violation for the post-run
// plot without holding full trajectory history.
type violationRecorder struct {
	every      int
	violations []float64
}

func (r *violationRecorder) OnStep(f md.Frame) {
	if r.every <= 0 {
		r.every = 1
	}
	if f.Step%r.every == 0 {
		r.violations = append(r.violations, f.MaxViolation)
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tSTEPS\tDT\tSCHEME\tWARN")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.4g\t%s\t%d\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Steps,
			run.Dt,
			run.Scheme,
			run.Warnings,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	positions, times, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	if len(positions) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(positions))

	fmt.Println(viz.CoordinatePlot(positions, times, plotParticle, plotComponent, 10))

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}

	driver, sc, err := buildDriver(cfg)
	if err != nil {
		return err
	}
	driver.SetStepSize(cfg.Dt)

	return viz.Run(&viz.Driver{
		Sim:          driver,
		State:        sc.state,
		Scenario:     cfg.Scenario,
		StepsPerTick: stepsPerTick,
	})
}

func benchScenario(cmd *cobra.Command, args []string) error {
	name := args[0]

	sizes := []int{16, 64, 256}
	dts := []float64{0.0005, 0.001, 0.002}
	const benchSteps = 2000

	fmt.Printf("benchmarking %s\n\n", name)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARTICLES\tDT\tSTEPS\tTIME\tSTEPS/SEC")

	for _, n := range sizes {
		for _, stepDt := range dts {
			cfg := config.DefaultConfig()
			cfg.Scenario = name
			cfg.Particles = n
			cfg.Dt = stepDt
			cfg.Steps = benchSteps
			cfg.SampleEvery = benchSteps
			cfg.Seed = 42

			driver, _, err := buildDriver(cfg)
			if err != nil {
				return err
			}

			start := time.Now()
			result, err := driver.Run(context.Background(), sim.Config{
				Dt:          stepDt,
				Steps:       benchSteps,
				SampleEvery: benchSteps,
			})
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			fmt.Fprintf(w, "%d\t%.4g\t%d\t%v\t%.0f\n",
				n, stepDt, result.StepsTaken, elapsed.Round(time.Millisecond),
				float64(result.StepsTaken)/elapsed.Seconds())
		}
	}

	return w.Flush()
}
