package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/modsim/internal/config"
	"github.com/san-kum/modsim/internal/experiment"
	"github.com/san-kum/modsim/internal/logging"
	"github.com/san-kum/modsim/internal/metrics"
	"github.com/san-kum/modsim/internal/optim"
	"github.com/san-kum/modsim/internal/storage"
)

func newRegistry() *experiment.Registry {
	return experiment.NewRegistry()
}

// loadConfig resolves the run description from --config or a preset
// group and --preset. Flags that were set explicitly override the file,
// and the resulting logging section replaces the default logger.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, string, error) {
	var (
		cfg  *config.Config
		name string
		err  error
	)
	switch {
	case configFile != "":
		cfg, err = config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		name = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
	case len(args) == 1 && preset != "":
		cfg = config.GetPreset(args[0], preset)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(args[0]))
		}
		name = args[0] + "_" + preset
	case len(args) == 1:
		return nil, "", fmt.Errorf("missing --preset for %s (available: %v)", args[0], config.ListPresets(args[0]))
	default:
		return nil, "", fmt.Errorf("need --config or a preset group with --preset")
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("integrator") {
		cfg.Simulation.Integrator = integrator
	}
	if flags.Changed("output-step") {
		cfg.Simulation.Integration.OutputStepSize = outputStep
	}
	if flags.Changed("time") {
		cfg.Simulation.Duration = duration
	}
	if flags.Changed("solver") {
		cfg.Solve.Solver = solver
	}
	if flags.Changed("starts") {
		cfg.Solve.Starts = starts
	}
	if flags.Changed("metric") {
		cfg.Metrics = metricSpec
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	logging.Init(cfg.Logging.Options())
	return cfg, name, nil
}

func runExperiment(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	logger := logging.ForComponent("experiment")
	exp := experiment.New(cfg, newRegistry()).WithLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s (%s)...\n", name, cfg.Mode)
	start := time.Now()
	out, err := exp.Run(ctx)
	elapsed := time.Since(start)
	if err != nil {
		if out != nil && out.Result != nil {
			fmt.Printf("stopped after %d rows\n", out.Result.Len())
		}
		return err
	}
	fmt.Printf("completed in %v\n", elapsed)

	run := storage.Run{Name: name, Config: cfg}
	switch out.Mode {
	case config.ModeSimulate:
		printSimulation(out)
		run.Result = out.Result
		run.Meta.Metrics = out.Metrics
	case config.ModeSolve:
		printSolve(out)
		success := out.Solve.Success
		run.Meta.Solver = cfg.Solve.Solver
		run.Meta.Success = &success
		run.Meta.Message = out.Solve.Result.Message
		run.Meta.Values = out.Solve.Unknowns.ToMap()
	case config.ModeCompose:
		fmt.Print(renderValues("outputs", out.Outputs.ToMap()))
		run.Meta.Values = out.Outputs.ToMap()
	}

	if noSave {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(run)
	if err != nil {
		return err
	}
	fmt.Printf("run id: %s\n", runID)
	return nil
}

func printSimulation(out *experiment.Outcome) {
	res := out.Result
	fmt.Println(renderField("integrator", res.Integrator))
	fmt.Println(renderField("rows", res.Len()))
	fmt.Println(renderField("steps", res.StepsTaken))
	fmt.Println(renderField("rejected", res.Rejected))
	fmt.Println(renderField("evaluations", res.Evaluations))
	for _, note := range res.Notes {
		fmt.Println(dimStyle.Render("  " + note))
	}
	fmt.Println()
	fmt.Print(renderValues("final values", res.Final()))
	if len(out.Metrics) > 0 {
		fmt.Println()
		fmt.Print(renderValues("metrics", out.Metrics))
	}
	for i, r := range out.Sweep {
		fmt.Println()
		fmt.Print(renderValues(fmt.Sprintf("sweep %d final values", i+1), r.Final()))
	}
}

func printSolve(out *experiment.Outcome) {
	s := out.Solve
	if s.Success {
		fmt.Println(okStyle.Render("converged"))
	} else {
		fmt.Println(errorStyle.Render("did not converge: ") + s.Result.Message)
	}
	fmt.Println(renderField("iterations", s.Result.Iterations))
	fmt.Println(renderField("attempts", s.Result.Attempts))
	fmt.Println(renderField("residual evaluations", s.Calls))
	fmt.Println()
	fmt.Print(renderValues("unknowns", s.Unknowns.ToMap()))
	fmt.Println()
	fmt.Print(renderValues("outputs", s.Outputs.ToMap()))
}

func validateExperiment(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	ok, report := experiment.New(cfg, newRegistry()).Validate()
	fmt.Print(renderReport(ok, report))
	if !ok {
		return fmt.Errorf("invalid %s composition", cfg.Mode)
	}
	return nil
}

func evaluateDerivative(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if cfg.Mode != config.ModeSimulate {
		return fmt.Errorf("derivative needs a simulate config, got %s", cfg.Mode)
	}
	exp := experiment.New(cfg, newRegistry())
	d, err := exp.GetSimulator().EvaluateDerivative(exp.SimulationInput(), evalTime)
	if err != nil {
		return err
	}
	fmt.Print(renderValues(fmt.Sprintf("derivative at t=%g", evalTime), d.ToMap()))
	return nil
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	if preset == "" {
		return fmt.Errorf("missing --preset for %s (available: %v)", args[0], config.ListPresets(args[0]))
	}
	base := config.GetPreset(args[0], preset)
	if base == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(args[0]))
	}
	if base.Mode != config.ModeSimulate {
		return fmt.Errorf("compare needs a simulate preset, got %s", base.Mode)
	}
	states := base.Simulation.InitialState.Keys()
	if len(states) == 0 {
		return fmt.Errorf("preset %s/%s has no state", args[0], preset)
	}

	fmt.Printf("comparing integrators for %s/%s\n\n", args[0], preset)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "INTEGRATOR\tFINAL %s\tDRIFT\tSTEPS\tREJECTED\tEVALS\tTIME_MS\n", strings.ToUpper(states[0]))

	for _, name := range args[1:] {
		cfg := config.GetPreset(args[0], preset)
		cfg.Simulation.Integrator = name
		cfg.Simulation.Sweep = nil
		exp := experiment.New(cfg, newRegistry())

		start := time.Now()
		res, err := exp.GetSimulator().Simulate(context.Background(), exp.SimulationInput())
		elapsed := time.Since(start)
		if err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", name, err)
			continue
		}

		drift, err := metrics.Apply(res, []metrics.Bound{{Column: states[0], Metric: metrics.NewDrift(states[0])}})
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%.6f\t%.2e\t%d\t%d\t%d\t%.2f\n",
			res.Integrator,
			res.Final()[states[0]],
			drift["drift:"+states[0]],
			res.StepsTaken,
			res.Rejected,
			res.Evaluations,
			float64(elapsed.Microseconds())/1000)
	}
	return w.Flush()
}

func searchParameters(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if cfg.Mode != config.ModeSimulate {
		return fmt.Errorf("search needs a simulate config, got %s", cfg.Mode)
	}

	names := make([]string, 0, len(gridParams))
	ranges := make([][]float64, 0, len(gridParams))
	for _, spec := range gridParams {
		n, values, err := optim.ParseParam(spec)
		if err != nil {
			return err
		}
		names = append(names, n)
		ranges = append(ranges, values)
	}

	exp := experiment.New(cfg, newRegistry()).WithLogger(logging.ForComponent("search"))
	grid := optim.NewGridSearch(names, ranges)
	fmt.Printf("searching %s over %d points...\n", name, len(grid.Points()))

	best, all, err := grid.Search(cmd.Context(), exp.GetSimulator(), exp.SimulationInput(), objective)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "PARAMS\t%s\n", strings.ToUpper(objective))
	for _, o := range all {
		fmt.Fprintf(w, "%s\t%.6g\n", o.Params, o.Value)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Println()
	fmt.Print(renderValues(fmt.Sprintf("best (%s = %.6g)", objective, best.Value), best.Params.ToMap()))
	return nil
}
