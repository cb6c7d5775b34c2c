package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/modsim/internal/logging"
)

var (
	dataDir    string
	logLevel   string
	logFormat  string
	configFile string
	preset     string

	seed       int64
	integrator string
	outputStep float64
	duration   float64
	solver     string
	starts     int
	metricSpec []string
	noSave     bool
	evalTime   float64
	column     string
	height     int
	gridParams []string
	objective  string
)

// main registers the modsim commands and runs the root command, exiting
// with status 1 on error.
func main() {
	rootCmd := &cobra.Command{
		Use:           "modsim",
		Short:         "modular quantity simulation engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg := logging.DefaultConfig()
			cfg.Level = logging.ParseLevel(logLevel)
			cfg.Format = logFormat
			logging.Init(cfg)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".modsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	runCmd := &cobra.Command{
		Use:   "run [preset-group]",
		Short: "run a simulation, solve or composition from a config file or preset",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runExperiment,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().Int64Var(&seed, "seed", 0, "random seed for multi-start guesses")
	runCmd.Flags().StringVar(&integrator, "integrator", "auto", "integrator")
	runCmd.Flags().Float64Var(&outputStep, "output-step", 1, "output step size")
	runCmd.Flags().Float64Var(&duration, "time", 10, "time range when there are no drivers")
	runCmd.Flags().StringVar(&solver, "solver", "newton_raphson_backtrack", "simultaneous equation solver")
	runCmd.Flags().IntVar(&starts, "starts", 0, "number of multi-start guesses")
	runCmd.Flags().StringSliceVar(&metricSpec, "metric", nil, "result metric, e.g. max:theta or stable:x:10")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	validateCmd := &cobra.Command{
		Use:   "validate [preset-group]",
		Short: "check a composition and print the validation report",
		Args:  cobra.MaximumNArgs(1),
		RunE:  validateExperiment,
	}
	addConfigFlags(validateCmd)

	derivativeCmd := &cobra.Command{
		Use:   "derivative [preset-group]",
		Short: "evaluate the state derivative at the initial state",
		Args:  cobra.MaximumNArgs(1),
		RunE:  evaluateDerivative,
	}
	addConfigFlags(derivativeCmd)
	derivativeCmd.Flags().Float64Var(&evalTime, "at", 0, "time at which to evaluate")

	compareCmd := &cobra.Command{
		Use:   "compare [preset-group] [integrator1] [integrator2] ...",
		Short: "compare integrators on one simulation",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareIntegrators,
	}
	compareCmd.Flags().StringVar(&preset, "preset", "", "preset name within the group")

	searchCmd := &cobra.Command{
		Use:   "search [preset-group]",
		Short: "grid search invariant parameters for the smallest metric value",
		Args:  cobra.MaximumNArgs(1),
		RunE:  searchParameters,
	}
	addConfigFlags(searchCmd)
	searchCmd.Flags().StringArrayVar(&gridParams, "param", nil, "grid values, e.g. decay_rate=0.1,0.2,0.5 (repeatable)")
	searchCmd.Flags().StringVar(&objective, "objective", "", "metric to minimise, e.g. drift:total_energy")
	_ = searchCmd.MarkFlagRequired("param")
	_ = searchCmd.MarkFlagRequired("objective")

	modulesCmd := &cobra.Command{
		Use:   "modules",
		Short: "list registered modules",
		RunE:  listModules,
	}

	describeCmd := &cobra.Command{
		Use:   "describe [module]",
		Short: "show a module's inputs and outputs",
		Args:  cobra.ExactArgs(1),
		RunE:  describeModule,
	}

	integratorsCmd := &cobra.Command{
		Use:   "integrators",
		Short: "list integrators",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printNames(newRegistry().ListIntegrators())
		},
	}

	solversCmd := &cobra.Command{
		Use:   "solvers",
		Short: "list simultaneous equation solvers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printNames(newRegistry().ListSolvers())
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [group]",
		Short: "list preset groups, or the presets of a group",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot stored results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&column, "column", "", "plot only this column")
	plotCmd.Flags().IntVar(&height, "height", 10, "plot height")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run results to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	rootCmd.AddCommand(runCmd, validateCmd, derivativeCmd, compareCmd, searchCmd,
		modulesCmd, describeCmd, integratorsCmd, solversCmd, presetsCmd,
		listCmd, plotCmd, exportCmd, exportJSONCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "preset name within the group")
}
