package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/modsim/internal/storage"
)

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
	fmt.Fprintln(w, "ID\tMODE\tTIME\tROWS\tINTEG\tSOLVER\tSEED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%d\n",
			run.ID,
			run.Mode,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Rows,
			run.Integrator,
			run.Solver,
			run.Seed,
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
	result, err := st.LoadResult(runID)
	if err != nil {
		return err
	}
	if result.Len() == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("integrator: %s\n", meta.Integrator)
	fmt.Printf("samples: %d\n\n", result.Len())

	columns := result.Columns
	if column != "" {
		columns = []string{column}
	}

	const maxPlots = 6
	for i, name := range columns {
		if i == maxPlots {
			fmt.Printf("%d more columns; use --column\n", len(columns)-maxPlots)
			break
		}
		data, ok := result.Column(name)
		if !ok {
			return fmt.Errorf("no column %q in run %s", name, runID)
		}

		graph := asciigraph.Plot(data,
			asciigraph.Height(height),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("%s vs time [%g, %g]", name, result.Times[0], result.Times[len(result.Times)-1])),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	result, err := st.LoadResult(runID)
	if err != nil {
		return err
	}

	return storage.ExportJSONStdout(storage.NewExportData(meta.ID, result, meta.Metrics))
}
