package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/modsim/internal/config"
)

func printNames(names []string) error {
	for _, n := range names {
		fmt.Printf("  %s\n", n)
	}
	return nil
}

func listModules(cmd *cobra.Command, args []string) error {
	reg := newRegistry()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODULE\tKIND\tADAPTIVE\tINPUTS\tOUTPUTS")
	for _, name := range reg.ListModules() {
		desc, err := reg.GetModule(name)
		if err != nil {
			return err
		}
		kind := "steady"
		if desc.Derivative {
			kind = "derivative"
		}
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\n",
			desc.Name, kind, desc.AdaptiveCompatible,
			strings.Join(desc.Inputs, ","), strings.Join(desc.Outputs, ","))
	}
	return w.Flush()
}

func describeModule(cmd *cobra.Command, args []string) error {
	reg := newRegistry()
	desc, err := reg.GetModule(args[0])
	if err != nil {
		return err
	}

	kind := "steady state"
	if desc.Derivative {
		kind = "derivative"
	}
	fmt.Println(headerStyle.Render(desc.Name))
	fmt.Println(renderField("kind", kind))
	fmt.Println(renderField("adaptive compatible", desc.AdaptiveCompatible))
	fmt.Println(renderField("inputs", strings.Join(desc.Inputs, ", ")))
	fmt.Println(renderField("outputs", strings.Join(desc.Outputs, ", ")))

	for _, in := range desc.Inputs {
		producers := reg.ModulesProducing(in)
		if len(producers) > 0 {
			fmt.Println(dimStyle.Render(fmt.Sprintf("  %s is also written by %s", in, strings.Join(producers, ", "))))
		}
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		fmt.Println("preset groups:")
		return printNames(config.ListGroups())
	}
	presets := config.ListPresets(args[0])
	if len(presets) == 0 {
		fmt.Printf("no presets for group: %s\n", args[0])
		return nil
	}
	fmt.Printf("presets for %s:\n", args[0])
	for _, p := range presets {
		fmt.Printf("  %-12s %s\n", p, config.GetPreset(args[0], p).Mode)
	}
	return nil
}
