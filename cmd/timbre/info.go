package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dudk/timbre"
	"github.com/dudk/timbre/log"
	"github.com/dudk/timbre/registry"
	"github.com/dudk/timbre/session"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <algorithm>",
		Short: "Describe algorithm parameters and ports",
		Args:  cobra.ExactArgs(1),
		RunE:  runInfo,
	}
}

func runInfo(cmd *cobra.Command, args []string) error {
	s, err := session.New(session.WithLogger(log.Silent()))
	if err != nil {
		return err
	}
	defer s.Close()

	d, ok := lookup(s, args[0])
	if !ok {
		return fmt.Errorf("%w: algorithm %s", timbre.ErrNotFound, args[0])
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s (%s)\n", d.Name, d.Category)
	if d.Description != "" {
		fmt.Fprintf(w, "  %s\n", d.Description)
	}
	printPorts(w, "Inputs", d.Inputs)
	printPorts(w, "Outputs", d.Outputs)
	if len(d.Parameters) > 0 {
		fmt.Fprintln(w, "Parameters:")
		for _, p := range d.Parameters {
			fmt.Fprintf(w, "  %s %s", p.Name, p.Kind)
			if p.Constraint != nil {
				fmt.Fprintf(w, " %s", p.Constraint)
			}
			if p.Default != nil {
				fmt.Fprintf(w, " = %v", p.Default)
			}
			fmt.Fprintln(w)
		}
	}
	return nil
}

func printPorts(w io.Writer, title string, ports []registry.PortSpec) {
	if len(ports) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, p := range ports {
		fmt.Fprintf(w, "  %s %s", p.Name, p.Type)
		if p.Optional {
			fmt.Fprint(w, " (optional)")
		}
		fmt.Fprintln(w)
	}
}
