package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/spikeloop/internal/topology"
	"github.com/nvandessel/spikeloop/internal/visualization"
)

func newTopologyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topology",
		Short: "Validate and render topology files",
	}

	cmd.AddCommand(newTopologyValidateCmd(), newTopologyDotCmd())

	return cmd
}

func newTopologyValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a topology YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			spec, err := topology.LoadFile(args[0])
			if err != nil {
				if jsonOut {
					json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
						"valid": false,
						"error": err.Error(),
					})
					return nil
				}
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"valid":    true,
					"layers":   len(spec.Layers),
					"edges":    len(spec.Edges),
					"synapses": spec.SynapseCount(),
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Topology is valid: %d layers, %d edges (%d synapses)\n",
				len(spec.Layers), len(spec.Edges), spec.SynapseCount())
			return nil
		},
	}
}

func newTopologyDotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dot [file]",
		Short: "Render a topology as a Graphviz DOT graph",
		Long: `Render a topology as a Graphviz DOT graph.

Without a file argument, renders the standard layered topology for the
given widths.

Examples:
  spikeloop topology dot net.yaml | dot -Tsvg -o net.svg
  spikeloop topology dot --hidden 8,4`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var spec *topology.Spec
			var err error

			if len(args) == 1 {
				spec, err = topology.LoadFile(args[0])
			} else {
				inputs, _ := cmd.Flags().GetInt("inputs")
				outputs, _ := cmd.Flags().GetInt("outputs")
				hidden, _ := cmd.Flags().GetIntSlice("hidden")
				spec, err = topology.Layered(inputs, outputs, hidden)
			}
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), visualization.RenderDOT(spec, nil))
			return nil
		},
	}

	cmd.Flags().Int("inputs", 2, "Input width for the generated layered topology")
	cmd.Flags().Int("outputs", 1, "Output width for the generated layered topology")
	cmd.Flags().IntSlice("hidden", []int{4, 4}, "Hidden layer widths for the generated layered topology")

	return cmd
}
