package main

import (
	"fmt"

	"github.com/aretw0/forestml/internal/presentation/graph"
	"github.com/aretw0/forestml/pkg/adapters/file"
	"github.com/aretw0/forestml/pkg/codec"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <model-file> [name=value...]",
	Short: "Export one tree of a model as a Mermaid diagram",
	Long: `Encodes the model and outputs a Mermaid diagram (graph TD) of one of its trees.
When name=value inputs are given, the decision path of that record is highlighted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		model, err := file.LoadModel(args[0])
		if err != nil {
			return err
		}
		forest, err := codec.NewEncoder().EncodeModel(model)
		if err != nil {
			return err
		}

		index, _ := cmd.Flags().GetInt("tree")
		if index < 0 || index >= len(forest.Commands) {
			return fmt.Errorf("tree %d out of range: model has %d trees", index, len(forest.Commands))
		}
		tree, err := codec.ParseAdd(forest.Commands[index])
		if err != nil {
			return err
		}

		var overlay *graph.GraphOverlay
		if len(args) > 1 {
			values, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			inputs, err := inputFloats(values)
			if err != nil {
				return err
			}
			if overlay, err = graph.Overlay(tree, inputs); err != nil {
				return err
			}
		}

		_, err = fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(tree, overlay))
		return err
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().Int("tree", 0, "Index of the tree to draw")
}
