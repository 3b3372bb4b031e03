package main

import (
	"fmt"

	"github.com/aretw0/forestml/pkg/adapters/file"
	"github.com/aretw0/forestml/pkg/codec"
	"github.com/aretw0/forestml/pkg/service"
	"github.com/spf13/cobra"
)

var encodeCmd = &cobra.Command{
	Use:   "encode <model-file>",
	Short: "Encode a model document into ML.FOREST.ADD commands",
	Long: `Reads a model document (JSON or YAML: algorithm, feature_names and trees in
parallel-array layout) and prints one ML.FOREST.ADD command per tree.
Nothing is sent to an engine.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		model, err := file.LoadModel(args[0])
		if err != nil {
			return err
		}
		if err := model.Validate(); err != nil {
			return fmt.Errorf("invalid model: %w", err)
		}

		forest, err := codec.NewEncoder().EncodeModel(model)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			meta, err := service.Metadata(model, forest)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), meta)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), forest.Script())
		return err
	},
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	encodeCmd.Flags().Bool("json", false, "Print the model metadata document instead of the bare commands")
}
