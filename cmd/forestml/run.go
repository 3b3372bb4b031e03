package main

import (
	"fmt"

	"github.com/aretw0/forestml/pkg/codec"
	"github.com/aretw0/forestml/pkg/domain"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <model-key> [name=value...]",
	Short: "Build (or execute) the ML.FOREST.RUN command for a record",
	Long: `Builds the ML.FOREST.RUN command scoring a record against a model key.
Inputs come from --inputs (a JSON object, key order kept) followed by
name=value arguments. With --exec the record is scored through the configured
engine and the result printed as JSON.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		raw, _ := cmd.Flags().GetString("inputs")
		values, err := inputsFrom(raw, args[1:])
		if err != nil {
			return err
		}

		if exec, _ := cmd.Flags().GetBool("exec"); exec {
			app, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			res, err := app.Scorer.Score(cmd.Context(), domain.ScoreRequest{ModelKey: key, ModelInputs: values})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		}

		outputType, _ := cmd.Flags().GetString("type")
		_, err = fmt.Fprintln(cmd.OutOrStdout(), codec.EncodeRun(key, values, outputType))
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("inputs", "", "JSON object of feature name to value")
	runCmd.Flags().StringP("type", "t", domain.OutputClassification, "Output type: classification or regression")
	runCmd.Flags().Bool("exec", false, "Score the record through the configured engine")
}
