package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/forestml/pkg/adapters/file"
	"github.com/aretw0/forestml/pkg/domain"
	"github.com/spf13/cobra"
)

var publishCmd = &cobra.Command{
	Use:   "publish <file>",
	Short: "Register a model with the configured engine",
	Long: `Encodes a model document and registers it with the configured engine, then
prints the stored metadata. With --metadata the file is a metadata document
(as accepted by POST /store) whose add commands are sent as they are.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		var stored *domain.ModelMetadata
		if raw, _ := cmd.Flags().GetBool("metadata"); raw {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read metadata: %w", err)
			}
			var meta domain.ModelMetadata
			if err := json.Unmarshal(data, &meta); err != nil {
				return fmt.Errorf("failed to parse metadata: %w", err)
			}
			stored, err = app.Publisher.Publish(cmd.Context(), &meta)
			if err != nil {
				return err
			}
		} else {
			model, err := file.LoadModel(args[0])
			if err != nil {
				return err
			}
			if err := model.Validate(); err != nil {
				return fmt.Errorf("invalid model: %w", err)
			}
			stored, err = app.Publisher.PublishModel(cmd.Context(), model)
			if err != nil {
				return err
			}
		}
		return printJSON(cmd.OutOrStdout(), stored)
	},
}

func init() {
	rootCmd.AddCommand(publishCmd)
	publishCmd.Flags().Bool("metadata", false, "Treat the file as a metadata document")
}
