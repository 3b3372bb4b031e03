package main

import (
	"fmt"
	"os"

	"github.com/aretw0/forestml/internal/presentation/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var describeCmd = &cobra.Command{
	Use:   "describe <model-key>",
	Short: "Describe a registered model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		meta, err := app.Publisher.Describe(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd.OutOrStdout(), meta)
		}

		md := tui.DescribeMarkdown(meta)
		fd := int(os.Stdout.Fd())
		if cmd.OutOrStdout() != os.Stdout || !term.IsTerminal(fd) {
			_, err = fmt.Fprint(cmd.OutOrStdout(), md)
			return err
		}

		width := 80
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			width = w
		}
		render, err := tui.NewRenderer(width)
		if err != nil {
			return err
		}
		out, err := render(md)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().Bool("json", false, "Print the stored metadata as JSON")
}
