package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/WillyV3/moodbi/internal/config"
	"github.com/WillyV3/moodbi/internal/format"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the config file",
	}
	cmd.AddCommand(newConfigShowCmd(app))
	cmd.AddCommand(newConfigInitCmd(app))
	return cmd
}

func newConfigShowCmd(app *App) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == format.Table {
				output = format.YAML
			}
			if err := format.Write(cmd.OutOrStdout(), output, app.cfg); err != nil {
				return err
			}
			file := app.cfg.File
			if file == "" {
				file = "(none, using defaults)"
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "# config file: %s\n", file)
			return nil
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

func newConfigInitCmd(app *App) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to ~/.moodbi.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.DefaultPath()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if _, err := os.Stat(path); err == nil && !force {
				if !app.confirm(out, "Config file already exists. Overwrite?") {
					fmt.Fprintln(out, "Cancelled.")
					return nil
				}
			}
			if err := config.Write(*app.cfg, path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			fmt.Fprintf(out, "✓ Created config file: %s\n", path)
			fmt.Fprintf(out, "  Backend: %s\n", app.cfg.APIBase)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite without asking")
	return cmd
}
