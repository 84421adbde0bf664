package cli

import (
	"fmt"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/WillyV3/moodbi/internal/format"
	"github.com/WillyV3/moodbi/internal/moodboard"
)

func newAttachmentsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "attachments",
		Aliases: []string{"files"},
		Short:   "Attachment commands",
	}
	cmd.AddCommand(newAttachmentsListCmd(app))
	cmd.AddCommand(newAttachmentsUploadCmd(app))
	cmd.AddCommand(newAttachmentsRmCmd(app))
	cmd.AddCommand(newAttachmentsOpenCmd(app))
	return cmd
}

func newAttachmentsListCmd(app *App) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "list <board-id>",
		Short: "List a board's attachments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.api()
			if err != nil {
				return err
			}
			attachments, err := client.ListAttachments(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if attachments == nil {
				attachments = []moodboard.Attachment{}
			}
			return emit(cmd, output, attachments, func() { app.printer(cmd).attachments(attachments) })
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

func newAttachmentsUploadCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <board-id> <file>...",
		Short: "Upload files to a board",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.api()
			if err != nil {
				return err
			}
			for _, p := range args[1:] {
				path, err := homedir.Expand(p)
				if err != nil {
					return err
				}
				a, err := client.UploadFile(cmd.Context(), args[0], path)
				if err != nil {
					return fmt.Errorf("upload %s: %w", p, err)
				}
				app.log.Info("attachment uploaded", zap.String("board", args[0]), zap.String("file", a.FileName))
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Uploaded %s (%s) as %s\n", a.FileName, format.Size(a.FileSize), a.ID)
			}
			return nil
		},
	}
}

func newAttachmentsRmCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "rm <board-id> <attachment-id>",
		Aliases: []string{"delete"},
		Short:   "Delete an attachment",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !yes && !app.confirm(out, fmt.Sprintf("Delete attachment %s?", args[1])) {
				fmt.Fprintln(out, "Cancelled.")
				return nil
			}
			client, err := app.api()
			if err != nil {
				return err
			}
			if err := client.DeleteAttachment(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Deleted attachment %s\n", args[1])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newAttachmentsOpenCmd(app *App) *cobra.Command {
	var printOnly bool
	cmd := &cobra.Command{
		Use:   "open <board-id> <attachment-id>",
		Short: "Open an attachment with the system opener",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.api()
			if err != nil {
				return err
			}
			attachments, err := client.ListAttachments(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, a := range attachments {
				if a.ID != args[1] {
					continue
				}
				url := client.ResolveURL(a.FileURL)
				if printOnly {
					fmt.Fprintln(cmd.OutOrStdout(), url)
					return nil
				}
				if err := app.openFn(url); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Opened %s\n", url)
				return nil
			}
			return fmt.Errorf("attachment %s not found on board %s", args[1], args[0])
		},
	}
	cmd.Flags().BoolVar(&printOnly, "print", false, "print the URL instead of opening it")
	return cmd
}
