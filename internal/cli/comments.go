package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/WillyV3/moodbi/internal/moodboard"
)

func newCommentsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comments",
		Short: "Comment commands",
	}
	cmd.AddCommand(newCommentsListCmd(app))
	cmd.AddCommand(newCommentsAddCmd(app))
	cmd.AddCommand(newCommentsRmCmd(app))
	return cmd
}

func newCommentsListCmd(app *App) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "list <board-id>",
		Short: "List a board's comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.api()
			if err != nil {
				return err
			}
			comments, err := client.ListComments(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if comments == nil {
				comments = []moodboard.Comment{}
			}
			return emit(cmd, output, comments, func() { app.printer(cmd).comments(comments) })
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

func newCommentsAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <board-id> <content>",
		Short: "Comment on a board",
		Long:  `Comment on a board as --author, the configured author or "anonymous".`,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := moodboard.NewCommentInput(strings.Join(args[1:], " "), app.cfg.Author)

			client, err := app.api()
			if err != nil {
				return err
			}
			c, err := client.AddComment(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			app.log.Info("comment added", zap.String("board", args[0]), zap.String("comment", c.ID))
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Comment %s added by %s\n", c.ID, in.Author)
			return nil
		},
	}
}

func newCommentsRmCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "rm <board-id> <comment-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a comment",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !yes && !app.confirm(out, fmt.Sprintf("Delete comment %s?", args[1])) {
				fmt.Fprintln(out, "Cancelled.")
				return nil
			}
			client, err := app.api()
			if err != nil {
				return err
			}
			if err := client.DeleteComment(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Deleted comment %s\n", args[1])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
