package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/WillyV3/moodbi/internal/api"
	"github.com/WillyV3/moodbi/internal/editor"
	"github.com/WillyV3/moodbi/internal/format"
	"github.com/WillyV3/moodbi/internal/moodboard"
)

func addOutputFlag(cmd *cobra.Command, out *string) {
	cmd.Flags().StringVarP(out, "output", "o", format.Table, "output format: table, json or yaml")
}

func (app *App) printer(cmd *cobra.Command) *prettyPrinter {
	pp := &prettyPrinter{w: cmd.OutOrStdout(), now: app.now()}
	if app.client != nil {
		pp.resolve = app.client.ResolveURL
	}
	return pp
}

// emit writes v in the requested machine format, or calls pretty for tables.
func emit(cmd *cobra.Command, output string, v any, pretty func()) error {
	if strings.EqualFold(strings.TrimSpace(output), format.Table) || output == "" {
		pretty()
		return nil
	}
	return format.Write(cmd.OutOrStdout(), output, v)
}

func newListCmd(app *App) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List moodboards",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.api()
			if err != nil {
				return err
			}
			boards, err := client.ListBoards(cmd.Context())
			if err != nil {
				return err
			}
			return emit(cmd, output, boards, func() { app.printer(cmd).boards(boards) })
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

func newShowCmd(app *App) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show <board-id>",
		Short: "Show a moodboard with its items, comments and attachments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.api()
			if err != nil {
				return err
			}
			d, err := loadDetail(cmd.Context(), client, app.log, args[0])
			if err != nil {
				return err
			}
			return emit(cmd, output, d, func() { app.printer(cmd).board(d) })
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

// loadDetail fetches a board with its comments and attachments. Only the
// board itself is required; the lists are logged and left empty on failure.
func loadDetail(ctx context.Context, client *api.Client, log *zap.Logger, id string) (boardDetail, error) {
	d := boardDetail{Comments: []moodboard.Comment{}, Attachments: []moodboard.Attachment{}}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := client.GetBoard(ctx, id)
		if err != nil {
			return err
		}
		d.Board = b
		return nil
	})
	g.Go(func() error {
		c, err := client.ListComments(ctx, id)
		if err != nil {
			log.Warn("load comments", zap.String("board", id), zap.Error(err))
			return nil
		}
		if c != nil {
			d.Comments = c
		}
		return nil
	})
	g.Go(func() error {
		a, err := client.ListAttachments(ctx, id)
		if err != nil {
			log.Warn("load attachments", zap.String("board", id), zap.Error(err))
			return nil
		}
		if a != nil {
			d.Attachments = a
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return boardDetail{}, err
	}
	return d, nil
}

// parseItemFlag splits "text=color" at the last '='. A value without '='
// is all text.
func parseItemFlag(v string) (text, color string) {
	i := strings.LastIndex(v, "=")
	if i < 0 {
		return strings.TrimSpace(v), ""
	}
	return strings.TrimSpace(v[:i]), strings.TrimSpace(v[i+1:])
}

func newCreateCmd(app *App) *cobra.Command {
	var (
		title       string
		description string
		due         string
		items       []string
		output      string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a moodboard",
		Example: strings.TrimSpace(`
  moodbi create --title "Spring" --description "Calm **pastels**" --due 2025-04-01 \
    --item "sky=#87ceeb" --item "grass=green" --item "https://example.com/ref.jpg"
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := moodboard.BoardPayload{
				Title:       strings.TrimSpace(title),
				Description: strings.TrimSpace(description),
				DueDate:     moodboard.StringPtr(due),
				Items:       make([]moodboard.ItemPayload, 0, len(items)),
			}
			for _, raw := range items {
				text, color := parseItemFlag(raw)
				if err := moodboard.ValidateColor(color); err != nil {
					return err
				}
				p.Items = append(p.Items, moodboard.ItemPayload{
					Text:       text,
					Color:      moodboard.StringPtr(color),
					OrderIndex: len(p.Items),
				})
			}

			client, err := app.api()
			if err != nil {
				return err
			}
			b, err := client.CreateBoard(cmd.Context(), p)
			if err != nil {
				return err
			}
			app.log.Info("board created", zap.String("id", b.ID), zap.Int("items", len(p.Items)))
			return emit(cmd, output, b, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Created board %s (%s)\n", b.Title, b.ID)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "board title (required)")
	cmd.Flags().StringVar(&description, "description", "", "markdown description")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringArrayVar(&items, "item", nil, "item as text or text=color (repeatable)")
	addOutputFlag(cmd, &output)
	return cmd
}

func newEditCmd(app *App) *cobra.Command {
	var (
		title       string
		description string
		due         string
		clearDue    bool
		output      string
	)
	cmd := &cobra.Command{
		Use:   "edit <board-id>",
		Short: "Change a moodboard's title, description or due date",
		Long:  "Change board-level fields. Items are kept as they are on the backend.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("title") && !flags.Changed("description") && !flags.Changed("due") && !clearDue {
				return fmt.Errorf("nothing to change: pass --title, --description, --due or --clear-due")
			}
			if clearDue && flags.Changed("due") {
				return fmt.Errorf("--due and --clear-due are mutually exclusive")
			}

			client, err := app.api()
			if err != nil {
				return err
			}
			b, err := client.GetBoard(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			d := editor.Begin(b)
			if flags.Changed("title") {
				d.SetTitle(title)
			}
			if flags.Changed("description") {
				d.SetDescription(description)
			}
			if flags.Changed("due") {
				d.SetDueDate(due)
			}
			if clearDue {
				d.SetDueDate("")
			}

			fresh, err := d.Commit(cmd.Context(), client)
			if err != nil {
				return err
			}
			return emit(cmd, output, fresh, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Updated board %s (%s)\n", fresh.Title, fresh.ID)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new markdown description")
	cmd.Flags().StringVar(&due, "due", "", "new due date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "remove the due date")
	addOutputFlag(cmd, &output)
	return cmd
}

func newDeleteCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "delete <board-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a moodboard",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.api()
			if err != nil {
				return err
			}
			b, err := client.GetBoard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !yes && !app.confirm(out, fmt.Sprintf("Delete board %q with its comments and attachments?", b.Title)) {
				fmt.Fprintln(out, "Cancelled.")
				return nil
			}
			if err := client.DeleteBoard(cmd.Context(), b.ID); err != nil {
				return err
			}
			app.log.Info("board deleted", zap.String("id", b.ID))
			fmt.Fprintf(out, "✓ Deleted board %s (%s)\n", b.Title, b.ID)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
