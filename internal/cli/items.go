package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/WillyV3/moodbi/internal/editor"
	"github.com/WillyV3/moodbi/internal/moodboard"
)

func newItemsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Item commands",
		Long: strings.TrimSpace(`
Each command loads the board, applies one change to a local copy of its items
and saves the whole list back in a single replace. Item ids change on every
save; use "moodbi items list" to see the current ones.
`),
	}
	cmd.AddCommand(newItemsListCmd(app))
	cmd.AddCommand(newItemsAddCmd(app))
	cmd.AddCommand(newItemsRmCmd(app))
	cmd.AddCommand(newItemsMoveCmd(app))
	cmd.AddCommand(newItemsSetCmd(app))
	return cmd
}

// editItems runs one editor session against a board and saves it.
func (app *App) editItems(cmd *cobra.Command, boardID string, edit func(d *editor.Draft) error) error {
	client, err := app.api()
	if err != nil {
		return err
	}
	b, err := client.GetBoard(cmd.Context(), boardID)
	if err != nil {
		return err
	}

	d := editor.Begin(b)
	if err := edit(d); err != nil {
		d.Cancel()
		return err
	}
	if !d.Dirty() {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing changed.")
		d.Cancel()
		return nil
	}

	fresh, err := d.Commit(cmd.Context(), client)
	if err != nil {
		return err
	}
	app.log.Info("items saved", zap.String("board", fresh.ID), zap.Int("items", len(fresh.Items)))
	app.printer(cmd).items(fresh.OrderedItems())
	return nil
}

func itemIndex(d *editor.Draft, id string) (int, error) {
	for i, it := range d.Items() {
		if it.ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("item %s not found on board %s", id, d.BoardID())
}

func newItemsListCmd(app *App) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "list <board-id>",
		Short: "List a board's items in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.api()
			if err != nil {
				return err
			}
			b, err := client.GetBoard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			items := b.OrderedItems()
			return emit(cmd, output, items, func() { app.printer(cmd).items(items) })
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

func newItemsAddCmd(app *App) *cobra.Command {
	var color string
	cmd := &cobra.Command{
		Use:   "add <board-id> <text>",
		Short: "Append an item",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args[1:], " ")
			if err := moodboard.ValidateColor(color); err != nil {
				return err
			}
			return app.editItems(cmd, args[0], func(d *editor.Draft) error {
				if d.Add(text, color) == "" {
					return &moodboard.ValidationError{Field: "text", Reason: "is required"}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&color, "color", "c", "", "CSS color, e.g. #87ceeb or teal")
	return cmd
}

func newItemsRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <board-id> <item-id>",
		Aliases: []string{"remove"},
		Short:   "Remove an item",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.editItems(cmd, args[0], func(d *editor.Draft) error {
				if _, err := itemIndex(d, args[1]); err != nil {
					return err
				}
				d.Remove(args[1])
				return nil
			})
		},
	}
}

func newItemsMoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:       "move <board-id> <item-id> up|down",
		Short:     "Move an item one position up or down",
		Args:      cobra.ExactArgs(3),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := strings.ToLower(args[2])
			if direction != "up" && direction != "down" {
				return fmt.Errorf("direction must be up or down, got %q", args[2])
			}
			return app.editItems(cmd, args[0], func(d *editor.Draft) error {
				i, err := itemIndex(d, args[1])
				if err != nil {
					return err
				}
				// Moving past either end is a no-op.
				if direction == "up" {
					d.MoveUp(i)
				} else {
					d.MoveDown(i)
				}
				return nil
			})
		},
	}
}

func newItemsSetCmd(app *App) *cobra.Command {
	var (
		text  string
		color string
	)
	cmd := &cobra.Command{
		Use:   "set <board-id> <item-id>",
		Short: "Change an item's text or color",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("text") && !flags.Changed("color") {
				return fmt.Errorf("nothing to change: pass --text or --color")
			}
			if flags.Changed("text") && strings.TrimSpace(text) == "" {
				return &moodboard.ValidationError{Field: "text", Reason: "is required"}
			}
			if err := moodboard.ValidateColor(color); err != nil {
				return err
			}
			return app.editItems(cmd, args[0], func(d *editor.Draft) error {
				if _, err := itemIndex(d, args[1]); err != nil {
					return err
				}
				if flags.Changed("text") {
					d.SetText(args[1], strings.TrimSpace(text))
				}
				if flags.Changed("color") {
					d.SetColor(args[1], color)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "new text")
	cmd.Flags().StringVarP(&color, "color", "c", "", `new color ("" clears it)`)
	return cmd
}
