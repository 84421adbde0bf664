package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/WillyV3/moodbi/internal/moodboard"
)

type seedItem struct {
	text  string
	color string
}

type seedBoard struct {
	title       string
	description string
	dueInDays   int // 0 means no due date
	items       []seedItem
}

// sampleBoards are the boards `moodbi seed` creates.
var sampleBoards = []seedBoard{
	{
		title: "Spring Campaign",
		description: "Soft **pastels** and morning light.\n\n" +
			"- keep copy short\n- reference shots in the attachments",
		dueInDays: 14,
		items: []seedItem{
			{"sky", "#87ceeb"},
			{"cherry blossom", "#ffb7c5"},
			{"fresh grass", "green"},
			{"Palette inspiration: https://coolors.co/palettes/trending", ""},
			{"Type pairing at www.fontpair.co", ""},
		},
	},
	{
		title:       "Homelab Dashboard",
		description: "Dark UI for the status page. Keep contrast high, avoid pure black.",
		dueInDays:   30,
		items: []seedItem{
			{"background", "#1e1e1e"},
			{"accent", "#4ec9b0"},
			{"warning", "#f59e0b"},
			{"error", "#dc2626"},
			{"Grafana dark theme for reference https://grafana.com/grafana/dashboards/", ""},
		},
	},
	{
		title:       "Weekend Cabin",
		description: "Warm wood, wool and *candlelight*.",
		items: []seedItem{
			{"walnut", "#5d432c"},
			{"wool", "#e8dcc8"},
			{"moss", "#8a9a5b"},
			{"fireplace photo ideas", ""},
		},
	},
}

func (s seedBoard) payload(app *App) moodboard.BoardPayload {
	p := moodboard.BoardPayload{
		Title:       s.title,
		Description: s.description,
		Items:       make([]moodboard.ItemPayload, 0, len(s.items)),
	}
	if s.dueInDays > 0 {
		due := app.now().UTC().AddDate(0, 0, s.dueInDays).Format(moodboard.DueDateLayout)
		p.DueDate = &due
	}
	for i, it := range s.items {
		p.Items = append(p.Items, moodboard.ItemPayload{
			Text:       it.text,
			Color:      moodboard.StringPtr(it.color),
			OrderIndex: i,
		})
	}
	return p
}

func newSeedCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create sample moodboards on the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			client, err := app.api()
			if err != nil {
				return err
			}

			existing, err := client.ListBoards(cmd.Context())
			if err != nil {
				return err
			}
			if len(existing) > 0 && !yes {
				q := fmt.Sprintf("Backend already has %d boards. Add %d sample boards anyway?", len(existing), len(sampleBoards))
				if !app.confirm(out, q) {
					fmt.Fprintln(out, "Cancelled.")
					return nil
				}
			}

			created := 0
			for _, s := range sampleBoards {
				b, err := client.CreateBoard(cmd.Context(), s.payload(app))
				if err != nil {
					return fmt.Errorf("failed to create %q: %w", s.title, err)
				}
				app.log.Debug("seeded board", zap.String("id", b.ID), zap.String("title", b.Title))
				fmt.Fprintf(out, "  %s (%s, %d items)\n", b.Title, b.ShortID(), len(b.Items))
				created++
			}

			fmt.Fprintf(out, "✓ Created %d boards on %s\n", created, client.BaseURL())
			fmt.Fprintln(out, "\nRun 'moodbi' to browse them!")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "seed even when the backend already has boards")
	return cmd
}
