// Package cli is the moodbi command tree.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/WillyV3/moodbi/internal/api"
	"github.com/WillyV3/moodbi/internal/config"
	"github.com/WillyV3/moodbi/internal/logging"
	"github.com/WillyV3/moodbi/internal/tui"
)

// App carries state shared by every command.
type App struct {
	v      *viper.Viper
	cfg    *config.Config
	log    *zap.Logger
	client *api.Client

	in  io.Reader
	now func() time.Time

	runTUI func(tui.Service, tui.Options) error
	openFn func(string) error
}

// NewRootCmd builds the moodbi command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{
		v:      config.New(),
		in:     os.Stdin,
		now:    time.Now,
		runTUI: tui.Run,
		openFn: tui.OpenURL,
	})
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "moodbi",
		Short:        "Moodboards in the terminal",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  moodbi

  # Scriptable commands
  moodbi list -o json
  moodbi create --title "Spring" --item "sky=#87ceeb" --item grass
  moodbi items move <board-id> <item-id> up
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			client, err := app.api()
			if err != nil {
				return err
			}
			app.log.Info("starting tui", zap.String("api", client.BaseURL()))
			return app.runTUI(client, tui.Options{
				Author:  app.cfg.Author,
				BaseURL: client.BaseURL(),
				Logger:  app.log,
			})
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("api", config.DefaultAPIBase, "moodboard backend base URL")
	flags.String("author", "", "default comment author")
	flags.String("log-file", config.DefaultLogFile, `log file ("-" for stderr, "" to disable)`)
	flags.BoolP("verbose", "v", false, "debug logging")
	_ = app.v.BindPFlag(config.KeyAPIBase, flags.Lookup("api"))
	_ = app.v.BindPFlag(config.KeyAuthor, flags.Lookup("author"))
	_ = app.v.BindPFlag(config.KeyLogFile, flags.Lookup("log-file"))
	_ = app.v.BindPFlag(config.KeyVerbose, flags.Lookup("verbose"))

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(app.v)
		if err != nil {
			return err
		}
		app.cfg = cfg

		logger, err := logging.New(cfg.LogFile, cfg.Verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		app.log = logger
		app.log.Debug("config loaded",
			zap.String("file", cfg.File),
			zap.String("api", cfg.APIBase),
			zap.String("command", cmd.CommandPath()),
		)
		return nil
	}
	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if app.client != nil {
			app.client.CloseIdleConnections()
		}
		if app.log != nil {
			_ = app.log.Sync()
		}
	}

	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newShowCmd(app))
	cmd.AddCommand(newCreateCmd(app))
	cmd.AddCommand(newEditCmd(app))
	cmd.AddCommand(newDeleteCmd(app))
	cmd.AddCommand(newItemsCmd(app))
	cmd.AddCommand(newCommentsCmd(app))
	cmd.AddCommand(newAttachmentsCmd(app))
	cmd.AddCommand(newSeedCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// api returns the backend client, building it on first use so that
// commands which never talk to the backend work with a bad address.
func (app *App) api() (*api.Client, error) {
	if app.client != nil {
		return app.client, nil
	}
	client, err := api.New(app.cfg.APIBase, api.WithLogger(app.log))
	if err != nil {
		return nil, err
	}
	app.client = client
	return client, nil
}

// confirm asks a y/N question on out and reads the answer from app.in.
func (app *App) confirm(out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s (y/N): ", question)
	line, _ := bufio.NewReader(app.in).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
