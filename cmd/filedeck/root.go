package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/CageChen/filedeck/internal/actions"
	"github.com/CageChen/filedeck/internal/config"
	"github.com/CageChen/filedeck/internal/files"
	"github.com/CageChen/filedeck/internal/logging"
	"github.com/CageChen/filedeck/internal/render"
	"github.com/spf13/cobra"
)

var rootVars struct {
	configFile string
	server     string
	logLevel   string
	timeout    time.Duration
}

// app holds what every command shares once flags and config are read.
var app struct {
	cfg *config.Config
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "filedeck",
	Short: "Browse, upload, preview and delete files on a file server",
	Long: `filedeck keeps a list of the files a file server exposes and lets you
upload, preview and delete them, from the browser or from the terminal.

Sample usage:
- filedeck fileserver --dir ./uploads
- filedeck serve --open
- filedeck ls
- filedeck put report.pdf
- filedeck rm report.pdf`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initApp,
	Version:           version,
}

// Execute runs the root command and prints the error, if any.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, errorColor.Sprint("Error: ")+err.Error())
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootVars.configFile, "config", "c", "", "config file (default is ~/.config/filedeck/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootVars.server, "server", "s", "", "file server URL")
	rootCmd.PersistentFlags().StringVar(&rootVars.logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().DurationVar(&rootVars.timeout, "timeout", 0, "HTTP client timeout (0 means none)")
}

// Command annotations. serverCommand marks long-lived servers; the other
// commands log warnings only unless --log-level is given. newConfigFile
// accepts a --config path that does not exist yet.
const (
	serverCommand = "server"
	newConfigFile = "new_config_file"
)

func initApp(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(rootVars.configFile)
	if err != nil && cmd.Annotations[newConfigFile] != "" && errors.Is(err, os.ErrNotExist) {
		cfg, err = config.DefaultConfig(), nil
		cfg.SetConfigFilePath(rootVars.configFile)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if rootVars.server != "" {
		cfg.Server = rootVars.server
	}

	level := cfg.LogLevel
	if cmd.Annotations[serverCommand] == "" {
		level = "warn"
	}
	if rootVars.logLevel != "" {
		level = rootVars.logLevel
	}
	if err := logging.Init(logging.Config{Level: level, Format: cfg.LogFormat}); err != nil {
		return fmt.Errorf("failed to init logging: %w", err)
	}

	app.cfg = cfg
	return nil
}

func httpClient() *http.Client {
	return &http.Client{Timeout: rootVars.timeout}
}

func previewable(cfg *config.Config) func(files.Record) bool {
	return func(rec files.Record) bool {
		return actions.Classify(cfg, rec.Name) != actions.KindUnavailable
	}
}

// newDispatcher wires a lister, renderer and dispatcher for cfg.Server.
func newDispatcher(notifier actions.Notifier) (*actions.Dispatcher, error) {
	lister, err := files.NewLister(app.cfg.Server, httpClient())
	if err != nil {
		return nil, err
	}
	renderer := render.New(render.Options{
		DateLayout:  app.cfg.DateLayout,
		Previewable: previewable(app.cfg),
	})
	return newDispatcherFor(lister, renderer, notifier), nil
}

func newDispatcherFor(lister *files.Lister, renderer *render.Renderer, notifier actions.Notifier) *actions.Dispatcher {
	return actions.New(lister, renderer, lister.Client(), notifier, actions.Config{
		Classifier:   app.cfg,
		MaxUpload:    app.cfg.MaxUpload,
		PreviewLimit: app.cfg.PreviewLimit,
	})
}
