package main

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os/exec"
	"runtime"

	"github.com/CageChen/filedeck/internal/files"
	"github.com/CageChen/filedeck/internal/handler"
	"github.com/CageChen/filedeck/internal/logging"
	"github.com/CageChen/filedeck/internal/metrics"
	"github.com/CageChen/filedeck/internal/render"
	"github.com/CageChen/filedeck/internal/watcher"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveVars struct {
	port  int
	open  bool
	watch string
	title string
}

var serveCmd = &cobra.Command{
	Use:         "serve",
	Short:       "Run the browser UI",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{serverCommand: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := app.cfg
		if cmd.Flags().Changed("port") {
			cfg.Port = serveVars.port
		}
		if cmd.Flags().Changed("open") {
			cfg.Open = serveVars.open
		}
		if serveVars.watch != "" {
			cfg.WatchDir = serveVars.watch
		}
		defer func() { _ = logging.Sync() }()
		log := logging.L()

		lister, err := files.NewLister(cfg.Server, httpClient())
		if err != nil {
			return err
		}
		renderer := render.New(render.Options{
			DateLayout:  cfg.DateLayout,
			Previewable: previewable(cfg),
		})
		hub := handler.NewHub(renderer)
		dispatcher := newDispatcherFor(lister, renderer, hub)

		log.Info("filedeck UI",
			zap.String("config", cfg.GetConfigFilePath()),
			zap.String("file_server", cfg.Server),
			zap.String("url", fmt.Sprintf("http://localhost:%d", cfg.Port)),
		)

		// Refresh whenever the directory behind the file server changes
		if cfg.WatchDir != "" {
			w, err := watcher.New(cfg.WatchDir, 0)
			if err != nil {
				log.Warn("failed to create file watcher", zap.Error(err))
			} else {
				w.OnChange(func(e watcher.Event) {
					_, _ = dispatcher.Refresh(context.Background())
				})
				if err := w.Start(); err != nil {
					log.Warn("failed to start file watcher", zap.Error(err))
				} else {
					defer func() { _ = w.Stop() }()
					log.Info("file watcher enabled", zap.String("dir", w.Dir()))
				}
			}
		}

		listHandler := handler.NewListHandler(dispatcher, serveVars.title)
		fileHandler := handler.NewFileHandler(dispatcher)

		gin.SetMode(gin.ReleaseMode)
		r := gin.New()
		r.Use(gin.Recovery())
		r.Use(logging.Middleware())
		r.Use(metrics.Middleware())

		r.GET("/", listHandler.GetPage)
		r.GET("/metrics", gin.WrapH(metrics.Handler()))

		api := r.Group("/api")
		{
			api.GET("/list", listHandler.GetList)
			api.DELETE("/files/*name", fileHandler.DeleteFile)
			api.POST("/upload", fileHandler.Upload)
			api.GET("/preview/*name", fileHandler.GetPreview)
			api.GET("/ws", hub.HandleWS)
		}

		// Serve embedded static files
		webContent, err := fs.Sub(webFS, "web")
		if err != nil {
			return fmt.Errorf("failed to load web assets: %w", err)
		}
		r.NoRoute(gin.WrapH(http.FileServer(http.FS(webContent))))

		if cfg.Open {
			go openBrowser(fmt.Sprintf("http://localhost:%d", cfg.Port))
		}

		return r.Run(fmt.Sprintf(":%d", cfg.Port))
	},
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "windows":
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler", url}
	case "darwin":
		cmd = "open"
		args = []string{url}
	default: // linux, etc.
		cmd = "xdg-open"
		args = []string{url}
	}

	_ = exec.Command(cmd, args...).Start()
}

func init() {
	serveCmd.Flags().IntVarP(&serveVars.port, "port", "p", 8080, "port to listen on")
	serveCmd.Flags().BoolVarP(&serveVars.open, "open", "o", false, "open the browser")
	serveCmd.Flags().StringVarP(&serveVars.watch, "watch", "w", "", "local directory whose changes refresh the list")
	serveCmd.Flags().StringVar(&serveVars.title, "title", "File Upload Server", "page title")

	rootCmd.AddCommand(serveCmd)
}
