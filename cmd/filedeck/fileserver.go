package main

import (
	"fmt"

	"github.com/CageChen/filedeck/internal/filestore"
	"github.com/CageChen/filedeck/internal/logging"
	"github.com/CageChen/filedeck/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var fileserverVars struct {
	port int
	dir  string
}

var fileserverCmd = &cobra.Command{
	Use:         "fileserver",
	Short:       "Serve a local directory as a file server",
	Long:        "Serve a local directory with the listing, upload and delete endpoints the UI uses.",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{serverCommand: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := app.cfg
		if cmd.Flags().Changed("port") {
			cfg.FilePort = fileserverVars.port
		}
		if fileserverVars.dir != "" {
			cfg.UploadDir = fileserverVars.dir
		}
		defer func() { _ = logging.Sync() }()

		store, err := filestore.NewStore(cfg.UploadDir)
		if err != nil {
			return fmt.Errorf("failed to open upload dir: %w", err)
		}

		gin.SetMode(gin.ReleaseMode)
		r := filestore.NewServer(store, int64(cfg.MaxUpload.Bytes())).Router(metrics.Middleware())
		r.GET("/metrics", gin.WrapH(metrics.Handler()))

		logging.L().Info("file server",
			zap.String("dir", store.Root()),
			zap.String("url", fmt.Sprintf("http://localhost:%d/files/", cfg.FilePort)),
			zap.String("max_upload", cfg.MaxUpload.HR()),
		)
		return r.Run(fmt.Sprintf(":%d", cfg.FilePort))
	},
}

func init() {
	fileserverCmd.Flags().IntVarP(&fileserverVars.port, "port", "p", 8081, "port to listen on")
	fileserverCmd.Flags().StringVarP(&fileserverVars.dir, "dir", "d", "", "directory to serve (default from config upload_dir)")

	rootCmd.AddCommand(fileserverCmd)
}
