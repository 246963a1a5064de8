package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the configuration in use",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := app.cfg
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "config file:   %s\n", cfg.GetConfigFilePath())
		fmt.Fprintf(out, "file server:   %s\n", cfg.Server)
		fmt.Fprintf(out, "ui port:       %d\n", cfg.Port)
		fmt.Fprintf(out, "upload dir:    %s\n", cfg.UploadDir)
		fmt.Fprintf(out, "max upload:    %s\n", cfg.MaxUpload.HR())
		fmt.Fprintf(out, "preview limit: %s\n", cfg.PreviewLimit.HR())
	},
}

var configInitVars struct {
	force bool
}

var configInitCmd = &cobra.Command{
	Use:         "init",
	Short:       "Write the current configuration to the config file",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{newConfigFile: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		path := app.cfg.GetConfigFilePath()
		if _, err := os.Stat(path); err == nil && !configInitVars.force {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		}
		if err := app.cfg.Save(); err != nil {
			return err
		}
		infoColor.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&configInitVars.force, "force", "f", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
