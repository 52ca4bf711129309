package main

import (
	"fmt"
	"io"

	"github.com/LdDl/meridian/internal/config"
	"github.com/spf13/cobra"
)

var configPath string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print effective configuration and fields which fell back to defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFile(configPath)
		if err != nil {
			logger.Warn().Err(err).Msg("configuration is not loaded, defaults are used")
		}
		printConfig(cmd.OutOrStdout(), cfg)
		return nil
	},
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "star:      %q %s transit %02d:%02d:%02d\n", cfg.Star.Name, cfg.Star.Direction, cfg.Star.Hour, cfg.Star.Minute, cfg.Star.Second)
	fmt.Fprintf(w, "camera:    id=%d V[%d..%d]\n", cfg.Camera.ID, cfg.Camera.MinV, cfg.Camera.MaxV)
	if path := cfg.File.Path(); path != "" {
		fmt.Fprintf(w, "file:      %s\n", path)
	} else {
		fmt.Fprintln(w, "file:      <none>")
	}
	fmt.Fprintf(w, "tolerance: %g px\n", cfg.Tracking.SnapTolerance)
	fmt.Fprintf(w, "delay:     %s\n", cfg.Tracking.FrameDelay)
	for _, field := range cfg.Missing {
		fmt.Fprintf(w, "missing:   %s\n", field)
	}
}

func init() {
	configCmd.Flags().StringVarP(&configPath, "config", "c", "config.xml", "Path to configuration XML")
	rootCmd.AddCommand(configCmd)
}
