package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mbarlow/apiq/pkg/config"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "apiq",
	Short: "Translate natural language into API calls",
	Long: `apiq grounds a local language model on your API documentation and
translates natural-language requests into HTTP API calls.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if errs := cfg.Validate(); len(errs) > 0 {
			for _, e := range errs {
				color.Red("config: %s", e.Error())
			}
			return fmt.Errorf("invalid configuration")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
}
