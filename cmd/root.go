package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/takak2166/leanote2md/internal/config"
	"github.com/takak2166/leanote2md/internal/logger"
)

// NewRootCmd builds the leanote2md command tree. Every subcommand reads its
// settings from the same viper instance.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	cmd := &cobra.Command{
		Use:           "leanote2md",
		Short:         "Export Leanote notes to Markdown files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Init(v, cfgFile); err != nil {
				return err
			}
			if err := logger.Init(v.GetString("log_level"), v.GetString("log_format")); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "YAML config file")
	flags.String("host", "", "Leanote server, e.g. https://leanote.com")
	flags.String("email", "", "Leanote account email")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.String("log-format", "", "text or json")
	flags.Duration("timeout", 0, "HTTP timeout per request")

	bind(v, flags.Lookup("host"), "host")
	bind(v, flags.Lookup("email"), "email")
	bind(v, flags.Lookup("log-level"), "log_level")
	bind(v, flags.Lookup("log-format"), "log_format")
	bind(v, flags.Lookup("timeout"), "timeout")

	cmd.AddCommand(NewExportCmd(v), NewTreeCmd(v))
	return cmd
}

func loadConfig(v *viper.Viper) (*config.Config, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
