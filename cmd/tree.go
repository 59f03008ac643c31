package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/takak2166/leanote2md/internal/hierarchy"
	"github.com/takak2166/leanote2md/internal/leanote"
)

// NewTreeCmd prints the resolved notebook outline
func NewTreeCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the notebook tree without exporting anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}

			client := leanote.New(cfg.Host, cfg.Timeout)
			sess, err := client.Login(cmd.Context(), cfg.Email, cfg.Password)
			if err != nil {
				return err
			}
			notebooks, err := client.ListNotebooks(cmd.Context(), sess)
			if err != nil {
				return err
			}

			// Notebooks on a cycle are missing from the outline and reported after it
			tree, resolveErr := hierarchy.Resolve(notebooks)
			if err := tree.Render(cmd.OutOrStdout()); err != nil {
				return err
			}
			return resolveErr
		},
	}
}
