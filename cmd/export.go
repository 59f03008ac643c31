package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/takak2166/leanote2md/internal/config"
	"github.com/takak2166/leanote2md/internal/exporter"
	"github.com/takak2166/leanote2md/internal/leanote"
	"github.com/takak2166/leanote2md/internal/localizer"
	"github.com/takak2166/leanote2md/internal/logger"
	"github.com/takak2166/leanote2md/internal/notion"
	"github.com/takak2166/leanote2md/internal/progress"
	"github.com/takak2166/leanote2md/internal/storage"
)

// NewExportCmd runs a full export with the settings loaded from v
func NewExportCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every Markdown note into a folder tree",
		Long: `Export every Markdown note of the account into a folder tree that
mirrors the notebooks. Images and attachments served by Leanote are
downloaded next to the notes and their links rewritten.

The password is read from LEANOTE_PASSWORD (or a .env file).

Examples:
  leanote2md export --email me@example.com
  leanote2md export --output ./backup --only-blog --meta
  leanote2md export --config leanote2md.yaml --img-external`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			exp, bar, err := newExporter(cfg)
			if err != nil {
				return err
			}
			stats, err := exp.Run(ctx)
			bar.Close()
			if err != nil {
				logger.Error("Export failed", err)
				return err
			}

			if logger.IsDebug() {
				for notebookID, path := range exp.Exported() {
					logger.Debug("Last note written", map[string]interface{}{
						"notebook": notebookID,
						"path":     path,
					})
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"Exported %d of %d notes from %d notebooks (%d skipped, %d failed)\n",
				stats.Exported, stats.Notes, stats.Notebooks, stats.Skipped, stats.Failed)
			if stats.Unresolved > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Skipped %d notebooks caught in a parent cycle\n", stats.Unresolved)
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"Resources: %d downloaded, %d kept, %d failed\n",
				stats.Resources.Downloaded, stats.Resources.Cached, stats.Resources.Failed)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringP("output", "o", "", "Directory the notebook tree is written to")
	flags.Bool("only-blog", false, "Export only notes published as blog posts")
	flags.Bool("meta", false, "Prepend YAML front matter with title, date and tags")
	flags.Bool("localize-image", true, "Download images and rewrite their links")
	flags.String("img-path", "", "Image directory, relative to each note or absolute")
	flags.String("img-link-path", "", "Prefix written into rewritten image links")
	flags.Bool("img-external", false, "Also download images hosted elsewhere")
	flags.Bool("localize-attach", true, "Download attachments and rewrite their links")
	flags.String("attach-path", "", "Attachment directory, relative to each note or absolute")
	flags.String("attach-link-path", "", "Prefix written into rewritten attachment links")
	flags.Bool("forced-save", true, "Download resources again even when the file exists")
	flags.Bool("progress", true, "Show a progress bar on a terminal")

	bind(v, flags.Lookup("output"), "output_path")
	bind(v, flags.Lookup("only-blog"), "only_blog")
	bind(v, flags.Lookup("meta"), "output_meta")
	bind(v, flags.Lookup("localize-image"), "localize_image")
	bind(v, flags.Lookup("img-path"), "img_path")
	bind(v, flags.Lookup("img-link-path"), "img_link_path")
	bind(v, flags.Lookup("img-external"), "img_external")
	bind(v, flags.Lookup("localize-attach"), "localize_attach")
	bind(v, flags.Lookup("attach-path"), "attach_path")
	bind(v, flags.Lookup("attach-link-path"), "attach_link_path")
	bind(v, flags.Lookup("forced-save"), "forced_save")
	bind(v, flags.Lookup("progress"), "progress")

	return cmd
}

func newExporter(cfg *config.Config) (*exporter.Exporter, *progress.Bar, error) {
	client := leanote.New(cfg.Host, cfg.Timeout)
	disk := storage.NewDisk()
	bar := progress.New(cfg.Progress)

	exp := &exporter.Exporter{
		Service:   client,
		Localizer: localizer.New(client, disk, cfg.LocalizerOptions()),
		Writer:    disk,
		Progress:  bar,
		Options: exporter.Options{
			Email:      cfg.Email,
			Password:   cfg.Password,
			OutputPath: cfg.OutputPath,
			OnlyBlog:   cfg.OnlyBlog,
			OutputMeta: cfg.OutputMeta,
		},
	}

	if cfg.NotionEnabled() {
		mirror, err := notion.New(cfg.NotionAPIKey, cfg.NotionParentPageID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Notion client: %w", err)
		}
		exp.Publisher = mirror
	}
	return exp, bar, nil
}
