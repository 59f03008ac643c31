// Package config loads export settings from flags, environment, .env and
// an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/takak2166/leanote2md/internal/leanote"
	"github.com/takak2166/leanote2md/internal/localizer"
)

// EnvPrefix prefixes every environment variable, e.g. LEANOTE_EMAIL
const EnvPrefix = "LEANOTE"

// Config is everything one export run needs
type Config struct {
	Host     string
	Email    string
	Password string
	Timeout  time.Duration

	OutputPath string
	OnlyBlog   bool
	OutputMeta bool

	LocalizeImage bool
	ImgPath       string
	ImgLinkPath   string
	ImgExternal   bool

	LocalizeAttach bool
	AttachPath     string
	AttachLinkPath string

	ForcedSave bool

	LogLevel  string
	LogFormat string
	Progress  bool

	NotionAPIKey       string
	NotionParentPageID string
}

// SetDefaults registers the default of every key on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("host", leanote.DefaultHost)
	v.SetDefault("timeout", "60s")
	v.SetDefault("output_path", "./Leanote")
	v.SetDefault("only_blog", false)
	v.SetDefault("output_meta", false)
	v.SetDefault("localize_image", true)
	v.SetDefault("img_path", "./.images")
	v.SetDefault("img_link_path", "./.images")
	v.SetDefault("img_external", false)
	v.SetDefault("localize_attach", true)
	v.SetDefault("attach_path", "./.attachments")
	v.SetDefault("attach_link_path", "./.attachments")
	v.SetDefault("forced_save", true)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("progress", true)
	v.SetDefault("notion.api_key", "")
	v.SetDefault("notion.parent_page_id", "")
}

// Init prepares v: .env in the working directory, environment variables
// and, when cfgFile is set, a YAML config file.
func Init(v *viper.Viper, cfgFile string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", cfgFile, err)
		}
	}
	return nil
}

// Load reads a Config out of v
func Load(v *viper.Viper) (*Config, error) {
	timeout, err := time.ParseDuration(v.GetString("timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid timeout: %w", err)
	}

	cfg := &Config{
		Host:               v.GetString("host"),
		Email:              v.GetString("email"),
		Password:           v.GetString("password"),
		Timeout:            timeout,
		OutputPath:         v.GetString("output_path"),
		OnlyBlog:           v.GetBool("only_blog"),
		OutputMeta:         v.GetBool("output_meta"),
		LocalizeImage:      v.GetBool("localize_image"),
		ImgPath:            v.GetString("img_path"),
		ImgLinkPath:        v.GetString("img_link_path"),
		ImgExternal:        v.GetBool("img_external"),
		LocalizeAttach:     v.GetBool("localize_attach"),
		AttachPath:         v.GetString("attach_path"),
		AttachLinkPath:     v.GetString("attach_link_path"),
		ForcedSave:         v.GetBool("forced_save"),
		LogLevel:           v.GetString("log_level"),
		LogFormat:          v.GetString("log_format"),
		Progress:           v.GetBool("progress"),
		NotionAPIKey:       v.GetString("notion.api_key"),
		NotionParentPageID: v.GetString("notion.parent_page_id"),
	}
	return cfg, nil
}

// Validate reports the first setting that makes an export impossible
func (c *Config) Validate() error {
	if c.Email == "" {
		return errors.New("email is required (set LEANOTE_EMAIL or --email)")
	}
	if c.Password == "" {
		return errors.New("password is required (set LEANOTE_PASSWORD)")
	}
	if c.OutputPath == "" {
		return errors.New("output_path must not be empty")
	}
	if c.LocalizeImage && c.ImgPath == "" {
		return errors.New("img_path must not be empty when localize_image is set")
	}
	if c.LocalizeAttach && c.AttachPath == "" {
		return errors.New("attach_path must not be empty when localize_attach is set")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log_format %q", c.LogFormat)
	}
	if (c.NotionAPIKey == "") != (c.NotionParentPageID == "") {
		return errors.New("notion.api_key and notion.parent_page_id must be set together")
	}
	return nil
}

// NotionEnabled reports whether exported notes are mirrored to Notion
func (c *Config) NotionEnabled() bool {
	return c.NotionAPIKey != "" && c.NotionParentPageID != ""
}

// LocalizerOptions returns the link rewriting part of the config
func (c *Config) LocalizerOptions() localizer.Options {
	return localizer.Options{
		LocalizeImage:  c.LocalizeImage,
		ImgPath:        c.ImgPath,
		ImgLinkPath:    c.ImgLinkPath,
		ImgExternal:    c.ImgExternal,
		LocalizeAttach: c.LocalizeAttach,
		AttachPath:     c.AttachPath,
		AttachLinkPath: c.AttachLinkPath,
		ForcedSave:     c.ForcedSave,
	}
}
