// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the renderer service needs at startup.
type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"ENV"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	VisitsFile   string `mapstructure:"VISITS_FILE"`
	ProductsFile string `mapstructure:"PRODUCTS_FILE"`

	HeaderImageURL    string `mapstructure:"HEADER_IMAGE_URL"`
	WatermarkImageURL string `mapstructure:"WATERMARK_IMAGE_URL"`
	SeparatorImageURL string `mapstructure:"SEPARATOR_IMAGE_URL"`
	DefaultPhotoURL   string `mapstructure:"DEFAULT_PHOTO_URL"`

	Currency      string        `mapstructure:"CURRENCY"`
	FooterCaption string        `mapstructure:"FOOTER_CAPTION"`
	FontFile      string        `mapstructure:"FONT_FILE"`
	PrintCommand  string        `mapstructure:"PRINT_COMMAND"`
	AssetTimeout  time.Duration `mapstructure:"ASSET_TIMEOUT"`
}

// Load reads configuration from the environment and an optional .env file.
// Either DATABASE_URL or VISITS_FILE must be set; the file store is the
// fallback when no database is configured.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("CURRENCY", "₹")
	v.SetDefault("FOOTER_CAPTION", "Wishing you a speedy recovery")
	v.SetDefault("PRINT_COMMAND", "lp")
	v.SetDefault("ASSET_TIMEOUT", 5*time.Second)

	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "VISITS_FILE", "PRODUCTS_FILE",
		"HEADER_IMAGE_URL", "WATERMARK_IMAGE_URL", "SEPARATOR_IMAGE_URL",
		"DEFAULT_PHOTO_URL", "CURRENCY", "FOOTER_CAPTION", "FONT_FILE",
		"PRINT_COMMAND", "ASSET_TIMEOUT",
	} {
		v.BindEnv(key)
	}

	// A missing .env file is fine; the environment wins either way.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if cfg.DatabaseURL == "" && cfg.VisitsFile == "" {
		return nil, fmt.Errorf("config: either DATABASE_URL or VISITS_FILE is required")
	}
	return cfg, nil
}
