// Command rxdoc renders prescription documents for clinic visits, either as
// a one-shot file export or as an HTTP service.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinova/rxdoc"
	"github.com/clinova/rxdoc/assets"
	"github.com/clinova/rxdoc/clinic"
	"github.com/clinova/rxdoc/config"
	"github.com/clinova/rxdoc/layout"
	"github.com/clinova/rxdoc/raster"
	"github.com/clinova/rxdoc/server"
	"github.com/clinova/rxdoc/vector"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rxdoc",
		Short: "Clinic prescription document renderer",
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(generateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
}

// newStore picks the configured collaborator backend: Postgres when a DSN is
// set, JSON fixtures otherwise.
func newStore(ctx context.Context, cfg *config.Config) (clinic.Store, func(), error) {
	if cfg.DatabaseURL != "" {
		pg, err := clinic.NewPGStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil
	}
	fs, err := clinic.NewFileStore(cfg.VisitsFile, cfg.ProductsFile)
	if err != nil {
		return nil, nil, err
	}
	return fs, func() {}, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the document rendering HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store, closeStore, err := newStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			log.Info().Str("port", cfg.Port).Msg("starting rxdoc service")
			return server.New(cfg, store, log).Start()
		},
	}
}

func generateCmd() *cobra.Command {
	var (
		visitID   string
		outPath   string
		useRaster bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Render one visit's prescription document to a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store, closeStore, err := newStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			id, err := uuid.Parse(visitID)
			if err != nil {
				return fmt.Errorf("invalid visit id %q: %w", visitID, err)
			}

			ctx := cmd.Context()
			visit, err := store.Visit(ctx, id)
			if err != nil {
				return err
			}
			products, err := store.Products(ctx)
			if err != nil {
				return err
			}

			loader := assets.NewLoader(log, cfg.AssetTimeout, cfg.DefaultPhotoURL)
			bundle := loader.LoadAll(ctx, assets.URLs{
				Header:    cfg.HeaderImageURL,
				Watermark: cfg.WatermarkImageURL,
				Separator: cfg.SeparatorImageURL,
				Photo:     visit.Patient.PhotoURL,
			})

			opts := []rxdoc.Option{
				rxdoc.WithCurrency(cfg.Currency),
				rxdoc.WithFooterCaption(cfg.FooterCaption),
			}
			if cfg.FontFile != "" {
				opts = append(opts, rxdoc.WithFontFile(cfg.FontFile))
			}
			doc, err := layout.NewDocument(visit, products, bundle, rxdoc.NewSettings(opts...))
			if err != nil {
				return err
			}

			if outPath == "" {
				outPath = doc.FileName()
			}
			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			defer f.Close()

			if useRaster {
				err = raster.CapturePDF(f, doc)
			} else {
				err = vector.New(log).Generate(ctx, f, doc)
			}
			if err != nil {
				return err
			}
			log.Info().Str("file", outPath).Msg("document generated")
			return nil
		},
	}
	cmd.Flags().StringVar(&visitID, "visit", "", "visit identifier (required)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output path (default: derived file name)")
	cmd.Flags().BoolVar(&useRaster, "raster", false, "use the raster capture backend")
	cmd.MarkFlagRequired("visit")
	return cmd
}
