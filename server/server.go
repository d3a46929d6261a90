// Package server exposes the document renderer over HTTP: vector download,
// raster capture and print dispatch for a visit.
package server

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/clinova/rxdoc"
	"github.com/clinova/rxdoc/assets"
	"github.com/clinova/rxdoc/clinic"
	"github.com/clinova/rxdoc/config"
	"github.com/clinova/rxdoc/layout"
	"github.com/clinova/rxdoc/printer"
	"github.com/clinova/rxdoc/raster"
	"github.com/clinova/rxdoc/vector"
)

// documentGenerator is the vector backend surface the handlers depend on.
type documentGenerator interface {
	Generate(ctx context.Context, w io.Writer, doc *layout.Document) error
}

// Server wires the rendering pipeline behind HTTP handlers.
type Server struct {
	cfg        *config.Config
	store      clinic.Store
	loader     *assets.Loader
	generator  documentGenerator
	dispatcher *printer.Dispatcher
	settings   rxdoc.Settings
	log        zerolog.Logger
}

// New builds a Server from its collaborators.
func New(cfg *config.Config, store clinic.Store, log zerolog.Logger) *Server {
	opts := []rxdoc.Option{
		rxdoc.WithCurrency(cfg.Currency),
		rxdoc.WithFooterCaption(cfg.FooterCaption),
	}
	if cfg.FontFile != "" {
		opts = append(opts, rxdoc.WithFontFile(cfg.FontFile))
	}
	return &Server{
		cfg:        cfg,
		store:      store,
		loader:     assets.NewLoader(log, cfg.AssetTimeout, cfg.DefaultPhotoURL),
		generator:  vector.New(log),
		dispatcher: printer.New(log, cfg.PrintCommand),
		settings:   rxdoc.NewSettings(opts...),
		log:        log,
	}
}

// Router builds the echo engine with logging and recovery middleware.
func (s *Server) Router() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(s.requestLogger())

	e.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	e.GET("/visits/:id/document.pdf", s.handleVectorDocument)
	e.GET("/visits/:id/capture.pdf", s.handleRasterDocument)
	e.GET("/visits/:id/capture.png", s.handleRasterImage)
	e.POST("/visits/:id/print", s.handlePrint)
	return e
}

// Start runs the HTTP server on the configured port.
func (s *Server) Start() error {
	return s.Router().Start(":" + s.cfg.Port)
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			s.log.Info().
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Int("status", c.Response().Status).
				Dur("elapsed", time.Since(start)).
				Msg("request")
			return err
		}
	}
}

// buildDocument assembles the render input for one visit: record lookup,
// product lookup, single schema resolution and fresh asset loads. Nothing
// is cached between requests.
func (s *Server) buildDocument(c echo.Context) (*layout.Document, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid visit id")
	}

	ctx := c.Request().Context()
	visit, err := s.store.Visit(ctx, id)
	if err != nil {
		if err == rxdoc.ErrVisitNotFound {
			return nil, echo.NewHTTPError(http.StatusNotFound, "visit not found")
		}
		return nil, fmt.Errorf("loading visit: %w", err)
	}
	products, err := s.store.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading products: %w", err)
	}

	bundle := s.loader.LoadAll(ctx, assets.URLs{
		Header:    s.cfg.HeaderImageURL,
		Watermark: s.cfg.WatermarkImageURL,
		Separator: s.cfg.SeparatorImageURL,
		Photo:     visit.Patient.PhotoURL,
	})

	return layout.NewDocument(visit, products, bundle, s.settings)
}

// alert is the single user-visible failure surface for composition errors.
func (s *Server) alert(c echo.Context, err error) error {
	if he, ok := err.(*echo.HTTPError); ok {
		return he
	}
	s.log.Error().Err(err).Msg("document generation failed")
	return c.String(http.StatusInternalServerError, "Failed to generate the document. Please try again.")
}

// sendAttachment commits the response only after rendering succeeded, so a
// failed render can still surface the alert instead of an empty download.
func (s *Server) sendAttachment(c echo.Context, name string, body []byte) error {
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, "application/pdf", body)
}

func (s *Server) handleVectorDocument(c echo.Context) error {
	doc, err := s.buildDocument(c)
	if err != nil {
		return s.alert(c, err)
	}

	var buf bytes.Buffer
	if err := s.generator.Generate(c.Request().Context(), &buf, doc); err != nil {
		return s.alert(c, err)
	}
	return s.sendAttachment(c, doc.FileName(), buf.Bytes())
}

func (s *Server) handleRasterDocument(c echo.Context) error {
	doc, err := s.buildDocument(c)
	if err != nil {
		return s.alert(c, err)
	}

	var buf bytes.Buffer
	if err := raster.CapturePDF(&buf, doc); err != nil {
		return s.alert(c, err)
	}
	return s.sendAttachment(c, doc.FileName(), buf.Bytes())
}

func (s *Server) handleRasterImage(c echo.Context) error {
	doc, err := s.buildDocument(c)
	if err != nil {
		return s.alert(c, err)
	}

	var buf bytes.Buffer
	if err := raster.CapturePNG(&buf, doc); err != nil {
		return s.alert(c, err)
	}
	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) handlePrint(c echo.Context) error {
	doc, err := s.buildDocument(c)
	if err != nil {
		return s.alert(c, err)
	}

	mode := printer.ParseMode(c.QueryParam("mode"))
	if err := s.dispatcher.Print(c.Request().Context(), doc, mode); err != nil {
		// Print failures are logged, not alerted.
		return c.NoContent(http.StatusServiceUnavailable)
	}
	return c.NoContent(http.StatusAccepted)
}
