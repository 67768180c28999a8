package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/rs/zerolog"

	"github.com/vogtb/go-cellcalc/packages/config"
	"github.com/vogtb/go-cellcalc/packages/formula"
	"github.com/vogtb/go-cellcalc/packages/grid"
)

const shutdownTimeout = 5 * time.Second

var errHubStopped = errors.New("hub stopped")

// Server shares one sheet between websocket clients. edits and
// evaluations are broadcast to every connected client.
type Server struct {
	cfg    config.Server
	hub    *Hub
	logger zerolog.Logger
}

// New builds a server around sheet. the sheet must not be touched by
// anything else once the server runs.
func New(cfg config.Config, sheet *grid.Sheet, logger zerolog.Logger) *Server {
	calc := formula.NewCalculator(sheet,
		formula.WithLogger(logger),
		formula.WithMaxReferenceDepth(cfg.Engine.MaxReferenceDepth),
		formula.WithMaxNestingDepth(cfg.Engine.MaxNestingDepth),
		formula.WithCycleDetection(cfg.Engine.DetectCycles),
	)
	return &Server{
		cfg:    cfg.Server,
		hub:    newHub(sheet, calc, cfg.Engine.Precision, logger),
		logger: logger,
	}
}

// Start launches the hub and returns the handler serving /ws and
// /grid.csv. the hub stops when ctx is done.
func (s *Server) Start(ctx context.Context) http.Handler {
	go s.hub.run(ctx)

	var csvHandler http.Handler = http.HandlerFunc(s.serveCSV)
	if s.cfg.Gzip {
		csvHandler = gziphandler.GzipHandler(csvHandler)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(s.hub, w, r)
	})
	mux.Handle("/grid.csv", csvHandler)
	return mux
}

// Run serves on the configured address until ctx is done
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Start(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Addr).Bool("gzip", s.cfg.Gzip).Msg("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	s.logger.Info().Msg("stopped")
	return nil
}

func (s *Server) serveCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	data, err := s.hub.exportCSV(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("csv export failed")
		http.Error(w, "export failed", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Write(data)
}

func statusLine(evaluated, failed int) string {
	if failed == 0 {
		return fmt.Sprintf("evaluated %d cells", evaluated)
	}
	return fmt.Sprintf("evaluated %d cells, %d failed", evaluated, failed)
}
