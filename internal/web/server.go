package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"pricewatch/internal/monitor"
	"pricewatch/internal/store"
)

// Server exposes the monitor's health snapshot over HTTP.
type Server struct {
	health  *monitor.SnapshotCell
	catalog monitor.Catalog
	store   store.Store
	logger  *slog.Logger

	srv *http.Server
}

// New builds a status server listening on the given port.
func New(port int, health *monitor.SnapshotCell, catalog monitor.Catalog, st store.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		health:  health,
		catalog: catalog,
		store:   st,
		logger:  logger,
	}

	r := chi.NewRouter()
	r.Use(s.logRequests)
	r.Get("/", s.handleHealth)
	r.Get("/health", s.handleHealth)
	r.Get("/items", s.handleItems)

	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start begins serving and blocks until the listener closes.
func (s *Server) Start() error {
	s.logger.Info("status server listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler exposes the router, used by tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

type healthResponse struct {
	Status      string           `json:"status"`
	StartedAt   time.Time        `json:"started_at"`
	Uptime      string           `json:"uptime"`
	LastCheck   *time.Time       `json:"last_check,omitempty"`
	LastOutcome string           `json:"last_outcome,omitempty"`
	LastPrice   *decimal.Decimal `json:"last_price,omitempty"`
	LastError   string           `json:"last_error,omitempty"`
	Cycles      int64            `json:"cycles"`
	Items       int              `json:"items"`
	AlertsSent  int64            `json:"alerts_sent"`
	MaxFailures int              `json:"max_failures"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.health.Load()

	resp := healthResponse{
		Status:      "ok",
		StartedAt:   snap.StartedAt,
		Uptime:      snap.Uptime(time.Now().UTC()).Round(time.Second).String(),
		LastOutcome: string(snap.LastOutcome),
		LastPrice:   snap.LastPrice,
		LastError:   snap.LastError,
		Cycles:      snap.Cycles,
		Items:       snap.Items,
		AlertsSent:  snap.AlertsSent,
		MaxFailures: snap.MaxFailures,
	}
	if !snap.LastCheck.IsZero() {
		resp.LastCheck = &snap.LastCheck
	}

	status := http.StatusOK
	if snap.Degraded {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

type itemStatus struct {
	ItemID              string           `json:"item_id"`
	Name                string           `json:"name"`
	Price               *decimal.Decimal `json:"price,omitempty"`
	Currency            string           `json:"currency,omitempty"`
	Retailer            string           `json:"retailer,omitempty"`
	FetchedAt           *time.Time       `json:"fetched_at,omitempty"`
	LowestPrice         *decimal.Decimal `json:"lowest_price,omitempty"`
	ConsecutiveFailures int              `json:"consecutive_failures"`
	LastAlertKind       string           `json:"last_alert_kind,omitempty"`
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.catalog.Load(r.Context())
	if err != nil {
		http.Error(w, "catalog unavailable", http.StatusBadGateway)
		return
	}

	out := make([]itemStatus, 0, len(items))
	for _, item := range items {
		entry := itemStatus{ItemID: item.ID, Name: item.Name}

		st, err := s.store.Load(r.Context(), item.ID)
		if err != nil {
			http.Error(w, "state store unavailable", http.StatusInternalServerError)
			return
		}
		if st != nil {
			entry.ConsecutiveFailures = st.ConsecutiveFailures
			entry.LastAlertKind = st.LastAlertKind
			if st.LastSample != nil {
				lowest := st.LowestPrice
				entry.LowestPrice = &lowest
				entry.Price = &st.LastSample.Price
				entry.Currency = st.LastSample.Currency
				entry.Retailer = st.LastSample.Retailer
				entry.FetchedAt = &st.LastSample.FetchedAt
			}
		}
		out = append(out, entry)
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response", "error", err)
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	n, err := sw.ResponseWriter.Write(b)
	sw.size += n
	return n, err
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"size", sw.size,
			"duration", time.Since(start).Round(time.Millisecond).String())
	})
}
