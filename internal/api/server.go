package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/pbaille/ulasan/internal/predictor"
)

const (
	// MaxTextLength bounds the text accepted by /predict
	MaxTextLength = 10000

	// maxBodyBytes leaves room for JSON escaping of a MaxTextLength text
	maxBodyBytes = 64 << 10
)

// Predictor is the classification backend behind the API
type Predictor interface {
	Predict(ctx context.Context, text string, withProbabilities bool) (*predictor.Result, error)
	State() predictor.State
	Device() predictor.Device
}

// Server serves predictions over HTTP
type Server struct {
	predictor Predictor
	addr      string
}

// New creates a new API server
func New(p Predictor, addr string) *Server {
	return &Server{predictor: p, addr: addr}
}

// Handler builds the router
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(withCORS)

	r.Post("/predict", s.predict)
	r.Get("/health", s.health)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.WithField("addr", s.addr).Info("starting server")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// withCORS adds CORS headers for browser clients
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"bytes":    ww.BytesWritten(),
			"duration": time.Since(start),
			"request":  middleware.GetReqID(r.Context()),
		}).Debug("request")
	})
}

// HealthResponse reports predictor readiness
type HealthResponse struct {
	Status string `json:"status"`
	State  string `json:"state"`
	Device string `json:"device"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	state := s.predictor.State()
	resp := HealthResponse{
		Status: "ok",
		State:  state.String(),
		Device: string(s.predictor.Device()),
	}
	if state != predictor.StateReady {
		resp.Status = "unavailable"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// PredictRequest is the request body for /predict
type PredictRequest struct {
	Text          string `json:"text"`
	Probabilities *bool  `json:"probabilities,omitempty"`
}

func (s *Server) predict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if len(req.Text) > MaxTextLength {
		writeError(w, http.StatusRequestEntityTooLarge, "text too long")
		return
	}

	withProbs := true
	if req.Probabilities != nil {
		withProbs = *req.Probabilities
	}

	res, err := s.predictor.Predict(r.Context(), req.Text, withProbs)
	if err != nil {
		if errors.Is(err, predictor.ErrClosed) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		log.WithError(err).Warn("prediction failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
