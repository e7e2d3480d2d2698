package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Rajmaninov1/puzzle-decoder/internal/solver"
	"github.com/Rajmaninov1/puzzle-decoder/internal/telemetry"
)

// apiVersion identifies the current solve endpoint version.
const apiVersion = "v1"

// Options configures the API handler.
type Options struct {
	// Solve runs one solve session. Required. The request ID is passed as
	// the session correlation ID.
	Solve func(ctx context.Context, correlationID string) (*solver.Result, error)

	// Ready probes connectivity to the fragment service. Optional; when
	// nil the readiness endpoint always reports ready.
	Ready func(ctx context.Context) error

	// Logger receives request events. Default: telemetry.Nop().
	Logger telemetry.Logger
}

type statsResponse struct {
	TotalFound           int     `json:"total_found"`
	CompletionPercentage float64 `json:"completion_percentage"`
	TotalRequests        int     `json:"total_requests"`
	MissingCount         int     `json:"missing_count"`
}

type solveResponse struct {
	PuzzleText     string        `json:"puzzle_text"`
	ElapsedSeconds float64       `json:"elapsed_seconds"`
	Stats          statsResponse `json:"stats"`
	APIVersion     string        `json:"api_version"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewHandler builds the API handler: liveness, readiness and the
// versioned solve endpoint, all behind request-ID middleware.
func NewHandler(opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = telemetry.Nop()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /ready", handleReady(opts))
	mux.HandleFunc("GET /api/v1/puzzle/solve", handleSolve(opts))

	return withRequestID(opts.Logger, mux)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func handleReady(opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if opts.Ready != nil {
			if err := opts.Ready(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, statusResponse{Status: "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, statusResponse{Status: "ready"})
	}
}

func handleSolve(opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := opts.Solve(r.Context(), requestID(r))
		if err != nil {
			// Only configuration errors reach here; solve sessions always
			// produce a result otherwise.
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, solveResponse{
			PuzzleText:     res.Text,
			ElapsedSeconds: res.Elapsed.Seconds(),
			Stats: statsResponse{
				TotalFound:           res.FragmentCount,
				CompletionPercentage: res.CompletionRate * 100,
				TotalRequests:        res.Requests,
				MissingCount:         len(res.MissingIndices),
			},
			APIVersion: apiVersion,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type ctxKey int

const requestIDKey ctxKey = 0

// requestID returns the request's correlation ID, set by the middleware.
func requestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey).(string)
	return id
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withRequestID assigns each request a correlation ID (honoring an
// incoming X-Request-Id), echoes it in the response and logs the request.
func withRequestID(log telemetry.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)

		ctx := context.WithValue(r.Context(), requestIDKey, id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(ctx))

		log.Info("request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// Serve runs the API on addr until ctx is canceled, then shuts down
// gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, log telemetry.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Info("api listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
