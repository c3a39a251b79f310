package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"k8s.io/klog/v2"

	"github.com/Brownie44l1/carbon-api/internal/emission"
	"github.com/Brownie44l1/carbon-api/internal/footprint"
	"github.com/Brownie44l1/carbon-api/internal/metrics"
)

const maxBodyBytes = 1 << 20

const (
	msgNoInput         = "No input data received"
	msgInvalidCategory = "Invalid category"
	msgMissingWeight   = "Weight is missing"
	msgInternal        = "Internal server error"
)

type Handler struct {
	estimator *emission.Estimator
	metrics   *metrics.Metrics
}

func NewHandler(estimator *emission.Estimator, m *metrics.Metrics) *Handler {
	return &Handler{
		estimator: estimator,
		metrics:   m,
	}
}

// Register adds every route to mux. Each route is counted under its own
// pattern so unknown paths do not create new metric series.
func (h *Handler) Register(mux *http.ServeMux) {
	h.route(mux, "/health", h.Health)
	h.route(mux, "/predict", h.Predict)
	h.route(mux, "/categories", h.Categories)
	h.route(mux, "/footprint", h.Footprint)
	if h.metrics != nil {
		mux.Handle("/metrics", h.metrics.Handler())
	}
}

func (h *Handler) route(mux *http.ServeMux, pattern string, fn http.HandlerFunc) {
	// Recovery sits inside the counter so a panicking request is still
	// recorded, and logged by Logging, as a 500.
	guarded := Recovery(fn)
	if h.metrics == nil {
		mux.Handle(pattern, guarded)
		return
	}
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		guarded.ServeHTTP(rec, r)
		h.metrics.ObserveRequest(pattern, rec.status)
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	respondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, ok := readBody(w, r)
	if !ok {
		return
	}

	req, err := h.estimator.Parse(body)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.estimator.Predict(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, result, http.StatusOK)
}

func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	respondJSON(w, map[string][]string{"categories": h.estimator.Labels().Labels()}, http.StatusOK)
}

func (h *Handler) Footprint(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, ok := readBody(w, r)
	if !ok {
		return
	}

	// An all-zero log is valid; only an absent or empty object is not.
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || len(fields) == 0 {
		respondError(w, msgNoInput, http.StatusBadRequest)
		return
	}
	var entry footprint.Log
	if err := json.Unmarshal(body, &entry); err != nil {
		respondError(w, msgNoInput, http.StatusBadRequest)
		return
	}

	respondJSON(w, map[string]float64{"emission": footprint.Calculate(entry)}, http.StatusOK)
}

// fail maps an estimator error onto the response the client sees.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusFor(err)
	if status != http.StatusInternalServerError {
		klog.V(2).Infof("Rejected %s request %s: %v", r.URL.Path, RequestIDFrom(r.Context()), err)
		respondError(w, message, status)
		return
	}

	klog.Errorf("Prediction error for request %s: %v", RequestIDFrom(r.Context()), err)
	respondJSON(w, map[string]string{
		"error":   msgInternal,
		"message": err.Error(),
	}, status)
}

// statusFor classifies an error. A weight that cannot be converted is
// reported as a server error, which is what existing clients expect.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, emission.ErrMalformedRequest):
		return http.StatusBadRequest, msgNoInput
	case errors.Is(err, emission.ErrInvalidCategory):
		return http.StatusBadRequest, msgInvalidCategory
	case errors.Is(err, emission.ErrMissingWeight):
		return http.StatusBadRequest, msgMissingWeight
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		respondError(w, msgNoInput, http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

func respondJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		klog.Errorf("Failed to write response: %v", err)
	}
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, map[string]string{"error": message}, status)
}
