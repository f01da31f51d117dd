package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gkobilansky/sample-goat/internal/stats"
	"github.com/gkobilansky/sample-goat/internal/store"
)

type HealthResponse struct {
	Status        string `json:"status"`
	PresetsCount  int    `json:"presets_count"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error  string             `json:"error"`
	Fields []stats.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, fields []stats.FieldError) {
	writeJSON(w, status, ErrorResponse{Error: msg, Fields: fields})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	presets, err := s.store.ListPresets(r.Context())
	if err != nil {
		s.logger.Error("health check failed", "error", err)
		writeError(w, http.StatusInternalServerError, "store unavailable", nil)
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		PresetsCount:  len(presets),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	})
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", nil)
		return
	}

	plan, err := s.calculate(r, body)
	if err != nil {
		s.writeCalculationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, plan)
}

// calculate runs one request through the engine and records the outcome.
func (s *Server) calculate(r *http.Request, body CalculateRequest) (*stats.Plan, error) {
	req, err := s.toRequest(r.Context(), body)
	family := "unknown"
	if req.Metric != nil {
		family = string(req.Metric.Family())
	}
	if err != nil {
		calculationsTotal.WithLabelValues(family, "invalid").Inc()
		return nil, err
	}

	plan, err := stats.Calculate(req)
	if err != nil {
		calculationsTotal.WithLabelValues(family, "invalid").Inc()
		return nil, err
	}

	calculationsTotal.WithLabelValues(family, "ok").Inc()
	calculationRows.Observe(float64(len(plan.Rows)))
	return plan, nil
}

func (s *Server) writeCalculationError(w http.ResponseWriter, err error) {
	fields := stats.FieldErrors(err)
	if len(fields) > 0 {
		writeError(w, http.StatusBadRequest, "invalid parameters", fields)
		return
	}
	writeError(w, http.StatusBadRequest, err.Error(), nil)
}

// PresetResponse is the JSON form of a stored preset.
type PresetResponse struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Metric      stats.Family `json:"metric"`
	Params      stats.Metric `json:"params"`
	UpdatedAt   string       `json:"updated_at"`
}

// SavePresetRequest is the JSON body of POST /api/presets.
type SavePresetRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Metric      string          `json:"metric"`
	Params      json.RawMessage `json:"params"`
}

func toPresetResponse(p *store.Preset) PresetResponse {
	return PresetResponse{
		Name:        p.Name,
		Description: p.Description,
		Metric:      p.Family(),
		Params:      p.Metric,
		UpdatedAt:   p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listPresets(w, r)
	case http.MethodPost:
		s.requireToken(s.savePreset)(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) listPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := s.store.ListPresets(r.Context())
	if err != nil {
		s.logger.Error("failed to list presets", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list presets", nil)
		return
	}

	// Return empty array instead of null
	response := make([]PresetResponse, 0, len(presets))
	for _, p := range presets {
		response = append(response, toPresetResponse(p))
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) savePreset(w http.ResponseWriter, r *http.Request) {
	var body SavePresetRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", nil)
		return
	}
	if body.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	metric, err := s.resolveMetric(r.Context(), CalculateRequest{Metric: body.Metric, Params: body.Params})
	if err != nil {
		s.writeCalculationError(w, err)
		return
	}

	p, err := s.store.SavePreset(r.Context(), body.Name, body.Description, metric)
	if err != nil {
		if errors.Is(err, stats.ErrInvalidParameter) {
			s.writeCalculationError(w, err)
			return
		}
		s.logger.Error("failed to save preset", "name", body.Name, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save preset", nil)
		return
	}

	s.logger.Info("preset saved", "name", p.Name, "metric", p.Family())
	writeJSON(w, http.StatusCreated, toPresetResponse(p))
}

// handlePreset serves /api/presets/<name>.
func (s *Server) handlePreset(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/presets/")
	if name == "" || strings.Contains(name, "/") {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		p, err := s.store.GetPreset(r.Context(), name)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "preset not found", nil)
			return
		}
		if err != nil {
			s.logger.Error("failed to get preset", "name", name, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to get preset", nil)
			return
		}
		writeJSON(w, http.StatusOK, toPresetResponse(p))

	case http.MethodDelete:
		s.requireToken(func(w http.ResponseWriter, r *http.Request) {
			err := s.store.DeletePreset(r.Context(), name)
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "preset not found", nil)
				return
			}
			if err != nil {
				s.logger.Error("failed to delete preset", "name", name, "error", err)
				writeError(w, http.StatusInternalServerError, "failed to delete preset", nil)
				return
			}
			s.logger.Info("preset deleted", "name", name)
			w.WriteHeader(http.StatusNoContent)
		})(w, r)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
