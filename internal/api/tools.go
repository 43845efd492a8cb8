package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/cerealbox/internal/processor"
	"github.com/MikeSquared-Agency/cerealbox/internal/rules"
	"github.com/MikeSquared-Agency/cerealbox/internal/variants"
)

const maxPayloadBytes = 1 << 20

// listTools handles GET /api/v1/tools
func (s *Server) listTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": s.processor.Tools()})
}

// invokeTool handles POST /api/v1/tools/{name}
func (s *Server) invokeTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "payload too large"})
		return
	}

	resp, err := s.processor.Invoke(r.Context(), name, payload)
	if err != nil {
		resp.SetError(err)
		writeJSON(w, statusFor(err), resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func statusFor(err error) int {
	var (
		unknown  *rules.UnknownKeyError
		rangeErr *variants.RangeError
		payload  *processor.PayloadError
	)
	switch {
	case errors.Is(err, processor.ErrUnknownTool), errors.As(err, &unknown):
		return http.StatusNotFound
	case errors.As(err, &rangeErr), errors.As(err, &payload):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
