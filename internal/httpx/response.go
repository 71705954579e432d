package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ariefcatur/go-collection-lists/internal/lists"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// decodeJSON reads an optional JSON object body. Numbers stay json.Number so
// quantities can be coerced later. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()
	err := dec.Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) && ute.Field != "" {
		return &lists.ValidationError{Msg: fmt.Sprintf("%s has an invalid type", ute.Field)}
	}
	return &lists.ValidationError{Msg: "invalid json"}
}

// writeServiceError maps service errors to responses. Storage detail is
// logged, never returned.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	var ve *lists.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Msg)
	case errors.Is(err, lists.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, lists.ErrListCompleted):
		writeError(w, http.StatusConflict, lists.ErrListCompleted.Error())
	case errors.Is(err, lists.ErrResourceExhausted):
		logger.Warn("store pool exhausted",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
		writeError(w, http.StatusServiceUnavailable, "service busy, try again")
	default:
		logger.Error("store operation failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "database error")
	}
}
