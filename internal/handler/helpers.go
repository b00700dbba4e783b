package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/moreirajr/funnelboard-go/internal/domain"
	"github.com/moreirajr/funnelboard-go/internal/funnel"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// parseDateRange resolves the query parameters into an inclusive range.
// Explicit from/to win over period; period accepts 7d, 15d and 30d and
// defaults to 30d ending today.
func parseDateRange(r *http.Request) (funnel.DateRange, error) {
	q := r.URL.Query()
	from := q.Get("from")
	to := q.Get("to")

	if from != "" || to != "" {
		start, ok := funnel.ParseDay(from)
		if !ok {
			return funnel.DateRange{}, fmt.Errorf("invalid 'from' date: %q", from)
		}
		end, ok := funnel.ParseDay(to)
		if !ok {
			return funnel.DateRange{}, fmt.Errorf("invalid 'to' date: %q", to)
		}
		if start.After(end) {
			return funnel.DateRange{}, fmt.Errorf("'from' must not be after 'to'")
		}
		return funnel.NewDateRange(start, end, "custom"), nil
	}

	period := q.Get("period")
	if period == "" {
		period = "30d"
	}

	var days int
	switch period {
	case "7d":
		days = 7
	case "15d":
		days = 15
	case "30d":
		days = 30
	default:
		return funnel.DateRange{}, fmt.Errorf("invalid period %q: must be 7d, 15d or 30d", period)
	}

	end := funnel.Day(time.Now())
	start := end.AddDate(0, 0, -(days - 1))
	return funnel.NewDateRange(start, end, period), nil
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var circuitOpen *domain.ErrCircuitOpen
	var timeout *domain.ErrTimeout
	var validation *domain.ErrValidation
	var forbidden *domain.ErrForbidden
	var unauthorized *domain.ErrUnauthorized
	var conflict *domain.ErrConflict
	var external *domain.ErrExternalService

	switch {
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &timeout):
		logger.Error("request timeout", zap.Error(err))
		writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &forbidden):
		logger.Warn("forbidden access", zap.String("error", err.Error()))
		writeError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &conflict):
		logger.Debug("conflict", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &external):
		logger.Error("upstream failure", zap.Error(err))
		writeError(w, http.StatusBadGateway, "upstream data source unavailable")
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
