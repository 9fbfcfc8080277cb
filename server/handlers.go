package server

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/rustyeddy/arena/auth"
	"github.com/rustyeddy/arena/brackets"
	"github.com/rustyeddy/arena/pkg/errors"
)

type pnlResponse struct {
	Success          bool   `json:"success,omitempty"`
	Error            string `json:"error,omitempty"`
	Message          string `json:"message,omitempty"`
	PositionsUpdated int    `json:"positions_updated"`
	AccountsUpdated  int    `json:"accounts_updated"`
	Errors           int    `json:"errors"`
	DurationMS       int64  `json:"duration_ms"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type pricesRequest struct {
	Symbols []string `json:"symbols"`
}

type pricesResponse struct {
	Prices map[string]float64 `json:"prices"`
}

func (s *Server) handlePnL(w http.ResponseWriter, r *http.Request) {
	// Passes run to completion even if the caller disconnects.
	ctx := context.WithoutCancel(r.Context())

	res, err := s.deps.Engine.Run(ctx)

	body := pnlResponse{
		Message:          res.Message,
		PositionsUpdated: res.PositionsUpdated,
		AccountsUpdated:  res.AccountsUpdated,
		Errors:           res.Errors,
		DurationMS:       res.Duration.Milliseconds(),
	}
	if err != nil {
		s.log.Error("pnl pass failed", zap.Error(err))
		body.Error = errors.Message(err)
		writeJSON(w, http.StatusInternalServerError, body)
		return
	}

	body.Success = true
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleBrackets(w http.ResponseWriter, r *http.Request) {
	status, body := s.updateBrackets(w, r)
	if s.deps.Metrics != nil {
		s.deps.Metrics.ObserveBracketRequest(status)
	}
	writeJSON(w, status, body)
}

func (s *Server) updateBrackets(w http.ResponseWriter, r *http.Request) (int, any) {
	ctx := r.Context()

	userID, err := auth.Authenticate(ctx, s.deps.Verifier, r)
	if err != nil {
		s.log.Debug("bracket request rejected", zap.Error(err))
		return http.StatusUnauthorized, errorResponse{Error: "Unauthorized"}
	}

	var req brackets.Request
	if err := decode(w, r, &req); err != nil {
		return http.StatusBadRequest, errorResponse{Error: "Invalid JSON body"}
	}

	res, err := s.deps.Brackets.Update(ctx, userID, req)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.log.Error("bracket update failed",
				zap.String("position_id", req.PositionID),
				zap.Error(err))
		}
		return status, errorResponse{Error: errors.Message(err)}
	}

	return http.StatusOK, res
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	status, body := s.lookupPrices(w, r)
	if s.deps.Metrics != nil {
		s.deps.Metrics.ObservePriceRequest(status)
	}
	writeJSON(w, status, body)
}

func (s *Server) lookupPrices(w http.ResponseWriter, r *http.Request) (int, any) {
	var req pricesRequest
	if err := decode(w, r, &req); err != nil || len(req.Symbols) == 0 {
		return http.StatusBadRequest, errorResponse{Error: "symbols array required"}
	}

	prices, err := s.deps.Prices.Prices(r.Context(), req.Symbols)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.log.Error("price lookup failed", zap.Error(err))
		}
		return status, errorResponse{Error: errors.Message(err)}
	}

	return http.StatusOK, pricesResponse{Prices: prices}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps an error code to the HTTP status callers see.
func statusFor(err error) int {
	switch code := errors.GetCode(err); code {
	case errors.ErrCodeInvalidConfiguration:
		return http.StatusInternalServerError
	case errors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrCodeForbidden:
		return http.StatusForbidden
	case errors.ErrCodeDataNotFound, errors.ErrCodePositionNotFound, errors.ErrCodeAccountNotFound:
		return http.StatusNotFound
	default:
		if code >= errors.ErrCodeInvalidParameter && code < errors.ErrCodeUnauthorized {
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
