package brackets

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/rustyeddy/arena/logger"
	"github.com/rustyeddy/arena/market"
	"github.com/rustyeddy/arena/pkg/errors"
	"github.com/rustyeddy/arena/store"
)

// Request is a bracket edit. An omitted level is left unchanged and a
// null one is removed.
type Request struct {
	PositionID string       `json:"position_id" validate:"required"`
	StopLoss   market.Level `json:"stop_loss"`
	TakeProfit market.Level `json:"take_profit"`
}

// Result reflects the levels in force after the edit, supplied or
// pre-existing.
type Result struct {
	Success    bool     `json:"success"`
	PositionID string   `json:"position_id"`
	StopLoss   *float64 `json:"stop_loss"`
	TakeProfit *float64 `json:"take_profit"`
	// RiskReward is set when both levels are in force.
	RiskReward *float64 `json:"risk_reward,omitempty"`
}

type Store interface {
	OpenPositionForOwner(ctx context.Context, positionID string) (store.OwnedPosition, error)
	UpdateBrackets(ctx context.Context, positionID string, stopLoss, takeProfit market.Level) error
}

type Service struct {
	store    Store
	validate *validator.Validate
	log      *logger.Logger
}

func NewService(s Store, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		store:    s,
		validate: validator.New(),
		log:      log.Named("brackets"),
	}
}

// Update validates and applies a bracket edit on behalf of userID. Either
// both supplied levels are written or nothing is. Removed levels are not
// checked against the entry price.
func (s *Service) Update(ctx context.Context, userID string, req Request) (Result, error) {
	if err := s.validate.Struct(req); err != nil {
		return Result{}, errors.Wrap(errors.ErrCodeMissingParameter, "position_id is required", err)
	}

	owned, err := s.store.OpenPositionForOwner(ctx, req.PositionID)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodePositionNotFound) {
			return Result{}, errors.Wrap(errors.ErrCodePositionNotFound, "Position not found or already closed", err)
		}
		s.log.Error("load position", zap.String("position_id", req.PositionID), zap.Error(err))
		return Result{}, errors.Wrap(errors.ErrCodeQueryFailed, "Failed to load position", err)
	}

	if owned.UserID != userID {
		s.log.Warn("bracket edit by non-owner",
			zap.String("position_id", req.PositionID),
			zap.String("user_id", userID))
		return Result{}, errors.New(errors.ErrCodeForbidden, "Not authorized to modify this position")
	}

	pos := owned.Position
	if err := Validate(pos.Side, pos.EntryPrice, req.StopLoss.Value, req.TakeProfit.Value); err != nil {
		return Result{}, err
	}
	if !req.StopLoss.Set && !req.TakeProfit.Set {
		return Result{}, errors.New(errors.ErrCodeNoUpdates, "No updates provided. Specify stop_loss or take_profit")
	}

	if err := s.store.UpdateBrackets(ctx, pos.ID, req.StopLoss, req.TakeProfit); err != nil {
		s.log.Error("update brackets", zap.String("position_id", pos.ID), zap.Error(err))
		return Result{}, errors.Wrap(errors.ErrCodeUpdateFailed, "Failed to update brackets", err)
	}

	res := Result{
		Success:    true,
		PositionID: pos.ID,
		StopLoss:   req.StopLoss.Or(pos.StopLoss),
		TakeProfit: req.TakeProfit.Or(pos.TakeProfit),
	}
	if res.StopLoss != nil && res.TakeProfit != nil {
		rr := RiskReward(pos.EntryPrice, *res.StopLoss, *res.TakeProfit)
		res.RiskReward = &rr
	}

	s.log.Info("brackets updated",
		zap.String("position_id", pos.ID),
		zap.Any("stop_loss", res.StopLoss),
		zap.Any("take_profit", res.TakeProfit),
		zap.Float64("risk", riskOf(pos.Quantity, pos.EntryPrice, res.StopLoss)))
	return res, nil
}

func riskOf(quantity, entry float64, stopLoss *float64) float64 {
	if stopLoss == nil {
		return 0
	}
	return Risk(quantity, entry, *stopLoss)
}
