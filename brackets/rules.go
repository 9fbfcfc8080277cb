package brackets

import (
	"strconv"

	"github.com/rustyeddy/arena/market"
	"github.com/rustyeddy/arena/pkg/errors"
)

// Validate checks proposed stop loss and take profit levels against the
// entry price. Nil levels are not checked.
//
//	long:  stop < entry < take
//	short: take < entry < stop
func Validate(side market.Side, entry float64, stopLoss, takeProfit *float64) error {
	if !side.Valid() {
		return errors.Newf(errors.ErrCodeInvalidParameter, "unknown position side %q", side)
	}

	if stopLoss != nil {
		sl := *stopLoss
		if side == market.Long && sl >= entry {
			return errors.Newf(errors.ErrCodeInvalidStopLoss,
				"stop loss for long position must be below entry price (%s)", price(entry))
		}
		if side == market.Short && sl <= entry {
			return errors.Newf(errors.ErrCodeInvalidStopLoss,
				"stop loss for short position must be above entry price (%s)", price(entry))
		}
	}

	if takeProfit != nil {
		tp := *takeProfit
		if side == market.Long && tp <= entry {
			return errors.Newf(errors.ErrCodeInvalidTakeProfit,
				"take profit for long position must be above entry price (%s)", price(entry))
		}
		if side == market.Short && tp >= entry {
			return errors.Newf(errors.ErrCodeInvalidTakeProfit,
				"take profit for short position must be below entry price (%s)", price(entry))
		}
	}

	return nil
}

func price(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
