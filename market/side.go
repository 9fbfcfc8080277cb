package market

import (
	"fmt"
	"strings"
)

type Side string

const (
	Long  Side = "long"
	Short Side = "short"
)

// ParseSide accepts long/short and the buy/sell aliases used by the
// order tables.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "long", "buy":
		return Long, nil
	case "short", "sell":
		return Short, nil
	}
	return "", fmt.Errorf("unknown side %q", s)
}

func (s Side) Valid() bool {
	return s == Long || s == Short
}
