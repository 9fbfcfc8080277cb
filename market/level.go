package market

import "encoding/json"

// Level is a bracket price in an edit. An unset Level leaves the stored
// level alone. A set Level with a nil Value removes it.
type Level struct {
	Set   bool
	Value *float64
}

// PriceLevel is a set Level at v.
func PriceLevel(v float64) Level {
	return Level{Set: true, Value: &v}
}

// Or returns the level in force after the edit, given the stored one.
func (l Level) Or(stored *float64) *float64 {
	if !l.Set {
		return stored
	}
	return l.Value
}

// UnmarshalJSON is only reached when the key is present, so null marks
// the level as set and cleared.
func (l *Level) UnmarshalJSON(b []byte) error {
	l.Set = true
	l.Value = nil
	if string(b) == "null" {
		return nil
	}

	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	l.Value = &v
	return nil
}
