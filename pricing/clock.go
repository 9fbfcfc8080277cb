package pricing

import "time"

// Clock supplies the current time. Tests substitute a fixed or stepping
// clock to drive cache expiry.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
