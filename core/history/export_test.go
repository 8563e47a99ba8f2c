package history

import "time"

// SetNow freezes the snapshot clock and returns a func restoring it.
func SetNow(t time.Time) func() {
	nowFunc = func() time.Time { return t }
	return func() { nowFunc = time.Now }
}
