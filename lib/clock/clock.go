package clock

import "time"

// Now formats the current UTC time the way API envelopes expect it.
func Now() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05Z")
}
