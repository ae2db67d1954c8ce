package postgres

import "time"

// timeToTs converts a time to its stored unix timestamp. The zero time is
// stored as 0 so it round-trips.
func timeToTs(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

// tsToTime is the inverse of timeToTs.
func tsToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0)
}
