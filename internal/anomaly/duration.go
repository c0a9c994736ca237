package anomaly

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseClockDuration parses ledger duration strings of the form "HH:MM:SS",
// with hours allowed past 24, plus an optional "N days " prefix as some
// feeds render long durations.
func parseClockDuration(raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	var days int64
	if idx := strings.Index(s, "day"); idx >= 0 {
		n, err := strconv.ParseInt(strings.TrimSpace(s[:idx]), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("malformed day count in %q", raw)
		}
		days = n
		rest := s[idx:]
		if cut := strings.IndexByte(rest, ' '); cut >= 0 {
			s = strings.TrimSpace(rest[cut+1:])
		} else {
			s = ""
		}
		if s == "" {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("malformed duration %q", raw)
	}
	hours, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed hours in %q", raw)
	}
	minutes, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("malformed minutes in %q", raw)
	}
	secs, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || secs < 0 || secs >= 60 {
		return 0, fmt.Errorf("malformed seconds in %q", raw)
	}
	d := time.Duration(days)*24*time.Hour +
		time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(secs*float64(time.Second))
	return d, nil
}
