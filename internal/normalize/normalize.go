package normalize

import (
	"fmt"
	"strconv"
	"time"
)

// dtFormat is the fixed layout of every local-formatted timestamp column.
const dtFormat = "2006-01-02 15:04:05"

// DefaultTimezone is the reporting timezone for the local timestamp columns.
const DefaultTimezone = "America/Vancouver"

// Normalizer reshapes raw API records into canonical ledger rows: identifier
// hashing, dual timestamp encoding, port expansion and list folding.
type Normalizer struct {
	loc *time.Location
}

func New(timezone string) (*Normalizer, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &Normalizer{loc: loc}, nil
}

// epochString renders t as integer UTC epoch seconds.
func (n *Normalizer) epochString(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}

// localString renders t in the reporting timezone.
func (n *Normalizer) localString(t time.Time) string {
	return t.In(n.loc).Format(dtFormat)
}
