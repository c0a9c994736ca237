package merge

import (
	"errors"
	"fmt"
	"time"

	"cpsync/internal/model"
)

// Category classifies a failed sync cycle so the worker supervisor can
// decide between retry, skip and terminate.
type Category int

const (
	// CategoryTransport covers remote call failures (network, auth, SOAP
	// faults). Retried with backoff before the loop gives up.
	CategoryTransport Category = iota + 1
	// CategoryData covers malformed or missing fields during normalization.
	// The cycle is aborted and the prior ledger preserved.
	CategoryData
	// CategoryPersistence covers ledger read/write failures. Terminates the
	// owning loop; the atomic-replace contract keeps the ledger intact.
	CategoryPersistence
)

func (c Category) String() string {
	switch c {
	case CategoryTransport:
		return "transport"
	case CategoryData:
		return "data"
	case CategoryPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// CycleError annotates a failed cycle with its category, entity kind and
// query range, enough context to resume manually.
type CycleError struct {
	Category Category
	Kind     model.Kind
	From     time.Time
	To       time.Time
	Err      error
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s sync %s error [%s, %s): %v",
		e.Kind, e.Category, e.From.UTC().Format(time.RFC3339), formatTo(e.To), e.Err)
}

func (e *CycleError) Unwrap() error { return e.Err }

func formatTo(to time.Time) string {
	if to.IsZero() {
		return "open"
	}
	return to.UTC().Format(time.RFC3339)
}

// Classify returns the category of err, or 0 when err carries none.
func Classify(err error) Category {
	var ce *CycleError
	if errors.As(err, &ce) {
		return ce.Category
	}
	return 0
}

func cycleErr(cat Category, kind model.Kind, from, to time.Time, err error) error {
	return &CycleError{Category: cat, Kind: kind, From: from, To: to, Err: err}
}
