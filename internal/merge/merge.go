package merge

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"cpsync/internal/chargepoint"
	"cpsync/internal/correlate"
	"cpsync/internal/ledger"
	"cpsync/internal/model"
	"cpsync/internal/normalize"
)

// epoch is the cold-start query origin.
var epoch = time.Unix(0, 0).UTC()

// Result summarizes one completed merge cycle.
type Result struct {
	Kind    model.Kind
	From    time.Time
	To      time.Time // zero for an open-ended query
	OldRows int
	NewRows int
	// Added carries the rows this cycle appended to the ledger, for
	// downstream publishing.
	AddedAlarms []model.AlarmRecord
}

// SessionEngine merges charging sessions into the session ledger. Each
// cycle: compute the resume point, fetch the delta, normalize, dedup on
// session_id (old rows win) and atomically persist the merged ledger.
type SessionEngine struct {
	fetcher *chargepoint.Fetcher
	norm    *normalize.Normalizer
	store   ledger.Store
	logger  *slog.Logger
	now     func() time.Time
}

func NewSessionEngine(f *chargepoint.Fetcher, n *normalize.Normalizer, store ledger.Store, logger *slog.Logger) *SessionEngine {
	return &SessionEngine{fetcher: f, norm: n, store: store, logger: logger, now: time.Now}
}

func (e *SessionEngine) RunCycle(ctx context.Context) (Result, error) {
	kind := model.KindSession
	old, err := e.store.LoadSessions(ctx)
	if err != nil {
		return Result{}, cycleErr(CategoryPersistence, kind, time.Time{}, time.Time{}, err)
	}

	from, to := epoch, e.now().UTC()
	if len(old) > 0 {
		// Resume one second past the last persisted session's end; the
		// warm query stays open-ended on the right like the cold one is
		// bounded, so late-arriving sessions are picked up next cycle.
		last, err := old[len(old)-1].EndUnix()
		if err != nil {
			return Result{}, cycleErr(CategoryData, kind, from, to, err)
		}
		from, to = time.Unix(last+1, 0).UTC(), time.Time{}
		e.logger.Info("resuming from last persisted session", "from", from)
	} else {
		e.logger.Info("no session ledger found, performing full query", "from", from, "to", to)
	}

	raw, err := e.fetcher.Sessions(ctx, from, to)
	if err != nil {
		return Result{}, cycleErr(CategoryTransport, kind, from, to, err)
	}
	delta, err := e.norm.Sessions(raw)
	if err != nil {
		return Result{}, cycleErr(CategoryData, kind, from, to, err)
	}

	merged := dedupSessions(append(old, delta...))
	if err := e.store.ReplaceSessions(ctx, merged); err != nil {
		return Result{}, cycleErr(CategoryPersistence, kind, from, to, err)
	}
	logMergeOutcome(e.logger, len(old), len(merged))
	return Result{Kind: kind, From: from, To: to, OldRows: len(old), NewRows: len(merged)}, nil
}

// AlarmEngine merges alarms into the alarm ledger. New alarms are
// correlated against the session ledger before merging; dedup keys on
// alarm_ts with old rows winning, and the merged ledger is re-sorted
// ascending by alarm_ts.
type AlarmEngine struct {
	fetcher *chargepoint.Fetcher
	norm    *normalize.Normalizer
	store   ledger.Store
	logger  *slog.Logger
	now     func() time.Time
}

func NewAlarmEngine(f *chargepoint.Fetcher, n *normalize.Normalizer, store ledger.Store, logger *slog.Logger) *AlarmEngine {
	return &AlarmEngine{fetcher: f, norm: n, store: store, logger: logger, now: time.Now}
}

func (e *AlarmEngine) RunCycle(ctx context.Context) (Result, error) {
	kind := model.KindAlarm
	old, err := e.store.LoadAlarms(ctx)
	if err != nil {
		return Result{}, cycleErr(CategoryPersistence, kind, time.Time{}, time.Time{}, err)
	}

	from, to := epoch, e.now().UTC()
	if len(old) > 0 {
		// Resume at the last alarm's own timestamp: the range is
		// inclusive on the left and dedup drops the exact repeat.
		from = time.Unix(old[len(old)-1].AlarmTS, 0).UTC()
		e.logger.Info("resuming from last persisted alarm", "from", from)
	} else {
		e.logger.Info("no alarm ledger found, performing full query", "from", from, "to", to)
	}

	raw, err := e.fetcher.Alarms(ctx, from, to)
	if err != nil {
		return Result{}, cycleErr(CategoryTransport, kind, from, to, err)
	}
	delta, err := e.norm.Alarms(raw)
	if err != nil {
		return Result{}, cycleErr(CategoryData, kind, from, to, err)
	}

	// Read-only dependency on the session ledger, safe against the
	// session loop because replacement is atomic.
	sessions, err := e.store.LoadSessions(ctx)
	if err != nil {
		return Result{}, cycleErr(CategoryPersistence, kind, from, to, err)
	}
	delta = correlate.Attach(delta, sessions)

	merged := dedupAlarms(append(old, delta...))
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].AlarmTS < merged[j].AlarmTS })
	if err := e.store.ReplaceAlarms(ctx, merged); err != nil {
		return Result{}, cycleErr(CategoryPersistence, kind, from, to, err)
	}
	logMergeOutcome(e.logger, len(old), len(merged))
	return Result{
		Kind: kind, From: from, To: to,
		OldRows: len(old), NewRows: len(merged),
		AddedAlarms: addedAlarms(old, merged),
	}, nil
}

// StationEngine refreshes the station ledger. Stations are listed in one
// shot and the ledger is fully rewritten each cycle; there is no resume
// point.
type StationEngine struct {
	fetcher *chargepoint.Fetcher
	norm    *normalize.Normalizer
	store   ledger.Store
	logger  *slog.Logger
}

func NewStationEngine(f *chargepoint.Fetcher, n *normalize.Normalizer, store ledger.Store, logger *slog.Logger) *StationEngine {
	return &StationEngine{fetcher: f, norm: n, store: store, logger: logger}
}

func (e *StationEngine) RunCycle(ctx context.Context) (Result, error) {
	kind := model.KindStation
	raw, err := e.fetcher.Stations(ctx, chargepoint.StationQuery{})
	if err != nil {
		return Result{}, cycleErr(CategoryTransport, kind, time.Time{}, time.Time{}, err)
	}
	rows, err := e.norm.Stations(raw)
	if err != nil {
		return Result{}, cycleErr(CategoryData, kind, time.Time{}, time.Time{}, err)
	}
	if err := e.store.ReplaceStations(ctx, rows); err != nil {
		return Result{}, cycleErr(CategoryPersistence, kind, time.Time{}, time.Time{}, err)
	}
	e.logger.Info("station ledger rewritten", "rows", len(rows))
	return Result{Kind: kind, NewRows: len(rows)}, nil
}

// dedupSessions drops duplicate session_ids keeping the first occurrence,
// so re-fetched rows never displace persisted ones.
func dedupSessions(rows []model.SessionRecord) []model.SessionRecord {
	seen := make(map[string]struct{}, len(rows))
	out := make([]model.SessionRecord, 0, len(rows))
	for _, r := range rows {
		if _, ok := seen[r.SessionID]; ok {
			continue
		}
		seen[r.SessionID] = struct{}{}
		out = append(out, r)
	}
	return out
}

// dedupAlarms drops duplicate alarm timestamps keeping the first
// occurrence.
func dedupAlarms(rows []model.AlarmRecord) []model.AlarmRecord {
	seen := make(map[int64]struct{}, len(rows))
	out := make([]model.AlarmRecord, 0, len(rows))
	for _, r := range rows {
		if _, ok := seen[r.AlarmTS]; ok {
			continue
		}
		seen[r.AlarmTS] = struct{}{}
		out = append(out, r)
	}
	return out
}

func addedAlarms(old, merged []model.AlarmRecord) []model.AlarmRecord {
	if len(merged) == len(old) {
		return nil
	}
	known := make(map[int64]struct{}, len(old))
	for _, r := range old {
		known[r.AlarmTS] = struct{}{}
	}
	var out []model.AlarmRecord
	for _, r := range merged {
		if _, ok := known[r.AlarmTS]; !ok {
			out = append(out, r)
		}
	}
	return out
}

func logMergeOutcome(logger *slog.Logger, oldRows, newRows int) {
	if newRows != oldRows {
		logger.Info("data merged", "old_size", oldRows, "new_size", newRows)
	} else {
		logger.Info("no new data found")
	}
}
