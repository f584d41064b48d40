package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/santacasa-ti/plantao-board/internal/models"
	"github.com/santacasa-ti/plantao-board/internal/sheets"
	"github.com/santacasa-ti/plantao-board/pkg/metrics"
)

// RecordStore defines the persistence contract the reconciliation engine needs
type RecordStore interface {
	ReplaceAll(ctx context.Context, records []models.ChangeRecord) error
	SetLastSyncTime(ctx context.Context, timestamp string) error
}

// SnapshotSource provides parsed spreadsheet snapshots
type SnapshotSource interface {
	FetchSnapshot(ctx context.Context) ([]models.SnapshotRow, error)
}

// Syncer reconciles the external spreadsheet with the local board under a
// full-replace model: every completed sync leaves the table holding exactly
// the fetched set, or exactly the previous set if anything failed
type Syncer struct {
	source SnapshotSource
	store  RecordStore
	logger *slog.Logger
	now    func() time.Time

	// serializes overlapping sync triggers so a slow run is never clobbered
	// mid-flight by a second one
	mu sync.Mutex
}

func NewSyncer(source SnapshotSource, store RecordStore, logger *slog.Logger) *Syncer {
	return &Syncer{
		source: source,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Sync runs one reconciliation cycle. It never returns an error: failures
// degrade to {success:false, count:0} with the previous data and checkpoint
// intact, which is what the board's callers render inline
func (s *Syncer) Sync(ctx context.Context) models.SyncResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	l := s.logger.With("sync_run", uuid.NewString())
	defer func() {
		metrics.SyncDuration.Observe(time.Since(start).Seconds())
	}()

	rows, err := s.source.FetchSnapshot(ctx)
	if err != nil {
		if errors.Is(err, sheets.ErrSourceEmpty) {
			// An empty read is far more likely a transient scraping glitch
			// than an intentional wipe. Keep the existing records and move
			// only the checkpoint
			if err := s.store.SetLastSyncTime(ctx, s.timestamp()); err != nil {
				l.Error("Failed to move checkpoint after empty fetch", "error", err)
				metrics.SyncRuns.WithLabelValues("store_error").Inc()
				return models.SyncResult{}
			}
			l.Info("Source empty, existing records kept")
			metrics.SyncRuns.WithLabelValues("empty_source").Inc()
			return models.SyncResult{Success: true, Count: 0}
		}

		l.Error("Snapshot fetch failed, keeping last known good data", "error", err)
		metrics.SyncRuns.WithLabelValues("source_error").Inc()
		return models.SyncResult{}
	}

	result := s.replace(ctx, l, rows)
	if result.Success {
		l.Info("Board synchronized", "count", result.Count, "duration_ms", time.Since(start).Milliseconds())
	}
	return result
}

// IngestBatch applies an externally pushed batch (the Apps Script webhook
// path) through the same full-replace cycle as Sync
func (s *Syncer) IngestBatch(ctx context.Context, rows []models.SnapshotRow) models.SyncResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.logger.With("sync_run", uuid.NewString(), "trigger", "webhook")
	result := s.replace(ctx, l, rows)
	if result.Success {
		l.Info("Board replaced from pushed batch", "count", result.Count)
	}
	return result
}

// replace swaps the whole table for the given rows and moves the checkpoint.
// The store must apply the swap atomically; on any failure the checkpoint is
// left untouched so a retry reports the previous state
func (s *Syncer) replace(ctx context.Context, l *slog.Logger, rows []models.SnapshotRow) models.SyncResult {
	records := make([]models.ChangeRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.Record())
	}

	if err := s.store.ReplaceAll(ctx, records); err != nil {
		l.Error("Full replace failed, previous records preserved", "error", err)
		metrics.SyncRuns.WithLabelValues("store_error").Inc()
		return models.SyncResult{}
	}

	if err := s.store.SetLastSyncTime(ctx, s.timestamp()); err != nil {
		l.Error("Records replaced but checkpoint update failed", "error", err)
		metrics.SyncRuns.WithLabelValues("store_error").Inc()
		return models.SyncResult{}
	}

	metrics.SyncRuns.WithLabelValues("replaced").Inc()
	metrics.SyncRowsReplaced.Observe(float64(len(records)))
	metrics.BoardRecords.Set(float64(len(records)))
	return models.SyncResult{Success: true, Count: len(records)}
}

func (s *Syncer) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}
