package logging

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type capture struct {
	mu      sync.Mutex
	batches [][]models.SystemLog
	err     error
}

func (c *capture) write(batch []models.SystemLog) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches = append(c.batches, batch)
	return c.err
}

func (c *capture) all() []models.SystemLog {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.SystemLog
	for _, b := range c.batches {
		out = append(out, b...)
	}
	return out
}

func TestPGHandlerPersistsErrorsOnly(t *testing.T) {
	c := &capture{}
	h := newPGHandler(c.write, time.Hour)
	log := slog.New(h)

	log.Info("ignored")
	log.Warn("ignored too")
	log.Error("request failed",
		"request_id", "req-1",
		"user_id", "u-1",
		"role", "admin",
		"action", "request.transition",
		"error", "boom",
		"latency_ms", 12.6,
		"path", "/api/admin/requests",
	)
	h.Stop()

	logs := c.all()
	require.Len(t, logs, 1)
	entry := logs[0]
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "request failed", entry.Message)
	assert.Equal(t, "req-1", entry.RequestID)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, "u-1", *entry.UserID)
	assert.Equal(t, "admin", entry.Role)
	assert.Equal(t, "request.transition", entry.Action)
	assert.Equal(t, "boom", entry.Error)
	assert.Equal(t, 13, entry.LatencyMs)

	var extra map[string]interface{}
	require.NoError(t, json.Unmarshal(entry.Extra, &extra))
	assert.Equal(t, "/api/admin/requests", extra["path"])
}

func TestPGHandlerWithAttrsAndGroups(t *testing.T) {
	c := &capture{}
	h := newPGHandler(c.write, time.Hour)
	log := slog.New(h).With("action", "donation.pledge").WithGroup("db").With("table", "donations")

	log.Error("insert failed", "code", "23505")
	h.Stop()

	logs := c.all()
	require.Len(t, logs, 1)
	assert.Equal(t, "donation.pledge", logs[0].Action)

	var extra map[string]interface{}
	require.NoError(t, json.Unmarshal(logs[0].Extra, &extra))
	assert.Equal(t, "donations", extra["db.table"])
	assert.Equal(t, "23505", extra["db.code"])
}

func TestPGHandlerFlushesFullBatch(t *testing.T) {
	c := &capture{}
	h := newPGHandler(c.write, time.Hour)
	log := slog.New(h)

	for i := 0; i < batchSize; i++ {
		log.Error("failure", "latency_ms", i)
	}
	assert.Eventually(t, func() bool { return len(c.all()) == batchSize }, time.Second, 10*time.Millisecond)
	h.Stop()
	assert.Len(t, c.all(), batchSize)
}

func TestPGHandlerSurvivesWriteFailure(t *testing.T) {
	c := &capture{err: errors.New("db down")}
	h := newPGHandler(c.write, time.Hour)
	slog.New(h).Error("failure")
	h.Stop()
	h.Stop()
	assert.Len(t, c.all(), 1)
}

type recordingHandler struct {
	level   slog.Level
	records []string
}

func (r *recordingHandler) Enabled(_ context.Context, l slog.Level) bool { return l >= r.level }
func (r *recordingHandler) Handle(_ context.Context, rec slog.Record) error {
	r.records = append(r.records, rec.Message)
	return nil
}
func (r *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return r }
func (r *recordingHandler) WithGroup(string) slog.Handler      { return r }

func TestMultiHandlerRoutesByLevel(t *testing.T) {
	info := &recordingHandler{level: slog.LevelInfo}
	errs := &recordingHandler{level: slog.LevelError}
	log := slog.New(NewMultiHandler(info, errs))

	log.Debug("dropped")
	log.Info("submitted")
	log.Error("failed")

	assert.Equal(t, []string{"submitted", "failed"}, info.records)
	assert.Equal(t, []string{"failed"}, errs.records)
}

func TestPurgeBefore(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	cutoff := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "system_logs" WHERE timestamp < \$1`).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 7))
	mock.ExpectCommit()

	deleted, err := PurgeBefore(db, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(7), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStartCleanupRejectsBadSchedule(t *testing.T) {
	_, err := StartCleanup(nil, "not a schedule", 30)
	assert.Error(t, err)

	c, err := StartCleanup(nil, "@daily", 30)
	require.NoError(t, err)
	c.Stop()
}

type failingHandler struct{ recordingHandler }

func (f *failingHandler) Handle(ctx context.Context, rec slog.Record) error {
	_ = f.recordingHandler.Handle(ctx, rec)
	return errors.New("sink down")
}

func TestMultiHandlerContinuesAfterFailure(t *testing.T) {
	broken := &failingHandler{recordingHandler{level: slog.LevelInfo}}
	ok := &recordingHandler{level: slog.LevelInfo}
	h := NewMultiHandler(broken, nil, ok)

	rec := slog.NewRecord(time.Now(), slog.LevelError, "failed", 0)
	err := h.Handle(context.Background(), rec)
	assert.EqualError(t, err, "sink down")
	assert.Equal(t, []string{"failed"}, ok.records)
	assert.Len(t, h, 2)
}
