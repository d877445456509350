package transcriptcache

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"vidsub/internal/logging"
	"vidsub/internal/services"
	"vidsub/internal/transcribe"
)

// Key identifies a cached transcript.
type Key struct {
	AudioSHA256 string
	Model       string
	Device      string
	ComputeType string
	Language    string
}

func (k Key) valid() bool {
	return k.AudioSHA256 != "" && k.Model != "" && k.Device != "" && k.ComputeType != "" && k.Language != ""
}

// Store is a SQLite-backed transcript cache.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
	now    func() time.Time
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open connects to (and if needed creates) the cache database at path.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "cache", "open", "database path is empty", nil)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "cache", "open sqlite db", path, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, services.Wrap(services.ErrIO, "cache", "apply pragma", pragma, execErr)
		}
	}

	store := &Store{
		db:     db,
		path:   path,
		logger: logging.NewComponentLogger(logger, "transcriptcache"),
		now:    time.Now,
	}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, services.Wrap(services.ErrIO, "cache", "init schema", "", err)
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Lookup returns a stream over the cached transcript for key.
func (s *Store) Lookup(ctx context.Context, key Key) (*transcribe.Stream, bool, error) {
	if s == nil || !key.valid() {
		return nil, false, nil
	}
	var payload []byte
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			`SELECT payload FROM transcripts
			 WHERE audio_sha256 = ? AND model = ? AND device = ? AND compute_type = ? AND language = ?`,
			key.AudioSHA256, key.Model, key.Device, key.ComputeType, key.Language,
		).Scan(&payload)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, services.Wrap(services.ErrIO, "cache", "lookup transcript", "", err)
	}
	s.logger.Debug("transcript cache hit",
		logging.String("audio_sha256", key.AudioSHA256),
		logging.String("model", key.Model))
	return transcribe.NewStream(bytes.NewReader(payload), nil), true, nil
}

// Put stores transcript under key, replacing any previous entry.
func (s *Store) Put(ctx context.Context, key Key, transcript transcribe.Transcript) error {
	if s == nil {
		return nil
	}
	if !key.valid() {
		return services.Wrap(services.ErrInvalidArgument, "cache", "store transcript", "incomplete cache key", nil)
	}
	payload, err := transcribe.Encode(transcript)
	if err != nil {
		return services.Wrap(services.ErrIO, "cache", "store transcript", "", err)
	}
	err = retryOnBusy(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx,
			`INSERT INTO transcripts
			 (audio_sha256, model, device, compute_type, language, detected, segment_count, payload, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (audio_sha256, model, device, compute_type, language) DO UPDATE SET
			   detected = excluded.detected,
			   segment_count = excluded.segment_count,
			   payload = excluded.payload,
			   created_at = excluded.created_at`,
			key.AudioSHA256, key.Model, key.Device, key.ComputeType, key.Language,
			transcript.Language, len(transcript.Segments), payload,
			s.now().UTC().Format(time.RFC3339),
		)
		return execErr
	})
	if err != nil {
		return services.Wrap(services.ErrIO, "cache", "store transcript", "", err)
	}
	s.logger.Debug("transcript cached",
		logging.String("audio_sha256", key.AudioSHA256),
		logging.Int("segments", len(transcript.Segments)))
	return nil
}

// Count returns the number of cached transcripts.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM transcripts").Scan(&n)
	})
	if err != nil {
		return 0, services.Wrap(services.ErrIO, "cache", "count transcripts", "", err)
	}
	return n, nil
}

// Clear removes every cached transcript and returns how many were deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, execErr := s.db.ExecContext(ctx, "DELETE FROM transcripts")
		if execErr != nil {
			return execErr
		}
		removed, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		return 0, services.Wrap(services.ErrIO, "cache", "clear transcripts", "", err)
	}
	return removed, nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
