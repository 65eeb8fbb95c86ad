// Package activity keeps an append-only JSON-lines journal of booking actions.
// Writes are best-effort for callers: the database stays the source of truth.
package activity

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Baaaki/apartment-booking/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Entry is one journaled action.
type Entry struct {
	ID            string    `json:"id"`
	Action        string    `json:"action"`
	ActorID       uint      `json:"actor_id"`
	UserID        uint      `json:"user_id,omitempty"`
	ApartmentID   uint      `json:"apartment_id,omitempty"`
	ReservationID uint      `json:"reservation_id,omitempty"`
	PaymentID     uint      `json:"payment_id,omitempty"`
	Status        string    `json:"status,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Journal manages the activity file.
type Journal struct {
	filePath string
	file     *os.File
	mu       sync.Mutex
}

// Open creates the journal directory and opens the file for appending.
func Open(filePath string) (*Journal, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	return &Journal{
		filePath: filePath,
		file:     file,
	}, nil
}

// Append writes an entry and syncs it to disk. A nil Journal discards entries.
func (j *Journal) Append(entry Entry) error {
	if j == nil {
		return nil
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if _, err := j.file.Write(append(data, '\n')); err != nil {
		return err
	}
	if err := j.file.Sync(); err != nil {
		return err
	}

	logger.Log.Debug("Activity journaled",
		zap.String("action", entry.Action),
		zap.Uint("reservation_id", entry.ReservationID),
	)
	return nil
}

// ReadAll returns every entry in file order.
func (j *Journal) ReadAll() ([]Entry, error) {
	if j == nil {
		return []Entry{}, nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.readAllUnsafe()
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	entries, err := j.ReadAll()
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > len(entries) {
		limit = len(entries)
	}

	out := make([]Entry, 0, limit)
	for i := len(entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, entries[i])
	}
	return out, nil
}

// Prune drops entries older than cutoff by rewriting the file.
func (j *Journal) Prune(cutoff time.Time) (int, error) {
	if j == nil {
		return 0, nil
	}
	start := time.Now()
	j.mu.Lock()
	defer j.mu.Unlock()

	all, err := j.readAllUnsafe()
	if err != nil {
		return 0, err
	}

	var kept []Entry
	for _, e := range all {
		if !e.Timestamp.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	removed := len(all) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	if err := j.file.Close(); err != nil {
		return 0, err
	}

	tempFile := j.filePath + ".tmp"
	if err := writeEntries(tempFile, kept); err != nil {
		os.Remove(tempFile)
		return 0, j.reopen(err)
	}

	// Rename is atomic, so a crash leaves either the old or the new file.
	if err := os.Rename(tempFile, j.filePath); err != nil {
		os.Remove(tempFile)
		return 0, j.reopen(err)
	}
	if err := j.reopen(nil); err != nil {
		return 0, err
	}

	logger.Log.Info("Activity journal pruned",
		zap.Int("removed", removed),
		zap.Int("remaining", len(kept)),
		zap.Duration("duration", time.Since(start)),
	)
	return removed, nil
}

// writeEntries writes entries as JSON lines to path and syncs it to disk.
func writeEntries(path string, entries []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			f.Close()
			return err
		}
		if _, err := w.Write(data); err != nil {
			f.Close()
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// reopen restores the append handle and returns cause when the handle is fine.
func (j *Journal) reopen(cause error) error {
	f, err := os.OpenFile(j.filePath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		logger.Log.Error("Activity journal: failed to reopen file",
			zap.String("file_path", j.filePath),
			zap.Error(err),
		)
		return err
	}
	j.file = f
	return cause
}

// readAllUnsafe reads all entries without locking (internal use only)
func (j *Journal) readAllUnsafe() ([]Entry, error) {
	file, err := os.Open(j.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, err
	}
	defer file.Close()

	entries := []Entry{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}

	return entries, scanner.Err()
}

// Close closes the journal file
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}
