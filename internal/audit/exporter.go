package audit

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/crucial707/timetable-api/internal/metrics"
	"github.com/crucial707/timetable-api/internal/models"
)

// DefaultExportBatch is the page size used when reading new entries.
const DefaultExportBatch = 500

// DefaultSettleWindow is how old an entry must be before it is exported.
// createdAt is stamped before the insert commits, so two concurrent writes can
// become visible out of order. Entries younger than the window are left for the
// next run so a slower insert with an earlier stamp is never passed over.
// The window must exceed the longest time an insert can take to commit.
const DefaultSettleWindow = 30 * time.Second

// Source pages through audit entries in ascending (createdAt, id) order.
type Source interface {
	ListAfter(ctx context.Context, after models.AuditCursor, limit int) ([]models.AuditLog, error)
}

// Exporter copies audit entries to a JSON-lines archive file. It keeps its
// position as a watermark and never modifies stored entries, so it can run
// against the live collection.
type Exporter struct {
	source Source
	path   string
	batch  int
	log    *slog.Logger

	settle time.Duration
	now    func() time.Time

	mu     sync.Mutex
	cursor models.AuditCursor
	loaded bool
}

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithSettleWindow overrides DefaultSettleWindow.
func WithSettleWindow(d time.Duration) ExporterOption {
	return func(e *Exporter) {
		if d >= 0 {
			e.settle = d
		}
	}
}

// WithExportClock sets the time source used to compute the settle cutoff.
func WithExportClock(now func() time.Time) ExporterOption {
	return func(e *Exporter) {
		if now != nil {
			e.now = now
		}
	}
}

func NewExporter(source Source, path string, batch int, opts ...ExporterOption) *Exporter {
	if batch <= 0 {
		batch = DefaultExportBatch
	}
	e := &Exporter{
		source: source,
		path:   path,
		batch:  batch,
		log:    slog.Default(),
		settle: DefaultSettleWindow,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Cursor returns the current watermark.
func (e *Exporter) Cursor() models.AuditCursor {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cursor
}

// Run appends every settled entry newer than the watermark and returns how
// many were written. On first use the watermark is recovered from the
// archive's last line.
func (e *Exporter) Run(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	runID := uuid.NewString()
	if !e.loaded {
		cursor, err := lastCursor(e.path)
		if err != nil {
			return 0, err
		}
		e.cursor = cursor
		e.loaded = true
	}

	f, err := os.OpenFile(e.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return 0, fmt.Errorf("audit export: open archive: %w", err)
	}
	defer f.Close()

	cutoff := e.now().Add(-e.settle)
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		batch, err := e.source.ListAfter(ctx, e.cursor, e.batch)
		if err != nil {
			return total, fmt.Errorf("audit export: list: %w", err)
		}
		full := len(batch) == e.batch
		if n := settled(batch, cutoff); n < len(batch) {
			batch, full = batch[:n], false
		}
		if len(batch) == 0 {
			break
		}

		w := bufio.NewWriter(f)
		enc := json.NewEncoder(w)
		for i := range batch {
			if err := enc.Encode(&batch[i]); err != nil {
				return total, fmt.Errorf("audit export: encode: %w", err)
			}
		}
		if err := w.Flush(); err != nil {
			return total, fmt.Errorf("audit export: write: %w", err)
		}

		last := batch[len(batch)-1]
		e.cursor = models.AuditCursor{CreatedAt: last.CreatedAt, ID: last.ID}
		total += len(batch)
		metrics.AddAuditExported(len(batch))
		if !full {
			break
		}
	}

	e.log.Info("audit export finished",
		"run_id", runID,
		"exported", total,
		"path", e.path,
		"watermark", e.cursor.CreatedAt,
		"cutoff", cutoff)
	return total, nil
}

// settled returns the length of the prefix of batch created at or before cutoff.
func settled(batch []models.AuditLog, cutoff time.Time) int {
	for i := range batch {
		if batch[i].CreatedAt.After(cutoff) {
			return i
		}
	}
	return len(batch)
}

// lastCursor reads the final non-empty line of the archive.
func lastCursor(path string) (models.AuditCursor, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return models.AuditCursor{}, nil
	}
	if err != nil {
		return models.AuditCursor{}, fmt.Errorf("audit export: open archive: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var last []byte
	for sc.Scan() {
		if line := bytes.TrimSpace(sc.Bytes()); len(line) > 0 {
			last = append(last[:0], line...)
		}
	}
	if err := sc.Err(); err != nil {
		return models.AuditCursor{}, fmt.Errorf("audit export: scan archive: %w", err)
	}
	if len(last) == 0 {
		return models.AuditCursor{}, nil
	}

	var entry models.AuditLog
	if err := json.Unmarshal(last, &entry); err != nil {
		return models.AuditCursor{}, fmt.Errorf("audit export: corrupt archive tail: %w", err)
	}
	return models.AuditCursor{CreatedAt: entry.CreatedAt, ID: entry.ID}, nil
}
