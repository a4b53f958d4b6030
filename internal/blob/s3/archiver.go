package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/akovacs/gameledger/internal/domain"
)

// ObservationSource provides read access to ledger rows for archival. The
// Postgres price history store satisfies it through ListBefore.
type ObservationSource interface {
	ListBefore(ctx context.Context, before time.Time) ([]domain.PriceObservation, error)
}

// ObservationArchiver implements domain.Archiver by snapshotting aged
// ledger rows to JSONL in blob storage. It never deletes from the ledger;
// the history table stays append-only and the archive is a redundant cold
// copy.
type ObservationArchiver struct {
	writer domain.BlobWriter
	source ObservationSource
	logger *slog.Logger
}

var _ domain.Archiver = (*ObservationArchiver)(nil)

// NewObservationArchiver creates an ObservationArchiver.
func NewObservationArchiver(writer domain.BlobWriter, source ObservationSource, logger *slog.Logger) *ObservationArchiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &ObservationArchiver{
		writer: writer,
		source: source,
		logger: logger.With(slog.String("component", "archiver")),
	}
}

// ArchiveObservations snapshots every observation recorded before the
// cutoff to archive/observations/YYYY-MM.jsonl and returns the row count.
// Nothing to archive is a zero-count success.
func (a *ObservationArchiver) ArchiveObservations(ctx context.Context, before time.Time) (int64, error) {
	observations, err := a.source.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive observations query: %w", err)
	}
	if len(observations) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(observations)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive observations marshal: %w", err)
	}

	path := archivePath("observations", before)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive observations upload: %w", err)
	}

	count := int64(len(observations))
	a.logger.InfoContext(ctx, "archived ledger rows",
		slog.String("path", path),
		slog.Int64("count", count),
		slog.Time("before", before),
	)
	return count, nil
}

// archivePath builds the blob key for an archive file, partitioned by the
// year-month of the cutoff time:
//
//	archive/observations/2026-03.jsonl
func archivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, before.Format("2006-01"))
}

// marshalJSONL serialises records as newline-delimited JSON, one compact
// line per record.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
