package s3blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/akovacs/gameledger/internal/domain"
)

type fakeSource struct {
	observations []domain.PriceObservation
	err          error
}

func (f *fakeSource) ListBefore(ctx context.Context, before time.Time) ([]domain.PriceObservation, error) {
	return f.observations, f.err
}

type fakeWriter struct {
	key         string
	contentType string
	body        []byte
	calls       int
	err         error
}

func (f *fakeWriter) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	f.calls++
	f.key = key
	f.contentType = contentType
	f.body, _ = io.ReadAll(body)
	return f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestArchiveObservations(t *testing.T) {
	cutoff := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	source := &fakeSource{observations: []domain.PriceObservation{
		{ID: "o1", GameID: "g1", Amount: 12.5, Currency: "GBP", SourceName: "pricecharting"},
		{ID: "o2", GameID: "g2", Amount: 30, Currency: "GBP", SourceName: "pricecharting"},
	}}
	writer := &fakeWriter{}

	a := NewObservationArchiver(writer, source, discardLogger())
	count, err := a.ArchiveObservations(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("ArchiveObservations: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	if writer.key != "archive/observations/2026-03.jsonl" {
		t.Errorf("key = %q", writer.key)
	}
	if writer.contentType != "application/x-ndjson" {
		t.Errorf("content type = %q", writer.contentType)
	}

	lines := bytes.Split(bytes.TrimSpace(writer.body), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("got %d JSONL lines, want 2", len(lines))
	}
	if !strings.Contains(string(lines[0]), `"o1"`) {
		t.Errorf("first line = %s", lines[0])
	}
}

func TestArchiveObservationsNothingToDo(t *testing.T) {
	writer := &fakeWriter{}
	a := NewObservationArchiver(writer, &fakeSource{}, discardLogger())

	count, err := a.ArchiveObservations(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("ArchiveObservations: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
	if writer.calls != 0 {
		t.Error("no upload should happen when there are no rows")
	}
}

func TestArchiveObservationsUploadFailure(t *testing.T) {
	source := &fakeSource{observations: []domain.PriceObservation{{ID: "o1"}}}
	writer := &fakeWriter{err: errors.New("bucket gone")}
	a := NewObservationArchiver(writer, source, discardLogger())

	if _, err := a.ArchiveObservations(context.Background(), time.Now()); err == nil {
		t.Fatal("expected upload error to propagate")
	}
}
