package diagjournal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"threadq/internal/kernerr"
)

func TestJournalRoundTripAllCodecs(t *testing.T) {
	for _, codec := range []string{"none", "snappy", "lz4", "zstd"} {
		t.Run(codec, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "events.log")

			j, err := Open(path, codec, 1<<20, 3, nil)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}

			deadlock := DeadlockEvent{
				Cycle:      []QueueID{"q1", "q2"},
				Requester:  "A",
				DetectedAt: time.Unix(1000, 0),
				ErrorType:  kernerr.ErrorTypeDeadlock,
				Severity:   kernerr.SeverityCritical,
			}
			timeout := TimeoutEvent{
				Thread:    "B",
				Queue:     "q3",
				ArmedAt:   time.Unix(900, 0),
				FiredAt:   time.Unix(1000, 0),
				ErrorType: kernerr.ErrorTypeTimeout,
				Severity:  kernerr.SeverityLow,
			}
			if err := j.RecordDeadlock(deadlock); err != nil {
				t.Fatalf("RecordDeadlock: %v", err)
			}
			if err := j.RecordTimeout(timeout); err != nil {
				t.Fatalf("RecordTimeout: %v", err)
			}
			if err := j.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile: %v", err)
			}
			events, err := ReadAll(data, codec)
			if err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
			if len(events) != 2 {
				t.Fatalf("expected 2 events, got %d", len(events))
			}

			gotDeadlock, ok := events[0].(DeadlockEvent)
			if !ok || gotDeadlock.Requester != "A" || len(gotDeadlock.Cycle) != 2 {
				t.Fatalf("unexpected first event: %#v", events[0])
			}
			if gotDeadlock.ErrorType != kernerr.ErrorTypeDeadlock || gotDeadlock.Severity != kernerr.SeverityCritical {
				t.Fatalf("expected deadlock classification to round-trip, got %#v", gotDeadlock)
			}
			gotTimeout, ok := events[1].(TimeoutEvent)
			if !ok || gotTimeout.Thread != "B" || gotTimeout.Queue != "q3" {
				t.Fatalf("unexpected second event: %#v", events[1])
			}
			if gotTimeout.ErrorType != kernerr.ErrorTypeTimeout || gotTimeout.Severity != kernerr.SeverityLow {
				t.Fatalf("expected timeout classification to round-trip, got %#v", gotTimeout)
			}
		})
	}
}

func TestOpenRejectsUnknownCodec(t *testing.T) {
	dir := t.TempDir()
	if _, err := Open(filepath.Join(dir, "x.log"), "rot13", 1<<20, 3, nil); err == nil {
		t.Fatalf("expected error for unknown codec")
	}
}
