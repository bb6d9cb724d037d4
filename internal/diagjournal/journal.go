// Package diagjournal is a lightweight, local forensic record of
// deadlocks and timeouts observed by the thread-queue core. It is never
// touched by the hot uncontested enqueue/dequeue path — only by the
// deadlock callout and timeout reconciliation.
package diagjournal

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"time"

	"threadq/internal/kernerr"
	"threadq/internal/klog"
)

// QueueID identifies a synchronization object for journal purposes. The
// core itself never assigns these; callers label their queues however
// they see fit (a pointer-derived string, a name, etc).
type QueueID string

// DeadlockEvent records one ownership cycle rejected by the path builder.
type DeadlockEvent struct {
	Cycle      []QueueID
	Requester  string
	DetectedAt time.Time
	ErrorType  kernerr.ErrorType
	Severity   kernerr.Severity
}

// TimeoutEvent records one watchdog-fired timeout.
type TimeoutEvent struct {
	Thread    string
	Queue     QueueID
	ArmedAt   time.Time
	FiredAt   time.Time
	ErrorType kernerr.ErrorType
	Severity  kernerr.Severity
}

func init() {
	gob.Register(DeadlockEvent{})
	gob.Register(TimeoutEvent{})
}

// Journal appends length-prefixed, codec-compressed records to a rotating
// file.
type Journal struct {
	codec  Codec
	writer *klog.FileRotatingWriter
	log    *klog.Logger
}

// Open creates (or appends to) a journal at path, compressing records with
// the named codec and rotating once the file exceeds rotationSize bytes.
func Open(path string, codecName string, rotationSize int64, maxFiles int, logger *klog.Logger) (*Journal, error) {
	codec, err := NewCodec(codecName)
	if err != nil {
		return nil, err
	}
	writer, err := klog.NewFileRotatingWriter(path, rotationSize, maxFiles)
	if err != nil {
		return nil, fmt.Errorf("diagjournal: open %s: %w", path, err)
	}
	return &Journal{codec: codec, writer: writer, log: logger}, nil
}

// Close flushes and closes the underlying file.
func (j *Journal) Close() error {
	return j.writer.Close()
}

// RecordDeadlock appends a DeadlockEvent.
func (j *Journal) RecordDeadlock(event DeadlockEvent) error {
	if err := j.append(event); err != nil {
		j.log.Error("diagjournal", "record_deadlock", "failed to append deadlock event", map[string]interface{}{"error": err.Error()})
		return err
	}
	return nil
}

// RecordTimeout appends a TimeoutEvent.
func (j *Journal) RecordTimeout(event TimeoutEvent) error {
	if err := j.append(event); err != nil {
		j.log.Error("diagjournal", "record_timeout", "failed to append timeout event", map[string]interface{}{"error": err.Error()})
		return err
	}
	return nil
}

func (j *Journal) append(event interface{}) error {
	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(&event); err != nil {
		return fmt.Errorf("diagjournal: encode: %w", err)
	}

	compressed, err := j.codec.Compress(raw.Bytes())
	if err != nil {
		return fmt.Errorf("diagjournal: compress: %w", err)
	}

	var framed bytes.Buffer
	if err := binary.Write(&framed, binary.BigEndian, uint32(len(compressed))); err != nil {
		return err
	}
	framed.Write(compressed)

	if _, err := j.writer.Write(framed.Bytes()); err != nil {
		return fmt.Errorf("diagjournal: write: %w", err)
	}
	return nil
}

// ReadAll decodes every record currently in data (the raw bytes of a
// journal file, or one rotated generation of it), for tests and offline
// forensic tooling.
func ReadAll(data []byte, codecName string) ([]interface{}, error) {
	codec, err := NewCodec(codecName)
	if err != nil {
		return nil, err
	}

	var events []interface{}
	for len(data) > 0 {
		if len(data) < 4 {
			return nil, fmt.Errorf("diagjournal: truncated length prefix")
		}
		n := binary.BigEndian.Uint32(data[:4])
		data = data[4:]
		if uint32(len(data)) < n {
			return nil, fmt.Errorf("diagjournal: truncated record")
		}
		compressed := data[:n]
		data = data[n:]

		raw, err := codec.Decompress(compressed)
		if err != nil {
			return nil, fmt.Errorf("diagjournal: decompress: %w", err)
		}

		var event interface{}
		if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&event); err != nil {
			return nil, fmt.Errorf("diagjournal: decode: %w", err)
		}
		events = append(events, event)
	}
	return events, nil
}
