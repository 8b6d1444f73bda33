package store

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cwbudde/motionbench/internal/bench"
)

func TestTraceWriter_WriteAndRead(t *testing.T) {
	tmpDir := t.TempDir()

	writer, err := NewTraceWriter(tmpDir, "run-trace", false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}

	expectedPath := filepath.Join(tmpDir, "runs", "run-trace", "trace.jsonl")
	if writer.Path() != expectedPath {
		t.Errorf("Expected path %s, got %s", expectedPath, writer.Path())
	}

	entries := []TraceEntry{
		{Pair: 0, Strategy: "diamond", PSNR: 38.5, SearchPoints: 1400, ElapsedMS: 1.25, Timestamp: time.Now()},
		{Pair: 1, Strategy: "diamond", PSNR: 39.1, SearchPoints: 1380, ElapsedMS: 1.5, Timestamp: time.Now()},
		{Pair: 0, Strategy: "step", PSNR: 37.0, SearchPoints: 2475, ElapsedMS: 2, Timestamp: time.Now()},
	}
	for _, e := range entries {
		if err := writer.Write(e); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reader, err := NewTraceReader(tmpDir, "run-trace")
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	got, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("Expected %d entries, got %d", len(entries), len(got))
	}
	for i := range entries {
		if got[i].Pair != entries[i].Pair || got[i].Strategy != entries[i].Strategy ||
			got[i].PSNR != entries[i].PSNR || got[i].SearchPoints != entries[i].SearchPoints ||
			got[i].ElapsedMS != entries[i].ElapsedMS {
			t.Errorf("Entry %d mismatch: expected %+v, got %+v", i, entries[i], got[i])
		}
	}
}

func TestTraceWriter_Append(t *testing.T) {
	tmpDir := t.TempDir()

	for i := 0; i < 2; i++ {
		writer, err := NewTraceWriter(tmpDir, "run-append", true)
		if err != nil {
			t.Fatalf("Failed to create trace writer: %v", err)
		}
		if err := writer.Write(TraceEntry{Pair: i, Strategy: "step"}); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		writer.Close()
	}

	reader, err := NewTraceReader(tmpDir, "run-append")
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	got, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(got) != 2 || got[1].Pair != 1 {
		t.Errorf("Expected 2 appended entries, got %+v", got)
	}
}

func TestTraceWriter_Flush(t *testing.T) {
	tmpDir := t.TempDir()
	writer, err := NewTraceWriter(tmpDir, "run-flush", false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	defer writer.Close()

	writer.Write(TraceEntry{Pair: 0, Strategy: "exhaustive"})

	info, _ := os.Stat(writer.Path())
	if info.Size() != 0 {
		t.Error("Entry should stay buffered before Flush")
	}
	if err := writer.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	info, _ = os.Stat(writer.Path())
	if info.Size() == 0 {
		t.Error("Flush should write buffered entries")
	}
}

func TestTraceReader_ReadIteratively(t *testing.T) {
	tmpDir := t.TempDir()
	writer, _ := NewTraceWriter(tmpDir, "run-iter", false)
	for i := 0; i < 3; i++ {
		writer.Write(TraceEntry{Pair: i, Strategy: "hierarchical"})
	}
	writer.Close()

	reader, err := NewTraceReader(tmpDir, "run-iter")
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	for i := 0; i < 3; i++ {
		entry, err := reader.Read()
		if err != nil {
			t.Fatalf("Read %d failed: %v", i, err)
		}
		if entry.Pair != i {
			t.Errorf("Expected pair %d, got %d", i, entry.Pair)
		}
	}
	if _, err := reader.Read(); err != io.EOF {
		t.Errorf("Expected io.EOF, got %v", err)
	}
}

func TestTraceReader_NotFound(t *testing.T) {
	_, err := NewTraceReader(t.TempDir(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestEntryFromStats(t *testing.T) {
	entry := EntryFromStats(bench.PairStats{
		Strategy:     "diamond",
		Pair:         4,
		PSNR:         36.5,
		SearchPoints: 1234,
		Elapsed:      2500 * time.Microsecond,
	})

	if entry.Pair != 4 || entry.Strategy != "diamond" || entry.PSNR != 36.5 || entry.SearchPoints != 1234 {
		t.Errorf("Unexpected entry: %+v", entry)
	}
	if entry.ElapsedMS != 2.5 {
		t.Errorf("Expected 2.5ms, got %v", entry.ElapsedMS)
	}
	if entry.Timestamp.IsZero() {
		t.Error("Expected timestamp to be set")
	}
}

func TestTraceWriter_ConcurrentWrites(t *testing.T) {
	tmpDir := t.TempDir()

	writer, err := NewTraceWriter(tmpDir, "run-concurrent", false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	defer writer.Close()

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(pair int) {
			if err := writer.Write(TraceEntry{Pair: pair, Strategy: "step", Timestamp: time.Now()}); err != nil {
				t.Errorf("Concurrent write failed: %v", err)
			}
			done <- true
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}
	writer.Flush()

	reader, err := NewTraceReader(tmpDir, "run-concurrent")
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	entries, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}
	if len(entries) != 10 {
		t.Errorf("Expected 10 entries, got %d", len(entries))
	}
}
