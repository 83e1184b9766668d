package metrics

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mcping/internal/model"
)

func TestAppendCSV_WritesHeaderOnce(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	path := filepath.Join(tmp, "samples.csv")

	m1 := model.Sample{Timestamp: time.Unix(1, 0).UTC(), Seq: 0, Success: true, RTTMs: 1.5}
	m2 := model.Sample{Timestamp: time.Unix(2, 0).UTC(), Seq: 1, Success: false}

	if err := AppendCSV(path, []model.Sample{m1}); err != nil {
		t.Fatalf("AppendCSV #1: %v", err)
	}
	if err := AppendCSV(path, []model.Sample{m2}); err != nil {
		t.Fatalf("AppendCSV #2: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines=%d\n%s", len(lines), string(data))
	}
	if !strings.HasPrefix(lines[0], "timestamp,") {
		t.Fatalf("missing header: %q", lines[0])
	}
}

func TestWriteCSV_ReadCSV_RoundTrip(t *testing.T) {
	t.Parallel()

	items := []model.Sample{
		{Timestamp: time.Unix(10, 0).UTC(), Seq: 0, Success: true, RTTMs: 12.345},
		{Timestamp: time.Unix(11, 0).UTC(), Seq: 1, Success: false, RTTMs: 0},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, items); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	got, err := readCSV(&buf)
	if err != nil {
		t.Fatalf("readCSV: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len=%d", len(got))
	}
	if got[0].Seq != 0 || !got[0].Success || got[0].RTTMs != 12.345 {
		t.Fatalf("sample 0 mismatch: %+v", got[0])
	}
	if got[1].Seq != 1 || got[1].Success {
		t.Fatalf("sample 1 mismatch: %+v", got[1])
	}
	if !got[0].Timestamp.Equal(items[0].Timestamp) {
		t.Fatalf("timestamp mismatch: %v != %v", got[0].Timestamp, items[0].Timestamp)
	}
}

func TestReadCSV_RejectsBadRecords(t *testing.T) {
	t.Parallel()

	if _, err := readCSV(strings.NewReader("timestamp,seq,success,rtt_ms\nnot-a-time,0,true,1.0\n")); err == nil {
		t.Fatal("expected timestamp error")
	}
	if _, err := readCSV(strings.NewReader("timestamp,seq,success,rtt_ms\n1970-01-01T00:00:01Z,abc,true,1.0\n")); err == nil {
		t.Fatal("expected seq error")
	}
}
