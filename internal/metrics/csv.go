package metrics

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"mcping/internal/model"
)

var csvHeader = []string{"timestamp", "seq", "success", "rtt_ms"}

// WriteCSV writes samples to CSV with a fixed column order.
func WriteCSV(w io.Writer, items []model.Sample) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	if err := writeRecords(writer, items); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

// AppendCSV appends samples to the CSV file at path, writing the header only
// when the file is new or empty.
func AppendCSV(path string, items []model.Sample) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	writer := csv.NewWriter(file)
	if info.Size() == 0 {
		if err := writer.Write(csvHeader); err != nil {
			return err
		}
	}
	if err := writeRecords(writer, items); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

func writeRecords(writer *csv.Writer, items []model.Sample) error {
	for _, m := range items {
		record := []string{
			m.Timestamp.UTC().Format(time.RFC3339Nano),
			strconv.FormatUint(uint64(m.Seq), 10),
			strconv.FormatBool(m.Success),
			strconv.FormatFloat(m.RTTMs, 'f', 3, 64),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	return nil
}
