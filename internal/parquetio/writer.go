// Package parquetio exports upload attempts to Parquet and reads them back.
package parquetio

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/testnetstats/internal/model"
)

// WriteAttempts writes attempts to a new Parquet file at path, one row per
// attempt in log order.
func WriteAttempts(path, runID string, pt model.PaymentType, attempts []model.UploadAttempt) error {
	rows := make([]model.AttemptRow, len(attempts))
	for i := range attempts {
		rows[i] = model.NewAttemptRow(runID, int64(i+1), pt, &attempts[i])
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create parquet file: %w", err)
	}
	defer f.Close()

	w := parquet.NewGenericWriter[model.AttemptRow](f)
	if _, err := w.Write(rows); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return f.Close()
}
