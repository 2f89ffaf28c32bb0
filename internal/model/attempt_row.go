package model

import "github.com/google/uuid"

// AttemptRow mirrors the Parquet schema for an exported UploadAttempt.
// Optional columns stay null when the attempt never observed the value.
type AttemptRow struct {
	RunID            string  `parquet:"run_id"`
	Seq              int64   `parquet:"seq"`
	PaymentType      string  `parquet:"payment_type"`
	FileName         string  `parquet:"file_name"`
	SizeKB           int64   `parquet:"size_kb"`
	Success          bool    `parquet:"success"`
	Address          *string `parquet:"address,optional"`
	DurationSeconds  float64 `parquet:"duration_seconds"`
	StartTime        string  `parquet:"start_time"`
	TotalChunks      *int64  `parquet:"total_chunks,optional"`
	SuccessfulChunks *int64  `parquet:"successful_chunks,optional"`
}

// NewAttemptRow flattens an attempt for export. seq is its position in the log.
func NewAttemptRow(runID string, seq int64, pt PaymentType, a *UploadAttempt) AttemptRow {
	return AttemptRow{
		RunID:            runID,
		Seq:              seq,
		PaymentType:      string(pt),
		FileName:         a.FileName,
		SizeKB:           a.SizeKB,
		Success:          a.Success,
		Address:          a.Address,
		DurationSeconds:  a.DurationSeconds,
		StartTime:        a.StartTime,
		TotalChunks:      a.TotalChunks,
		SuccessfulChunks: a.SuccessfulChunks,
	}
}

// Attempt converts the row back into an UploadAttempt.
func (r *AttemptRow) Attempt() UploadAttempt {
	return UploadAttempt{
		FileName:         r.FileName,
		SizeKB:           r.SizeKB,
		Success:          r.Success,
		Address:          r.Address,
		DurationSeconds:  r.DurationSeconds,
		StartTime:        r.StartTime,
		TotalChunks:      r.TotalChunks,
		SuccessfulChunks: r.SuccessfulChunks,
	}
}

// StagedAttempt is an attempt tagged with the run that produced it, ready for
// COPY into upload.attempts.
type StagedAttempt struct {
	RunID   uuid.UUID
	Seq     int64
	Attempt UploadAttempt
}

// AttemptColumns returns the ordered column names for COPY into upload.attempts.
func AttemptColumns() []string {
	return []string{
		"run_id",
		"seq",
		"file_name",
		"size_kb",
		"success",
		"address",
		"duration_seconds",
		"start_time",
		"total_chunks",
		"successful_chunks",
	}
}

// CopyValues returns the row values in the same order as AttemptColumns(),
// suitable for pgx CopyFromSource.
func (s *StagedAttempt) CopyValues() []any {
	a := &s.Attempt
	return []any{
		s.RunID,
		s.Seq,
		a.FileName,
		a.SizeKB,
		a.Success,
		a.Address,
		a.DurationSeconds,
		a.StartTime,
		a.TotalChunks,
		a.SuccessfulChunks,
	}
}
