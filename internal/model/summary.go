package model

import "time"

// LoadSummary captures metrics from a single log load into Postgres.
type LoadSummary struct {
	LogPath          string
	LogSHA256        string
	PaymentType      PaymentType
	RunID            string
	AlreadyLoaded    bool
	Attempts         int64
	Successful       int64
	Failed           int64
	RowsStaged       int64
	DurationParse    time.Duration
	DurationCopy     time.Duration
	DurationFinalize time.Duration
	DurationTotal    time.Duration
}
