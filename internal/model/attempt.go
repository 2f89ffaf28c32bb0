package model

import "fmt"

// PaymentType selects which chunk-accounting rules apply when reading an
// upload log. The two variants phrase their chunk totals differently.
type PaymentType string

const (
	// PaymentSingleNode reads totals from "Processing estimated total N chunks".
	PaymentSingleNode PaymentType = "single-node"
	// PaymentMerkle reads totals from "Starting upload of N chunks in M Merkle Tree",
	// falling back to "Encrypted X/Y chunks in".
	PaymentMerkle PaymentType = "merkle"
)

// AllPaymentTypes lists the accepted --payment-type values.
var AllPaymentTypes = []PaymentType{PaymentSingleNode, PaymentMerkle}

// ParsePaymentType validates a user-supplied payment type.
func ParsePaymentType(s string) (PaymentType, error) {
	for _, pt := range AllPaymentTypes {
		if string(pt) == s {
			return pt, nil
		}
	}
	return "", fmt.Errorf("unknown payment type %q (want single-node or merkle)", s)
}

// UploadAttempt is one upload extracted from a client service log.
// Pointer fields are nil when the log never showed the value.
type UploadAttempt struct {
	FileName         string
	SizeKB           int64
	Success          bool
	Address          *string
	DurationSeconds  float64
	StartTime        string
	TotalChunks      *int64
	SuccessfulChunks *int64
}
