package types

// ScanStatus classifies the outcome of a single tag scan
type ScanStatus string

const (
	ScanValid     ScanStatus = "valid"
	ScanInvalid   ScanStatus = "invalid"
	ScanWarning   ScanStatus = "warning"
	ScanDuplicate ScanStatus = "duplicate"
)

// VerificationResult is the transient outcome of verifying one tag against
// an order. Business rejections (duplicate, exceeded, unknown item) are
// reported here as data, never as errors.
type VerificationResult struct {
	TagID   string     `json:"tagId"`
	ItemID  string     `json:"itemId,omitempty"`
	IsValid bool       `json:"isValid"`
	Status  ScanStatus `json:"status"`
	Message string     `json:"message"`

	// Line is a snapshot of the updated line on an accepted scan, nil otherwise
	Line *OrderLine `json:"line,omitempty"`

	// OrderStatus reflects the order's verification status after the scan
	OrderStatus VerificationStatus `json:"orderStatus"`
}

// VerificationSummary aggregates verification progress across all lines
type VerificationSummary struct {
	OrderID       string  `json:"orderId"`
	TotalTarget   int     `json:"totalTarget"`
	TotalVerified int     `json:"totalVerified"`
	Progress      float64 `json:"progress"` // totalVerified/totalTarget, 0 when target is 0
	IsComplete    bool    `json:"isComplete"`
}

// Submission is one entry in the append-only audit trail written by
// submitVerification
type Submission struct {
	ID          string             `json:"id"`
	OrderID     string             `json:"orderId"`
	Status      VerificationStatus `json:"status"`
	TotalTarget int                `json:"totalTarget"`
	TotalFound  int                `json:"totalFound"`
	SubmittedAt int64              `json:"submittedAt"` // unix seconds
}
