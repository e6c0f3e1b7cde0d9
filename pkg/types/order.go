package types

import (
	"errors"
	"time"
)

// OrderKind classifies the originating order document
type OrderKind string

const (
	KindShipping OrderKind = "SHIPPING"
	KindTransfer OrderKind = "TRANSFER"
	KindReturn   OrderKind = "RETURN"
	KindIncoming OrderKind = "INCOMING"
)

// Valid reports whether k is a known order kind
func (k OrderKind) Valid() bool {
	switch k {
	case KindShipping, KindTransfer, KindReturn, KindIncoming:
		return true
	}
	return false
}

// VerificationStatus is the order-level verification state
type VerificationStatus string

const (
	StatusNotStarted VerificationStatus = "NOT_STARTED"
	StatusInProgress VerificationStatus = "IN_PROGRESS"
	StatusComplete   VerificationStatus = "COMPLETE"
	StatusFailed     VerificationStatus = "FAILED"
)

// Order represents a shipping/transfer/return/incoming document whose line
// items are verified against physical tag scans
type Order struct {
	// Identification
	ID          string    `json:"id"`
	ExternalRef string    `json:"externalRef"` // identifier from the originating order system
	Kind        OrderKind `json:"kind"`

	// Verification state
	Status VerificationStatus `json:"verificationStatus"`
	Lines  []*OrderLine       `json:"lines"` // creation order preserved

	// Concurrency
	Version int64 `json:"version"` // optimistic-concurrency token, bumped on every save

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OrderLine is one item/quantity target within an order. Lines are owned
// exclusively by their parent order and have no independent lifecycle.
type OrderLine struct {
	ID          string   `json:"id"`
	ItemID      string   `json:"itemId"`
	TargetQty   int      `json:"targetQuantity"`
	VerifiedQty int      `json:"verifiedQuantity"`
	ScannedTags []string `json:"scannedTags"` // accepted tags, insertion order; no duplicates
}

// HasTag reports whether tagID was already accepted for this line
func (l *OrderLine) HasTag(tagID string) bool {
	for _, t := range l.ScannedTags {
		if t == tagID {
			return true
		}
	}
	return false
}

// Satisfied reports whether the line has reached its target quantity
func (l *OrderLine) Satisfied() bool {
	return l.VerifiedQty >= l.TargetQty
}

// LineForItem returns the first line referencing itemID, or nil
func (o *Order) LineForItem(itemID string) *OrderLine {
	for _, l := range o.Lines {
		if l.ItemID == itemID {
			return l
		}
	}
	return nil
}

// AllLinesSatisfied reports whether every line has reached its target
func (o *Order) AllLinesSatisfied() bool {
	for _, l := range o.Lines {
		if l.VerifiedQty != l.TargetQty {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the order. The engine mutates copies so a
// failed save never leaves a half-updated record visible to readers.
func (o *Order) Clone() *Order {
	c := *o
	c.Lines = make([]*OrderLine, len(o.Lines))
	for i, l := range o.Lines {
		lc := *l
		lc.ScannedTags = append([]string(nil), l.ScannedTags...)
		c.Lines[i] = &lc
	}
	return &c
}

// Validate checks the structural invariants of the order and its lines
func (o *Order) Validate() error {
	if o.ID == "" {
		return errors.New("order id cannot be empty")
	}
	if !o.Kind.Valid() {
		return ErrInvalidOrderKind
	}
	for _, l := range o.Lines {
		if l.TargetQty <= 0 {
			return ErrInvalidTargetQty
		}
		if l.VerifiedQty != len(l.ScannedTags) {
			return ErrQuantityMismatch
		}
		if l.VerifiedQty > l.TargetQty {
			return ErrQuantityMismatch
		}
	}
	return nil
}
