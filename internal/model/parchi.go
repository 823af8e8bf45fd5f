package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// ParchiStatus is the lifecycle state of a digital parchi.
type ParchiStatus string

const (
	ParchiStatusDraft     ParchiStatus = "DRAFT"
	ParchiStatusCompleted ParchiStatus = "COMPLETED"
	ParchiStatusCancelled ParchiStatus = "CANCELLED"
)

// Terminal reports whether the status admits no further transitions.
func (s ParchiStatus) Terminal() bool {
	return s == ParchiStatusCompleted || s == ParchiStatusCancelled
}

// DigitalParchi is the receipt issued for a finalized trade.
type DigitalParchi struct {
	ID        string       `json:"id"`
	TradeData TradeData    `json:"trade_data"`
	VendorID  string       `json:"vendor_id,omitempty"`
	Status    ParchiStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewParchi creates a draft parchi for the given trade record.
func NewParchi(trade TradeData) *DigitalParchi {
	now := time.Now().UTC()
	return &DigitalParchi{
		ID:        uuid.New().String(),
		TradeData: trade,
		Status:    ParchiStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Complete moves a draft parchi to COMPLETED. The underlying trade must be
// complete; terminal parchis cannot transition.
func (p *DigitalParchi) Complete() error {
	if p.Status.Terminal() {
		return eris.Errorf("parchi %s is %s and cannot be completed", p.ID, p.Status)
	}
	if !p.TradeData.Complete() {
		return eris.Errorf("parchi %s has incomplete trade data: missing %v", p.ID, p.TradeData.MissingFields())
	}
	p.Status = ParchiStatusCompleted
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// Cancel moves a draft parchi to CANCELLED. Terminal parchis cannot
// transition.
func (p *DigitalParchi) Cancel() error {
	if p.Status.Terminal() {
		return eris.Errorf("parchi %s is %s and cannot be cancelled", p.ID, p.Status)
	}
	p.Status = ParchiStatusCancelled
	p.UpdatedAt = time.Now().UTC()
	return nil
}
