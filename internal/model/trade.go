// Package model holds the domain types shared across the negotiation
// pipeline: trade records, digital parchis, conversation sessions, and the
// per-turn result envelope.
package model

import "time"

// RequiredTradeFields are the fields a trade record must carry before a
// parchi can be issued. Order matters: clarification prompts list missing
// fields in this order.
var RequiredTradeFields = []string{"product_name", "quantity", "unit", "unit_price"}

// TradeData is a partial or complete trade record accumulated over a
// negotiation. Currency figures are derived, never extracted.
type TradeData struct {
	ProductName    string    `json:"product_name,omitempty"`
	Quantity       float64   `json:"quantity,omitempty"`
	Unit           string    `json:"unit,omitempty"`
	UnitPrice      float64   `json:"unit_price,omitempty"`
	TotalAmount    float64   `json:"total_amount,omitempty"`
	MandiCess      float64   `json:"mandi_cess,omitempty"`
	FinalAmount    float64   `json:"final_amount,omitempty"`
	Language       string    `json:"language,omitempty"`
	ConversationID string    `json:"conversation_id,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// MissingFields returns the required fields not yet present, in canonical
// order. Numeric fields count as present only when strictly positive.
func (t TradeData) MissingFields() []string {
	var missing []string
	for _, f := range RequiredTradeFields {
		switch f {
		case "product_name":
			if t.ProductName == "" {
				missing = append(missing, f)
			}
		case "quantity":
			if t.Quantity <= 0 {
				missing = append(missing, f)
			}
		case "unit":
			if t.Unit == "" {
				missing = append(missing, f)
			}
		case "unit_price":
			if t.UnitPrice <= 0 {
				missing = append(missing, f)
			}
		}
	}
	return missing
}

// Complete reports whether every required field is present.
func (t TradeData) Complete() bool {
	return len(t.MissingFields()) == 0
}

// Merge folds an update into the record and returns the result. A field in
// the update wins only when non-empty (strings) or strictly positive
// (numerics); an empty update never regresses an already-set field.
func (t TradeData) Merge(update TradeData) TradeData {
	merged := t
	if update.ProductName != "" {
		merged.ProductName = update.ProductName
	}
	if update.Quantity > 0 {
		merged.Quantity = update.Quantity
	}
	if update.Unit != "" {
		merged.Unit = update.Unit
	}
	if update.UnitPrice > 0 {
		merged.UnitPrice = update.UnitPrice
	}
	if update.Language != "" {
		merged.Language = update.Language
	}
	if update.ConversationID != "" {
		merged.ConversationID = update.ConversationID
	}
	return merged
}
