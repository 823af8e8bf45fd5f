package model

// ExtractionResult is the envelope returned for every negotiation turn.
// Exactly one of the clarification path or the finalized parchi is set;
// callers branch on RequiresClarification.
type ExtractionResult struct {
	ExtractedData         *TradeData     `json:"extracted_data,omitempty"`
	ResponseText          string         `json:"response_text"`
	ConfidenceScore       float64        `json:"confidence_score"`
	RequiresClarification bool           `json:"requires_clarification"`
	MissingFields         []string       `json:"missing_fields,omitempty"`
	LanguageFallback      bool           `json:"language_fallback,omitempty"`
	DegradedTranslation   bool           `json:"degraded_translation,omitempty"`
	SessionState          SessionState   `json:"session_state"`
	Parchi                *DigitalParchi `json:"parchi,omitempty"`
}
