package agent

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mandi-setu/parchi-cli/internal/model"
)

// ParseError reports model output that could not be turned into trade data:
// unparseable JSON or a field of the wrong type. It never panics the turn;
// the agent degrades to a clarification prompt.
type ParseError struct {
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse trade data: %s: %s", e.Field, e.Reason)
}

// parseTradeJSON turns a model response into a partial trade record and a
// confidence score. Absent or null fields are fine (the record stays
// partial); present fields of the wrong type are a ParseError.
func parseTradeJSON(text string) (model.TradeData, float64, error) {
	var trade model.TradeData

	var raw map[string]any
	if err := json.Unmarshal([]byte(cleanJSON(text)), &raw); err != nil {
		return trade, 0, &ParseError{Field: "response", Reason: "invalid json"}
	}

	var err error
	if trade.ProductName, err = stringField(raw, "product_name"); err != nil {
		return model.TradeData{}, 0, err
	}
	if trade.Unit, err = stringField(raw, "unit"); err != nil {
		return model.TradeData{}, 0, err
	}
	if trade.Quantity, err = numberField(raw, "quantity"); err != nil {
		return model.TradeData{}, 0, err
	}
	if trade.UnitPrice, err = numberField(raw, "unit_price"); err != nil {
		return model.TradeData{}, 0, err
	}

	confidence, err := numberField(raw, "confidence")
	if err != nil {
		return model.TradeData{}, 0, err
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return trade, confidence, nil
}

func stringField(raw map[string]any, key string) (string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &ParseError{Field: key, Reason: fmt.Sprintf("expected string, got %T", v)}
	}
	return strings.TrimSpace(s), nil
}

func numberField(raw map[string]any, key string) (float64, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return 0, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case string:
		// Models sometimes quote numbers.
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, &ParseError{Field: key, Reason: fmt.Sprintf("expected number, got %q", n)}
		}
		return f, nil
	default:
		return 0, &ParseError{Field: key, Reason: fmt.Sprintf("expected number, got %T", v)}
	}
}

// cleanJSON strips markdown fences and surrounding prose so the payload
// between the outermost braces survives.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
