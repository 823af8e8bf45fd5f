// Package agent orchestrates negotiation sessions: it detects the vendor's
// language, pivots utterances through translation, extracts structured
// trade fields with the model, merges them into the session's partial
// record, and either asks for what is missing or issues the parchi.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mandi-setu/parchi-cli/internal/calc"
	"github.com/mandi-setu/parchi-cli/internal/lang"
	"github.com/mandi-setu/parchi-cli/internal/model"
	"github.com/mandi-setu/parchi-cli/internal/resilience"
	"github.com/mandi-setu/parchi-cli/pkg/anthropic"
	"github.com/mandi-setu/parchi-cli/pkg/translate"
)

// ErrTurnInProgress is returned when a turn arrives while another turn for
// the same session is still being processed. Turns are strictly serial per
// session; concurrent callers must resubmit.
var ErrTurnInProgress = eris.New("agent: turn already in progress for session")

// ErrSessionClosed is returned for turns against a terminal session.
var ErrSessionClosed = eris.New("agent: session is closed")

// Config controls negotiation behavior.
type Config struct {
	Model                 string
	MaxTokens             int64
	PivotLanguage         string
	DefaultLanguage       string
	MaxExtractionAttempts int
}

func (c Config) withDefaults() Config {
	if c.MaxTokens <= 0 {
		c.MaxTokens = 1024
	}
	if c.PivotLanguage == "" {
		c.PivotLanguage = lang.PivotLanguage
	}
	if c.DefaultLanguage == "" {
		c.DefaultLanguage = lang.DefaultLanguage
	}
	if c.MaxExtractionAttempts <= 0 {
		c.MaxExtractionAttempts = 3
	}
	return c
}

// Agent runs negotiation turns. Safe for concurrent use across sessions;
// turns within one session are serialized.
type Agent struct {
	llm        anthropic.Client
	translator translate.Client
	cfg        Config
	catalog    *Catalog
	retry      resilience.RetryConfig

	inFlight sync.Map // session ID → struct{}
}

// New creates an Agent.
func New(llm anthropic.Client, translator translate.Client, cfg Config) (*Agent, error) {
	catalog, err := loadCatalog()
	if err != nil {
		return nil, err
	}

	// An unparseable response is retried like a transient transport error:
	// the model gets one more chance to produce well-formed output before
	// the turn degrades to a clarification prompt.
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("anthropic", "extract")
	retry.ShouldRetry = func(err error) bool {
		var perr *ParseError
		return errors.As(err, &perr) || resilience.IsTransient(err)
	}

	return &Agent{
		llm:        llm,
		translator: translator,
		cfg:        cfg.withDefaults(),
		catalog:    catalog,
		retry:      retry,
	}, nil
}

// StartSession opens a negotiation session. Unsupported or empty language
// codes fall back to the configured default.
func (a *Agent) StartSession(language string) *model.ConversationContext {
	if language == "" || !lang.Supported(language) {
		language = a.cfg.DefaultLanguage
	}
	session := model.NewSession(language)
	session.State = model.SessionStateListening

	zap.L().Info("session started",
		zap.String("session_id", session.SessionID),
		zap.String("language", language),
	)
	return session
}

// extraction is one parsed model response: the fields it asserted plus its
// self-reported confidence.
type extraction struct {
	update     model.TradeData
	confidence float64
}

// Turn processes one vendor utterance and returns the result envelope:
// either a clarification prompt with the fields still missing, or the
// finalized parchi when the record became complete.
func (a *Agent) Turn(ctx context.Context, session *model.ConversationContext, utterance string) (*model.ExtractionResult, error) {
	if session == nil {
		return nil, eris.New("agent: nil session")
	}
	if _, busy := a.inFlight.LoadOrStore(session.SessionID, struct{}{}); busy {
		return nil, ErrTurnInProgress
	}
	defer a.inFlight.Delete(session.SessionID)

	if session.State.Terminal() {
		return nil, eris.Wrapf(ErrSessionClosed, "session %s is %s", session.SessionID, session.State)
	}
	if strings.TrimSpace(utterance) == "" {
		return nil, eris.New("agent: empty utterance")
	}

	// Detect the vendor's language for this turn. On low confidence the
	// session's established language wins over the global default.
	detected, _, fallback := lang.DetectWithFallback(utterance)
	if fallback && session.CurrentLanguage != "" {
		detected = session.CurrentLanguage
	}
	session.CurrentLanguage = detected

	// Extracting is transient; a cancelled turn restores the prior state.
	prior := session.State
	session.State = model.SessionStateExtracting

	// Pivot the utterance for extraction. A failed translation degrades to
	// extracting from the original text rather than dropping the turn.
	degraded := false
	pivotText := utterance
	if detected != a.cfg.PivotLanguage {
		translated, err := a.translator.Translate(ctx, utterance, detected, a.cfg.PivotLanguage)
		if err != nil {
			zap.L().Warn("pivot translation degraded",
				zap.String("session_id", session.SessionID),
				zap.Error(err),
			)
			degraded = true
		} else {
			pivotText = translated
		}
	}
	session.Append(model.RoleVendor, utterance, pivotText, detected)

	ext, err := resilience.DoVal(ctx, a.retry, func(ctx context.Context) (extraction, error) {
		resp, err := a.llm.CreateMessage(ctx, a.extractionRequest(session))
		if err != nil {
			return extraction{}, err
		}
		resp.Usage.LogCost(a.cfg.Model, "extract")

		update, confidence, perr := parseTradeJSON(resp.Text())
		if perr != nil {
			return extraction{}, perr
		}
		return extraction{update: update, confidence: confidence}, nil
	})
	if err != nil {
		if ctx.Err() != nil {
			session.State = prior
			return nil, eris.Wrap(err, "agent: extraction call")
		}
		var perr *ParseError
		if errors.As(err, &perr) {
			zap.L().Warn("unparseable extraction response",
				zap.String("session_id", session.SessionID),
				zap.Error(err),
			)
		} else {
			zap.L().Error("extraction call failed",
				zap.String("session_id", session.SessionID),
				zap.Error(err),
			)
		}
		return a.degradeTurn(ctx, session, fallback, degraded), nil
	}
	update, confidence := ext.update, ext.confidence

	merged := session.PartialData.Merge(update)
	merged.Language = session.CurrentLanguage
	merged.ConversationID = session.SessionID
	session.PartialData = merged

	missing := merged.MissingFields()
	if len(missing) == 0 {
		return a.issueParchi(ctx, session, &update, confidence, fallback, degraded)
	}

	session.State = model.SessionStateAwaitingClarification
	text, trDegraded := a.respond(ctx, session.CurrentLanguage, a.catalog.Clarify,
		a.catalog.fieldNames(missing, session.CurrentLanguage))
	session.Append(model.RoleAssistant, text, "", session.CurrentLanguage)

	return &model.ExtractionResult{
		ExtractedData:         &update,
		ResponseText:          text,
		ConfidenceScore:       confidence,
		RequiresClarification: true,
		MissingFields:         missing,
		LanguageFallback:      fallback,
		DegradedTranslation:   degraded || trDegraded,
		SessionState:          session.State,
	}, nil
}

// Finalize issues the parchi from the session's current partial record. If
// required fields are still missing it returns a clarification result
// instead.
func (a *Agent) Finalize(ctx context.Context, session *model.ConversationContext) (*model.ExtractionResult, error) {
	if session == nil {
		return nil, eris.New("agent: nil session")
	}
	if _, busy := a.inFlight.LoadOrStore(session.SessionID, struct{}{}); busy {
		return nil, ErrTurnInProgress
	}
	defer a.inFlight.Delete(session.SessionID)

	if session.State.Terminal() {
		return nil, eris.Wrapf(ErrSessionClosed, "session %s is %s", session.SessionID, session.State)
	}

	missing := session.PartialData.MissingFields()
	if len(missing) > 0 {
		session.State = model.SessionStateAwaitingClarification
		text, trDegraded := a.respond(ctx, session.CurrentLanguage, a.catalog.Clarify,
			a.catalog.fieldNames(missing, session.CurrentLanguage))
		return &model.ExtractionResult{
			ResponseText:          text,
			RequiresClarification: true,
			MissingFields:         missing,
			DegradedTranslation:   trDegraded,
			SessionState:          session.State,
		}, nil
	}

	return a.issueParchi(ctx, session, nil, 1.0, false, false)
}

// Abandon marks the session terminal so no further turns are accepted. Any
// persisted draft is the caller's to cancel.
func (a *Agent) Abandon(session *model.ConversationContext) {
	if session == nil || session.State.Terminal() {
		return
	}
	session.State = model.SessionStateFailed
	zap.L().Info("session abandoned", zap.String("session_id", session.SessionID))
}

// degradeTurn handles a failed or unparseable extraction: the attempt
// counter advances and the vendor is asked to repeat, until the bound is
// reached and the session fails.
func (a *Agent) degradeTurn(ctx context.Context, session *model.ConversationContext, fallback, degraded bool) *model.ExtractionResult {
	session.ExtractionAttempts++

	if session.ExtractionAttempts >= a.cfg.MaxExtractionAttempts {
		session.State = model.SessionStateFailed
		text, trDegraded := a.respond(ctx, session.CurrentLanguage, a.catalog.Failed)
		session.Append(model.RoleAssistant, text, "", session.CurrentLanguage)

		zap.L().Warn("session failed after repeated extraction failures",
			zap.String("session_id", session.SessionID),
			zap.Int("attempts", session.ExtractionAttempts),
		)
		return &model.ExtractionResult{
			ResponseText:        text,
			LanguageFallback:    fallback,
			DegradedTranslation: degraded || trDegraded,
			SessionState:        session.State,
		}
	}

	session.State = model.SessionStateAwaitingClarification
	text, trDegraded := a.respond(ctx, session.CurrentLanguage, a.catalog.Retry)
	session.Append(model.RoleAssistant, text, "", session.CurrentLanguage)

	return &model.ExtractionResult{
		ResponseText:          text,
		RequiresClarification: true,
		MissingFields:         session.PartialData.MissingFields(),
		LanguageFallback:      fallback,
		DegradedTranslation:   degraded || trDegraded,
		SessionState:          session.State,
	}
}

// issueParchi derives the money column, completes the parchi, and closes
// the session.
func (a *Agent) issueParchi(ctx context.Context, session *model.ConversationContext, update *model.TradeData, confidence float64, fallback, degraded bool) (*model.ExtractionResult, error) {
	trade := session.PartialData
	total, cess, final, err := calc.Derive(trade.Quantity, trade.UnitPrice)
	if err != nil {
		return nil, eris.Wrap(err, "agent: derive amounts")
	}
	trade.TotalAmount = total
	trade.MandiCess = cess
	trade.FinalAmount = final
	trade.Timestamp = time.Now().UTC()
	session.PartialData = trade

	parchi := model.NewParchi(trade)
	if err := parchi.Complete(); err != nil {
		return nil, eris.Wrap(err, "agent: complete parchi")
	}
	session.State = model.SessionStateComplete

	text, trDegraded := a.respond(ctx, session.CurrentLanguage, a.catalog.Confirm,
		trade.ProductName,
		formatQuantity(trade.Quantity),
		trade.Unit,
		calc.FormatAmount(trade.UnitPrice),
		trade.Unit,
		calc.FormatAmount(total),
		calc.FormatAmount(cess),
		calc.FormatAmount(final),
	)
	session.Append(model.RoleAssistant, text, "", session.CurrentLanguage)

	zap.L().Info("parchi issued",
		zap.String("session_id", session.SessionID),
		zap.String("parchi_id", parchi.ID),
		zap.String("product", trade.ProductName),
		zap.Float64("total_amount", total),
		zap.Float64("mandi_cess", cess),
	)

	return &model.ExtractionResult{
		ExtractedData:       update,
		ResponseText:        text,
		ConfidenceScore:     confidence,
		LanguageFallback:    fallback,
		DegradedTranslation: degraded || trDegraded,
		SessionState:        session.State,
		Parchi:              parchi,
	}, nil
}

// respond renders a localized template. Languages without a native entry
// get the English text machine-translated; if that also fails the English
// text goes out flagged as degraded.
func (a *Agent) respond(ctx context.Context, language string, templates map[string]string, args ...any) (string, bool) {
	tmpl, native := a.catalog.template(templates, language)
	text := fmt.Sprintf(tmpl, args...)
	if native || language == "en" {
		return text, false
	}

	translated, err := a.translator.Translate(ctx, text, "en", language)
	if err != nil {
		zap.L().Warn("response translation degraded",
			zap.String("language", language),
			zap.Error(err),
		)
		return text, true
	}
	return translated, false
}

// extractionRequest builds the model request for the session's latest turn.
func (a *Agent) extractionRequest(session *model.ConversationContext) anthropic.MessageRequest {
	known, _ := json.Marshal(session.PartialData)

	var lines []string
	for _, m := range session.Messages[:len(session.Messages)-1] {
		text := m.PivotText
		if text == "" {
			text = m.Text
		}
		lines = append(lines, m.Role+": "+text)
	}
	transcript := "(start of conversation)"
	if len(lines) > 0 {
		transcript = strings.Join(lines, "\n")
	}

	latest := session.Messages[len(session.Messages)-1]
	latestText := latest.PivotText
	if latestText == "" {
		latestText = latest.Text
	}

	temp := 0.0
	return anthropic.MessageRequest{
		Model:       a.cfg.Model,
		MaxTokens:   a.cfg.MaxTokens,
		System:      extractSystemText,
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(extractPrompt, string(known), transcript, latestText)},
		},
	}
}

func formatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}
