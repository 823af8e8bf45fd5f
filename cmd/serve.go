package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mandi-setu/parchi-cli/internal/agent"
	"github.com/mandi-setu/parchi-cli/internal/export"
	"github.com/mandi-setu/parchi-cli/internal/model"
	"github.com/mandi-setu/parchi-cli/internal/store"
)

var servePort int

// sessionEntry is one live negotiation plus the vendor it was opened for.
type sessionEntry struct {
	session  *model.ConversationContext
	vendorID string
}

// sessionRegistry holds live negotiation sessions for the HTTP API.
type sessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[string]*sessionEntry)}
}

func (r *sessionRegistry) add(s *model.ConversationContext, vendorID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.SessionID] = &sessionEntry{session: s, vendorID: vendorID}
}

func (r *sessionRegistry) get(id string) *sessionEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[id]
}

func (r *sessionRegistry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the negotiation HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		ag, err := initAgent()
		if err != nil {
			return err
		}

		api := &apiServer{agent: ag, store: st, registry: newSessionRegistry()}
		r := buildRouter(api)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

type apiServer struct {
	agent    *agent.Agent
	store    store.Store
	registry *sessionRegistry
}

// buildRouter wires the negotiation API routes.
func buildRouter(api *apiServer) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", api.health)
	r.Post("/sessions", api.createSession)
	r.Post("/sessions/{id}/turns", api.postTurn)
	r.Post("/sessions/{id}/finalize", api.finalizeSession)
	r.Delete("/sessions/{id}", api.deleteSession)
	r.Get("/parchis", api.listParchis)
	r.Get("/parchis/{id}", api.getParchi)

	return r
}

// health reports liveness and whether the store answers queries.
func (s *apiServer) health(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.CountParchis(r.Context()); err != nil {
		zap.L().Error("store health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"store":  "unreachable",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "store": "ok"})
}

func (s *apiServer) createSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Language string `json:"language"`
		VendorID string `json:"vendor_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session := s.agent.StartSession(req.Language)
	s.registry.add(session, req.VendorID)
	writeJSON(w, http.StatusCreated, session)
}

func (s *apiServer) postTurn(w http.ResponseWriter, r *http.Request) {
	entry := s.registry.get(chi.URLParam(r, "id"))
	if entry == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	result, err := s.agent.Turn(r.Context(), entry.session, req.Text)
	if err != nil {
		s.writeTurnError(w, entry.session.SessionID, err)
		return
	}
	s.persistParchi(r.Context(), w, result, entry.vendorID)
}

func (s *apiServer) finalizeSession(w http.ResponseWriter, r *http.Request) {
	entry := s.registry.get(chi.URLParam(r, "id"))
	if entry == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	result, err := s.agent.Finalize(r.Context(), entry.session)
	if err != nil {
		s.writeTurnError(w, entry.session.SessionID, err)
		return
	}
	s.persistParchi(r.Context(), w, result, entry.vendorID)
}

func (s *apiServer) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry := s.registry.get(id)
	if entry == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	s.agent.Abandon(entry.session)
	s.registry.remove(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) listParchis(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ParchiFilter{Status: model.ParchiStatus(q.Get("status"))}
	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be RFC 3339")
			return
		}
		filter.Since = &since
	}

	parchis, err := s.store.ListParchis(r.Context(), filter)
	if err != nil {
		zap.L().Error("list parchis failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"parchis": parchis,
		"summary": export.Summarize(parchis),
	})
}

func (s *apiServer) getParchi(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	parchi, err := s.store.GetParchi(r.Context(), id)
	if err != nil {
		zap.L().Error("get parchi failed", zap.String("parchi_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	if parchi == nil {
		writeError(w, http.StatusNotFound, "parchi not found")
		return
	}
	writeJSON(w, http.StatusOK, parchi)
}

// persistParchi saves an issued parchi before replying with the turn result.
// The session's vendor, when given at creation, is stamped on the receipt.
func (s *apiServer) persistParchi(ctx context.Context, w http.ResponseWriter, result *model.ExtractionResult, vendorID string) {
	if result.Parchi != nil {
		if vendorID != "" && result.Parchi.VendorID == "" {
			result.Parchi.VendorID = vendorID
		}
		if _, err := s.store.SaveParchi(ctx, result.Parchi); err != nil {
			zap.L().Error("save parchi failed",
				zap.String("parchi_id", result.Parchi.ID),
				zap.Error(err),
			)
			writeError(w, http.StatusInternalServerError, "storage error")
			return
		}
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *apiServer) writeTurnError(w http.ResponseWriter, sessionID string, err error) {
	switch {
	case eris.Is(err, agent.ErrTurnInProgress), eris.Is(err, agent.ErrSessionClosed):
		writeError(w, http.StatusConflict, err.Error())
	default:
		zap.L().Error("turn failed", zap.String("session_id", sessionID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "turn failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
