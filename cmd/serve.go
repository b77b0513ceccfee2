package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/insight"
	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/model"
	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/store"
	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/triage"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the triage HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		pollCfg := triage.PollConfig{
			Interval:    time.Duration(cfg.Server.PollIntervalMS) * time.Millisecond,
			MaxAttempts: cfg.Server.PollMaxAttempts,
		}
		r := buildRouter(ctx, env, pollCfg)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(),
				time.Duration(cfg.Server.ShutdownTimeoutS)*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// buildRouter assembles the HTTP surface over an initialized environment.
// baseCtx outlives individual requests and bounds the asynchronous triage
// runs spawned by ticket intake.
func buildRouter(baseCtx context.Context, env *triageEnv, pollCfg triage.PollConfig) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/tickets", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			ClientName  string   `json:"client_name"`
			ClientEmail string   `json:"client_email"`
			Subject     string   `json:"subject"`
			Description string   `json:"description"`
			Keywords    []string `json:"keywords"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		// The id is assigned here, before the asynchronous run, so the 202
		// response always carries the handle for the follow-up poll.
		ticket := &model.Ticket{
			ID:          uuid.NewString(),
			ClientName:  body.ClientName,
			ClientEmail: body.ClientEmail,
			Subject:     body.Subject,
			Description: body.Description,
			Keywords:    body.Keywords,
		}

		go func() {
			if _, err := env.Pipeline.Intake(baseCtx, ticket); err != nil {
				zap.L().Error("serve: triage failed",
					zap.String("ticket_id", ticket.ID), zap.Error(err))
			}
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{
			"status":    "accepted",
			"ticket_id": ticket.ID,
		})
	})

	r.Get("/tickets", func(w http.ResponseWriter, req *http.Request) {
		filter := store.TicketFilter{
			Status: model.TicketStatus(req.URL.Query().Get("status")),
		}
		if v := req.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.Limit = n
			}
		}
		if v := req.URL.Query().Get("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.Offset = n
			}
		}

		tickets, err := env.Store.ListTickets(req.Context(), filter)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list tickets"})
			return
		}
		writeJSON(w, http.StatusOK, tickets)
	})

	r.Get("/tickets/{id}", func(w http.ResponseWriter, req *http.Request) {
		ticket, err := triage.WaitForTicket(req.Context(), env.Store, env.Escalator, chi.URLParam(req, "id"), pollCfg)
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "ticket not found"})
			return
		}
		writeJSON(w, http.StatusOK, ticket)
	})

	r.Post("/tickets/{id}/feedback", func(w http.ResponseWriter, req *http.Request) {
		var fb model.Feedback
		if err := json.NewDecoder(req.Body).Decode(&fb); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		outcome, err := env.Pipeline.HandleFeedback(req.Context(), chi.URLParam(req, "id"), fb)
		if err != nil {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, outcome)
	})

	r.Get("/escalations", func(w http.ResponseWriter, req *http.Request) {
		recs, err := env.Store.ListEscalations(req.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list escalations"})
			return
		}
		writeJSON(w, http.StatusOK, recs)
	})

	r.Get("/insights", func(w http.ResponseWriter, req *http.Request) {
		recs, err := env.Store.ListEscalations(req.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list escalations"})
			return
		}
		writeJSON(w, http.StatusOK, insight.Analyze(recs))
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
