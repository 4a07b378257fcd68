package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tackle-hunger/charity-cli/internal/model"
	"github.com/tackle-hunger/charity-cli/internal/remediate"
	"github.com/tackle-hunger/charity-cli/internal/store"
	"github.com/tackle-hunger/charity-cli/pkg/charityapi"
)

var servePort int

// remediationActive serializes webhook-triggered runs. Remediation writes
// must never interleave, so a second request while one is in flight gets
// a 409 instead of a queue.
var remediationActive atomic.Bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start webhook server for remediation requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		classifier, err := initClassifier("")
		if err != nil {
			return err
		}
		dir := charityapi.NewAdapter(initAPI())
		workflow := remediate.New(dir, classifier, cfg.Remediate.ModifiedBy)

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedMethods: []string{"GET", "POST"},
			AllowedHeaders: []string{"Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/runs", func(w http.ResponseWriter, req *http.Request) {
			runs, err := st.ListRuns(req.Context(), store.RunFilter{
				Mode:  model.Mode(req.URL.Query().Get("mode")),
				Limit: 50,
			})
			if err != nil {
				zap.L().Error("list runs failed", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list runs failed"})
				return
			}
			writeJSON(w, http.StatusOK, runs)
		})

		r.Get("/runs/{id}", func(w http.ResponseWriter, req *http.Request) {
			run, err := st.GetRun(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
				return
			}
			writeJSON(w, http.StatusOK, run)
		})

		r.Post("/webhook/remediate", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Limit int  `json:"limit"`
				Apply bool `json:"apply"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
			limit := body.Limit
			if limit == 0 {
				limit = cfg.Remediate.Limit
			}
			mode := model.ModeDryRun
			if body.Apply {
				mode = model.ModeApply
			}

			if !remediationActive.CompareAndSwap(false, true) {
				writeJSON(w, http.StatusConflict, map[string]string{"error": "a remediation run is already in progress"})
				return
			}

			run := &model.Run{
				ID:        uuid.NewString(),
				Mode:      mode,
				Limit:     limit,
				StartedAt: time.Now().UTC(),
			}

			// Run asynchronously; the run id lets the caller poll /runs/{id}.
			go func() {
				defer remediationActive.Store(false)
				summary, err := workflow.Run(ctx, limit, mode)
				run.Summary = summary
				run.FinishedAt = time.Now().UTC()
				if err != nil {
					zap.L().Error("webhook remediation failed",
						zap.String("run_id", run.ID),
						zap.Error(err),
					)
				}
				if summary == nil {
					return
				}
				if err := persistRun(ctx, st, run); err != nil {
					zap.L().Error("save run failed", zap.String("run_id", run.ID), zap.Error(err))
					return
				}
				zap.L().Info("webhook remediation complete",
					zap.String("run_id", run.ID),
					zap.Int("processed", summary.Processed),
					zap.Int("relocated", summary.Relocated),
				)
			}()

			writeJSON(w, http.StatusAccepted, map[string]string{
				"status": "accepted",
				"run_id": run.ID,
				"mode":   string(mode),
			})
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		// Graceful shutdown, with time for in-flight requests to drain.
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
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

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
