package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/agriguard/subsidy-cli/internal/model"
	"github.com/agriguard/subsidy-cli/internal/risk"
	"github.com/agriguard/subsidy-cli/internal/seed"
	"github.com/agriguard/subsidy-cli/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the kiosk evaluation HTTP server",
	Long: `Serve claim evaluation over HTTP for the kiosk frontend.

Endpoints:
  POST /api/evaluate  evaluate one claim
  GET  /health        liveness check

Examples:
  subsidy-cli serve
  subsidy-cli serve --demo   # in-memory store with a seeded registry`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Bool("demo", false, "use an in-memory store seeded with synthetic data")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	if err := risk.ValidateConfig(cfg.Risk); err != nil {
		return err
	}
	tables, err := loadTables()
	if err != nil {
		return err
	}

	var st store.Store
	if demo, _ := cmd.Flags().GetBool("demo"); demo {
		st = store.NewMemory()
		if err := seed.Populate(ctx, st, seed.DefaultOptions()); err != nil {
			return err
		}
	} else {
		st, err = openStore(ctx)
		if err != nil {
			return err
		}
	}
	defer st.Close()

	engine := risk.New(st, tables, cfg.Risk)
	srv := &evalServer{engine: engine, store: st}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(),
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(rateLimit(rate.Limit(cfg.Server.RatePerSecond), cfg.Server.RateBurst))

	r.Get("/health", srv.handleHealth)
	r.Post("/api/evaluate", srv.handleEvaluate)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("serve: listening", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return eris.Wrap(err, "serve: listen")
	case sig := <-stop:
		zap.L().Info("serve: shutting down", zap.String("signal", sig.String()))
	case <-ctx.Done():
		zap.L().Info("serve: context cancelled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return eris.Wrap(httpSrv.Shutdown(shutdownCtx), "serve: shutdown")
}

func allowedOrigins() []string {
	if len(cfg.Server.AllowedOrigins) > 0 {
		return cfg.Server.AllowedOrigins
	}
	return []string{"*"}
}

// rateLimit applies a single shared token bucket across all clients. The
// kiosk deployment sits behind one gateway IP, so per-client buckets would
// not add anything.
func rateLimit(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(limit, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type evalServer struct {
	engine *risk.Engine
	store  store.Store
}

// evaluateRequest is the kiosk's claim submission payload.
type evaluateRequest struct {
	FarmerID     string  `json:"farmer_id"`
	DealerID     string  `json:"dealer_id"`
	Crop         string  `json:"crop"`
	Village      string  `json:"village,omitempty"`
	LandHectares float64 `json:"land_hectares,omitempty"`
}

// evaluateResponse wraps the risk result with a server-assigned evaluation id
// so the kiosk receipt and the audit log line can be matched up later.
type evaluateResponse struct {
	EvaluationID string `json:"evaluation_id"`
	model.RiskResult
}

func (s *evalServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *evalServer) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.FarmerID == "" || req.DealerID == "" || req.Crop == "" {
		writeError(w, http.StatusBadRequest, "farmer_id, dealer_id, and crop are required")
		return
	}

	evalID := uuid.NewString()
	claim := model.ClaimInput{
		FarmerID:     req.FarmerID,
		DealerID:     req.DealerID,
		Crop:         req.Crop,
		Village:      req.Village,
		LandHectares: req.LandHectares,
	}

	res, err := s.engine.Evaluate(r.Context(), claim)
	if err != nil {
		zap.L().Error("serve: evaluation failed",
			zap.String("evaluation_id", evalID),
			zap.String("farmer_id", req.FarmerID),
			zap.String("dealer_id", req.DealerID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "evaluation failed")
		return
	}

	zap.L().Info("serve: claim evaluated",
		zap.String("evaluation_id", evalID),
		zap.String("farmer_id", req.FarmerID),
		zap.String("dealer_id", req.DealerID),
		zap.Int("risk_score", res.RiskScore),
		zap.String("decision", string(res.Decision)),
	)

	writeJSON(w, http.StatusOK, evaluateResponse{EvaluationID: evalID, RiskResult: *res})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("serve: write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
