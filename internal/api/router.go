package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JeanPierreLessa/WallClub-backend-sub002/internal/ingestion"
	"github.com/JeanPierreLessa/WallClub-backend-sub002/internal/ledger"
)

// NewRouter creates the Chi router with all API routes mounted.
func NewRouter(
	txRepo *ledger.TransactionRepo,
	corrRepo *ledger.CorrectionRepo,
	settleRepo *ledger.SettlementRepo,
	failRepo *ledger.FailureRepo,
	ingestionSvc *ingestion.Service,
) http.Handler {
	h := &Handlers{
		txRepo:       txRepo,
		corrRepo:     corrRepo,
		settleRepo:   settleRepo,
		failRepo:     failRepo,
		ingestionSvc: ingestionSvc,
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	r.Route("/api/v1", func(r chi.Router) {
		// Ingestion.
		r.Post("/extracts/ingest", h.IngestExtract)
		r.Post("/corrections/ingest", h.IngestCorrections)

		// Settlements.
		r.Get("/settlements", h.ListSettlements)
		r.Get("/settlements/{nsu}", h.GetSettlement)
		r.Post("/settlements/{nsu}/recompute", h.RecomputeSettlement)

		// Failures.
		r.Get("/failures", h.ListFailures)

		// Dashboard.
		r.Get("/dashboard", h.GetDashboard)
	})

	return r
}
