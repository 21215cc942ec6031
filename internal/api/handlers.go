package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JeanPierreLessa/WallClub-backend-sub002/internal/domain"
	"github.com/JeanPierreLessa/WallClub-backend-sub002/internal/ingestion"
	"github.com/JeanPierreLessa/WallClub-backend-sub002/internal/ledger"
	"github.com/JeanPierreLessa/WallClub-backend-sub002/pkg/logging"
)

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	txRepo       *ledger.TransactionRepo
	corrRepo     *ledger.CorrectionRepo
	settleRepo   *ledger.SettlementRepo
	failRepo     *ledger.FailureRepo
	ingestionSvc *ingestion.Service
}

// --- helpers ---

var apiLog = logging.Component("api")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		apiLog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02", s)
		if err != nil {
			return nil
		}
	}
	return &t
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return v
}

func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return nil, false
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required: "+err.Error())
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "read file: "+err.Error())
		return nil, false
	}
	return data, true
}

// --- IngestExtract ---

func (h *Handlers) IngestExtract(w http.ResponseWriter, r *http.Request) {
	data, ok := readUpload(w, r)
	if !ok {
		return
	}

	result, err := h.ingestionSvc.IngestExtract(data)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// --- IngestCorrections ---

func (h *Handlers) IngestCorrections(w http.ResponseWriter, r *http.Request) {
	data, ok := readUpload(w, r)
	if !ok {
		return
	}

	result, err := h.ingestionSvc.IngestCorrections(data)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// --- ListSettlements ---

func (h *Handlers) ListSettlements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ledger.SettlementFilter{
		StoreID:          q.Get("store_id"),
		Mode:             q.Get("mode"),
		ReceivableStatus: q.Get("status"),
		Approval:         q.Get("approval"),
		From:             parseTime(q.Get("from")),
		To:               parseTime(q.Get("to")),
		Page:             parseIntDefault(q.Get("page"), 1),
		Limit:            parseIntDefault(q.Get("limit"), 50),
	}

	results, total, err := h.settleRepo.List(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"settlements": results,
		"total":       total,
		"page":        filter.Page,
		"limit":       filter.Limit,
	})
}

// --- GetSettlement ---

func (h *Handlers) GetSettlement(w http.ResponseWriter, r *http.Request) {
	nsu := chi.URLParam(r, "nsu")
	if nsu == "" {
		writeError(w, http.StatusBadRequest, "nsu is required")
		return
	}

	res, err := h.settleRepo.GetByNSU(nsu)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if res == nil {
		writeError(w, http.StatusNotFound, "settlement not found")
		return
	}

	txn, err := h.txRepo.GetByNSU(nsu)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	corr, err := h.corrRepo.GetByNSU(nsu)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"settlement":  res,
		"transaction": txn,
		"correction":  corr,
	})
}

// --- RecomputeSettlement ---

func (h *Handlers) RecomputeSettlement(w http.ResponseWriter, r *http.Request) {
	nsu := chi.URLParam(r, "nsu")
	if nsu == "" {
		writeError(w, http.StatusBadRequest, "nsu is required")
		return
	}

	err := h.ingestionSvc.Recompute(nsu)
	if errors.Is(err, ingestion.ErrUnknownNSU) {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	res, err := h.settleRepo.GetByNSU(nsu)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settlement": res})
}

// --- ListFailures ---

func (h *Handlers) ListFailures(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var failures []domain.ProcessingFailure
	var err error
	if batchID := q.Get("batch_id"); batchID != "" {
		failures, err = h.failRepo.ListByBatch(batchID)
	} else {
		failures, err = h.failRepo.ListRecent(parseIntDefault(q.Get("limit"), 100))
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"failures": failures,
		"count":    len(failures),
	})
}

// --- GetDashboard ---

func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.settleRepo.Summary()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	txCount, err := h.txRepo.Count()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	recentFailures, err := h.failRepo.ListRecent(20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transactions":    map[string]int{"total": txCount},
		"settlements":     summary,
		"recent_failures": recentFailures,
	})
}
