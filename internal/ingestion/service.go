package ingestion

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JeanPierreLessa/WallClub-backend-sub002/internal/domain"
	"github.com/JeanPierreLessa/WallClub-backend-sub002/internal/ledger"
	"github.com/JeanPierreLessa/WallClub-backend-sub002/internal/valuation"
	"github.com/JeanPierreLessa/WallClub-backend-sub002/pkg/logging"
)

// ErrUnknownNSU is returned when a recompute targets a transaction that was
// never ingested.
var ErrUnknownNSU = errors.New("unknown nsu")

// IngestResult is returned from a successful extract ingestion.
type IngestResult struct {
	BatchID          string `json:"batch_id"`
	RecordsIngested  int    `json:"records_ingested"`
	SettlementsSaved int    `json:"settlements_saved"`
	Failures         int    `json:"failures"`
	AlreadyIngested  bool   `json:"already_ingested,omitempty"`
}

// CorrectionsResult is returned from a corrections ingestion.
type CorrectionsResult struct {
	Applied    int `json:"applied"`
	Recomputed int `json:"recomputed"`
	Failures   int `json:"failures"`
}

// Service ingests extract and correction files and drives the valuation of
// every affected transaction. A record that cannot be valued is persisted as
// a ProcessingFailure and never produces a partial settlement row.
type Service struct {
	txRepo     *ledger.TransactionRepo
	corrRepo   *ledger.CorrectionRepo
	settleRepo *ledger.SettlementRepo
	failRepo   *ledger.FailureRepo
	calc       *valuation.Calculator
	locks      *ledger.KeyMutex
	log        *slog.Logger
}

func NewService(
	txRepo *ledger.TransactionRepo,
	corrRepo *ledger.CorrectionRepo,
	settleRepo *ledger.SettlementRepo,
	failRepo *ledger.FailureRepo,
	calc *valuation.Calculator,
) *Service {
	return &Service{
		txRepo:     txRepo,
		corrRepo:   corrRepo,
		settleRepo: settleRepo,
		failRepo:   failRepo,
		calc:       calc,
		locks:      ledger.NewKeyMutex(),
		log:        logging.Component("ingestion"),
	}
}

// IngestExtract parses an acquirer extract, stores the raw transactions and
// values each one. Re-submitting a byte-identical file is a no-op.
func (s *Service) IngestExtract(data []byte) (*IngestResult, error) {
	hash := fmt.Sprintf("%x", sha256.Sum256(data))
	exists, err := s.txRepo.BatchExistsByHash(hash)
	if err != nil {
		return nil, fmt.Errorf("check hash: %w", err)
	}
	if exists {
		return &IngestResult{AlreadyIngested: true}, nil
	}

	records, err := ParseExtractCSV(data)
	if err != nil {
		return nil, fmt.Errorf("parse extract: %w", err)
	}

	batchID := uuid.NewString()
	if err := s.txRepo.InsertBatch(batchID, "extract", hash, len(records), time.Now()); err != nil {
		return nil, fmt.Errorf("insert batch: %w", err)
	}
	inserted, err := s.txRepo.BulkUpsert(records, batchID)
	if err != nil {
		return nil, fmt.Errorf("store transactions: %w", err)
	}

	saved, failed := 0, 0
	for i := range records {
		if err := s.computeOne(&records[i], batchID); err != nil {
			failed++
			continue
		}
		saved++
	}

	s.log.Info("extract ingested",
		"batch_id", batchID,
		"records", inserted,
		"settlements", saved,
		"failures", failed)

	return &IngestResult{
		BatchID:          batchID,
		RecordsIngested:  inserted,
		SettlementsSaved: saved,
		Failures:         failed,
	}, nil
}

// IngestCorrections stores correction rows and revalues every transaction
// they touch. Corrections for unknown NSUs are stored but not recomputed;
// they take effect once the transaction arrives.
func (s *Service) IngestCorrections(data []byte) (*CorrectionsResult, error) {
	corrections, err := ParseCorrectionsCSV(data)
	if err != nil {
		return nil, fmt.Errorf("parse corrections: %w", err)
	}

	applied, err := s.corrRepo.BulkUpsert(corrections)
	if err != nil {
		return nil, fmt.Errorf("store corrections: %w", err)
	}

	recomputed, failed := 0, 0
	for _, c := range corrections {
		err := s.Recompute(c.NSU)
		if errors.Is(err, ErrUnknownNSU) {
			continue
		}
		if err != nil {
			failed++
			continue
		}
		recomputed++
	}

	s.log.Info("corrections ingested",
		"applied", applied,
		"recomputed", recomputed,
		"failures", failed)

	return &CorrectionsResult{
		Applied:    applied,
		Recomputed: recomputed,
		Failures:   failed,
	}, nil
}

// Recompute revalues one stored transaction with its current correction and
// parameter state.
func (s *Service) Recompute(nsu string) error {
	rec, err := s.txRepo.GetByNSU(nsu)
	if err != nil {
		return fmt.Errorf("load transaction %s: %w", nsu, err)
	}
	if rec == nil {
		return ErrUnknownNSU
	}
	return s.computeOne(rec, "")
}

// RecomputePending revalues up to limit pending settlements. Used by the
// periodic job to pick up payment status changes and newly effective
// parameters.
func (s *Service) RecomputePending(limit int) (int, error) {
	nsus, err := s.settleRepo.PendingNSUs(limit)
	if err != nil {
		return 0, fmt.Errorf("list pending: %w", err)
	}

	records, err := s.txRepo.ListByNSUs(nsus)
	if err != nil {
		return 0, fmt.Errorf("load pending transactions: %w", err)
	}

	done := 0
	for i := range records {
		if err := s.computeOne(&records[i], ""); err != nil {
			s.log.Warn("recompute failed", "nsu", records[i].NSU, "error", err)
			continue
		}
		done++
	}
	return done, nil
}

// computeOne values a single transaction under its per-NSU lock so recompute
// paths never interleave for the same settlement row.
func (s *Service) computeOne(rec *domain.TransactionRecord, batchID string) error {
	s.locks.Lock(rec.NSU)
	defer s.locks.Unlock(rec.NSU)

	corr, err := s.corrRepo.GetByNSU(rec.NSU)
	if err != nil {
		return fmt.Errorf("load correction %s: %w", rec.NSU, err)
	}

	res, err := s.calc.Calculate(rec, corr)
	if err != nil {
		s.recordFailure(rec, batchID, err)
		return err
	}

	if err := s.settleRepo.Upsert(res); err != nil {
		return fmt.Errorf("store settlement %s: %w", rec.NSU, err)
	}
	return nil
}

func (s *Service) recordFailure(rec *domain.TransactionRecord, batchID string, cause error) {
	ftype := domain.FailureCascade
	if errors.Is(cause, valuation.ErrMissingRequiredField) ||
		errors.Is(cause, valuation.ErrBadReferenceInstant) {
		ftype = domain.FailureBadInput
	}

	f := &domain.ProcessingFailure{
		ID:          uuid.NewString(),
		NSU:         rec.NSU,
		StoreID:     rec.StoreID,
		BatchID:     batchID,
		Type:        ftype,
		Description: cause.Error(),
		DetectedAt:  time.Now(),
	}
	if err := s.failRepo.Insert(f); err != nil {
		s.log.Error("persist failure", "nsu", rec.NSU, "error", err)
	}
	s.log.Warn("transaction not valued", "nsu", rec.NSU, "type", string(ftype), "error", cause)
}
