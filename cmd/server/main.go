package main

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-co-op/gocron/v2"

	"github.com/JeanPierreLessa/WallClub-backend-sub002/internal/api"
	"github.com/JeanPierreLessa/WallClub-backend-sub002/internal/config"
	"github.com/JeanPierreLessa/WallClub-backend-sub002/internal/ingestion"
	"github.com/JeanPierreLessa/WallClub-backend-sub002/internal/ledger"
	"github.com/JeanPierreLessa/WallClub-backend-sub002/internal/params"
	"github.com/JeanPierreLessa/WallClub-backend-sub002/internal/valuation"
	"github.com/JeanPierreLessa/WallClub-backend-sub002/pkg/logging"
)

func main() {
	logging.Setup()
	log := logging.Component("server")
	cfg := config.Load()

	log.Info("initializing database", "path", cfg.DBPath)
	db, err := ledger.InitDB(cfg.DBPath)
	if err != nil {
		log.Error("init db", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := params.CreateTables(db); err != nil {
		log.Error("create parameter tables", "error", err)
		os.Exit(1)
	}

	// Repositories.
	txRepo := ledger.NewTransactionRepo(db)
	corrRepo := ledger.NewCorrectionRepo(db)
	settleRepo := ledger.NewSettlementRepo(db)
	failRepo := ledger.NewFailureRepo(db)
	paramStore := params.NewStore(db)
	planStore := params.NewPlans(db)

	// Services.
	calc := valuation.NewCalculator(paramStore, planStore, settleRepo)
	ingestionSvc := ingestion.NewService(txRepo, corrRepo, settleRepo, failRepo, calc)

	// Seed from testdata if the DB is empty.
	if cfg.SeedOnEmpty {
		if err := seedIfEmpty(txRepo, ingestionSvc, log); err != nil {
			log.Warn("seed skipped", "error", err)
		}
	}

	// Periodic recompute picks up corrections, payment updates and newly
	// effective parameters for still-pending settlements.
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Error("create scheduler", "error", err)
		os.Exit(1)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(cfg.RecomputeInterval),
		gocron.NewTask(func() {
			done, err := ingestionSvc.RecomputePending(500)
			if err != nil {
				log.Error("recompute pending", "error", err)
				return
			}
			if done > 0 {
				log.Info("recomputed pending settlements", "count", done)
			}
		}),
		gocron.WithName("pending_recompute"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Error("register recompute job", "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Shutdown()

	router := api.NewRouter(txRepo, corrRepo, settleRepo, failRepo, ingestionSvc)

	log.Info("WallClub settlement valuation service",
		"port", cfg.Port,
		"api_base", "/api/v1",
		"recompute_interval", cfg.RecomputeInterval.String())

	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// seedIfEmpty ingests the bundled sample extract when the database has no
// transactions yet, so a fresh checkout serves data immediately.
func seedIfEmpty(txRepo *ledger.TransactionRepo, svc *ingestion.Service, log *slog.Logger) error {
	count, err := txRepo.Count()
	if err != nil {
		return err
	}
	if count > 0 {
		log.Info("database already populated", "transactions", count)
		return nil
	}

	candidates := []string{
		filepath.Join("testdata", "extract.csv"),
	}
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		candidates = append(candidates,
			filepath.Join(dir, "testdata", "extract.csv"),
			filepath.Join(dir, "..", "..", "testdata", "extract.csv"),
		)
	}

	var data []byte
	var loadErr error
	for _, path := range candidates {
		data, loadErr = os.ReadFile(path)
		if loadErr == nil {
			log.Info("seeding from extract", "path", path)
			break
		}
	}
	if loadErr != nil {
		return loadErr
	}

	res, err := svc.IngestExtract(data)
	if err != nil {
		return err
	}
	log.Info("seeded",
		"batch_id", res.BatchID,
		"records", res.RecordsIngested,
		"settlements", res.SettlementsSaved,
		"failures", res.Failures)

	// Corrections file is optional.
	if data, err := os.ReadFile(filepath.Join("testdata", "corrections.csv")); err == nil {
		if cres, err := svc.IngestCorrections(data); err == nil {
			log.Info("seeded corrections", "applied", cres.Applied, "recomputed", cres.Recomputed)
		}
	}
	return nil
}
