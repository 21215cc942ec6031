package main

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

// Generates a deterministic sample acquirer extract plus a corrections file.
// Run from the repository root:
//
//	go run ./testdata/generate
func main() {
	rng := rand.New(rand.NewSource(42))
	baseDir := findTestdataDir()

	// Date range: 2025-10-01 to 2025-10-14.
	startDate := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	dayRange := 14

	stores := []struct {
		id   string
		name string
	}{
		{"S001", "Loja Centro"},
		{"S002", "Loja Shopping Norte"},
		{"S003", "Quiosque Aeroporto"},
		{"S004", "Loja Online"},
	}
	channels := []struct {
		id   string
		name string
	}{
		{"C1", "POS"},
		{"C2", "Online"},
	}
	brands := []string{"VISA", "MASTERCARD", "ELO", "HIPERCARD"}

	generateExtract(rng, baseDir, startDate, dayRange, stores, channels, brands)
	generateCorrections(rng, baseDir)

	fmt.Println("Test data generation complete.")
}

func generateExtract(
	rng *rand.Rand,
	baseDir string,
	startDate time.Time,
	dayRange int,
	stores []struct{ id, name string },
	channels []struct{ id, name string },
	brands []string,
) {
	f, err := os.Create(filepath.Join(baseDir, "extract.csv"))
	if err != nil {
		panic(err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	w.Write([]string{
		"nsu", "store_id", "store_name", "channel_id", "channel_name",
		"reference_instant", "brand", "purchase_type", "installments",
		"gross_value", "original_value", "split_value", "gross_per_installment",
		"membership_id", "admin_fee_pct", "monthly_fee_pct",
		"approval_status_desc", "payment_status_desc",
		"cancellation_date", "scheduled_payment_date",
	})

	const count = 120
	for i := 1; i <= count; i++ {
		nsu := fmt.Sprintf("%09d", 100000000+i)
		store := stores[rng.Intn(len(stores))]
		channel := channels[rng.Intn(len(channels))]
		brand := brands[rng.Intn(len(brands))]

		day := rng.Intn(dayRange)
		instant := startDate.AddDate(0, 0, day).Add(
			time.Duration(8+rng.Intn(12))*time.Hour +
				time.Duration(rng.Intn(60))*time.Minute +
				time.Duration(rng.Intn(60))*time.Second,
		)

		// Type distribution: 55% credit, 25% debit, 20% pix.
		var purchaseType string
		installments := 1
		roll := rng.Float64()
		switch {
		case roll < 0.55:
			purchaseType = "CREDIT"
			if rng.Float64() < 0.6 {
				installments = 2 + rng.Intn(11)
			}
		case roll < 0.80:
			purchaseType = "DEBIT"
		default:
			purchaseType = "PIX"
		}

		original := round2(20 + rng.Float64()*980)
		gross := original
		if purchaseType == "CREDIT" && installments > 1 {
			// Financed purchases carry interest in the gross value.
			gross = round2(original * (1 + 0.018*float64(installments)))
		}
		perInstallment := round2(gross / float64(installments))

		// 60% of transactions belong to club members.
		membership := ""
		if rng.Float64() < 0.6 {
			membership = fmt.Sprintf("M%05d", 1+rng.Intn(4000))
		}

		adminFee := round2(1.5 + rng.Float64()*1.5)
		monthlyFee := 0.0
		if purchaseType == "CREDIT" && installments > 1 {
			monthlyFee = round2(1.0 + rng.Float64()*1.2)
		}

		// Status distribution: 80% approved pending, 12% paid, 5% cancelled,
		// 3% scheduled payout.
		approval := "Aprovada"
		payment := ""
		cancellation := ""
		scheduled := ""
		sroll := rng.Float64()
		switch {
		case sroll < 0.12:
			payment = "Pago"
		case sroll < 0.17:
			cancellation = instant.AddDate(0, 0, 1+rng.Intn(3)).Format("02/01/2006")
		case sroll < 0.20:
			scheduled = instant.AddDate(0, 0, 5+rng.Intn(10)).Format("02/01/2006")
		}

		w.Write([]string{
			nsu, store.id, store.name, channel.id, channel.name,
			instant.Format("02/01/2006 15:04:05"), brand, purchaseType,
			fmt.Sprintf("%d", installments),
			fmt.Sprintf("%.2f", gross),
			fmt.Sprintf("%.2f", original),
			"0.00",
			fmt.Sprintf("%.2f", perInstallment),
			membership,
			fmt.Sprintf("%.2f", adminFee),
			fmt.Sprintf("%.2f", monthlyFee),
			approval, payment, cancellation, scheduled,
		})
	}

	fmt.Printf("Generated %d extract records -> extract.csv\n", count)
}

func generateCorrections(rng *rand.Rand, baseDir string) {
	f, err := os.Create(filepath.Join(baseDir, "corrections.csv"))
	if err != nil {
		panic(err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	w.Write([]string{"nsu", "paid_value", "paid_scheduled_date", "supplemental_value"})

	// Corrections for a deterministic subset of the generated NSUs.
	count := 0
	for i := 1; i <= 120; i++ {
		if rng.Float64() >= 0.15 {
			continue
		}
		nsu := fmt.Sprintf("%09d", 100000000+i)

		paid := round2(rng.Float64() * 300)
		scheduled := ""
		if rng.Float64() < 0.5 {
			scheduled = time.Date(2025, 10, 24, 0, 0, 0, 0, time.UTC).
				AddDate(0, 0, rng.Intn(14)).Format("02/01/2006")
		}
		supplemental := 0.0
		if rng.Float64() < 0.3 {
			supplemental = round2(rng.Float64() * 20)
		}

		w.Write([]string{
			nsu,
			fmt.Sprintf("%.2f", paid),
			scheduled,
			fmt.Sprintf("%.2f", supplemental),
		})
		count++
	}

	fmt.Printf("Generated %d correction records -> corrections.csv\n", count)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func findTestdataDir() string {
	candidates := []string{
		"testdata",
		"./testdata",
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return c
		}
	}
	return "testdata"
}
