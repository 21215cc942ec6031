package ingestion

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/JeanPierreLessa/WallClub-backend-sub002/internal/domain"
)

// extractColumns is the fixed column order of the acquirer settlement extract.
const extractColumns = 20

// ParseExtractCSV parses the acquirer settlement extract.
//
// Expected header:
//
//	nsu,store_id,store_name,channel_id,channel_name,reference_instant,brand,
//	purchase_type,installments,gross_value,original_value,split_value,
//	gross_per_installment,membership_id,admin_fee_pct,monthly_fee_pct,
//	approval_status_desc,payment_status_desc,cancellation_date,scheduled_payment_date
func ParseExtractCSV(data []byte) ([]domain.TransactionRecord, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < extractColumns {
		return nil, fmt.Errorf("expected %d columns, got %d", extractColumns, len(header))
	}

	var records []domain.TransactionRecord
	lineNum := 1

	for {
		lineNum++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		installments, err := strconv.Atoi(strings.TrimSpace(row[8]))
		if err != nil {
			return nil, fmt.Errorf("line %d installments: %w", lineNum, err)
		}

		gross, err := parseAmount(row[9])
		if err != nil {
			return nil, fmt.Errorf("line %d gross_value: %w", lineNum, err)
		}
		original, err := parseAmount(row[10])
		if err != nil {
			return nil, fmt.Errorf("line %d original_value: %w", lineNum, err)
		}
		split, err := parseAmount(row[11])
		if err != nil {
			return nil, fmt.Errorf("line %d split_value: %w", lineNum, err)
		}
		perInstallment, err := parseAmount(row[12])
		if err != nil {
			return nil, fmt.Errorf("line %d gross_per_installment: %w", lineNum, err)
		}
		adminFee, err := parseAmount(row[14])
		if err != nil {
			return nil, fmt.Errorf("line %d admin_fee_pct: %w", lineNum, err)
		}
		monthlyFee, err := parseAmount(row[15])
		if err != nil {
			return nil, fmt.Errorf("line %d monthly_fee_pct: %w", lineNum, err)
		}

		rec := domain.TransactionRecord{
			NSU:                  strings.TrimSpace(row[0]),
			StoreID:              strings.TrimSpace(row[1]),
			StoreName:            strings.TrimSpace(row[2]),
			ChannelID:            strings.TrimSpace(row[3]),
			ChannelName:          strings.TrimSpace(row[4]),
			ReferenceInstant:     strings.TrimSpace(row[5]),
			Brand:                strings.TrimSpace(row[6]),
			PurchaseType:         domain.PurchaseType(strings.ToUpper(strings.TrimSpace(row[7]))),
			Installments:         installments,
			GrossValue:           gross,
			OriginalValue:        original,
			SplitValue:           split,
			GrossPerInstallment:  perInstallment,
			MembershipID:         strings.TrimSpace(row[13]),
			AdminFeePct:          adminFee,
			MonthlyFeePct:        monthlyFee,
			ApprovalStatusDesc:   strings.TrimSpace(row[16]),
			PaymentStatusDesc:    strings.TrimSpace(row[17]),
			CancellationDate:     strings.TrimSpace(row[18]),
			ScheduledPaymentDate: strings.TrimSpace(row[19]),
		}
		records = append(records, rec)
	}

	return records, nil
}

// ParseCorrectionsCSV parses the financial-corrections file.
//
// Expected header:
//
//	nsu,paid_value,paid_scheduled_date,supplemental_value
func ParseCorrectionsCSV(data []byte) ([]domain.Correction, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 4 {
		return nil, fmt.Errorf("expected 4 columns, got %d", len(header))
	}

	var corrections []domain.Correction
	lineNum := 1

	for {
		lineNum++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		paid, err := parseAmount(row[1])
		if err != nil {
			return nil, fmt.Errorf("line %d paid_value: %w", lineNum, err)
		}
		supplemental, err := parseAmount(row[3])
		if err != nil {
			return nil, fmt.Errorf("line %d supplemental_value: %w", lineNum, err)
		}

		corrections = append(corrections, domain.Correction{
			NSU:               strings.TrimSpace(row[0]),
			PaidValue:         paid,
			PaidScheduledDate: strings.TrimSpace(row[2]),
			SupplementalValue: supplemental,
		})
	}

	return corrections, nil
}

// parseAmount reads a decimal cell. Empty cells mean zero; the extract uses
// "" for amounts the acquirer did not report.
func parseAmount(cell string) (decimal.Decimal, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(cell)
}
