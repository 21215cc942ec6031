package valuation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/JeanPierreLessa/WallClub-backend-sub002/internal/domain"
)

func TestClassify(t *testing.T) {
	deadline := time.Date(2025, 10, 24, 0, 0, 0, 0, time.UTC)
	before := deadline.AddDate(0, 0, -2)
	after := deadline.AddDate(0, 0, 2)

	dec := decimal.RequireFromString

	tests := []struct {
		name string
		in   statusInput
		want domain.Classification
	}{
		{
			"unparseable date wins over everything",
			statusInput{dateOK: false, pending: true},
			domain.ClassDateError,
		},
		{
			"cancelled record is not payable",
			statusInput{dateOK: true, cancelled: true, owed: dec("10"), expected: deadline, reference: before},
			domain.ClassDoNotPay,
		},
		{
			"nothing owed is not payable",
			statusInput{dateOK: true, owed: decimal.Zero, expected: deadline, reference: before},
			domain.ClassDoNotPay,
		},
		{
			"pending before deadline is scheduled",
			statusInput{dateOK: true, pending: true, owed: dec("10"), expected: deadline, reference: before},
			domain.ClassScheduledReceipt,
		},
		{
			"pending past deadline stays pending",
			statusInput{dateOK: true, pending: true, owed: dec("10"), expected: deadline, reference: after},
			domain.ClassPending,
		},
		{
			"exact receipt on time",
			statusInput{dateOK: true, owed: dec("10"), received: dec("10"), expected: deadline, reference: deadline},
			domain.ClassOnTime,
		},
		{
			"exact receipt late",
			statusInput{dateOK: true, owed: dec("10"), received: dec("10"), expected: deadline, reference: after},
			domain.ClassReceivedLate,
		},
		{
			"overpayment on time",
			statusInput{dateOK: true, owed: dec("10"), received: dec("12"), expected: deadline, reference: before},
			domain.ClassReceivedOverOnTime,
		},
		{
			"overpayment late",
			statusInput{dateOK: true, owed: dec("10"), received: dec("12"), expected: deadline, reference: after},
			domain.ClassReceivedOverLate,
		},
		{
			"underpayment within deadline",
			statusInput{dateOK: true, owed: dec("10"), received: dec("4"), expected: deadline, reference: before},
			domain.ClassPayableWithinDeadline,
		},
		{
			"underpayment late",
			statusInput{dateOK: true, owed: dec("10"), received: dec("4"), expected: deadline, reference: after},
			domain.ClassPayableLate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.in))
		})
	}
}

func TestApprovalFor(t *testing.T) {
	approved := []domain.Classification{
		domain.ClassOnTime, domain.ClassScheduledReceipt,
		domain.ClassPayableWithinDeadline, domain.ClassDoNotPay,
	}
	notApproved := []domain.Classification{
		domain.ClassPending, domain.ClassReceivedLate, domain.ClassPayableLate,
	}
	manual := []domain.Classification{
		domain.ClassReceivedOverOnTime, domain.ClassReceivedOverLate, domain.ClassDateError,
	}

	for _, c := range approved {
		assert.Equal(t, domain.ApprovalApproved, approvalFor(c), string(c))
	}
	for _, c := range notApproved {
		assert.Equal(t, domain.ApprovalNotApproved, approvalFor(c), string(c))
	}
	for _, c := range manual {
		assert.Equal(t, domain.ApprovalManualReview, approvalFor(c), string(c))
	}
}

func TestInferReceivableStatus(t *testing.T) {
	assert.Equal(t, domain.ReceivablePaid, inferReceivableStatus("Pago"))
	assert.Equal(t, domain.ReceivablePaid, inferReceivableStatus("  pago "))
	assert.Equal(t, domain.ReceivablePending, inferReceivableStatus("Pendente"))
	assert.Equal(t, domain.ReceivablePending, inferReceivableStatus(""))
	assert.Equal(t, domain.ReceivablePending, inferReceivableStatus("em análise"))
}
