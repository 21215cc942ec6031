package domain

// ReceivableStatus is the coarse paid/pending label carried on the result.
type ReceivableStatus string

const (
	ReceivablePending ReceivableStatus = "Pendente"
	ReceivablePaid    ReceivableStatus = "Pago"
)

// Classification is the fine-grained payment/receivable state derived by the
// status classifier from date and value comparisons. It is recomputed from
// scratch on every valuation; nothing transitions statefully.
type Classification string

const (
	ClassPending               Classification = "PENDING"
	ClassScheduledReceipt      Classification = "SCHEDULED_RECEIPT"
	ClassOnTime                Classification = "ON_TIME"
	ClassReceivedLate          Classification = "RECEIVED_LATE"
	ClassReceivedOverOnTime    Classification = "RECEIVED_OVER_ON_TIME"
	ClassReceivedOverLate      Classification = "RECEIVED_OVER_LATE"
	ClassPayableWithinDeadline Classification = "PAYABLE_WITHIN_DEADLINE"
	ClassPayableLate           Classification = "PAYABLE_LATE"
	ClassDoNotPay              Classification = "DO_NOT_PAY"
	ClassDateError             Classification = "DATE_ERROR"
)

// Approval is the three-way outcome shown to operations.
type Approval string

const (
	ApprovalApproved     Approval = "Aprovado"
	ApprovalNotApproved  Approval = "Não aprovado"
	ApprovalManualReview Approval = "Analisar manualmente"
)

// Cashback schedule labels. When a concrete payout Friday applies, the field
// carries the "dd/mm/yyyy" date instead of a label.
const (
	CashbackNone      = "Sem cashback"
	CashbackScheduled = "Agendado"
)
