package ledger

import (
	"github.com/financeiro-leve/ledger-go/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpandInstallments turns a template transaction plus an installment
// count into the records the store absorbs as one batch.
//
// For count == 1 the result is the template itself as a single
// non-installment record. For count > 1, record i carries the template's
// dates advanced by i whole calendar months and an amount equal to the
// template's total divided evenly by count. The remainder of an uneven
// division is NOT redistributed, so for totals not divisible by count the
// installment amounts do not sum back to the face value; callers that
// need the exact total must reconstruct it from totalInstallments.
//
// Every record gets a fresh identity; siblings of one expansion share a
// generated group id. Month arithmetic normalizes end-of-month overflow
// (Jan 31 + 1 month lands in early March), matching the original ledger.
func ExpandInstallments(template domain.Transaction, count int) ([]domain.Transaction, error) {
	if count < 1 {
		return nil, &domain.ErrValidation{Field: "installments", Message: "must be at least 1"}
	}

	if count == 1 {
		tx := template
		tx.ID = uuid.New().String()
		tx.IsInstallment = false
		tx.InstallmentNumber = 0
		tx.TotalInstallments = 0
		tx.GroupID = ""
		return []domain.Transaction{tx}, nil
	}

	groupID := uuid.New().String()
	perRecord := template.Amount.Div(decimal.NewFromInt(int64(count)))

	records := make([]domain.Transaction, 0, count)
	for i := 0; i < count; i++ {
		tx := template
		tx.ID = uuid.New().String()
		tx.Amount = perRecord
		tx.Date = template.Date.AddDate(0, i, 0)
		tx.DueDate = template.DueDate.AddDate(0, i, 0)
		tx.IsInstallment = true
		tx.InstallmentNumber = i + 1
		tx.TotalInstallments = count
		tx.GroupID = groupID
		records = append(records, tx)
	}
	return records, nil
}
