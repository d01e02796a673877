// Package finance holds the pure money logic of the ledger: balance snapshots,
// order status rules and risk classification. Nothing here does I/O.
package finance

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/models"
)

// Balance is a derived snapshot of what a company owes.
//
//	TotalIssued    = sum of order amounts, every status
//	TotalCollected = sum(Received) - sum(Paid)
//	Outstanding    = TotalIssued - TotalCollected
//
// A positive Outstanding means the company owes the business; negative means
// the company is in credit.
type Balance struct {
	CompanyID      uuid.UUID       `json:"company_id"`
	TotalIssued    decimal.Decimal `json:"total_issued"`
	TotalCollected decimal.Decimal `json:"total_collected"`
	Outstanding    decimal.Decimal `json:"outstanding"`
}

// ComputeBalance reduces orders and transactions into a balance snapshot.
// Rows are trusted to be valid; amounts are not re-checked for sign and
// nothing is rounded.
func ComputeBalance(orders []models.Order, transactions []models.Transaction) Balance {
	issued := decimal.Zero
	for i := range orders {
		issued = issued.Add(orders[i].Amount)
	}

	collected := decimal.Zero
	for i := range transactions {
		collected = collected.Add(signedCollection(&transactions[i]))
	}

	return Balance{
		TotalIssued:    issued,
		TotalCollected: collected,
		Outstanding:    issued.Sub(collected),
	}
}

// Add combines two snapshots componentwise, keeping the receiver's company id
// unless it is unset.
func (b Balance) Add(other Balance) Balance {
	id := b.CompanyID
	if id == uuid.Nil {
		id = other.CompanyID
	}
	return Balance{
		CompanyID:      id,
		TotalIssued:    b.TotalIssued.Add(other.TotalIssued),
		TotalCollected: b.TotalCollected.Add(other.TotalCollected),
		Outstanding:    b.Outstanding.Add(other.Outstanding),
	}
}

// Neg flips the sign of every component, turning a contribution into its
// reversal.
func (b Balance) Neg() Balance {
	return Balance{
		CompanyID:      b.CompanyID,
		TotalIssued:    b.TotalIssued.Neg(),
		TotalCollected: b.TotalCollected.Neg(),
		Outstanding:    b.Outstanding.Neg(),
	}
}

// Equal compares the three money components.
func (b Balance) Equal(other Balance) bool {
	return b.TotalIssued.Equal(other.TotalIssued) &&
		b.TotalCollected.Equal(other.TotalCollected) &&
		b.Outstanding.Equal(other.Outstanding)
}

// OrderContribution is the balance delta a single order adds.
func OrderContribution(order *models.Order) Balance {
	return Balance{
		CompanyID:      order.CompanyID,
		TotalIssued:    order.Amount,
		TotalCollected: decimal.Zero,
		Outstanding:    order.Amount,
	}
}

// TransactionContribution is the balance delta a single transaction adds.
func TransactionContribution(tx *models.Transaction) Balance {
	collected := signedCollection(tx)
	b := Balance{
		TotalIssued:    decimal.Zero,
		TotalCollected: collected,
		Outstanding:    collected.Neg(),
	}
	if tx.CompanyID != nil {
		b.CompanyID = *tx.CompanyID
	}
	return b
}

// GroupByCompany computes one snapshot per company that appears in the rows.
// Transactions without a company are skipped. The result is ordered by
// company id so repeated calls return identical slices.
func GroupByCompany(orders []models.Order, transactions []models.Transaction) []Balance {
	byCompany := make(map[uuid.UUID]Balance)

	for i := range orders {
		id := orders[i].CompanyID
		byCompany[id] = balanceFor(byCompany, id).Add(OrderContribution(&orders[i]))
	}

	for i := range transactions {
		if transactions[i].CompanyID == nil {
			continue
		}
		id := *transactions[i].CompanyID
		byCompany[id] = balanceFor(byCompany, id).Add(TransactionContribution(&transactions[i]))
	}

	out := make([]Balance, 0, len(byCompany))
	for _, b := range byCompany {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].CompanyID[:], out[j].CompanyID[:]) < 0
	})
	return out
}

// EmptyBalance returns a zero snapshot for a company with no rows.
func EmptyBalance(companyID uuid.UUID) Balance {
	return Balance{
		CompanyID:      companyID,
		TotalIssued:    decimal.Zero,
		TotalCollected: decimal.Zero,
		Outstanding:    decimal.Zero,
	}
}

func balanceFor(byCompany map[uuid.UUID]Balance, id uuid.UUID) Balance {
	if b, ok := byCompany[id]; ok {
		return b
	}
	return EmptyBalance(id)
}

func signedCollection(tx *models.Transaction) decimal.Decimal {
	switch tx.Type {
	case models.TransactionReceived:
		return tx.Amount
	case models.TransactionPaid:
		return tx.Amount.Neg()
	default:
		return decimal.Zero
	}
}
