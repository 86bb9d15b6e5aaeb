// internal/circulation/repository.go
package circulation

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// LoanSchema creates the loan read model table.
const LoanSchema = `
CREATE TABLE IF NOT EXISTS loans (
	id UUID PRIMARY KEY,
	patron_id UUID NOT NULL,
	item_id UUID NOT NULL,
	item_barcode TEXT NOT NULL,
	checkout_date TIMESTAMPTZ NOT NULL,
	due_date TIMESTAMPTZ NOT NULL,
	status TEXT NOT NULL,
	overridden BOOLEAN NOT NULL DEFAULT FALSE,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) InsertLoan(ctx context.Context, loan *Loan) error {
	query := `
		INSERT INTO loans (id, patron_id, item_id, item_barcode, checkout_date, due_date, status, overridden)
		VALUES (:id, :patron_id, :item_id, :item_barcode, :checkout_date, :due_date, :status, :overridden)
	`
	_, err := r.db.NamedExecContext(ctx, query, loan)
	return err
}
