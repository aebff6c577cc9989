package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// TransactionRow mirrors the transactions table.
type TransactionRow struct {
	ID            int64
	Fingerprint   string
	OperationTime string
	PaymentTime   string
	Account       string
	Amount        string
	Category      string
	Description   string
}

type InsertTransactionParams struct {
	Fingerprint   string
	OperationTime string
	PaymentTime   string
	Account       string
	Amount        string
	Category      string
	Description   string
}

const insertTransaction = `
INSERT OR IGNORE INTO transactions (
    fingerprint, operation_time, payment_time, account, amount, category, description
) VALUES (?, ?, ?, ?, ?, ?, ?)
`

// InsertTransaction stores a row unless its fingerprint already exists and
// reports whether a row was written.
func (q *Queries) InsertTransaction(ctx context.Context, arg InsertTransactionParams) (bool, error) {
	res, err := q.db.ExecContext(ctx, insertTransaction,
		arg.Fingerprint,
		arg.OperationTime,
		arg.PaymentTime,
		arg.Account,
		arg.Amount,
		arg.Category,
		arg.Description,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

const listTransactions = `
SELECT id, fingerprint, operation_time, payment_time, account, amount, category, description
FROM transactions
ORDER BY id
`

func (q *Queries) ListTransactions(ctx context.Context) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransactionRow
	for rows.Next() {
		var i TransactionRow
		if err := rows.Scan(
			&i.ID,
			&i.Fingerprint,
			&i.OperationTime,
			&i.PaymentTime,
			&i.Account,
			&i.Amount,
			&i.Category,
			&i.Description,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countTransactions = `SELECT COUNT(*) FROM transactions`

func (q *Queries) CountTransactions(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countTransactions)
	var count int64
	err := row.Scan(&count)
	return count, err
}
