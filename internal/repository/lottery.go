package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/carlottery/internal/model"
	"github.com/mmeshcher/carlottery/internal/validation"
)

const lotteryColumns = `id, name, account_number, account_holder, price, total_tickets, sold, active, created_at`

// scanLottery считывает лотерею и нормализует строковую цену билета в целое число.
// Некорректная цена оставляет TicketPrice равным нулю, решение принимает сервис.
func scanLottery(row pgx.Row) (*model.Lottery, error) {
	var l model.Lottery
	err := row.Scan(&l.ID, &l.Name, &l.AccountNumber, &l.AccountHolder, &l.Price,
		&l.TotalTickets, &l.Sold, &l.Active, &l.CreatedAt)
	if err != nil {
		if notFound(err) {
			return nil, ErrLotteryNotFound
		}
		return nil, fmt.Errorf("scan lottery: %w", err)
	}

	if price, err := validation.ParseTicketPrice(l.Price); err == nil {
		l.TicketPrice = price
	}

	return &l, nil
}

// CreateLottery сохраняет новую лотерею и заполняет её идентификатор.
func (r *PostgresRepository) CreateLottery(ctx context.Context, l *model.Lottery) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO lotteries (name, account_number, account_holder, price, total_tickets, active)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, sold, created_at`,
		l.Name, l.AccountNumber, l.AccountHolder, l.Price, l.TotalTickets, l.Active,
	).Scan(&l.ID, &l.Sold, &l.CreatedAt)
	if err != nil {
		return fmt.Errorf("create lottery: %w", err)
	}
	return nil
}

// GetLottery возвращает лотерею по идентификатору.
func (r *PostgresRepository) GetLottery(ctx context.Context, id int64) (*model.Lottery, error) {
	return scanLottery(r.pool.QueryRow(ctx,
		`SELECT `+lotteryColumns+` FROM lotteries WHERE id = $1`,
		id,
	))
}

// ListLotteries возвращает все лотереи, начиная с последних созданных.
func (r *PostgresRepository) ListLotteries(ctx context.Context) ([]model.Lottery, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+lotteryColumns+` FROM lotteries ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("select lotteries: %w", err)
	}
	defer rows.Close()

	var res []model.Lottery
	for rows.Next() {
		l, err := scanLottery(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// SetLotteryActive включает или выключает лотерею.
func (r *PostgresRepository) SetLotteryActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE lotteries SET active = $2 WHERE id = $1`,
		id, active,
	)
	if err != nil {
		return fmt.Errorf("update lottery: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLotteryNotFound
	}
	return nil
}

// DeleteLottery удаляет лотерею вместе с её билетами и транзакциями.
func (r *PostgresRepository) DeleteLottery(ctx context.Context, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM tickets WHERE lottery_id = $1`, id); err != nil {
		return fmt.Errorf("delete tickets: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM transactions WHERE lottery_id = $1`, id); err != nil {
		return fmt.Errorf("delete transactions: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM lotteries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lottery: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLotteryNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// LastTransactionDate возвращает дату последней импортированной транзакции лотереи.
func (r *PostgresRepository) LastTransactionDate(ctx context.Context, lotteryID int64) (*time.Time, error) {
	var last *time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT MAX(transaction_date) FROM transactions WHERE lottery_id = $1`,
		lotteryID,
	).Scan(&last)
	if err != nil {
		return nil, fmt.Errorf("select last transaction date: %w", err)
	}
	return last, nil
}

// ListTickets возвращает билеты лотереи, при непустом phone только билеты этого номера.
func (r *PostgresRepository) ListTickets(ctx context.Context, lotteryID int64, phone string) ([]model.Ticket, error) {
	query := `SELECT id, number, created_at, lottery_id, transaction_id, amount, phone, manual
		 FROM tickets
		 WHERE lottery_id = $1`
	args := []any{lotteryID}

	if phone != "" {
		query += ` AND phone = $2`
		args = append(args, phone)
	}
	query += ` ORDER BY id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select tickets: %w", err)
	}
	defer rows.Close()

	var res []model.Ticket
	for rows.Next() {
		var (
			t           model.Ticket
			amountCents int64
		)
		if err := rows.Scan(&t.ID, &t.Number, &t.CreatedAt, &t.LotteryID, &t.TransactionID,
			&amountCents, &t.Phone, &t.Manual); err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		t.Amount = fromCents(amountCents)
		res = append(res, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// ListTransactions возвращает импортированные транзакции лотереи в порядке выписки.
func (r *PostgresRepository) ListTransactions(ctx context.Context, lotteryID int64) ([]model.Transaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, lottery_id, transaction_date, branch, credit, description, counter_account,
		        opening_balance, closing_balance, employee_name, file_name, imported_at, source_row
		 FROM transactions
		 WHERE lottery_id = $1
		 ORDER BY transaction_date, id`,
		lotteryID,
	)
	if err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	defer rows.Close()

	var res []model.Transaction
	for rows.Next() {
		var (
			t                        model.Transaction
			credit, opening, closing int64
		)
		if err := rows.Scan(&t.ID, &t.LotteryID, &t.TransactionDate, &t.Branch, &credit, &t.Description,
			&t.CounterAccount, &opening, &closing, &t.EmployeeName, &t.FileName, &t.ImportedAt, &t.RowNumber); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Credit = fromCents(credit)
		t.OpeningBalance = fromCents(opening)
		t.ClosingBalance = fromCents(closing)
		res = append(res, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}
