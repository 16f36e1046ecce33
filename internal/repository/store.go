package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/carlottery/internal/model"
)

// Store описывает операции, выполняемые внутри одной транзакции БД.
type Store interface {
	// LockLottery блокирует строку лотереи до конца транзакции и возвращает её.
	LockLottery(ctx context.Context, id int64) (*model.Lottery, error)
	CountTickets(ctx context.Context, lotteryID int64) (int64, error)
	// TransactionExists проверяет наличие транзакции с той же датой, суммой и назначением.
	TransactionExists(ctx context.Context, lotteryID int64, row model.ImportRow) (bool, error)
	InsertTransaction(ctx context.Context, t *model.Transaction) error
	InsertTicket(ctx context.Context, t *model.Ticket) error
	IncrementSold(ctx context.Context, lotteryID, n int64) error
}

type txStore struct {
	tx pgx.Tx
}

func (s *txStore) LockLottery(ctx context.Context, id int64) (*model.Lottery, error) {
	// Блокируем строку лотереи, чтобы параллельные импорты не выдали одинаковые номера билетов.
	return scanLottery(s.tx.QueryRow(ctx,
		`SELECT `+lotteryColumns+` FROM lotteries WHERE id = $1 FOR UPDATE`,
		id,
	))
}

func (s *txStore) CountTickets(ctx context.Context, lotteryID int64) (int64, error) {
	var n int64
	err := s.tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM tickets WHERE lottery_id = $1`,
		lotteryID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count tickets: %w", err)
	}
	return n, nil
}

func (s *txStore) TransactionExists(ctx context.Context, lotteryID int64, row model.ImportRow) (bool, error) {
	var exists bool
	err := s.tx.QueryRow(ctx,
		`SELECT EXISTS (
		     SELECT 1 FROM transactions
		     WHERE lottery_id = $1 AND transaction_date = $2 AND credit = $3 AND description = $4
		 )`,
		lotteryID, row.TransactionDate, toCents(row.Credit), row.Description,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check duplicate transaction: %w", err)
	}
	return exists, nil
}

func (s *txStore) InsertTransaction(ctx context.Context, t *model.Transaction) error {
	err := s.tx.QueryRow(ctx,
		`INSERT INTO transactions (lottery_id, transaction_date, branch, credit, description, counter_account,
		                           opening_balance, closing_balance, employee_name, file_name, source_row)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, imported_at`,
		t.LotteryID, t.TransactionDate, t.Branch, toCents(t.Credit), t.Description, t.CounterAccount,
		toCents(t.OpeningBalance), toCents(t.ClosingBalance), t.EmployeeName, t.FileName, t.RowNumber,
	).Scan(&t.ID, &t.ImportedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *txStore) InsertTicket(ctx context.Context, t *model.Ticket) error {
	err := s.tx.QueryRow(ctx,
		`INSERT INTO tickets (number, lottery_id, transaction_id, amount, phone, manual)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		t.Number, t.LotteryID, t.TransactionID, toCents(t.Amount), t.Phone, t.Manual,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateTicketNumber, t.Number)
		}
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

func (s *txStore) IncrementSold(ctx context.Context, lotteryID, n int64) error {
	tag, err := s.tx.Exec(ctx,
		`UPDATE lotteries SET sold = sold + $2 WHERE id = $1`,
		lotteryID, n,
	)
	if err != nil {
		return fmt.Errorf("increment sold: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLotteryNotFound
	}
	return nil
}
