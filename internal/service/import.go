package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/carlottery/internal/metrics"
	"github.com/mmeshcher/carlottery/internal/model"
	"github.com/mmeshcher/carlottery/internal/repository"
	"github.com/mmeshcher/carlottery/internal/ticket"
	"github.com/mmeshcher/carlottery/internal/validation"
)

// ImportTransactions импортирует пакет строк выписки и выдаёт билеты по квалифицирующим платежам.
// Пакет обрабатывается в одной транзакции БД: любая ошибка откатывает все строки пакета.
// Дубликаты и строки без билетов не являются ошибками и попадают в итог импорта.
func (s *Service) ImportTransactions(ctx context.Context, req model.ImportRequest) (*model.ImportResult, error) {
	start := time.Now()
	meta := req.Metadata

	var res *model.ImportResult
	err := s.repo.WithinTx(ctx, func(store repository.Store) error {
		// Транзакция может быть повторена целиком, поэтому итог собирается заново на каждой попытке.
		r, err := s.importBatch(ctx, store, meta, req.Data)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		metrics.ObserveImport(metrics.ImportCounts{}, time.Since(start), err)

		if errors.Is(err, repository.ErrLotteryNotFound) ||
			errors.Is(err, ErrInvalidTicketPrice) ||
			errors.Is(err, ticket.ErrInvalidArgument) {
			return nil, err
		}

		s.logger.Error("import rolled back",
			zap.Int64("lotteryID", meta.LotteryID),
			zap.String("file", meta.FileName),
			zap.Int("rows", len(req.Data)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrImportFailed, err)
	}

	metrics.ObserveImport(metrics.ImportCounts{
		WithTickets:  res.TransactionsWithLottery,
		Duplicate:    res.SkippedDuplicate,
		Insufficient: res.SkippedInsufficient,
		NoPhone:      res.SkippedNoPhone,
		Tickets:      res.TotalLotteries,
	}, time.Since(start), nil)

	fields := []zap.Field{
		zap.Int64("lotteryID", meta.LotteryID),
		zap.String("employee", meta.EmployeeName),
		zap.String("file", meta.FileName),
		zap.Int("rows", res.TotalTransactions),
		zap.Int("transactions", res.TransactionsCreated),
		zap.Int("tickets", res.TotalLotteries),
		zap.Int("duplicates", res.SkippedDuplicate),
		zap.Int("insufficient", res.SkippedInsufficient),
		zap.Int("noPhone", res.SkippedNoPhone),
		zap.Duration("duration", time.Since(start)),
	}
	if meta.LastSavedDate != nil {
		fields = append(fields, zap.Time("lastSavedDate", *meta.LastSavedDate))
	}
	s.logger.Info("import committed", fields...)

	return res, nil
}

func (s *Service) importBatch(ctx context.Context, store repository.Store, meta model.ImportMetadata, rows []model.ImportRow) (*model.ImportResult, error) {
	lottery, err := store.LockLottery(ctx, meta.LotteryID)
	if err != nil {
		return nil, err
	}
	if lottery.TicketPrice <= 0 {
		return nil, fmt.Errorf("%w: lottery %d has price %q", ErrInvalidTicketPrice, lottery.ID, lottery.Price)
	}

	issued, err := store.CountTickets(ctx, lottery.ID)
	if err != nil {
		return nil, err
	}
	seq := ticket.NewSequence(lottery.ID, issued)
	price := decimal.NewFromInt(lottery.TicketPrice)

	res := &model.ImportResult{
		TicketPrice:       lottery.TicketPrice,
		TotalTransactions: len(rows),
		SkippedReasons:    []string{},
		Transactions:      []model.Transaction{},
		Lotteries:         []model.Ticket{},
		SkippedDetails:    []model.SkippedRow{},
	}

	for i, row := range rows {
		if row.RowNumber == 0 {
			row.RowNumber = i + 1
		}

		dup, err := store.TransactionExists(ctx, lottery.ID, row)
		if err != nil {
			return nil, err
		}
		if dup {
			skipRow(res, row, model.SkipReasonDuplicate, 0)
			continue
		}

		tx := model.Transaction{
			LotteryID:       lottery.ID,
			TransactionDate: row.TransactionDate,
			Branch:          row.Branch,
			Credit:          row.Credit,
			Description:     row.Description,
			CounterAccount:  row.CounterAccount,
			OpeningBalance:  row.OpeningBalance,
			ClosingBalance:  row.ClosingBalance,
			EmployeeName:    meta.EmployeeName,
			FileName:        meta.FileName,
			RowNumber:       row.RowNumber,
		}
		if err := store.InsertTransaction(ctx, &tx); err != nil {
			return nil, err
		}
		res.Transactions = append(res.Transactions, tx)
		res.TransactionsCreated++

		calc, err := ticket.CalculateDecimal(row.Credit, price, s.maxTickets)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row.RowNumber, err)
		}
		if calc.TicketCount == 0 {
			skipRow(res, row, model.SkipReasonInsufficient, 0)
			continue
		}

		phone, ok := validation.ExtractPhone(row.Description)
		if !ok {
			skipRow(res, row, model.SkipReasonNoPhone, calc.TicketCount)
			continue
		}

		txID := tx.ID
		for n := 0; n < calc.TicketCount; n++ {
			p := phone
			t := model.Ticket{
				Number:        seq.Next(),
				LotteryID:     lottery.ID,
				TransactionID: &txID,
				Amount:        row.Credit,
				Phone:         &p,
			}
			if err := store.InsertTicket(ctx, &t); err != nil {
				return nil, err
			}
			res.Lotteries = append(res.Lotteries, t)
		}
		res.TransactionsWithLottery++
	}

	res.TotalLotteries = len(res.Lotteries)
	if sold := seq.Issued() - issued; sold > 0 {
		if err := store.IncrementSold(ctx, lottery.ID, sold); err != nil {
			return nil, err
		}
		s.logger.Debug("ticket sequence advanced",
			zap.Int64("lotteryID", lottery.ID),
			zap.Int64("from", issued),
			zap.Int64("to", seq.Issued()),
		)
	}

	return res, nil
}

// skipRow учитывает строку, не принёсшую билетов.
func skipRow(res *model.ImportResult, row model.ImportRow, reason model.SkipReason, ticketCount int) {
	switch reason {
	case model.SkipReasonDuplicate:
		res.SkippedDuplicate++
	case model.SkipReasonInsufficient:
		res.SkippedInsufficient++
	case model.SkipReasonNoPhone:
		res.SkippedNoPhone++
	}
	res.SkippedTransactions++

	res.SkippedReasons = append(res.SkippedReasons, fmt.Sprintf("row %d: %s", row.RowNumber, reason))
	res.SkippedDetails = append(res.SkippedDetails, model.SkippedRow{
		RowNumber:   row.RowNumber,
		Reason:      reason,
		Credit:      row.Credit,
		Description: row.Description,
		TicketCount: ticketCount,
	})
}
