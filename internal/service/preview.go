package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/carlottery/internal/model"
	"github.com/mmeshcher/carlottery/internal/ticket"
)

// PreviewLimit ограничивает число строк с подробным расчётом в предпросмотре.
const PreviewLimit = 10

// Preview рассчитывает число билетов по строкам пакета без обращения к хранилищу.
// Наличие телефона и дубликаты не проверяются, поэтому фактический импорт может выдать меньше билетов.
func (s *Service) Preview(rows []model.PreviewRow, ticketPrice int64) (*model.PreviewResult, error) {
	if ticketPrice <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTicketPrice, ticketPrice)
	}
	price := decimal.NewFromInt(ticketPrice)

	res := &model.PreviewResult{
		Summary: model.PreviewSummary{
			TotalTransactions: len(rows),
			TicketPrice:       ticketPrice,
		},
		Preview: make([]model.PreviewDetail, 0, min(len(rows), PreviewLimit)),
	}

	for i, row := range rows {
		calc, err := ticket.CalculateDecimal(row.Credit, price, s.maxTickets)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}

		valid := calc.TicketCount > 0
		if valid {
			res.Summary.ValidTransactions++
			res.Summary.TotalLotteries += calc.TicketCount
		} else {
			res.Summary.SkippedTransactions++
		}

		if i < PreviewLimit {
			res.Preview = append(res.Preview, model.PreviewDetail{
				Index:       i,
				Credit:      row.Credit,
				Memo:        row.Memo,
				GrossAmount: calc.GrossAmount.IntPart(),
				TicketCount: calc.TicketCount,
				Valid:       valid,
			})
		}
	}

	return res, nil
}

// PreviewForLottery выполняет предпросмотр по цене билета сохранённой лотереи.
func (s *Service) PreviewForLottery(ctx context.Context, lotteryID int64, rows []model.PreviewRow) (*model.PreviewResult, error) {
	l, err := s.repo.GetLottery(ctx, lotteryID)
	if err != nil {
		return nil, err
	}
	if l.TicketPrice <= 0 {
		return nil, fmt.Errorf("%w: lottery %d has price %q", ErrInvalidTicketPrice, l.ID, l.Price)
	}
	return s.Preview(rows, l.TicketPrice)
}
