// Package service реализует бизнес-логику сервиса автолотереи.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/carlottery/internal/metrics"
	"github.com/mmeshcher/carlottery/internal/model"
	"github.com/mmeshcher/carlottery/internal/repository"
	"github.com/mmeshcher/carlottery/internal/ticket"
	"github.com/mmeshcher/carlottery/internal/validation"
)

var (
	// ErrInvalidTicketPrice возвращается, если цена билета лотереи не приводится к положительному числу.
	ErrInvalidTicketPrice = errors.New("invalid ticket price")
	// ErrImportFailed возвращается при сбое хранилища во время импорта; пакет откатывается целиком.
	ErrImportFailed = errors.New("import failed")
	// ErrInvalidLottery возвращается при создании лотереи с некорректными параметрами.
	ErrInvalidLottery = errors.New("invalid lottery")
	// ErrInvalidPhone возвращается, если в номере телефона не найден мобильный номер.
	ErrInvalidPhone = errors.New("invalid phone number")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	WithinTx(ctx context.Context, fn func(repository.Store) error) error
	CreateLottery(ctx context.Context, l *model.Lottery) error
	GetLottery(ctx context.Context, id int64) (*model.Lottery, error)
	ListLotteries(ctx context.Context) ([]model.Lottery, error)
	SetLotteryActive(ctx context.Context, id int64, active bool) error
	DeleteLottery(ctx context.Context, id int64) error
	LastTransactionDate(ctx context.Context, lotteryID int64) (*time.Time, error)
	ListTickets(ctx context.Context, lotteryID int64, phone string) ([]model.Ticket, error)
	ListTransactions(ctx context.Context, lotteryID int64) ([]model.Transaction, error)
}

// Service содержит бизнес-логику сервиса автолотереи.
type Service struct {
	repo       Repository
	logger     *zap.Logger
	maxTickets int
	now        func() time.Time
}

// NewService создаёт новый сервис. maxTickets ограничивает число билетов на одну транзакцию.
func NewService(repo Repository, logger *zap.Logger, maxTickets int) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxTickets <= 0 {
		maxTickets = ticket.DefaultMaxTickets
	}

	return &Service{
		repo:       repo,
		logger:     logger,
		maxTickets: maxTickets,
		now:        time.Now,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// CreateLottery создаёт лотерею после проверки цены и количества билетов.
func (s *Service) CreateLottery(ctx context.Context, l model.Lottery) (*model.Lottery, error) {
	price, err := validation.ParseTicketPrice(l.Price)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTicketPrice, err)
	}

	if strings.TrimSpace(l.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidLottery)
	}
	if l.TotalTickets <= 0 {
		return nil, fmt.Errorf("%w: total tickets must be positive", ErrInvalidLottery)
	}

	if err := s.repo.CreateLottery(ctx, &l); err != nil {
		return nil, err
	}
	l.TicketPrice = price

	s.logger.Info("lottery created", zap.Int64("lotteryID", l.ID), zap.String("name", l.Name))

	return &l, nil
}

// GetLottery возвращает лотерею и дату последней импортированной транзакции.
func (s *Service) GetLottery(ctx context.Context, id int64) (*model.LotteryDetails, error) {
	l, err := s.repo.GetLottery(ctx, id)
	if err != nil {
		return nil, err
	}

	last, err := s.repo.LastTransactionDate(ctx, id)
	if err != nil {
		return nil, err
	}

	return &model.LotteryDetails{Lottery: *l, LastTransactionDate: last}, nil
}

// ListLotteries возвращает список лотерей.
func (s *Service) ListLotteries(ctx context.Context) ([]model.Lottery, error) {
	return s.repo.ListLotteries(ctx)
}

// SetLotteryActive включает или выключает лотерею.
func (s *Service) SetLotteryActive(ctx context.Context, id int64, active bool) error {
	return s.repo.SetLotteryActive(ctx, id, active)
}

// DeleteLottery удаляет лотерею вместе с её транзакциями и билетами.
func (s *Service) DeleteLottery(ctx context.Context, id int64) error {
	if err := s.repo.DeleteLottery(ctx, id); err != nil {
		return err
	}
	s.logger.Info("lottery deleted", zap.Int64("lotteryID", id))
	return nil
}

// ListTickets возвращает билеты лотереи, при непустом phone только билеты этого номера.
func (s *Service) ListTickets(ctx context.Context, lotteryID int64, phone string) ([]model.Ticket, error) {
	if phone != "" {
		normalized, ok := validation.ExtractPhone(phone)
		if !ok {
			return nil, ErrInvalidPhone
		}
		phone = normalized
	}
	return s.repo.ListTickets(ctx, lotteryID, phone)
}

// ListTransactions возвращает импортированные транзакции лотереи.
func (s *Service) ListTransactions(ctx context.Context, lotteryID int64) ([]model.Transaction, error) {
	return s.repo.ListTransactions(ctx, lotteryID)
}

// CreateManualTicket выдаёт один билет вручную, без исходной транзакции.
// Нулевая сумма заменяется ценой билета лотереи.
func (s *Service) CreateManualTicket(ctx context.Context, lotteryID int64, phone string, amount decimal.Decimal) (*model.Ticket, error) {
	normalized, ok := validation.ExtractPhone(phone)
	if !ok {
		return nil, ErrInvalidPhone
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount must not be negative", ticket.ErrInvalidArgument)
	}

	var res *model.Ticket
	err := s.repo.WithinTx(ctx, func(store repository.Store) error {
		l, err := store.LockLottery(ctx, lotteryID)
		if err != nil {
			return err
		}

		t := model.Ticket{
			Number:    ticket.RandomNumber(l.ID, s.now()),
			LotteryID: l.ID,
			Amount:    amount,
			Phone:     &normalized,
			Manual:    true,
		}
		if t.Amount.IsZero() {
			t.Amount = decimal.NewFromInt(l.TicketPrice)
		}

		if err := store.InsertTicket(ctx, &t); err != nil {
			return err
		}
		if err := store.IncrementSold(ctx, l.ID, 1); err != nil {
			return err
		}

		res = &t
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.TicketIssued()
	s.logger.Info("manual ticket issued",
		zap.Int64("lotteryID", lotteryID),
		zap.String("number", res.Number),
	)

	return res, nil
}
