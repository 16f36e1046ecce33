// Package ticket содержит расчёт количества билетов и генерацию их номеров.
package ticket

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// DefaultMaxTickets ограничивает число билетов, выдаваемых по одной транзакции.
const DefaultMaxTickets = 5000

// ErrInvalidArgument возвращается при некорректных входных данных расчёта.
var ErrInvalidArgument = errors.New("invalid argument")

// feeDivisor одновременно восстанавливает комиссию процессинга 1% и даёт допуск 1%.
var feeDivisor = decimal.RequireFromString("0.98")

// Calculation содержит результат расчёта билетов по одной сумме.
type Calculation struct {
	TicketCount int             `json:"ticketCount"`
	GrossAmount decimal.Decimal `json:"grossAmount"`
	NetAmount   decimal.Decimal `json:"netAmount"`
	TicketPrice decimal.Decimal `json:"ticketPrice"`
}

// Calculate рассчитывает количество билетов по сумме зачисления за вычетом комиссии.
func Calculate(netAmount, ticketPrice float64, maxTickets int) (Calculation, error) {
	if math.IsNaN(netAmount) || math.IsInf(netAmount, 0) {
		return Calculation{}, fmt.Errorf("%w: net amount must be finite, got %v", ErrInvalidArgument, netAmount)
	}
	if math.IsNaN(ticketPrice) || math.IsInf(ticketPrice, 0) {
		return Calculation{}, fmt.Errorf("%w: ticket price must be finite, got %v", ErrInvalidArgument, ticketPrice)
	}

	return CalculateDecimal(decimal.NewFromFloat(netAmount), decimal.NewFromFloat(ticketPrice), maxTickets)
}

// CalculateDecimal выполняет тот же расчёт для сумм, уже представленных в decimal.
func CalculateDecimal(netAmount, ticketPrice decimal.Decimal, maxTickets int) (Calculation, error) {
	if netAmount.IsNegative() {
		return Calculation{}, fmt.Errorf("%w: net amount must not be negative, got %s", ErrInvalidArgument, netAmount)
	}
	if !ticketPrice.IsPositive() {
		return Calculation{}, fmt.Errorf("%w: ticket price must be positive, got %s", ErrInvalidArgument, ticketPrice)
	}
	if maxTickets <= 0 {
		return Calculation{}, fmt.Errorf("%w: max tickets must be positive, got %d", ErrInvalidArgument, maxTickets)
	}

	gross := netAmount.Div(feeDivisor).Floor()

	res := Calculation{
		GrossAmount: gross,
		NetAmount:   netAmount,
		TicketPrice: ticketPrice,
	}

	if gross.LessThan(ticketPrice) {
		return res, nil
	}

	count := gross.Div(ticketPrice).Floor()
	if count.GreaterThan(decimal.NewFromInt(int64(maxTickets))) {
		res.TicketCount = maxTickets
		return res, nil
	}

	res.TicketCount = int(count.IntPart())
	return res, nil
}
