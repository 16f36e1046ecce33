package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrEmptyAmount возвращается, если в строке нет ни одной цифры.
	ErrEmptyAmount = errors.New("empty amount")
	// ErrInvalidAmount возвращается, если строку не удалось разобрать как сумму.
	ErrInvalidAmount = errors.New("invalid amount")
)

// ParseAmount разбирает денежную сумму из выписки или карточки лотереи.
// Допускаются символы валют, пробелы и запятые-разделители разрядов.
func ParseAmount(s string) (decimal.Decimal, error) {
	var b strings.Builder
	hasDigit := false

	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
			b.WriteRune(r)
		case r == '.':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			b.WriteRune(r)
		}
	}

	if !hasDigit {
		return decimal.Zero, ErrEmptyAmount
	}

	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	return d, nil
}

// ParseTicketPrice приводит отформатированную цену билета к целому положительному числу.
func ParseTicketPrice(s string) (int64, error) {
	d, err := ParseAmount(s)
	if err != nil {
		return 0, err
	}

	price := d.IntPart()
	if price <= 0 {
		return 0, fmt.Errorf("%w: ticket price must be positive, got %q", ErrInvalidAmount, s)
	}

	return price, nil
}
