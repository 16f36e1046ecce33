// Package statement преобразует строки банковской выписки в нормализованные записи импорта.
package statement

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/carlottery/internal/model"
	"github.com/mmeshcher/carlottery/internal/validation"
)

// HeaderRows задаёт количество строк шапки выписки перед первой строкой данных.
const HeaderRows = 8

// Индексы колонок выписки.
const (
	colDate           = 0
	colBranch         = 1
	colOpeningBalance = 2
	colCredit         = 4
	colClosingBalance = 5
	colDescription    = 6
	colCounterAccount = 7
)

var totalTokens = []string{"нийт", "total"}

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"02.01.2006 15:04:05",
}

// ErrInvalidDate возвращается, если ячейку даты не удалось разобрать.
var ErrInvalidDate = errors.New("invalid transaction date")

// RowError описывает строку выписки, которую не удалось преобразовать.
type RowError struct {
	Row int   `json:"row"`
	Err error `json:"-"`
}

// Error реализует интерфейс error.
func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

// Unwrap возвращает исходную ошибку.
func (e RowError) Unwrap() error {
	return e.Err
}

// MapRows преобразует ячейки выписки в строки импорта.
// Строки шапки, итоговые строки и строки без зачисления пропускаются.
func MapRows(cells [][]string, loc *time.Location) ([]model.ImportRow, []RowError) {
	if loc == nil {
		loc = time.Local
	}

	var (
		rows []model.ImportRow
		errs []RowError
	)

	for i := HeaderRows; i < len(cells); i++ {
		rowNumber := i + 1
		row, ok, err := mapRow(cells[i], rowNumber, loc)
		if err != nil {
			errs = append(errs, RowError{Row: rowNumber, Err: err})
			continue
		}
		if ok {
			rows = append(rows, row)
		}
	}

	return rows, errs
}

func mapRow(cells []string, rowNumber int, loc *time.Location) (model.ImportRow, bool, error) {
	first := cell(cells, colDate)
	if first == "" || isTotalRow(first) {
		return model.ImportRow{}, false, nil
	}

	credit, err := validation.ParseAmount(cell(cells, colCredit))
	if errors.Is(err, validation.ErrEmptyAmount) {
		return model.ImportRow{}, false, nil
	}
	if err != nil {
		return model.ImportRow{}, false, fmt.Errorf("credit: %w", err)
	}
	if !credit.IsPositive() {
		return model.ImportRow{}, false, nil
	}

	date, err := parseDate(first, loc)
	if err != nil {
		return model.ImportRow{}, false, err
	}

	opening, err := optionalAmount(cell(cells, colOpeningBalance))
	if err != nil {
		return model.ImportRow{}, false, fmt.Errorf("opening balance: %w", err)
	}
	closing, err := optionalAmount(cell(cells, colClosingBalance))
	if err != nil {
		return model.ImportRow{}, false, fmt.Errorf("closing balance: %w", err)
	}

	return model.ImportRow{
		TransactionDate: date,
		Branch:          cell(cells, colBranch),
		Credit:          credit,
		Description:     cell(cells, colDescription),
		CounterAccount:  cell(cells, colCounterAccount),
		OpeningBalance:  opening,
		ClosingBalance:  closing,
		RowNumber:       rowNumber,
	}, true, nil
}

func cell(cells []string, idx int) string {
	if idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}

func isTotalRow(s string) bool {
	lower := strings.ToLower(s)
	for _, token := range totalTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func optionalAmount(s string) (decimal.Decimal, error) {
	d, err := validation.ParseAmount(s)
	if errors.Is(err, validation.ErrEmptyAmount) {
		return d, nil
	}
	return d, err
}
