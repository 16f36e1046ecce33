// Package model содержит доменные сущности сервиса автолотереи.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lottery описывает розыгрыш автомобиля, привязанный к одному банковскому счёту.
type Lottery struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	AccountNumber string    `json:"accountNumber"`
	AccountHolder string    `json:"accountHolder"`
	Price         string    `json:"price"`
	TicketPrice   int64     `json:"ticketPrice"`
	TotalTickets  int64     `json:"totalTickets"`
	Sold          int64     `json:"sold"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Transaction описывает одну строку банковской выписки, импортированную для лотереи.
type Transaction struct {
	ID              int64           `json:"id"`
	LotteryID       int64           `json:"carId"`
	TransactionDate time.Time       `json:"transactionDate"`
	Branch          string          `json:"branch"`
	Credit          decimal.Decimal `json:"credit"`
	Description     string          `json:"description"`
	CounterAccount  string          `json:"counterAccount"`
	OpeningBalance  decimal.Decimal `json:"openingBalance"`
	ClosingBalance  decimal.Decimal `json:"closingBalance"`
	EmployeeName    string          `json:"employeeName"`
	FileName        string          `json:"fileName"`
	ImportedAt      time.Time       `json:"importedAt"`
	RowNumber       int             `json:"rowNumber"`
}

// Ticket описывает один лотерейный билет.
type Ticket struct {
	ID            int64           `json:"id"`
	Number        string          `json:"number"`
	CreatedAt     time.Time       `json:"createdAt"`
	LotteryID     int64           `json:"carId"`
	TransactionID *int64          `json:"transactionId,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Phone         *string         `json:"phone,omitempty"`
	Manual        bool            `json:"manual"`
}

// ImportRow содержит нормализованные поля одной строки выписки.
type ImportRow struct {
	TransactionDate time.Time       `json:"transactionDate"`
	Branch          string          `json:"branch"`
	Credit          decimal.Decimal `json:"credit"`
	Description     string          `json:"description"`
	CounterAccount  string          `json:"counterAccount"`
	OpeningBalance  decimal.Decimal `json:"openingBalance"`
	ClosingBalance  decimal.Decimal `json:"closingBalance"`
	RowNumber       int             `json:"rowNumber"`
}

// ImportMetadata описывает параметры пакетного импорта.
type ImportMetadata struct {
	LotteryID     int64      `json:"carId"`
	EmployeeName  string     `json:"employeeName"`
	FileName      string     `json:"fileName,omitempty"`
	LastSavedDate *time.Time `json:"lastSavedDate,omitempty"`
}

// ImportRequest описывает пакет строк выписки для импорта.
type ImportRequest struct {
	Metadata ImportMetadata `json:"metadata"`
	Data     []ImportRow    `json:"data"`
}

// SkipReason описывает причину, по которой строка не принесла билетов.
type SkipReason string

const (
	SkipReasonDuplicate    SkipReason = "duplicate"
	SkipReasonInsufficient SkipReason = "amount insufficient"
	SkipReasonNoPhone      SkipReason = "no phone number found"
)

// SkippedRow описывает строку, пропущенную при импорте.
type SkippedRow struct {
	RowNumber   int             `json:"rowNumber"`
	Reason      SkipReason      `json:"reason"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
	TicketCount int             `json:"ticketCount"`
}

// ImportResult содержит итог пакетного импорта.
type ImportResult struct {
	TicketPrice             int64         `json:"ticketPrice"`
	TotalTransactions       int           `json:"totalTransactions"`
	TransactionsCreated     int           `json:"transactionsCreated"`
	TransactionsWithLottery int           `json:"transactionsWithLottery"`
	TotalLotteries          int           `json:"totalLotteries"`
	SkippedTransactions     int           `json:"skippedTransactions"`
	SkippedDuplicate        int           `json:"skippedDuplicate"`
	SkippedInsufficient     int           `json:"skippedInsufficient"`
	SkippedNoPhone          int           `json:"skippedNoPhone"`
	SkippedReasons          []string      `json:"skippedReasons"`
	Transactions            []Transaction `json:"transactions"`
	Lotteries               []Ticket      `json:"lotteries"`
	SkippedDetails          []SkippedRow  `json:"skippedDetails"`
}

// PreviewRow содержит минимальные поля строки для предварительного расчёта.
type PreviewRow struct {
	Credit decimal.Decimal `json:"credit"`
	Memo   string          `json:"memo"`
}

// PreviewDetail описывает расчёт по одной строке предпросмотра.
type PreviewDetail struct {
	Index       int             `json:"index"`
	Credit      decimal.Decimal `json:"credit"`
	Memo        string          `json:"memo"`
	GrossAmount int64           `json:"grossAmount"`
	TicketCount int             `json:"ticketCount"`
	Valid       bool            `json:"valid"`
}

// PreviewSummary содержит агрегаты предпросмотра.
type PreviewSummary struct {
	TotalTransactions   int   `json:"totalTransactions"`
	ValidTransactions   int   `json:"validTransactions"`
	SkippedTransactions int   `json:"skippedTransactions"`
	TotalLotteries      int   `json:"totalLotteries"`
	TicketPrice         int64 `json:"ticketPrice"`
}

// PreviewResult содержит результат предпросмотра пакета.
type PreviewResult struct {
	Summary PreviewSummary  `json:"summary"`
	Preview []PreviewDetail `json:"preview"`
}

// LotteryDetails дополняет лотерею датой последней импортированной транзакции.
type LotteryDetails struct {
	Lottery
	LastTransactionDate *time.Time `json:"lastTransactionDate,omitempty"`
}
