package handler

import (
	"encoding/json"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/carlottery/internal/model"
)

type createLotteryRequest struct {
	Name          string `json:"name"`
	AccountNumber string `json:"accountNumber"`
	AccountHolder string `json:"accountHolder"`
	Price         string `json:"price"`
	TotalTickets  int64  `json:"totalTickets"`
	Active        *bool  `json:"active"`
}

func (req *createLotteryRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&req.AccountNumber, validation.Length(0, 64)),
		validation.Field(&req.AccountHolder, validation.Length(0, 200)),
		validation.Field(&req.Price, validation.Required),
		validation.Field(&req.TotalTickets, validation.Required, validation.Min(int64(1))),
	)
}

type setActiveRequest struct {
	Active *bool `json:"active"`
}

func (req *setActiveRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Active, validation.NotNil),
	)
}

type importRequest struct {
	Metadata model.ImportMetadata `json:"metadata"`
	Data     []model.ImportRow    `json:"data"`
}

func (req *importRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Metadata, validation.By(validateMetadata)),
		validation.Field(&req.Data, validation.By(validateImportRows)),
	)
}

func validateMetadata(value interface{}) error {
	m, ok := value.(model.ImportMetadata)
	if !ok {
		return errors.New("must be an object")
	}
	return validation.ValidateStruct(
		&m,
		validation.Field(&m.LotteryID, validation.Required, validation.Min(int64(1))),
		validation.Field(&m.EmployeeName, validation.Required, validation.Length(1, 100)),
		validation.Field(&m.FileName, validation.Length(0, 255)),
	)
}

func validateImportRows(value interface{}) error {
	rows, _ := value.([]model.ImportRow)
	for i, row := range rows {
		if row.TransactionDate.IsZero() {
			return fmt.Errorf("row %d: transaction date is required", i+1)
		}
		if !row.Credit.IsPositive() {
			return fmt.Errorf("row %d: credit must be positive", i+1)
		}
	}
	return nil
}

type previewRequest struct {
	LotteryID    int64              `json:"carId"`
	TicketPrice  json.RawMessage    `json:"ticketPrice"`
	Transactions []model.PreviewRow `json:"transactions"`
}

func (req *previewRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.LotteryID, validation.Min(int64(0))),
		validation.Field(&req.TicketPrice, validation.By(func(value interface{}) error {
			raw, _ := value.(json.RawMessage)
			if !hasTicketPrice(raw) && req.LotteryID == 0 {
				return errors.New("ticketPrice or carId is required")
			}
			return nil
		})),
		validation.Field(&req.Transactions, validation.By(validatePreviewRows)),
	)
}

// hasTicketPrice сообщает, передана ли цена билета; null считается отсутствием цены.
func hasTicketPrice(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

func validatePreviewRows(value interface{}) error {
	rows, _ := value.([]model.PreviewRow)
	for i, row := range rows {
		if row.Credit.IsNegative() {
			return fmt.Errorf("row %d: credit must not be negative", i+1)
		}
	}
	return nil
}

type normalizeRequest struct {
	Cells [][]string `json:"cells"`
}

func (req *normalizeRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Cells, validation.Required),
	)
}

type manualTicketRequest struct {
	Phone  string          `json:"phone"`
	Amount decimal.Decimal `json:"amount"`
}

func (req *manualTicketRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Phone, validation.Required, validation.Length(1, 32)),
		validation.Field(&req.Amount, validation.By(func(value interface{}) error {
			if d, ok := value.(decimal.Decimal); ok && d.IsNegative() {
				return errors.New("must not be negative")
			}
			return nil
		})),
	)
}
