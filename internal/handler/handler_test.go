package handler

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/carlottery/internal/model"
	"github.com/mmeshcher/carlottery/internal/repository"
	"github.com/mmeshcher/carlottery/internal/service"
	"github.com/mmeshcher/carlottery/internal/ticket"
)

type stubService struct {
	createLotteryResp *model.Lottery
	createLotteryErr  error
	createdLottery    model.Lottery

	lotteriesResp []model.Lottery

	lotteryResp *model.LotteryDetails
	lotteryErr  error

	setActiveErr error
	activeValue  *bool

	deleteErr error

	importResp *model.ImportResult
	importErr  error
	importReq  model.ImportRequest

	previewResp  *model.PreviewResult
	previewErr   error
	previewPrice int64
	previewLotID int64

	manualResp  *model.Ticket
	manualErr   error
	manualPhone string

	ticketsResp []model.Ticket
	ticketsErr  error
	phoneFilter string

	transactionsResp []model.Transaction
}

func (s *stubService) CreateLottery(ctx context.Context, l model.Lottery) (*model.Lottery, error) {
	s.createdLottery = l
	return s.createLotteryResp, s.createLotteryErr
}

func (s *stubService) ListLotteries(ctx context.Context) ([]model.Lottery, error) {
	return s.lotteriesResp, nil
}

func (s *stubService) GetLottery(ctx context.Context, id int64) (*model.LotteryDetails, error) {
	return s.lotteryResp, s.lotteryErr
}

func (s *stubService) SetLotteryActive(ctx context.Context, id int64, active bool) error {
	s.activeValue = &active
	return s.setActiveErr
}

func (s *stubService) DeleteLottery(ctx context.Context, id int64) error {
	return s.deleteErr
}

func (s *stubService) ImportTransactions(ctx context.Context, req model.ImportRequest) (*model.ImportResult, error) {
	s.importReq = req
	return s.importResp, s.importErr
}

func (s *stubService) Preview(rows []model.PreviewRow, ticketPrice int64) (*model.PreviewResult, error) {
	s.previewPrice = ticketPrice
	return s.previewResp, s.previewErr
}

func (s *stubService) PreviewForLottery(ctx context.Context, lotteryID int64, rows []model.PreviewRow) (*model.PreviewResult, error) {
	s.previewLotID = lotteryID
	return s.previewResp, s.previewErr
}

func (s *stubService) CreateManualTicket(ctx context.Context, lotteryID int64, phone string, amount decimal.Decimal) (*model.Ticket, error) {
	s.manualPhone = phone
	return s.manualResp, s.manualErr
}

func (s *stubService) ListTickets(ctx context.Context, lotteryID int64, phone string) ([]model.Ticket, error) {
	s.phoneFilter = phone
	return s.ticketsResp, s.ticketsErr
}

func (s *stubService) ListTransactions(ctx context.Context, lotteryID int64) ([]model.Transaction, error) {
	return s.transactionsResp, nil
}

func newTestHandler(t *testing.T, svc Service) *Handler {
	t.Helper()

	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	return NewHandler(svc, logger, time.UTC)
}

func serve(t *testing.T, svc Service, method, target, body string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	newTestHandler(t, svc).SetupRouter().ServeHTTP(rec, req)

	return rec.Result()
}

func decodeBody(t *testing.T, res *http.Response, v any) {
	t.Helper()
	defer res.Body.Close()

	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

const importBody = `{
	"metadata": {"carId": 1, "employeeName": "Bat", "fileName": "statement.xlsx"},
	"data": [
		{"transactionDate": "2024-03-08T10:00:00Z", "credit": "50000", "description": "99189602 payment", "rowNumber": 9}
	]
}`

func TestImportTransactions_Success(t *testing.T) {
	svc := &stubService{
		importResp: &model.ImportResult{TicketPrice: 20000, TotalTransactions: 1, TotalLotteries: 2},
	}

	res := serve(t, svc, http.MethodPost, "/api/imports", importBody)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type = %q, want application/json", ct)
	}

	var got model.ImportResult
	decodeBody(t, res, &got)
	if got.TotalLotteries != 2 {
		t.Fatalf("totalLotteries = %d, want 2", got.TotalLotteries)
	}

	if svc.importReq.Metadata.LotteryID != 1 || svc.importReq.Metadata.EmployeeName != "Bat" {
		t.Fatalf("metadata not passed through: %+v", svc.importReq.Metadata)
	}
	if len(svc.importReq.Data) != 1 || !svc.importReq.Data[0].Credit.Equal(decimal.NewFromInt(50000)) {
		t.Fatalf("rows not passed through: %+v", svc.importReq.Data)
	}
}

func TestImportTransactions_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"metadata":`},
		{name: "missing carId", body: `{"metadata":{"employeeName":"Bat"},"data":[{"transactionDate":"2024-03-08T10:00:00Z","credit":1}]}`},
		{name: "missing employee", body: `{"metadata":{"carId":1},"data":[{"transactionDate":"2024-03-08T10:00:00Z","credit":1}]}`},
		{name: "negative credit", body: `{"metadata":{"carId":1,"employeeName":"Bat"},"data":[{"transactionDate":"2024-03-08T10:00:00Z","credit":-5}]}`},
		{name: "missing date", body: `{"metadata":{"carId":1,"employeeName":"Bat"},"data":[{"credit":100}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{}

			res := serve(t, svc, http.MethodPost, "/api/imports", tt.body)
			defer res.Body.Close()

			if res.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
			}
		})
	}
}

func TestImportTransactions_EmptyBatch(t *testing.T) {
	svc := &stubService{importResp: &model.ImportResult{TicketPrice: 20000}}

	res := serve(t, svc, http.MethodPost, "/api/imports", `{"metadata":{"carId":1,"employeeName":"Bat"},"data":[]}`)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var got model.ImportResult
	decodeBody(t, res, &got)
	if got.TotalTransactions != 0 || got.TotalLotteries != 0 {
		t.Fatalf("result = %+v, want zero counts", got)
	}
	if len(svc.importReq.Data) != 0 {
		t.Fatalf("rows = %d, want 0", len(svc.importReq.Data))
	}
}

func TestImportTransactions_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "not found", err: repository.ErrLotteryNotFound, status: http.StatusNotFound},
		{name: "invalid price", err: fmt.Errorf("%w: lottery 1", service.ErrInvalidTicketPrice), status: http.StatusUnprocessableEntity},
		{name: "invalid argument", err: fmt.Errorf("row 3: %w", ticket.ErrInvalidArgument), status: http.StatusBadRequest},
		{name: "storage fault", err: fmt.Errorf("%w: %w", service.ErrImportFailed, context.DeadlineExceeded), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{importErr: tt.err}

			res := serve(t, svc, http.MethodPost, "/api/imports", importBody)
			if res.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", res.StatusCode, tt.status)
			}

			var got errorResponse
			decodeBody(t, res, &got)
			if got.Error == "" {
				t.Fatalf("error message is empty")
			}
		})
	}
}

func TestImportTransactions_StorageFaultMessage(t *testing.T) {
	svc := &stubService{
		importErr: fmt.Errorf("%w: %w", service.ErrImportFailed, fmt.Errorf("insert ticket: connection reset by peer")),
	}

	res := serve(t, svc, http.MethodPost, "/api/imports", importBody)

	var got errorResponse
	decodeBody(t, res, &got)
	if got.Error != "import failed: insert ticket: connection reset by peer" {
		t.Fatalf("error = %q", got.Error)
	}
}

func TestPreview_TicketPriceFormats(t *testing.T) {
	tests := []struct {
		name  string
		price string
		want  int64
	}{
		{name: "number", price: `20000`, want: 20000},
		{name: "formatted string", price: `"20,000₮"`, want: 20000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{previewResp: &model.PreviewResult{}}
			body := fmt.Sprintf(`{"transactions":[{"credit":49000,"memo":"99189602"}],"ticketPrice":%s}`, tt.price)

			res := serve(t, svc, http.MethodPost, "/api/imports/preview", body)
			defer res.Body.Close()

			if res.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
			}
			if svc.previewPrice != tt.want {
				t.Fatalf("ticket price = %d, want %d", svc.previewPrice, tt.want)
			}
		})
	}
}

func TestPreview_UsesLotteryPrice(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "price omitted", body: `{"carId":7,"transactions":[{"credit":1}]}`},
		{name: "price null", body: `{"carId":7,"ticketPrice":null,"transactions":[{"credit":1}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{previewResp: &model.PreviewResult{}}

			res := serve(t, svc, http.MethodPost, "/api/imports/preview", tt.body)
			defer res.Body.Close()

			if res.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
			}
			if svc.previewLotID != 7 {
				t.Fatalf("lottery id = %d, want 7", svc.previewLotID)
			}
			if svc.previewPrice != 0 {
				t.Fatalf("explicit price used: %d", svc.previewPrice)
			}
		})
	}
}

func TestPreview_BadRequests(t *testing.T) {
	for _, body := range []string{
		`{"transactions":[{"credit":1}]}`,
		`{"transactions":[{"credit":1}],"ticketPrice":"free"}`,
		`{"transactions":[{"credit":1}],"ticketPrice":null}`,
		`{"transactions":[{"credit":-1}],"ticketPrice":20000}`,
	} {
		res := serve(t, &stubService{}, http.MethodPost, "/api/imports/preview", body)
		res.Body.Close()

		if res.StatusCode != http.StatusBadRequest {
			t.Fatalf("body %s: status = %d, want %d", body, res.StatusCode, http.StatusBadRequest)
		}
	}
}

func TestNormalizeStatement(t *testing.T) {
	cells := make([][]string, 8)
	cells = append(cells,
		[]string{"2024-03-08 10:15:00", "Төв", "100,000.00", "", "50,000.00", "150,000.00", "99189602 payment", "5000123456"},
		[]string{"not a date", "Төв", "", "", "20,000", "", "memo", ""},
		[]string{"Нийт дүн", "", "", "", "70,000", "", "", ""},
	)
	body, _ := json.Marshal(normalizeRequest{Cells: cells})

	req := httptest.NewRequest(http.MethodPost, "/api/statements/normalize", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	newTestHandler(t, &stubService{}).NormalizeStatement(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var got normalizeResponse
	decodeBody(t, res, &got)
	if len(got.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(got.Rows))
	}
	if !got.Rows[0].Credit.Equal(decimal.NewFromInt(50000)) {
		t.Fatalf("credit = %s, want 50000", got.Rows[0].Credit)
	}
	if got.Rows[0].RowNumber != 9 {
		t.Fatalf("row number = %d, want 9", got.Rows[0].RowNumber)
	}
	if len(got.Errors) != 1 || got.Errors[0].Row != 10 {
		t.Fatalf("errors = %+v, want one error for row 10", got.Errors)
	}
}

func TestNormalizeStatement_GzipBody(t *testing.T) {
	cells := make([][]string, 8)
	cells = append(cells,
		[]string{"2024-03-08 10:15:00", "Төв", "100,000.00", "", "50,000.00", "150,000.00", "99189602 payment", "5000123456"},
		[]string{"2024-03-08 11:40:00", "Төв", "150,000.00", "", "20,000.00", "170,000.00", "88112233", "5000123456"},
	)
	body, _ := json.Marshal(normalizeRequest{Cells: cells})

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(body); err != nil {
		t.Fatalf("compress: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("compress: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/statements/normalize", &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()

	newTestHandler(t, &stubService{}).SetupRouter().ServeHTTP(rec, req)

	res := rec.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if enc := res.Header.Get("Content-Encoding"); enc != "gzip" {
		t.Fatalf("content-encoding = %q, want gzip", enc)
	}

	zr, err := gzip.NewReader(res.Body)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	defer zr.Close()

	var got normalizeResponse
	if err := json.NewDecoder(zr).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got.Rows) != 2 || len(got.Errors) != 0 {
		t.Fatalf("rows = %d, errors = %+v, want 2 rows and no errors", len(got.Rows), got.Errors)
	}
	if got.Rows[1].Description != "88112233" {
		t.Fatalf("description = %q, want 88112233", got.Rows[1].Description)
	}
}

func TestNormalizeStatement_CorruptGzipBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/statements/normalize", strings.NewReader(`{"cells":[]}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	rec := httptest.NewRecorder()

	newTestHandler(t, &stubService{}).SetupRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCreateLottery(t *testing.T) {
	svc := &stubService{
		createLotteryResp: &model.Lottery{ID: 3, Name: "Prius 60", Price: "15,000₮", TicketPrice: 15000},
	}

	res := serve(t, svc, http.MethodPost, "/api/lotteries",
		`{"name":"Prius 60","accountNumber":"5000123456","price":"15,000₮","totalTickets":5000}`)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusCreated)
	}

	var got model.Lottery
	decodeBody(t, res, &got)
	if got.ID != 3 || got.TicketPrice != 15000 {
		t.Fatalf("unexpected lottery: %+v", got)
	}
	if !svc.createdLottery.Active {
		t.Fatalf("lottery must be active by default")
	}
}

func TestCreateLottery_Validation(t *testing.T) {
	res := serve(t, &stubService{}, http.MethodPost, "/api/lotteries", `{"name":"Prius 60","price":"15000"}`)
	defer res.Body.Close()

	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestGetLottery(t *testing.T) {
	last := time.Date(2024, 3, 8, 10, 15, 0, 0, time.UTC)
	svc := &stubService{
		lotteryResp: &model.LotteryDetails{
			Lottery:             model.Lottery{ID: 1, Name: "Land Cruiser"},
			LastTransactionDate: &last,
		},
	}

	res := serve(t, svc, http.MethodGet, "/api/lotteries/1", "")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var got model.LotteryDetails
	decodeBody(t, res, &got)
	if got.LastTransactionDate == nil || !got.LastTransactionDate.Equal(last) {
		t.Fatalf("lastTransactionDate = %v, want %v", got.LastTransactionDate, last)
	}
}

func TestGetLottery_NotFoundAndBadID(t *testing.T) {
	svc := &stubService{lotteryErr: repository.ErrLotteryNotFound}

	res := serve(t, svc, http.MethodGet, "/api/lotteries/42", "")
	res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}

	res = serve(t, svc, http.MethodGet, "/api/lotteries/abc", "")
	res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestSetLotteryActive(t *testing.T) {
	svc := &stubService{}

	res := serve(t, svc, http.MethodPatch, "/api/lotteries/1/active", `{"active":false}`)
	res.Body.Close()
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNoContent)
	}
	if svc.activeValue == nil || *svc.activeValue {
		t.Fatalf("active flag not passed through")
	}

	res = serve(t, svc, http.MethodPatch, "/api/lotteries/1/active", `{}`)
	res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestDeleteLottery(t *testing.T) {
	res := serve(t, &stubService{}, http.MethodDelete, "/api/lotteries/1", "")
	res.Body.Close()
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNoContent)
	}
}

func TestListTickets(t *testing.T) {
	phone := "99189602"
	svc := &stubService{
		ticketsResp: []model.Ticket{{ID: 1, Number: "L1-000001", LotteryID: 1, Phone: &phone}},
	}

	res := serve(t, svc, http.MethodGet, "/api/lotteries/1/tickets?phone=99189602", "")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	res.Body.Close()

	if svc.phoneFilter != "99189602" {
		t.Fatalf("phone filter = %q, want 99189602", svc.phoneFilter)
	}
}

func TestListTickets_NoContent(t *testing.T) {
	res := serve(t, &stubService{ticketsResp: []model.Ticket{}}, http.MethodGet, "/api/lotteries/1/tickets", "")
	res.Body.Close()

	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNoContent)
	}
}

func TestCreateManualTicket(t *testing.T) {
	phone := "99189602"
	svc := &stubService{
		manualResp: &model.Ticket{ID: 5, Number: "M1-20240308140509-0A1B2C3D", Phone: &phone, Manual: true},
	}

	res := serve(t, svc, http.MethodPost, "/api/lotteries/1/tickets", `{"phone":"+976 9918 9602"}`)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusCreated)
	}
	res.Body.Close()

	if svc.manualPhone != "+976 9918 9602" {
		t.Fatalf("phone = %q", svc.manualPhone)
	}
}

func TestCreateManualTicket_InvalidPhone(t *testing.T) {
	svc := &stubService{manualErr: service.ErrInvalidPhone}

	res := serve(t, svc, http.MethodPost, "/api/lotteries/1/tickets", `{"phone":"12345"}`)
	res.Body.Close()

	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	res := serve(t, &stubService{}, http.MethodGet, "/metrics", "")
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
}

func TestUnknownRoute(t *testing.T) {
	res := serve(t, &stubService{}, http.MethodGet, "/api/unknown", "")
	res.Body.Close()

	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
}
