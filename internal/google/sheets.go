package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"sync"

	"buddyboard/internal/config"
	"buddyboard/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	timeLayout = "2006-01-02 15:04:05"
	lastColumn = "N"
)

// ErrRowNotFound is returned when the booking id is absent from column A.
var ErrRowNotFound = errors.New("booking row not found")

var sheetHeaders = []interface{}{
	"ID", "Submitted At", "Status", "Full Name", "Email", "Phone", "Company",
	"Website", "Service", "Budget", "Timeline", "Source", "Message", "Updated At",
}

var rowInRange = regexp.MustCompile(`![A-Z]+(\d+)`)

// SheetsService mirrors bookings into one sheet of a spreadsheet.
// Rows are located by booking id in column A; positions are cached.
type SheetsService struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	rowCache      map[string]int
	cacheMu       sync.RWMutex
}

func NewSheetsService(ctx context.Context, cfg config.GoogleConfig) (*SheetsService, error) {
	// Читаем файл учетных данных сервисного аккаунта
	credentialsJSON, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	jwtConfig, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}

	return newSheetsService(srv, cfg.SpreadsheetID, cfg.SheetName), nil
}

func newSheetsService(srv *sheets.Service, spreadsheetID, sheetName string) *SheetsService {
	if sheetName == "" {
		sheetName = "Bookings"
	}
	return &SheetsService{
		service:       srv,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		rowCache:      make(map[string]int),
	}
}

// ServiceAccountEmail возвращает email сервисного аккаунта
func ServiceAccountEmail(credentialsFile string) (string, error) {
	file, err := os.ReadFile(credentialsFile)
	if err != nil {
		return "", err
	}

	var creds struct {
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(file, &creds); err != nil {
		return "", err
	}
	return creds.ClientEmail, nil
}

func (s *SheetsService) a1(cells string) string {
	return fmt.Sprintf("%s!%s", s.sheetName, cells)
}

// TestConnection проверяет подключение к таблице
func (s *SheetsService) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.a1("A1")).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}

// WarmUpCache rebuilds the id to row index.
func (s *SheetsService) WarmUpCache(ctx context.Context) error {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.a1("A:A")).Context(ctx).Do()
	if err != nil {
		return err
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache = make(map[string]int)

	for i, row := range resp.Values {
		if i == 0 || len(row) == 0 {
			continue
		}
		if id := cellString(row[0]); id != "" {
			s.rowCache[id] = i + 1
		}
	}
	return nil
}

// AppendBooking добавляет новую заявку в конец листа
func (s *SheetsService) AppendBooking(ctx context.Context, booking *models.Booking) error {
	if booking == nil {
		return fmt.Errorf("booking is nil")
	}

	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{bookingRowValues(booking)},
	}

	resp, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, s.a1("A:A"), valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return err
	}

	if resp.Updates != nil {
		if row, ok := rowFromRange(resp.Updates.UpdatedRange); ok {
			s.setCachedRow(booking.ID, row)
		}
	}
	return nil
}

// UpdateBookingRow rewrites every cell of the booking's row.
// A booking without a row is appended.
func (s *SheetsService) UpdateBookingRow(ctx context.Context, booking *models.Booking) error {
	if booking == nil {
		return fmt.Errorf("booking is nil")
	}

	rowIdx, err := s.FindBookingRow(ctx, booking.ID)
	if errors.Is(err, ErrRowNotFound) {
		return s.AppendBooking(ctx, booking)
	}
	if err != nil {
		return err
	}

	rangeData := s.a1(fmt.Sprintf("A%d:%s%d", rowIdx, lastColumn, rowIdx))
	valueRange := &sheets.ValueRange{Values: [][]interface{}{bookingRowValues(booking)}}
	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, rangeData, valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

// DeleteBookingRow clears the row that corresponds to bookingID.
// A row that is already gone is not an error.
func (s *SheetsService) DeleteBookingRow(ctx context.Context, bookingID string) error {
	rowIdx, err := s.FindBookingRow(ctx, bookingID)
	if errors.Is(err, ErrRowNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	rangeData := s.a1(fmt.Sprintf("A%d:%s%d", rowIdx, lastColumn, rowIdx))
	_, err = s.service.Spreadsheets.Values.Clear(s.spreadsheetID, rangeData, &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err == nil {
		s.deleteCacheRow(bookingID)
	}
	return err
}

// FindBookingRow locates the 1-based row of bookingID in column A.
func (s *SheetsService) FindBookingRow(ctx context.Context, bookingID string) (int, error) {
	if bookingID == "" {
		return 0, fmt.Errorf("booking id is required")
	}

	if row, ok := s.getCachedRow(bookingID); ok {
		return row, nil
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.a1("A:A")).Context(ctx).Do()
	if err != nil {
		return 0, err
	}

	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if cellString(row[0]) == bookingID {
			rowIdx := i + 1
			s.setCachedRow(bookingID, rowIdx)
			return rowIdx, nil
		}
	}
	return 0, ErrRowNotFound
}

// ReplaceBookingsSheet полностью перезаписывает лист с заявками
func (s *SheetsService) ReplaceBookingsSheet(ctx context.Context, bookings []models.Booking) error {
	_, err := s.service.Spreadsheets.Values.Clear(s.spreadsheetID, s.a1("A:"+lastColumn), &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to clear bookings sheet: %w", err)
	}

	values := make([][]interface{}, 0, len(bookings)+1)
	values = append(values, sheetHeaders)
	for i := range bookings {
		values = append(values, bookingRowValues(&bookings[i]))
	}

	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, s.a1("A1"), &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update bookings sheet: %w", err)
	}

	s.cacheMu.Lock()
	s.rowCache = make(map[string]int, len(bookings))
	for i, b := range bookings {
		s.rowCache[b.ID] = i + 2 // row 1 holds headers
	}
	s.cacheMu.Unlock()

	return nil
}

func (s *SheetsService) getCachedRow(id string) (int, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	row, ok := s.rowCache[id]
	return row, ok
}

func (s *SheetsService) setCachedRow(id string, row int) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache[id] = row
}

func (s *SheetsService) deleteCacheRow(id string) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	delete(s.rowCache, id)
}

func bookingRowValues(b *models.Booking) []interface{} {
	updated := ""
	if b.UpdatedAt != nil {
		updated = b.UpdatedAt.UTC().Format(timeLayout)
	}
	return []interface{}{
		b.ID,
		b.SubmittedAt.UTC().Format(timeLayout),
		b.Status,
		b.FullName,
		b.Email,
		b.Phone,
		b.Company,
		b.Website,
		models.OptionLabel("_service", b.Service),
		models.OptionLabel("_budget", b.Budget),
		models.OptionLabel("_timeline", b.Timeline),
		models.OptionLabel("_source", b.Source),
		b.Message,
		updated,
	}
}

func rowFromRange(a1 string) (int, bool) {
	m := rowInRange.FindStringSubmatch(a1)
	if len(m) != 2 {
		return 0, false
	}
	row, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return row, true
}

func cellString(v interface{}) string {
	switch c := v.(type) {
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	default:
		return fmt.Sprint(c)
	}
}
