package sheetstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"budget-buddy-backend/internal/models"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// Worksheet names. The workbook mirrors the hosted spreadsheet layout.
const (
	SheetReceipts         = "Receipts"
	SheetBudgets          = "Budgets"
	SheetGoals            = "Goals"
	SheetGoalTransactions = "GoalTransactions"
)

var receiptHeaders = []string{
	"Date", "Merchant", "Address", "Item", "Category",
	"Qty", "Unit Price", "Total Price", "Tax", "Grand Total", "Payment",
}

var budgetHeaders = []string{
	"ID", "Category", "Limit", "Period", "Period Type", "Start Date", "End Date",
}

var goalHeaders = []string{
	"ID", "Name", "Target Amount", "Current Amount", "Target Date",
	"Category", "Goal Type", "Auto Track",
}

var goalTransactionHeaders = []string{"ID", "Goal ID", "Amount", "Date", "Note"}

// ErrSheetNotFound is returned for unknown worksheet names.
var ErrSheetNotFound = fmt.Errorf("worksheet not found")

// Store persists expense rows to an XLSX workbook on disk. It is a
// best-effort row store: every mutation is written through immediately and no
// transactional guarantees are made.
type Store struct {
	mu   sync.Mutex
	path string
	f    *excelize.File
}

// Open loads the workbook at path, creating it with the expected worksheets
// and header rows when absent.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create workbook dir: %w", err)
		}
	}

	var f *excelize.File
	if _, err := os.Stat(path); err == nil {
		f, err = excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("open workbook: %w", err)
		}
	} else {
		f = excelize.NewFile()
		if err := f.SetSheetName("Sheet1", SheetReceipts); err != nil {
			return nil, err
		}
	}

	s := &Store{path: path, f: f}
	for sheet, headers := range map[string][]string{
		SheetReceipts:         receiptHeaders,
		SheetBudgets:          budgetHeaders,
		SheetGoals:            goalHeaders,
		SheetGoalTransactions: goalTransactionHeaders,
	} {
		if err := s.ensureSheet(sheet, headers); err != nil {
			return nil, err
		}
	}
	if err := f.SaveAs(path); err != nil {
		return nil, fmt.Errorf("save workbook: %w", err)
	}
	return s, nil
}

func (s *Store) ensureSheet(sheet string, headers []string) error {
	exists := false
	for _, name := range s.f.GetSheetList() {
		if name == sheet {
			exists = true
			break
		}
	}
	if !exists {
		if _, err := s.f.NewSheet(sheet); err != nil {
			return err
		}
	}
	rows, err := s.f.GetRows(sheet)
	if err != nil {
		return err
	}
	if len(rows) == 0 || !sameHeaders(rows[0], headers) {
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			if err := s.f.SetCellValue(sheet, cell, h); err != nil {
				return err
			}
		}
	}
	return nil
}

func sameHeaders(row, headers []string) bool {
	if len(row) < len(headers) {
		return false
	}
	for i, h := range headers {
		if row[i] != h {
			return false
		}
	}
	return true
}

// Close writes any buffered state and releases the workbook.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.f.Save(); err != nil {
		return err
	}
	return s.f.Close()
}

func (s *Store) save() error {
	if err := s.f.Save(); err != nil {
		return fmt.Errorf("persist workbook: %w", err)
	}
	return nil
}

func (s *Store) hasSheet(sheet string) bool {
	for _, name := range s.f.GetSheetList() {
		if name == sheet {
			return true
		}
	}
	return false
}

// SheetNames lists the worksheets in the workbook.
func (s *Store) SheetNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.GetSheetList()
}

// Rows returns the raw rows of a worksheet, header row included.
func (s *Store) Rows(sheet string) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasSheet(sheet) {
		return nil, ErrSheetNotFound
	}
	return s.f.GetRows(sheet)
}

// UpdateCell writes a single cell ("B3" style reference).
func (s *Store) UpdateCell(sheet, cell string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasSheet(sheet) {
		return ErrSheetNotFound
	}
	if err := s.f.SetCellValue(sheet, cell, value); err != nil {
		return err
	}
	return s.save()
}

// UpdateRow replaces the values of one row. Row numbers are 1-based and the
// header row is protected.
func (s *Store) UpdateRow(sheet string, row int, values []any) error {
	if row <= 1 {
		return fmt.Errorf("row %d is not editable", row)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasSheet(sheet) {
		return ErrSheetNotFound
	}
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		if err := s.f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return s.save()
}

// DeleteRow removes one row. The header row is protected.
func (s *Store) DeleteRow(sheet string, row int) error {
	if row <= 1 {
		return fmt.Errorf("row %d is not deletable", row)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasSheet(sheet) {
		return ErrSheetNotFound
	}
	if err := s.f.RemoveRow(sheet, row); err != nil {
		return err
	}
	return s.save()
}

// AppendRow appends one row after the last used row.
func (s *Store) AppendRow(sheet string, values []any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasSheet(sheet) {
		return ErrSheetNotFound
	}
	if err := s.appendRowLocked(sheet, values); err != nil {
		return err
	}
	return s.save()
}

func (s *Store) appendRowLocked(sheet string, values []any) error {
	rows, err := s.f.GetRows(sheet)
	if err != nil {
		return err
	}
	rowNum := len(rows) + 1
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, rowNum)
		if err := s.f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

// AppendReceipt writes one row per line item, receipt-level fields repeated
// on each row the way the original sheet is laid out.
func (s *Store) AppendReceipt(r models.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tax := ""
	if r.TotalAmounts.Tax != 0 {
		tax = formatAmount(r.TotalAmounts.Tax)
	}

	items := r.LineItems
	if len(items) == 0 {
		items = []models.LineItem{{}}
	}
	for _, item := range items {
		row := []any{
			r.PurchaseDate,
			r.MerchantDetails.Name,
			r.MerchantDetails.Address,
			item.ItemName,
			item.Category,
			item.Quantity,
			item.UnitPrice,
			item.Price,
			tax,
			r.TotalAmounts.Total,
			r.TotalAmounts.PaymentMethod,
		}
		if err := s.appendRowLocked(SheetReceipts, row); err != nil {
			return err
		}
	}
	return s.save()
}

// ListReceipts regroups the flat receipt rows into whole receipts keyed by
// date, merchant and grand total, in first-seen order.
func (s *Store) ListReceipts() ([]models.StoredReceipt, error) {
	s.mu.Lock()
	rows, err := s.f.GetRows(SheetReceipts)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	grouped := make(map[string]*models.StoredReceipt)
	var order []string
	for _, row := range dataRows(rows) {
		date := cellAt(row, 0)
		merchant := cellAt(row, 1)
		total := parseAmount(cellAt(row, 9))
		if merchant == "" && date == "" {
			continue
		}
		key := fmt.Sprintf("%s|%s|%.2f", date, strings.ToLower(merchant), total)
		rec, ok := grouped[key]
		if !ok {
			rec = &models.StoredReceipt{
				Date:       date,
				Merchant:   merchant,
				Address:    cellAt(row, 2),
				GrandTotal: total,
				Tax:        cellAt(row, 8),
				Payment:    cellAt(row, 10),
			}
			grouped[key] = rec
			order = append(order, key)
		}
		if name := strings.TrimSpace(cellAt(row, 3)); name != "" && !strings.EqualFold(name, "TOTAL") {
			rec.Items = append(rec.Items, models.StoredItem{
				Name:      name,
				Category:  cellAt(row, 4),
				Qty:       cellAt(row, 5),
				UnitPrice: cellAt(row, 6),
				Total:     parseAmount(cellAt(row, 7)),
			})
		}
	}

	out := make([]models.StoredReceipt, 0, len(order))
	for _, key := range order {
		out = append(out, *grouped[key])
	}
	return out, nil
}

// ListItemRows returns the per-line-item view the analytics run over. Rows
// with unparsable dates or non-positive amounts are skipped.
func (s *Store) ListItemRows() ([]models.ItemRow, error) {
	s.mu.Lock()
	rows, err := s.f.GetRows(SheetReceipts)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	var out []models.ItemRow
	for _, row := range dataRows(rows) {
		date, err := models.ParseReceiptDate(cellAt(row, 0))
		if err != nil {
			continue
		}
		amount := parseAmount(cellAt(row, 7))
		if amount <= 0 {
			continue
		}
		category := cellAt(row, 4)
		if category == "" {
			category = "Other"
		}
		out = append(out, models.ItemRow{Date: date, Category: category, Amount: amount})
	}
	return out, nil
}

// SaveBudget inserts a budget or updates the row with the same id.
func (s *Store) SaveBudget(b models.Budget) (models.Budget, error) {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	row := []any{b.ID, b.Category, b.Limit, b.Period, b.PeriodType, b.StartDate, b.EndDate}
	if err := s.upsertByID(SheetBudgets, b.ID, row); err != nil {
		return models.Budget{}, err
	}
	return b, nil
}

// ListBudgets returns every stored budget.
func (s *Store) ListBudgets() ([]models.Budget, error) {
	s.mu.Lock()
	rows, err := s.f.GetRows(SheetBudgets)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	var out []models.Budget
	for _, row := range dataRows(rows) {
		if cellAt(row, 0) == "" {
			continue
		}
		out = append(out, models.Budget{
			ID:         cellAt(row, 0),
			Category:   cellAt(row, 1),
			Limit:      parseAmount(cellAt(row, 2)),
			Period:     defaultString(cellAt(row, 3), "monthly"),
			PeriodType: defaultString(cellAt(row, 4), "calendar_month"),
			StartDate:  cellAt(row, 5),
			EndDate:    cellAt(row, 6),
		})
	}
	return out, nil
}

// DeleteBudget removes the budget row with the given id.
func (s *Store) DeleteBudget(id string) error {
	return s.deleteByID(SheetBudgets, id)
}

// SaveGoal inserts a goal or updates the row with the same id.
func (s *Store) SaveGoal(g models.Goal) (models.Goal, error) {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	row := []any{
		g.ID, g.Name, g.TargetAmount, g.CurrentAmount, g.TargetDate,
		g.Category, defaultString(g.GoalType, "savings"), strconv.FormatBool(g.AutoTrack),
	}
	if err := s.upsertByID(SheetGoals, g.ID, row); err != nil {
		return models.Goal{}, err
	}
	return g, nil
}

// ListGoals returns every stored goal, progress left for the caller.
func (s *Store) ListGoals() ([]models.Goal, error) {
	s.mu.Lock()
	rows, err := s.f.GetRows(SheetGoals)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	var out []models.Goal
	for _, row := range dataRows(rows) {
		if cellAt(row, 0) == "" {
			continue
		}
		out = append(out, models.Goal{
			ID:            cellAt(row, 0),
			Name:          cellAt(row, 1),
			TargetAmount:  parseAmount(cellAt(row, 2)),
			CurrentAmount: parseAmount(cellAt(row, 3)),
			TargetDate:    cellAt(row, 4),
			Category:      cellAt(row, 5),
			GoalType:      defaultString(cellAt(row, 6), "savings"),
			AutoTrack:     strings.EqualFold(cellAt(row, 7), "true"),
		})
	}
	return out, nil
}

// DeleteGoal removes the goal row with the given id.
func (s *Store) DeleteGoal(id string) error {
	return s.deleteByID(SheetGoals, id)
}

// AppendGoalTransaction records a manual contribution toward a goal.
func (s *Store) AppendGoalTransaction(tx models.GoalTransaction) (models.GoalTransaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	if tx.Date == "" {
		tx.Date = time.Now().Format("02-01-2006")
	}
	if err := s.AppendRow(SheetGoalTransactions, []any{tx.ID, tx.GoalID, tx.Amount, tx.Date, tx.Note}); err != nil {
		return models.GoalTransaction{}, err
	}
	return tx, nil
}

// ListGoalTransactions returns the contributions recorded for one goal.
func (s *Store) ListGoalTransactions(goalID string) ([]models.GoalTransaction, error) {
	s.mu.Lock()
	rows, err := s.f.GetRows(SheetGoalTransactions)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	var out []models.GoalTransaction
	for _, row := range dataRows(rows) {
		if cellAt(row, 1) != goalID {
			continue
		}
		out = append(out, models.GoalTransaction{
			ID:     cellAt(row, 0),
			GoalID: cellAt(row, 1),
			Amount: parseAmount(cellAt(row, 2)),
			Date:   cellAt(row, 3),
			Note:   cellAt(row, 4),
		})
	}
	return out, nil
}

// CalculateBudgetSpending sums receipt line totals for a category within the
// budget's period window.
func (s *Store) CalculateBudgetSpending(category, period, periodType, startDate, endDate string) (float64, error) {
	items, err := s.ListItemRows()
	if err != nil {
		return 0, err
	}

	from, to := budgetWindow(period, periodType, startDate, endDate, time.Now())
	total := 0.0
	for _, item := range items {
		if !strings.EqualFold(item.Category, category) {
			continue
		}
		if !from.IsZero() && item.Date.Before(from) {
			continue
		}
		if !to.IsZero() && item.Date.After(to) {
			continue
		}
		total += item.Amount
	}
	return total, nil
}

// budgetWindow resolves a budget period definition into a concrete [from,to]
// range. A zero time means unbounded on that side.
func budgetWindow(period, periodType, startDate, endDate string, now time.Time) (time.Time, time.Time) {
	switch periodType {
	case "rolling":
		days := 30
		if period == "weekly" {
			days = 7
		}
		return now.AddDate(0, 0, -days), time.Time{}
	case "calendar_week":
		weekday := int(now.Weekday())
		if weekday == 0 { // weeks start Monday
			weekday = 7
		}
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
			AddDate(0, 0, -(weekday - 1))
		return start, time.Time{}
	case "custom":
		var from, to time.Time
		if t, err := models.ParseReceiptDate(startDate); err == nil {
			from = t
		}
		if t, err := models.ParseReceiptDate(endDate); err == nil {
			to = t
		}
		return from, to
	default: // calendar_month
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return start, time.Time{}
	}
}

func (s *Store) upsertByID(sheet, id string, values []any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.f.GetRows(sheet)
	if err != nil {
		return err
	}
	for i, row := range dataRows(rows) {
		if cellAt(row, 0) == id {
			rowNum := i + 2
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, rowNum)
				if err := s.f.SetCellValue(sheet, cell, v); err != nil {
					return err
				}
			}
			return s.save()
		}
	}
	if err := s.appendRowLocked(sheet, values); err != nil {
		return err
	}
	return s.save()
}

func (s *Store) deleteByID(sheet, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.f.GetRows(sheet)
	if err != nil {
		return err
	}
	for i, row := range dataRows(rows) {
		if cellAt(row, 0) == id {
			if err := s.f.RemoveRow(sheet, i+2); err != nil {
				return err
			}
			return s.save()
		}
	}
	return fmt.Errorf("row with id %s not found in %s", id, sheet)
}

func dataRows(rows [][]string) [][]string {
	if len(rows) <= 1 {
		return nil
	}
	return rows[1:]
}

func cellAt(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseAmount(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
