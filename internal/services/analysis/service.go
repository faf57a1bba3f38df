package analysis

import (
	"fmt"
	"sort"
	"time"

	"budget-buddy-backend/internal/models"
)

// RowSource supplies the receipt line items the analytics run over.
type RowSource interface {
	ListItemRows() ([]models.ItemRow, error)
}

// BudgetSource supplies budgets and period spend from the row store.
type BudgetSource interface {
	ListBudgets() ([]models.Budget, error)
	CalculateBudgetSpending(category, period, periodType, startDate, endDate string) (float64, error)
}

// Service computes spending analytics from stored receipt rows.
type Service struct {
	rows    RowSource
	budgets BudgetSource
	now     func() time.Time
}

func NewService(rows RowSource, budgets BudgetSource) *Service {
	return &Service{rows: rows, budgets: budgets, now: time.Now}
}

// dateWindow resolves a named filter into a [from,to] range. Zero times mean
// unbounded. Custom ranges take ISO dates.
func dateWindow(filter, startDate, endDate string, now time.Time) (time.Time, time.Time) {
	var from, to time.Time
	switch filter {
	case "last_7":
		from = now.AddDate(0, 0, -7)
	case "last_30":
		from = now.AddDate(0, 0, -30)
	case "last_90":
		from = now.AddDate(0, 0, -90)
	case "this_month":
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	case "last_month":
		firstOfThis := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		to = firstOfThis.AddDate(0, 0, -1)
		from = time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, now.Location())
	case "this_year":
		from = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
	case "custom":
		if t, err := time.Parse("2006-01-02", startDate); err == nil {
			from = t
			if t, err := time.Parse("2006-01-02", endDate); err == nil {
				to = t
			}
		}
	}
	return from, to
}

func inWindow(d, from, to time.Time) bool {
	if !from.IsZero() && d.Before(from) {
		return false
	}
	if !to.IsZero() && d.After(to) {
		return false
	}
	return true
}

// Trends groups spending into monthly or weekly buckets per category.
func (s *Service) Trends(period, dateFilter, startDate, endDate string) (models.TrendData, error) {
	if period != "weekly" {
		period = "monthly"
	}
	out := models.TrendData{Period: period, Categories: []string{}, Data: map[string][]models.TimeSeriesPoint{}, TotalByPeriod: []models.TimeSeriesPoint{}}

	items, err := s.rows.ListItemRows()
	if err != nil {
		return out, err
	}
	from, to := dateWindow(dateFilter, startDate, endDate, s.now())

	byCategory := map[string]map[string]float64{}
	totals := map[string]float64{}
	for _, item := range items {
		if !inWindow(item.Date, from, to) {
			continue
		}
		key := periodKey(item.Date, period)
		if byCategory[item.Category] == nil {
			byCategory[item.Category] = map[string]float64{}
		}
		byCategory[item.Category][key] += item.Amount
		totals[key] += item.Amount
	}

	for category, buckets := range byCategory {
		out.Categories = append(out.Categories, category)
		series := make([]models.TimeSeriesPoint, 0, len(buckets))
		for key, amount := range buckets {
			series = append(series, models.TimeSeriesPoint{Date: key, Amount: amount, Category: category})
		}
		sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })
		out.Data[category] = series
	}
	sort.Strings(out.Categories)

	for key, amount := range totals {
		out.TotalByPeriod = append(out.TotalByPeriod, models.TimeSeriesPoint{Date: key, Amount: amount})
	}
	sort.Slice(out.TotalByPeriod, func(i, j int) bool { return out.TotalByPeriod[i].Date < out.TotalByPeriod[j].Date })
	return out, nil
}

func periodKey(d time.Time, period string) string {
	if period == "weekly" {
		year, week := d.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	}
	return d.Format("2006-01")
}

// Forecast projects next-month spending per category as the mean of the
// monthly totals seen over the last 90 days.
func (s *Service) Forecast() (models.ForecastData, error) {
	out := models.ForecastData{Period: "next_month", Forecasts: []models.CategorySpending{}}

	items, err := s.rows.ListItemRows()
	if err != nil {
		return out, err
	}

	cutoff := s.now().AddDate(0, 0, -90)
	monthly := map[string]map[string]float64{}
	for _, item := range items {
		if item.Date.Before(cutoff) {
			continue
		}
		month := item.Date.Format("2006-01")
		if monthly[item.Category] == nil {
			monthly[item.Category] = map[string]float64{}
		}
		monthly[item.Category][month] += item.Amount
	}
	if len(monthly) == 0 {
		return out, nil
	}

	for category, months := range monthly {
		sum := 0.0
		for _, amount := range months {
			sum += amount
		}
		avg := sum / float64(len(months))
		out.TotalForecast += avg
		out.Forecasts = append(out.Forecasts, models.CategorySpending{
			Category: category,
			Total:    avg,
			Count:    len(months),
			Average:  avg,
		})
	}
	for i := range out.Forecasts {
		if out.TotalForecast > 0 {
			out.Forecasts[i].Percentage = out.Forecasts[i].Total / out.TotalForecast * 100
		}
	}
	sort.Slice(out.Forecasts, func(i, j int) bool { return out.Forecasts[i].Total > out.Forecasts[j].Total })

	out.Confidence = 0.7
	out.BasedOnMonths = 3
	return out, nil
}

// CategoryFilters narrows a category analysis beyond the date window.
type CategoryFilters struct {
	Categories []string
	MinAmount  *float64
	MaxAmount  *float64
}

// Categories breaks spending down per category for a filtered window, sorted
// by total descending.
func (s *Service) Categories(period, startDate, endDate string, filters CategoryFilters) (models.CategoryAnalysis, error) {
	if period == "" {
		period = "all"
	}
	out := models.CategoryAnalysis{Categories: []models.CategorySpending{}, TopCategory: "None", Period: period}

	items, err := s.rows.ListItemRows()
	if err != nil {
		return out, err
	}
	from, to := dateWindow(period, startDate, endDate, s.now())

	allowed := map[string]bool{}
	for _, c := range filters.Categories {
		allowed[c] = true
	}

	type agg struct {
		total float64
		count int
	}
	byCategory := map[string]*agg{}
	for _, item := range items {
		if !inWindow(item.Date, from, to) {
			continue
		}
		if len(allowed) > 0 && !allowed[item.Category] {
			continue
		}
		if filters.MinAmount != nil && item.Amount < *filters.MinAmount {
			continue
		}
		if filters.MaxAmount != nil && item.Amount > *filters.MaxAmount {
			continue
		}
		a := byCategory[item.Category]
		if a == nil {
			a = &agg{}
			byCategory[item.Category] = a
		}
		a.total += item.Amount
		a.count++
		out.TotalSpending += item.Amount
	}

	for category, a := range byCategory {
		cs := models.CategorySpending{
			Category: category,
			Total:    a.total,
			Count:    a.count,
			Average:  a.total / float64(a.count),
		}
		if out.TotalSpending > 0 {
			cs.Percentage = a.total / out.TotalSpending * 100
		}
		out.Categories = append(out.Categories, cs)
	}
	sort.Slice(out.Categories, func(i, j int) bool { return out.Categories[i].Total > out.Categories[j].Total })
	if len(out.Categories) > 0 {
		out.TopCategory = out.Categories[0].Category
	}
	return out, nil
}

// BudgetStatus reports every budget with live spend, usage percentage and
// period display info.
func (s *Service) BudgetStatus() (models.BudgetStatus, error) {
	out := models.BudgetStatus{Budgets: []models.Budget{}}

	budgets, err := s.budgets.ListBudgets()
	if err != nil {
		return out, err
	}
	now := s.now()
	for _, b := range budgets {
		spend, err := s.budgets.CalculateBudgetSpending(b.Category, b.Period, b.PeriodType, b.StartDate, b.EndDate)
		if err != nil {
			return out, err
		}
		b.CurrentSpend = spend
		if b.Limit > 0 {
			b.PercentageUsed = spend / b.Limit * 100
		}
		b.IsExceeded = spend > b.Limit
		b.PeriodDisplay, b.ResetsOn = periodInfo(b.PeriodType, b.Period, b.StartDate, b.EndDate, now)

		out.Budgets = append(out.Budgets, b)
		out.TotalBudget += b.Limit
		out.TotalSpent += spend
	}
	if out.TotalBudget > 0 {
		out.OverallPercentage = out.TotalSpent / out.TotalBudget * 100
	}
	return out, nil
}

// periodInfo renders the human-readable window and reset date for a budget.
func periodInfo(periodType, period, startDate, endDate string, now time.Time) (string, string) {
	switch periodType {
	case "rolling":
		days := 30
		if period == "weekly" {
			days = 7
		}
		start := now.AddDate(0, 0, -days)
		return fmt.Sprintf("Rolling %d days (%s - %s)", days, start.Format("Jan 02"), now.Format("Jan 02, 2006")), "Daily"
	case "calendar_week":
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		start := now.AddDate(0, 0, -(weekday - 1))
		end := start.AddDate(0, 0, 6)
		return fmt.Sprintf("%s - %s", start.Format("Jan 02"), end.Format("Jan 02, 2006")),
			start.AddDate(0, 0, 7).Format("Jan 02, 2006")
	case "custom":
		start, err1 := time.Parse("2006-01-02", startDate)
		end, err2 := time.Parse("2006-01-02", endDate)
		if err1 == nil && err2 == nil {
			return fmt.Sprintf("%s - %s", start.Format("Jan 02"), end.Format("Jan 02, 2006")), "Does not reset"
		}
		return "Current month", "Next month"
	default: // calendar_month
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		nextReset := start.AddDate(0, 1, 0)
		end := nextReset.AddDate(0, 0, -1)
		return fmt.Sprintf("%s - %s", start.Format("Jan 02"), end.Format("Jan 02, 2006")),
			nextReset.Format("Jan 02, 2006")
	}
}
