package models

// CategorySpending summarizes spending within one category.
type CategorySpending struct {
	Category   string  `json:"category"`
	Total      float64 `json:"total"`
	Percentage float64 `json:"percentage"`
	Count      int     `json:"count"`
	Average    float64 `json:"average"`
}

// TimeSeriesPoint is one bucket of a trend series.
type TimeSeriesPoint struct {
	Date     string  `json:"date"`
	Amount   float64 `json:"amount"`
	Category string  `json:"category,omitempty"`
}

// TrendData groups per-category time series plus the overall total series.
type TrendData struct {
	Period        string                       `json:"period"`
	Categories    []string                     `json:"categories"`
	Data          map[string][]TimeSeriesPoint `json:"data"`
	TotalByPeriod []TimeSeriesPoint            `json:"total_by_period"`
}

// ForecastData projects next-month spending from recent history.
type ForecastData struct {
	Period        string             `json:"period"`
	Forecasts     []CategorySpending `json:"forecasts"`
	TotalForecast float64            `json:"total_forecast"`
	Confidence    float64            `json:"confidence"`
	BasedOnMonths int                `json:"based_on_months"`
}

// CategoryAnalysis is the category breakdown for a filtered window.
type CategoryAnalysis struct {
	Categories    []CategorySpending `json:"categories"`
	TotalSpending float64            `json:"total_spending"`
	TopCategory   string             `json:"top_category"`
	Period        string             `json:"period"`
}

// Budget is a per-category spending limit stored in the workbook.
type Budget struct {
	ID             string  `json:"id"`
	Category       string  `json:"category"`
	Limit          float64 `json:"limit"`
	Period         string  `json:"period"`      // "monthly" or "weekly"
	PeriodType     string  `json:"period_type"` // rolling, calendar_month, calendar_week, custom
	StartDate      string  `json:"start_date,omitempty"`
	EndDate        string  `json:"end_date,omitempty"`
	CurrentSpend   float64 `json:"current_spend,omitempty"`
	PercentageUsed float64 `json:"percentage_used,omitempty"`
	IsExceeded     bool    `json:"is_exceeded,omitempty"`
	PeriodDisplay  string  `json:"period_display,omitempty"`
	ResetsOn       string  `json:"resets_on,omitempty"`
}

// BudgetStatus aggregates every budget with live spend numbers.
type BudgetStatus struct {
	Budgets           []Budget `json:"budgets"`
	TotalBudget       float64  `json:"total_budget"`
	TotalSpent        float64  `json:"total_spent"`
	OverallPercentage float64  `json:"overall_percentage"`
}

// Goal is a savings or spending target stored in the workbook.
type Goal struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	TargetAmount       float64 `json:"target_amount"`
	CurrentAmount      float64 `json:"current_amount"`
	TargetDate         string  `json:"target_date,omitempty"`
	Category           string  `json:"category,omitempty"`
	GoalType           string  `json:"goal_type"` // savings or spending_reduction
	AutoTrack          bool    `json:"auto_track"`
	ProgressPercentage float64 `json:"progress_percentage"`
}

// GoalTransaction is a manual contribution toward a goal.
type GoalTransaction struct {
	ID     string  `json:"id"`
	GoalID string  `json:"goal_id"`
	Amount float64 `json:"amount"`
	Date   string  `json:"date"`
	Note   string  `json:"note,omitempty"`
}
