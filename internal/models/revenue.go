package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RevenueRecord is one month of reported revenue for a security. Month is a
// yyyymm serial (e.g. 202407). Writes are gated by the per-security cursor:
// a record is applied only when its month is strictly after the cursor.
type RevenueRecord struct {
	SecurityCode                    string          `json:"security_code"`
	Month                           int             `json:"month"`
	Monthly                         decimal.Decimal `json:"monthly"`
	LastMonth                       decimal.Decimal `json:"last_month"`
	LastYearThisMonth               decimal.Decimal `json:"last_year_this_month"`
	MonthlyAccumulated              decimal.Decimal `json:"monthly_accumulated"`
	LastYearMonthlyAccumulated      decimal.Decimal `json:"last_year_monthly_accumulated"`
	ComparedWithLastMonth           decimal.Decimal `json:"compared_with_last_month"`
	ComparedWithLastYearSameMonth   decimal.Decimal `json:"compared_with_last_year_same_month"`
	AccumulatedComparedWithLastYear decimal.Decimal `json:"accumulated_compared_with_last_year"`
	AvgPrice                        decimal.Decimal `json:"avg_price"`
	LowestPrice                     decimal.Decimal `json:"lowest_price"`
	HighestPrice                    decimal.Decimal `json:"highest_price"`
	CreatedTime                     time.Time       `json:"created_time"`
	UpdatedTime                     time.Time       `json:"updated_time"`
}
