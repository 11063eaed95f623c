package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuarterAnnual marks a whole-year dividend row; annual distributions
// arrive with an empty quarter marker.
const QuarterAnnual = ""

// Dividend is one distribution for (security_code, year, quarter). Cash and
// stock components are split by their source: retained earnings vs capital
// reserve. Rows become effectively immutable once the payable date has
// passed, except for corrective updates from the source feed.
type Dividend struct {
	Serial                  int64           `json:"serial"`
	SecurityCode            string          `json:"security_code"`
	Year                    int             `json:"year"`
	YearOfDividend          int             `json:"year_of_dividend"`
	Quarter                 string          `json:"quarter"`
	CashDividend            decimal.Decimal `json:"cash_dividend"`
	CashFromEarnings        decimal.Decimal `json:"cash_from_earnings"`
	CashFromCapitalReserve  decimal.Decimal `json:"cash_from_capital_reserve"`
	StockDividend           decimal.Decimal `json:"stock_dividend"`
	StockFromEarnings       decimal.Decimal `json:"stock_from_earnings"`
	StockFromCapitalReserve decimal.Decimal `json:"stock_from_capital_reserve"`
	Sum                     decimal.Decimal `json:"sum"`
	ExDividendDate1         string          `json:"ex_dividend_date1"`
	ExDividendDate2         string          `json:"ex_dividend_date2"`
	PayableDate1            string          `json:"payable_date1"`
	PayableDate2            string          `json:"payable_date2"`
	PayoutRatio             decimal.Decimal `json:"payout_ratio"`
	PayoutRatioCash         decimal.Decimal `json:"payout_ratio_cash"`
	PayoutRatioStock        decimal.Decimal `json:"payout_ratio_stock"`
	CreatedTime             time.Time       `json:"created_time"`
	UpdatedTime             time.Time       `json:"updated_time"`
}

// Announced reports whether an ex-dividend date has been published. Rows
// without one are excluded from yield and estimate math.
func (d *Dividend) Announced() bool {
	return (d.ExDividendDate1 != "" && d.ExDividendDate1 != "-") ||
		(d.ExDividendDate2 != "" && d.ExDividendDate2 != "-")
}
