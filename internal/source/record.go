package source

import (
	"fmt"

	"github.com/twmarket/stock-pipeline/internal/models"
)

// Kind names the entity a normalized record belongs to
type Kind string

const (
	KindSecurity  Kind = "security"
	KindQuote     Kind = "quote"
	KindDividend  Kind = "dividend"
	KindStatement Kind = "statement"
	KindRevenue   Kind = "revenue"
	KindIndex     Kind = "index"
	KindHoliday   Kind = "holiday"
)

// Record is one normalized row produced by an adapter. Key returns the
// human-readable natural key used in failure reports.
type Record interface {
	Kind() Kind
	Key() string
}

// SecurityRecord wraps a normalized security row
type SecurityRecord struct{ Security *models.Security }

func (r SecurityRecord) Kind() Kind  { return KindSecurity }
func (r SecurityRecord) Key() string { return r.Security.Code }

// QuoteRecord wraps a normalized daily quote
type QuoteRecord struct{ Quote *models.DailyQuote }

func (r QuoteRecord) Kind() Kind { return KindQuote }
func (r QuoteRecord) Key() string {
	return fmt.Sprintf("%s/%s", r.Quote.SecurityCode, r.Quote.Date.Format("2006-01-02"))
}

// DividendRecord wraps a normalized dividend row
type DividendRecord struct{ Dividend *models.Dividend }

func (r DividendRecord) Kind() Kind { return KindDividend }
func (r DividendRecord) Key() string {
	return fmt.Sprintf("%s/%d/%s", r.Dividend.SecurityCode, r.Dividend.Year, r.Dividend.Quarter)
}

// StatementRecord wraps a normalized financial statement
type StatementRecord struct{ Statement *models.FinancialStatement }

func (r StatementRecord) Kind() Kind { return KindStatement }
func (r StatementRecord) Key() string {
	return fmt.Sprintf("%s/%d%s", r.Statement.SecurityCode, r.Statement.Year, r.Statement.Quarter)
}

// RevenueRecord wraps a normalized monthly revenue row
type RevenueRecord struct{ Revenue *models.RevenueRecord }

func (r RevenueRecord) Kind() Kind { return KindRevenue }
func (r RevenueRecord) Key() string {
	return fmt.Sprintf("%s/%d", r.Revenue.SecurityCode, r.Revenue.Month)
}

// IndexRecord wraps a normalized market index row
type IndexRecord struct{ Index *models.MarketIndex }

func (r IndexRecord) Kind() Kind { return KindIndex }
func (r IndexRecord) Key() string {
	return fmt.Sprintf("%s/%s", r.Index.Category, r.Index.Date.Format("2006-01-02"))
}

// HolidayRecord wraps a market calendar entry
type HolidayRecord struct{ Holiday *models.Holiday }

func (r HolidayRecord) Kind() Kind  { return KindHoliday }
func (r HolidayRecord) Key() string { return r.Holiday.Date.Format("2006-01-02") }
