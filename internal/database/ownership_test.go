package database

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmarket/stock-pipeline/internal/models"
)

func TestDailyMoneyHistoryRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	day := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	t.Run("UpsertDailyMoneyHistory overwrites in place", func(t *testing.T) {
		testDB.TruncateAll(t)

		h := &models.DailyMoneyHistory{
			MemberID:    1,
			Date:        day,
			MarketValue: decimal.NewFromInt(12000),
			Cost:        decimal.NewFromInt(-10000),
		}
		require.NoError(t, testDB.UpsertDailyMoneyHistory(h))

		h.MarketValue = decimal.NewFromInt(12500)
		require.NoError(t, testDB.UpsertDailyMoneyHistory(h))

		got, err := testDB.GetDailyMoneyHistory(1, day)
		require.NoError(t, err)
		assert.True(t, got.MarketValue.Equal(decimal.NewFromInt(12500)))
	})

	t.Run("GetPreviousMoneyHistory finds the latest earlier snapshot", func(t *testing.T) {
		testDB.TruncateAll(t)

		for i := 0; i < 3; i++ {
			require.NoError(t, testDB.UpsertDailyMoneyHistory(&models.DailyMoneyHistory{
				MemberID:    1,
				Date:        day.AddDate(0, 0, i),
				MarketValue: decimal.NewFromInt(int64(12000 + i*100)),
			}))
		}

		prev, err := testDB.GetPreviousMoneyHistory(1, day.AddDate(0, 0, 2))
		require.NoError(t, err)
		require.NotNil(t, prev)
		assert.Equal(t, day.AddDate(0, 0, 1), prev.Date)
		assert.True(t, prev.MarketValue.Equal(decimal.NewFromInt(12100)))
	})

	t.Run("GetPreviousMoneyHistory returns nil when none exists", func(t *testing.T) {
		testDB.TruncateAll(t)

		prev, err := testDB.GetPreviousMoneyHistory(1, day)
		require.NoError(t, err)
		assert.Nil(t, prev)
	})

	t.Run("GetSnapshotHoldings keeps recently sold lots in scope", func(t *testing.T) {
		testDB.TruncateAll(t)

		require.NoError(t, testDB.CreateStockOwnership(&models.StockOwnership{
			MemberID:      1,
			SecurityCode:  "2330",
			ShareQuantity: 1000,
			SharePrice:    decimal.NewFromInt(10),
			Cost:          decimal.NewFromInt(-10000),
		}))
		require.NoError(t, testDB.CreateStockOwnership(&models.StockOwnership{
			MemberID:      1,
			SecurityCode:  "2317",
			ShareQuantity: 500,
			SharePrice:    decimal.NewFromInt(100),
			Cost:          decimal.NewFromInt(-50000),
			IsSold:        true,
		}))
		require.NoError(t, testDB.CreateStockOwnership(&models.StockOwnership{
			MemberID:      2,
			SecurityCode:  "2412",
			ShareQuantity: 200,
			SharePrice:    decimal.NewFromInt(120),
			Cost:          decimal.NewFromInt(-24000),
			IsSold:        true,
		}))
		// Member 2 liquidated long ago; push their lot out of the window.
		_, err := testDB.GetRawConn().Exec(
			`UPDATE stock_ownership_details SET updated_time = NOW() - INTERVAL '30 days' WHERE member_id = 2`)
		require.NoError(t, err)

		holdings, err := testDB.GetSnapshotHoldings(time.Now().AddDate(0, 0, 1))
		require.NoError(t, err)
		require.Len(t, holdings, 2)
		assert.Equal(t, "2317", holdings[0].SecurityCode)
		assert.True(t, holdings[0].IsSold)
		assert.Equal(t, "2330", holdings[1].SecurityCode)
		assert.False(t, holdings[1].IsSold)
	})
}
