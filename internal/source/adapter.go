// Package source defines the capability boundary between the pipeline and
// the per-site scraping adapters. The pipeline depends only on Adapter;
// format-specific parsing lives entirely behind it.
package source

import (
	"context"
	"time"
)

// Target identifies one unit of work for an adapter: usually a security,
// sometimes a whole market date or a revenue month.
type Target struct {
	SecurityCode string
	Date         time.Time
	Month        int // yyyymm, revenue fetches only
	MarketID     int
}

// Adapter is implemented once per external data source. Fetch returns
// normalized records or an error; retry/backoff is the orchestrator's job,
// so adapters fail fast.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, target Target) ([]Record, error)
}
