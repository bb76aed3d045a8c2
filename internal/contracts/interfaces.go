package contracts

import (
	"context"
	"time"
)

// UniverseProvider lists the candidate stocks
// ⭐ SSOT: 股票池来源接口
type UniverseProvider interface {
	ListUniverse(ctx context.Context, criteria UniverseCriteria) ([]Stock, error)
}

// BarProvider returns daily bars for [start, end].
// A nil/empty series or an error both mean the data is unavailable.
// ⭐ SSOT: 日线数据来源接口
type BarProvider interface {
	FetchDailyBars(ctx context.Context, code string, start, end time.Time) (Series, error)
}

// IndustryClassifier resolves a stock's industry name.
// Implementations never fail; they return UnknownIndustry instead.
type IndustryClassifier interface {
	ClassifyIndustry(ctx context.Context, code string) string
}

// HotSectorProvider returns the currently hottest sector names, best first
type HotSectorProvider interface {
	HotSectors(ctx context.Context, topK int) ([]string, error)
}
