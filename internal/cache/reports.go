package cache

import (
	"time"

	"bilan/internal/core"
)

// ReportCache keeps computed monthly reports keyed by month. History is
// never cached.
type ReportCache struct {
	lru *LRUCache[core.MonthlyReport]
}

func NewReportCache(maxMonths int, ttl time.Duration) *ReportCache {
	return &ReportCache{lru: NewLRUCache[core.MonthlyReport](maxMonths, ttl)}
}

func reportKey(month core.Date) string {
	return "report:" + core.MonthStart(month).Format(core.MonthLayout)
}

func (c *ReportCache) Get(month core.Date) (core.MonthlyReport, bool) {
	return c.lru.Get(reportKey(month))
}

func (c *ReportCache) Set(month core.Date, r core.MonthlyReport) {
	c.lru.Set(reportKey(month), r)
}

// InvalidateMonth drops the cached report of the month containing day.
func (c *ReportCache) InvalidateMonth(day core.Date) {
	c.lru.Delete(reportKey(day))
}

// InvalidateAll drops every cached report. Item changes reprice all months.
func (c *ReportCache) InvalidateAll() {
	c.lru.DeletePrefix("report:")
}

func (c *ReportCache) CleanExpired() int { return c.lru.CleanExpired() }

func (c *ReportCache) Size() int { return c.lru.Size() }
