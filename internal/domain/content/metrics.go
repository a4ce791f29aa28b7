package content

import (
	"math"
	"time"
)

// Metrics holds the five per-item analysis scores, each in [0,1].
// Pure derived data: recomputed on demand, never persisted.
type Metrics struct {
	Engagement float64
	Freshness  float64
	Quality    float64
	Trending   float64
	SEO        float64
}

// MetricWeights describes a weighted linear combination of the five scores.
type MetricWeights struct {
	Engagement float64
	Freshness  float64
	Quality    float64
	Trending   float64
	SEO        float64
}

// Composite returns the weighted sum of the scores.
func (m Metrics) Composite(w MetricWeights) float64 {
	return m.Engagement*w.Engagement +
		m.Freshness*w.Freshness +
		m.Quality*w.Quality +
		m.Trending*w.Trending +
		m.SEO*w.SEO
}

// ComputeMetrics derives all five scores for an item against its peer set.
func ComputeMetrics(item *Item, peers []*Item, now time.Time) Metrics {
	return Metrics{
		Engagement: EngagementScore(item, now),
		Freshness:  FreshnessScore(item, now),
		Quality:    QualityScore(item),
		Trending:   TrendingScore(item, peers),
		SEO:        SEOScore(item),
	}
}

// EngagementScore is views per day since creation, normalized by 100.
func EngagementScore(item *Item, now time.Time) float64 {
	ageDays := item.AgeDays(now)
	if ageDays < 1 {
		ageDays = 1
	}
	perDay := float64(item.Views) / ageDays
	return clamp01(perDay / 100)
}

// FreshnessScore decays exponentially with a 30-day half-scale: a 30-day-old
// item scores about 0.37.
func FreshnessScore(item *Item, now time.Time) float64 {
	return clamp01(math.Exp(-item.AgeDays(now) / 30))
}

// QualityScore is an additive heuristic over structural completeness.
// Content length bonuses are mutually exclusive tiers.
func QualityScore(item *Item) float64 {
	score := 0.2

	switch length := len(item.Content); {
	case length > 2000:
		score += 0.3
	case length > 1000:
		score += 0.2
	case length > 500:
		score += 0.1
	}

	if len(item.Excerpt) >= 50 {
		score += 0.2
	}
	if item.ImageURL != "" {
		score += 0.15
	}
	if item.Category != "" {
		score += 0.1
	}
	if titleLen := len(item.Title); titleLen >= 30 && titleLen <= 60 {
		score += 0.05
	}

	return clamp01(score)
}

// TrendingScore is the item's views relative to the peer average, halved so
// that twice the average views saturates at 1.0.
func TrendingScore(item *Item, peers []*Item) float64 {
	if len(peers) == 0 {
		return 0
	}

	var total int64
	for _, p := range peers {
		total += p.Views
	}
	avg := float64(total) / float64(len(peers))
	if avg <= 0 {
		return 0
	}

	return clamp01(float64(item.Views) / avg / 2)
}

// SEOScore rewards title and excerpt lengths in search-friendly ranges.
func SEOScore(item *Item) float64 {
	score := 0.1

	if titleLen := len(item.Title); titleLen >= 30 && titleLen <= 60 {
		score += 0.3
	}
	if excerptLen := len(item.Excerpt); excerptLen >= 120 && excerptLen <= 160 {
		score += 0.3
	}
	if len(item.Content) > 800 {
		score += 0.2
	}
	if item.ImageURL != "" {
		score += 0.1
	}

	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
