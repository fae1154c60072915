package models

import "time"

// Video is the warehouse registration record for one YouTube video.
type Video struct {
	VideoID       string    `json:"video_id"`
	ChannelCode   string    `json:"channel_code"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	PublishedDate time.Time `json:"published_date"`
	VideoURL      string    `json:"video_url"`
	HasTranscript bool      `json:"has_transcript"`
}

// RevenueMetrics aggregates affiliate performance for a video across all
// tracked months, with derived rates precomputed by the warehouse reader.
type RevenueMetrics struct {
	VideoID          string    `json:"video_id"`
	Channel          string    `json:"channel"`
	MetricsDate      time.Time `json:"metrics_date"`
	Revenue          float64   `json:"revenue"`
	Clicks           int64     `json:"clicks"`
	Sales            int64     `json:"sales"`
	OrganicViews     int64     `json:"organic_views"`
	ConversionRate   float64   `json:"conversion_rate"`
	RevenuePerClick  float64   `json:"revenue_per_click"`
	RevenuePer1kView float64   `json:"revenue_per_1k_views"`
}

// TrafficSource is one row of the search-performance breakdown.
type TrafficSource struct {
	Source            string  `json:"traffic_source"`
	Views             int64   `json:"views"`
	Impressions       int64   `json:"impressions"`
	AvgCTR            float64 `json:"avg_ctr"`
	AvgViewPercentage float64 `json:"avg_view_percentage"`
}

// SerpSnapshot is the search/discovery performance summary for a video over
// the trailing window (90 days by default).
type SerpSnapshot struct {
	VideoID          string          `json:"video_id"`
	MainKeyword      string          `json:"main_keyword"`
	Silo             string          `json:"silo"`
	TotalViews       int64           `json:"total_views"`
	TotalImpressions int64           `json:"total_impressions"`
	OverallCTR       float64         `json:"overall_ctr"`
	ByTrafficSource  []TrafficSource `json:"by_traffic_source"`
}

// VideoContext bundles every warehouse-derived input one analysis request
// needs. It is built once per request and reused across kinds; optional
// inputs are nil when the warehouse has no row for them, which is distinct
// from present-but-empty.
type VideoContext struct {
	Video      *Video
	Transcript *string
	Revenue    *RevenueMetrics
	Serp       *SerpSnapshot
}
