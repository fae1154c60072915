package warehouse

import (
	"context"
	"fmt"
	"log"
	"time"

	"insight-stack/internal/models"
	"insight-stack/shared/analysis"
	"insight-stack/shared/config"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Fixed table names inside the configured datasets. The schema is owned by
// the warehouse provisioning, not by this client.
const (
	tableRegistration = "video_registration"
	tableTranscripts  = "video_transcripts"
	tableRevenue      = "revenue_by_month"
	tableSerp         = "search_performance"

	tableScriptAnalysis     = "script_analysis"
	tableDescAnalysis       = "description_analysis"
	tableAffiliateRecs      = "affiliate_recommendations"
	tableConversionAnalysis = "conversion_analysis"
)

// Client reads video inputs from and appends analysis results to BigQuery.
// It holds no locks of its own: the BigQuery client is safe for concurrent
// use and every method is a single round trip.
type Client struct {
	bq              *bigquery.Client
	metricsDataset  string
	analysisDataset string
	serpWindowDays  int
}

func NewClient(ctx context.Context, cfg *config.WarehouseConfig, serpWindowDays int) (*Client, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	bq, err := bigquery.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create BigQuery client: %w", err)
	}

	log.Printf("BigQuery client initialized for project %s", cfg.ProjectID)
	return &Client{
		bq:              bq,
		metricsDataset:  cfg.MetricsDataset,
		analysisDataset: cfg.AnalysisDataset,
		serpWindowDays:  serpWindowDays,
	}, nil
}

func (c *Client) Close() error {
	return c.bq.Close()
}

type videoRow struct {
	VideoID       string              `bigquery:"video_id"`
	ChannelCode   bigquery.NullString `bigquery:"channel_code"`
	Title         bigquery.NullString `bigquery:"title"`
	Description   bigquery.NullString `bigquery:"description"`
	PublishedDate time.Time           `bigquery:"published_date"`
	VideoURL      bigquery.NullString `bigquery:"video_url"`
	HasTranscript bool                `bigquery:"has_transcript"`
}

func (r *videoRow) toModel() *models.Video {
	url := r.VideoURL.StringVal
	if url == "" {
		url = "https://www.youtube.com/watch?v=" + r.VideoID
	}
	return &models.Video{
		VideoID:       r.VideoID,
		ChannelCode:   r.ChannelCode.StringVal,
		Title:         r.Title.StringVal,
		Description:   r.Description.StringVal,
		PublishedDate: r.PublishedDate,
		VideoURL:      url,
		HasTranscript: r.HasTranscript,
	}
}

// FetchVideoMetadata returns the registration row for one video, or
// analysis.ErrNotFound when the video is unknown to the warehouse.
func (c *Client) FetchVideoMetadata(ctx context.Context, videoID string) (*models.Video, error) {
	q := c.bq.Query(fmt.Sprintf(`
		SELECT
			v.video_id,
			v.channel_code,
			v.title,
			v.description,
			TIMESTAMP(v.published_date) AS published_date,
			v.video_url,
			t.video_id IS NOT NULL AS has_transcript
		FROM `+"`%s.%s`"+` v
		LEFT JOIN `+"`%s.%s`"+` t ON v.video_id = t.video_id
		WHERE v.video_id = @video_id
		LIMIT 1`,
		c.metricsDataset, tableRegistration, c.metricsDataset, tableTranscripts))
	q.Parameters = []bigquery.QueryParameter{{Name: "video_id", Value: videoID}}

	var row videoRow
	if err := c.readOne(ctx, q, &row); err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// FetchTranscript returns the transcript text for one video.
func (c *Client) FetchTranscript(ctx context.Context, videoID string) (string, error) {
	q := c.bq.Query(fmt.Sprintf(
		"SELECT transcript FROM `%s.%s` WHERE video_id = @video_id LIMIT 1",
		c.metricsDataset, tableTranscripts))
	q.Parameters = []bigquery.QueryParameter{{Name: "video_id", Value: videoID}}

	var row struct {
		Transcript string `bigquery:"transcript"`
	}
	if err := c.readOne(ctx, q, &row); err != nil {
		return "", err
	}
	return row.Transcript, nil
}

type revenueRow struct {
	VideoID     string              `bigquery:"video_id"`
	Channel     bigquery.NullString `bigquery:"channel"`
	MetricsDate time.Time           `bigquery:"metrics_date"`
	Revenue     float64             `bigquery:"revenue"`
	Clicks      int64               `bigquery:"clicks"`
	Sales       int64               `bigquery:"sales"`
	Views       int64               `bigquery:"organic_views"`
}

// FetchRevenueMetrics aggregates affiliate revenue for a video across all
// tracked months and derives the conversion rates the analyzers consume.
func (c *Client) FetchRevenueMetrics(ctx context.Context, videoID string) (*models.RevenueMetrics, error) {
	q := c.bq.Query(fmt.Sprintf(`
		SELECT
			video_id,
			ANY_VALUE(channel) AS channel,
			TIMESTAMP(MAX(metrics_month)) AS metrics_date,
			IFNULL(SUM(revenue), 0) AS revenue,
			IFNULL(SUM(clicks), 0) AS clicks,
			IFNULL(SUM(sales), 0) AS sales,
			IFNULL(SUM(organic_views), 0) AS organic_views
		FROM `+"`%s.%s`"+`
		WHERE video_id = @video_id
		GROUP BY video_id`,
		c.metricsDataset, tableRevenue))
	q.Parameters = []bigquery.QueryParameter{{Name: "video_id", Value: videoID}}

	var row revenueRow
	if err := c.readOne(ctx, q, &row); err != nil {
		return nil, err
	}

	rm := &models.RevenueMetrics{
		VideoID:      row.VideoID,
		Channel:      row.Channel.StringVal,
		MetricsDate:  row.MetricsDate,
		Revenue:      row.Revenue,
		Clicks:       row.Clicks,
		Sales:        row.Sales,
		OrganicViews: row.Views,
	}
	if rm.Clicks > 0 {
		rm.ConversionRate = float64(rm.Sales) / float64(rm.Clicks) * 100
		rm.RevenuePerClick = rm.Revenue / float64(rm.Clicks)
	}
	if rm.OrganicViews > 0 {
		rm.RevenuePer1kView = rm.Revenue / float64(rm.OrganicViews) * 1000
	}
	return rm, nil
}

type serpRow struct {
	TrafficSource     bigquery.NullString `bigquery:"traffic_source"`
	MainKeyword       bigquery.NullString `bigquery:"main_keyword"`
	Silo              bigquery.NullString `bigquery:"silo"`
	Views             int64               `bigquery:"views"`
	Impressions       int64               `bigquery:"impressions"`
	AvgCTR            float64             `bigquery:"avg_ctr"`
	AvgViewPercentage float64             `bigquery:"avg_view_percentage"`
}

// FetchSerpData summarizes search/discovery performance over the trailing
// window, broken down by traffic source.
func (c *Client) FetchSerpData(ctx context.Context, videoID string) (*models.SerpSnapshot, error) {
	q := c.bq.Query(fmt.Sprintf(`
		SELECT
			traffic_source,
			ANY_VALUE(main_keyword) AS main_keyword,
			ANY_VALUE(silo) AS silo,
			IFNULL(SUM(views), 0) AS views,
			IFNULL(SUM(impressions), 0) AS impressions,
			IFNULL(AVG(ctr), 0) AS avg_ctr,
			IFNULL(AVG(view_percentage), 0) AS avg_view_percentage
		FROM `+"`%s.%s`"+`
		WHERE video_id = @video_id
		  AND metrics_date >= DATE_SUB(CURRENT_DATE(), INTERVAL @window_days DAY)
		GROUP BY traffic_source
		ORDER BY views DESC`,
		c.metricsDataset, tableSerp))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "video_id", Value: videoID},
		{Name: "window_days", Value: c.serpWindowDays},
	}

	it, err := c.read(ctx, q)
	if err != nil {
		return nil, err
	}

	snap := &models.SerpSnapshot{VideoID: videoID}
	for {
		var row serpRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read SERP rows: %w", err)
		}
		if snap.MainKeyword == "" {
			snap.MainKeyword = row.MainKeyword.StringVal
		}
		if snap.Silo == "" {
			snap.Silo = row.Silo.StringVal
		}
		snap.TotalViews += row.Views
		snap.TotalImpressions += row.Impressions
		snap.ByTrafficSource = append(snap.ByTrafficSource, models.TrafficSource{
			Source:            row.TrafficSource.StringVal,
			Views:             row.Views,
			Impressions:       row.Impressions,
			AvgCTR:            row.AvgCTR,
			AvgViewPercentage: row.AvgViewPercentage,
		})
	}
	if len(snap.ByTrafficSource) == 0 {
		return nil, analysis.ErrNotFound
	}
	if snap.TotalImpressions > 0 {
		snap.OverallCTR = float64(snap.TotalViews) / float64(snap.TotalImpressions) * 100
	}
	return snap, nil
}

// ListRecentVideos returns the newest registered videos, transcribed ones
// first, for the scheduled sweep.
func (c *Client) ListRecentVideos(ctx context.Context, limit int) ([]*models.Video, error) {
	q := c.bq.Query(fmt.Sprintf(`
		SELECT
			v.video_id,
			v.channel_code,
			v.title,
			v.description,
			TIMESTAMP(v.published_date) AS published_date,
			v.video_url,
			t.video_id IS NOT NULL AS has_transcript
		FROM `+"`%s.%s`"+` v
		LEFT JOIN `+"`%s.%s`"+` t ON v.video_id = t.video_id
		ORDER BY has_transcript DESC, v.published_date DESC
		LIMIT @limit`,
		c.metricsDataset, tableRegistration, c.metricsDataset, tableTranscripts))
	q.Parameters = []bigquery.QueryParameter{{Name: "limit", Value: limit}}

	it, err := c.read(ctx, q)
	if err != nil {
		return nil, err
	}

	var videos []*models.Video
	for {
		var row videoRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read video rows: %w", err)
		}
		videos = append(videos, row.toModel())
	}
	return videos, nil
}

// BackfillDescription fills in the description on a registration row that
// arrived without one. Only empty descriptions are touched, a human-edited
// description in the warehouse always wins.
func (c *Client) BackfillDescription(ctx context.Context, videoID, description string) error {
	q := c.bq.Query(fmt.Sprintf(`
		UPDATE `+"`%s.%s`"+`
		SET description = @description
		WHERE video_id = @video_id
		  AND (description IS NULL OR description = '')`,
		c.metricsDataset, tableRegistration))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "description", Value: description},
		{Name: "video_id", Value: videoID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("failed to start description backfill: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("description backfill did not complete: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("description backfill failed: %w", err)
	}
	return nil
}

func (c *Client) read(ctx context.Context, q *bigquery.Query) (*bigquery.RowIterator, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("warehouse query failed: %w", err)
	}
	return it, nil
}

// readOne reads exactly one row into dst, mapping an empty result set to
// analysis.ErrNotFound.
func (c *Client) readOne(ctx context.Context, q *bigquery.Query, dst any) error {
	it, err := c.read(ctx, q)
	if err != nil {
		return err
	}
	if err := it.Next(dst); err != nil {
		if err == iterator.Done {
			return analysis.ErrNotFound
		}
		return fmt.Errorf("failed to read warehouse row: %w", err)
	}
	return nil
}
