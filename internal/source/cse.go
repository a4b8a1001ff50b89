package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hyperjump/jidai/internal/metrics"
	"github.com/hyperjump/jidai/internal/models"
	"github.com/hyperjump/jidai/pkg/utils"
)

// CSEConfig configures a CSELocator.
type CSEConfig struct {
	Endpoint          string
	APIKey            string
	EngineID          string
	ResultsPerPage    int
	RequestsPerSecond float64
}

// CSELocator queries a Google Custom Search engine for pages dated on the query date.
type CSELocator struct {
	cfg     CSEConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewCSELocator returns a locator for cfg. A nil client uses http.DefaultClient.
func NewCSELocator(cfg CSEConfig, client *http.Client, logger *zap.Logger) *CSELocator {
	if client == nil {
		client = http.DefaultClient
	}
	logger = utils.OrNop(logger)
	if cfg.ResultsPerPage <= 0 || cfg.ResultsPerPage > 10 {
		cfg.ResultsPerPage = 10
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &CSELocator{
		cfg:     cfg,
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// Name returns "search".
func (l *CSELocator) Name() string { return "search" }

// Locate returns the first page of results for "date:DD-MM-YYYY [query]".
func (l *CSELocator) Locate(ctx context.Context, date models.DateQuery, query string) []models.DocumentReference {
	if l.cfg.APIKey == "" || l.cfg.EngineID == "" {
		l.logger.Debug("search credentials missing; skipping remote search")
		return nil
	}
	refs, err := l.Page(ctx, SearchQuery(date, query), 1)
	if err != nil {
		l.logger.Warn("search failed", zap.String("date", date.String()), zap.Error(err))
		metrics.RecordUpstreamFailure(l.Name())
		return nil
	}
	metrics.LocatedDocuments.WithLabelValues(l.Name()).Add(float64(len(refs)))
	return refs
}

// SearchQuery builds the search expression for date and an optional query.
func SearchQuery(date models.DateQuery, query string) string {
	q := "date:" + date.String()
	if query = strings.TrimSpace(query); query != "" {
		q += " " + query
	}
	return q
}

// Page fetches one page (1-based) of results for q. A response without items is an
// empty page, not an error.
func (l *CSELocator) Page(ctx context.Context, q string, page int) ([]models.DocumentReference, error) {
	if page < 1 {
		page = 1
	}
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("key", l.cfg.APIKey)
	params.Set("cx", l.cfg.EngineID)
	params.Set("q", q)
	params.Set("num", strconv.Itoa(l.cfg.ResultsPerPage))
	params.Set("start", strconv.Itoa((page-1)*l.cfg.ResultsPerPage+1))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.cfg.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, &models.UpstreamServiceError{Service: "search", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &models.UpstreamServiceError{Service: "search", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &models.UpstreamServiceError{Service: "search", Err: fmt.Errorf("decode response: %w", err)}
	}
	items, ok := body["items"].([]any)
	if !ok {
		l.logger.Info("No 'items' key in response", zap.String("q", q))
		return []models.DocumentReference{}, nil
	}
	refs := make([]models.DocumentReference, 0, len(items))
	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		link, _ := item["link"].(string)
		if link == "" {
			continue
		}
		title, _ := item["title"].(string)
		ref := models.NewWebArticle(link, title)
		ref.Source = models.SourceCSE
		refs = append(refs, ref)
	}
	return refs, nil
}
