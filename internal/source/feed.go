package source

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/jidai/internal/metrics"
	"github.com/hyperjump/jidai/internal/models"
	"github.com/hyperjump/jidai/pkg/utils"
)

// FeedLocator reads RSS and Atom feeds and returns entries published on the query date.
type FeedLocator struct {
	urls      []string
	client    *http.Client
	userAgent string
	timeout   time.Duration
	logger    *zap.Logger
}

// NewFeedLocator returns a locator over the feeds at urls.
func NewFeedLocator(urls []string, client *http.Client, userAgent string, timeout time.Duration, logger *zap.Logger) *FeedLocator {
	if client == nil {
		client = http.DefaultClient
	}
	logger = utils.OrNop(logger)
	return &FeedLocator{urls: urls, client: client, userAgent: userAgent, timeout: timeout, logger: logger}
}

// Name returns "feeds".
func (l *FeedLocator) Name() string { return "feeds" }

// Locate fetches every feed concurrently. Results keep feed order; a failing feed
// contributes nothing.
func (l *FeedLocator) Locate(ctx context.Context, date models.DateQuery, query string) []models.DocumentReference {
	perFeed := make([][]models.DocumentReference, len(l.urls))
	g, gctx := errgroup.WithContext(ctx)
	for i, u := range l.urls {
		g.Go(func() error {
			feed, err := l.fetch(gctx, u)
			if err != nil {
				l.logger.Warn("feed fetch failed", zap.String("url", u), zap.Error(err))
				metrics.RecordUpstreamFailure(l.Name())
				return nil
			}
			perFeed[i] = FilterItems(feed, date, query)
			return nil
		})
	}
	_ = g.Wait()

	var refs []models.DocumentReference
	for _, r := range perFeed {
		refs = append(refs, r...)
	}
	metrics.LocatedDocuments.WithLabelValues(l.Name()).Add(float64(len(refs)))
	return refs
}

func (l *FeedLocator) fetch(ctx context.Context, u string) (*gofeed.Feed, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	p := gofeed.NewParser()
	p.Client = l.client
	if l.userAgent != "" {
		p.UserAgent = l.userAgent
	}
	return p.ParseURLWithContext(u, ctx)
}

// FilterItems returns references for feed items dated on date whose title or
// description contains query (case-insensitive).
func FilterItems(feed *gofeed.Feed, date models.DateQuery, query string) []models.DocumentReference {
	query = strings.ToLower(strings.TrimSpace(query))
	var refs []models.DocumentReference
	for _, item := range feed.Items {
		if item == nil || item.Link == "" {
			continue
		}
		ts := item.PublishedParsed
		if ts == nil {
			ts = item.UpdatedParsed
		}
		if ts == nil || !date.Contains(*ts) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(item.Title+" "+item.Description), query) {
			continue
		}
		ref := models.NewWebArticle(item.Link, item.Title)
		ref.Source = models.SourceFeed
		refs = append(refs, ref)
	}
	return refs
}
