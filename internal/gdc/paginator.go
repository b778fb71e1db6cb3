package gdc

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"gdcmeta/internal/logging"
	"gdcmeta/internal/record"
)

// DefaultPageSize is the number of hits requested per page.
const DefaultPageSize = 5000

// IndexURLs returns the current and legacy collection endpoints under base.
func IndexURLs(base string) []string {
	base = strings.TrimRight(base, "/")
	return []string{base + "/files", base + "/legacy/files"}
}

// Paginator downloads the complete metadata index of one or more collections.
type Paginator struct {
	client   Fetcher
	pageSize int
	logger   *slog.Logger
}

// NewPaginator constructs a paginator. A non-positive pageSize uses DefaultPageSize.
func NewPaginator(client Fetcher, pageSize int, logger *slog.Logger) *Paginator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Paginator{client: client, pageSize: pageSize, logger: logging.NewComponentLogger(logger, "paginator")}
}

// FetchAll pages through every base URL concurrently and returns the hits
// concatenated in base URL order.
func (p *Paginator) FetchAll(ctx context.Context, baseURLs []string) ([]record.Fields, error) {
	results := make([][]record.Fields, len(baseURLs))
	group, gctx := errgroup.WithContext(ctx)
	for i, base := range baseURLs {
		group.Go(func() error {
			hits, err := p.fetchPages(gctx, base)
			if err != nil {
				return err
			}
			results[i] = hits
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	out := make([]record.Fields, 0, total)
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

func (p *Paginator) fetchPages(ctx context.Context, base string) ([]record.Fields, error) {
	var out []record.Fields
	from := 0
	for {
		var page pageResponse
		if err := p.client.GetJSON(ctx, p.pageURL(base, from), &page); err != nil {
			return nil, fmt.Errorf("fetch index page %s from=%d: %w", base, from, err)
		}
		for _, hit := range page.Data.Hits {
			out = append(out, hit.fields())
		}
		pg := page.Data.Pagination
		p.logger.Debug("index page fetched",
			logging.String(logging.FieldURL, base),
			logging.Int("from", pg.From),
			logging.Int("count", pg.Count),
			logging.Int("total", pg.Total),
		)
		if len(page.Data.Hits) == 0 || pg.Count <= 0 || pg.From+pg.Count >= pg.Total {
			break
		}
		from += pg.Count
	}
	p.logger.Info("index collection fetched", logging.String(logging.FieldURL, base), logging.Int("records", len(out)))
	return out, nil
}

func (p *Paginator) pageURL(base string, from int) string {
	q := url.Values{}
	q.Set("fields", "md5sum,file_size,acl")
	q.Set("from", strconv.Itoa(from))
	q.Set("size", strconv.Itoa(p.pageSize))
	return base + "?" + q.Encode()
}
