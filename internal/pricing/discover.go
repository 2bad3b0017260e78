package pricing

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/blueprint-cli/pkg/firecrawl"
)

// excludedSegments disqualify a sitemap candidate outright: these paths
// mention pricing without being the pricing page.
var excludedSegments = []string{"/blog", "/docs", "/help", "/support", "/careers", "/news", "/legal", "/community"}

// discoverPricingURL tries, in order: sitemap scan, HEAD probes of common
// paths, and a site-scoped web search. Returns "" when all three fail.
func (r *Resolver) discoverPricingURL(ctx context.Context, name, origin string) string {
	if url := r.sitemapCandidate(ctx, origin); url != "" {
		return url
	}
	if url := r.probeCommonPaths(ctx, origin); url != "" {
		return url
	}
	return r.searchCandidate(ctx, name, origin)
}

// sitemapCandidate maps the site and picks the best-scoring pricing-like
// link.
func (r *Resolver) sitemapCandidate(ctx context.Context, origin string) string {
	resp, err := r.scraper.Map(ctx, firecrawl.MapRequest{
		URL:    origin,
		Search: "pricing",
		Limit:  100,
	})
	if err != nil {
		zap.L().Debug("sitemap scan failed", zap.String("origin", origin), zap.Error(err))
		return ""
	}

	type scored struct {
		url   string
		score int
	}
	candidates := make([]scored, 0)
	for _, link := range resp.Links {
		s := scoreCandidate(link)
		if s > 0 {
			candidates = append(candidates, scored{url: link, score: s})
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	return candidates[0].url
}

// scoreCandidate ranks a sitemap link as a pricing page: exact /pricing or
// /plans suffixes score highest, deeper paths score lower, excluded
// sections score zero.
func scoreCandidate(link string) int {
	lower := strings.ToLower(strings.TrimSuffix(link, "/"))

	path := lower
	if i := strings.Index(lower, "://"); i >= 0 {
		path = lower[i+3:]
	}
	if i := strings.Index(path, "/"); i >= 0 {
		path = path[i:]
	} else {
		path = "/"
	}

	for _, ex := range excludedSegments {
		if strings.Contains(path, ex) {
			return 0
		}
	}

	score := 0
	switch {
	case strings.HasSuffix(path, "/pricing"), strings.HasSuffix(path, "/plans"):
		score = 100
	case strings.Contains(path, "pricing"), strings.Contains(path, "plans"):
		score = 50
	default:
		return 0
	}

	// Shallow paths beat nested ones.
	depth := strings.Count(path, "/")
	score -= (depth - 1) * 10
	if score < 1 {
		score = 1
	}
	return score
}

// probeCommonPaths HEAD-requests the fixed path list in order and returns
// the first that answers with a non-error status.
func (r *Resolver) probeCommonPaths(ctx context.Context, origin string) string {
	for _, path := range commonPaths {
		url := origin + path
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			continue
		}
		resp, err := r.probe.Do(req)
		if err != nil {
			continue
		}
		resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 400 {
			return url
		}
	}
	return ""
}

// searchCandidate is the last resort: a scoped web search for the
// competitor's pricing page, accepting only hits on the competitor's own
// host.
func (r *Resolver) searchCandidate(ctx context.Context, name, origin string) string {
	host := strings.TrimPrefix(origin, "https://")
	resp, err := r.scraper.Search(ctx, firecrawl.SearchRequest{
		Query: fmt.Sprintf("%s pricing site:%s", name, host),
		Limit: 3,
	})
	if err != nil {
		zap.L().Debug("pricing search failed", zap.String("origin", origin), zap.Error(err))
		return ""
	}
	for _, item := range resp.Data {
		if strings.Contains(strings.ToLower(item.URL), strings.ToLower(host)) {
			return item.URL
		}
	}
	return ""
}
