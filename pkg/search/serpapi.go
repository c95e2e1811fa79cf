package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/easyops/adqa-go/pkg/core/config"
	"github.com/easyops/adqa-go/pkg/core/errors"
	"github.com/easyops/adqa-go/pkg/otel"
	"github.com/easyops/adqa-go/pkg/rag"
)

// WebSourceName 网页搜索来源名
const WebSourceName = "web"

// WebSearch 基于 SerpAPI 的网页搜索来源
//
// 先按优先级查询每个优先站点（site: 限定），全部没有结果时才执行一次通用查询。
// 站点查询并发执行，结果仍按站点顺序拼接。
type WebSearch struct {
	cfg  config.SearchConfig
	opts *options
}

// NewWebSearch 创建网页搜索来源
func NewWebSearch(cfg config.SearchConfig, opts ...Option) *WebSearch {
	cfg = cfg.WithDefaults()
	o := newOptions(opts)
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	o.logger = o.logger.With("component", "search.web")
	return &WebSearch{cfg: cfg, opts: o}
}

// Name 返回来源名
func (w *WebSearch) Name() string {
	return WebSourceName
}

// Search 执行优先站点搜索与通用搜索兜底
func (w *WebSearch) Search(ctx context.Context, query string) []string {
	ctx, span := w.opts.tracer.Start(ctx, "search.web",
		otel.WithSpanKind(otel.SpanKindClient),
		otel.WithAttributes(otel.Source(WebSourceName), otel.QueryLength(len(query))),
	)
	defer span.End()

	logger := w.opts.logger.WithContext(ctx)
	if w.cfg.APIKey == "" {
		logger.Warn("serpapi key not configured, skipping web search")
		return nil
	}

	sites := w.cfg.PrioritySites
	slots := make([][]string, len(sites))

	g, gctx := errgroup.WithContext(ctx)
	if w.cfg.Concurrency > 0 {
		g.SetLimit(w.cfg.Concurrency)
	}
	for i, site := range sites {
		g.Go(func() error {
			snippets, err := w.query(gctx, "site:"+site+" "+query, 0)
			if err != nil {
				w.fail(gctx, span, "site", err, "site", site)
				return nil
			}
			logger.Debug("priority site searched", "site", site, "snippets", len(snippets))
			slots[i] = snippets
			return nil
		})
	}
	_ = g.Wait()

	var results []string
	for _, s := range slots {
		results = append(results, s...)
	}
	logger.Info("priority search completed", "sites", len(sites), "snippets", len(results))

	if len(results) == 0 {
		snippets, err := w.query(ctx, query, w.cfg.GenericResults)
		if err != nil {
			w.fail(ctx, span, "generic", err)
		} else {
			logger.Info("generic search completed", "snippets", len(snippets))
			results = snippets
		}
	}

	cleaned := rag.NormalizeSnippets(results)
	span.SetAttributes(otel.SnippetCount(len(cleaned)))
	return cleaned
}

// fail 记录单次查询失败，不中断其他查询
func (w *WebSearch) fail(ctx context.Context, span otel.Span, kind string, err error, args ...any) {
	span.RecordError(err)
	w.opts.metrics.Counter(otel.MetricSearchErrors).Add(ctx, 1,
		otel.NewAttr(otel.AttrSource, WebSourceName),
		otel.NewAttr("query.kind", kind),
	)
	fields := append([]any{"kind", kind, "error", err, "error_type", errors.Classify(err)}, args...)
	w.opts.logger.WithContext(ctx).Warn("web search failed", fields...)
}

type serpResponse struct {
	OrganicResults []struct {
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
	Error string `json:"error"`
}

// query 调用 SerpAPI，num 大于 0 时限制返回条数
func (w *WebSearch) query(ctx context.Context, q string, num int) ([]string, error) {
	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", q)
	params.Set("api_key", w.cfg.APIKey)
	if num > 0 {
		params.Set("num", strconv.Itoa(num))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrSearchFailed, err)
	}

	resp, err := w.opts.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrSearchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: status=%d: %s", errors.ErrSearchFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var data serpResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", errors.ErrSearchFailed, err)
	}
	if data.Error != "" {
		return nil, fmt.Errorf("%w: %s", errors.ErrSearchFailed, data.Error)
	}

	snippets := make([]string, 0, len(data.OrganicResults))
	for _, r := range data.OrganicResults {
		if r.Snippet != "" {
			snippets = append(snippets, r.Snippet)
		}
	}
	return snippets, nil
}

var _ rag.SnippetSource = (*WebSearch)(nil)
