package service

import (
	"codeleap_backend/internal/config"
	"codeleap_backend/internal/util"
	"codeleap_backend/pkg/logger"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const fetchCacheKeyPrefix = "codeleap:fetched_url:"

var excessiveBlankLines = regexp.MustCompile(`\n{4,}`)

// ErrCacheMiss 缓存中没有该条目
var ErrCacheMiss = errors.New("content cache miss")

// ContentCache 抓取结果缓存，生产环境由 Redis 承担
type ContentCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type redisContentCache struct {
	rdb *redis.Client
}

func (c redisContentCache) Get(ctx context.Context, key string) (string, error) {
	v, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrCacheMiss
	}
	return v, err
}

func (c redisContentCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// ContentFetcherService 抓取文档/代码 URL 的文本内容供计划生成使用。
// HTML 页面先转成纯文本，超长内容截断，结果写入缓存避免重复抓取。
type ContentFetcherService struct {
	config    config.FetchConfig
	client    *http.Client
	converter *md.Converter
	cache     ContentCache
}

func NewContentFetcherService(cfg config.FetchConfig, rdb *redis.Client) *ContentFetcherService {
	converter := md.NewConverter("", true, nil)
	s := &ContentFetcherService{
		config:    cfg,
		client:    &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		converter: converter,
	}
	if rdb != nil {
		s.cache = redisContentCache{rdb: rdb}
	}
	return s
}

// FetchLabeled 抓取 URL 内容并包上带标签的分隔段，抓取失败时返回错误占位段而不是中断计划生成
func (s *ContentFetcherService) FetchLabeled(ctx context.Context, url, label string) string {
	text, err := s.Fetch(ctx, url)
	if err != nil {
		logger.Log.Warn("URL 内容抓取失败", zap.String("url", url), zap.Error(err))
		return fmt.Sprintf("\n\n[Error fetching %s from %s: %v]", label, url, err)
	}
	return fmt.Sprintf("\n\n--- %s from URL (%s) ---\n%s", label, url, text)
}

// Fetch 返回 URL 的纯文本内容（已截断），优先走缓存
func (s *ContentFetcherService) Fetch(ctx context.Context, url string) (string, error) {
	cacheKey := fetchCacheKeyPrefix + url
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
			return cached, nil
		} else if !errors.Is(err, ErrCacheMiss) {
			logger.Log.Warn("读取 URL 缓存失败", zap.Error(err))
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/plain, text/html, application/json, */*")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	// 内容上限的4倍作为读取上限，避免超大响应撑爆内存
	limit := int64(s.config.MaxContentChars) * 4
	raw, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return "", err
	}

	text := string(raw)
	if looksLikeHTML(text) {
		text = s.htmlToText(text)
	}

	text = strings.TrimSpace(excessiveBlankLines.ReplaceAllString(text, "\n\n\n"))
	if len([]rune(text)) > s.config.MaxContentChars {
		text = util.Truncate(text, s.config.MaxContentChars) + "\n[Content truncated due to length]"
	}

	if s.cache != nil {
		ttl := time.Duration(s.config.CacheTTLMinutes) * time.Minute
		if err := s.cache.Set(ctx, cacheKey, text, ttl); err != nil {
			logger.Log.Warn("写入 URL 缓存失败", zap.Error(err))
		}
	}

	return text, nil
}

func looksLikeHTML(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, "<html") || strings.Contains(lower, "<!doctype html")
}

// htmlToText HTML 先转 markdown 保留代码块结构，转换失败时退回到裸文本抽取
func (s *ContentFetcherService) htmlToText(raw string) string {
	converted, err := s.converter.ConvertString(raw)
	if err == nil && strings.TrimSpace(converted) != "" {
		return converted
	}

	node, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return raw
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)

	return strings.Join(strings.Fields(b.String()), " ")
}
