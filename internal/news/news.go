package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"paper-trader-go/internal/config"
	"paper-trader-go/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// query sent to the upstream news API for market-relevant headlines.
const newsQuery = "stocks OR economy OR business OR finance OR market OR trade war OR interest rate OR inflation"

// Article is one headline as served to clients.
type Article struct {
	Source      string `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	ImageURL    string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
}

// apiResponse mirrors the NewsAPI "everything" payload.
type apiResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		URLToImage  string `json:"urlToImage"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// Service fetches market headlines and caches them per calendar day, so the
// upstream API is hit at most once a day regardless of traffic.
type Service struct {
	client *resty.Client
	db     *gorm.DB
	logger *zap.Logger
	cfg    *config.News
}

// NewService creates a news service.
func NewService(db *gorm.DB, cfg *config.News, logger *zap.Logger) *Service {
	return &Service{
		client: resty.New().SetBaseURL(cfg.BaseURL),
		db:     db,
		logger: logger,
		cfg:    cfg,
	}
}

// Headlines returns today's cached headlines, fetching and locking the day
// on a cache miss.
func (s *Service) Headlines(ctx context.Context) ([]Article, error) {
	day := time.Now().Format("2006-01-02")

	var cached models.NewsCache
	err := s.db.WithContext(ctx).First(&cached, "day = ?", day).Error
	if err == nil {
		var articles []Article
		if err := json.Unmarshal([]byte(cached.Articles), &articles); err != nil {
			return nil, fmt.Errorf("failed to decode cached news: %w", err)
		}
		return articles, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to read news cache: %w", err)
	}

	articles, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(articles)
	if err != nil {
		return nil, fmt.Errorf("failed to encode news: %w", err)
	}
	cacheErr := s.db.WithContext(ctx).
		Create(&models.NewsCache{Day: day, Articles: string(encoded)}).Error
	if cacheErr != nil {
		// Serving the fetched articles matters more than caching them.
		s.logger.Warn("Failed to cache news", zap.Error(cacheErr))
	}
	return articles, nil
}

func (s *Service) fetch(ctx context.Context) ([]Article, error) {
	var result apiResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":        newsQuery,
			"language": "en",
			"sortBy":   "publishedAt",
			"pageSize": fmt.Sprintf("%d", s.cfg.PageSize),
			"apiKey":   s.cfg.ApiKey,
		}).
		SetResult(&result).
		Get("/v2/everything")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("news API returned status %s", resp.Status())
	}
	if result.Status != "ok" {
		return nil, fmt.Errorf("news API error: %s", result.Message)
	}

	articles := make([]Article, 0, len(result.Articles))
	for _, a := range result.Articles {
		articles = append(articles, Article{
			Source:      a.Source.Name,
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			ImageURL:    a.URLToImage,
			PublishedAt: a.PublishedAt,
		})
	}
	return articles, nil
}
