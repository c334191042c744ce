package catalog

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/patric-chuzhbe/bookbuddy/internal/models"
)

const DefaultMaxResults = 20

type volumesResponse struct {
	Items []volume `json:"items"`
}

type volume struct {
	ID         string `json:"id"`
	VolumeInfo struct {
		Title      string   `json:"title"`
		Authors    []string `json:"authors"`
		ImageLinks struct {
			Thumbnail string `json:"thumbnail"`
		} `json:"imageLinks"`
	} `json:"volumeInfo"`
}

// GoogleBooks queries a Google Books compatible volumes endpoint.
type GoogleBooks struct {
	client     *resty.Client
	apiKey     string
	maxResults int
}

func NewGoogleBooks(baseURL, apiKey string, timeout time.Duration) *GoogleBooks {
	return &GoogleBooks{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		apiKey:     apiKey,
		maxResults: DefaultMaxResults,
	}
}

func (g *GoogleBooks) Search(ctx context.Context, query string) ([]models.CatalogBook, error) {
	query, err := normalizeQuery(query)
	if err != nil {
		return nil, err
	}

	params := map[string]string{
		"q":          query,
		"maxResults": strconv.Itoa(g.maxResults),
	}
	if g.apiKey != "" {
		params["key"] = g.apiKey
	}

	var body volumesResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&body).
		Get("")
	if err != nil {
		return nil, fmt.Errorf("in internal/catalog/googlebooks.go/Search(): error while `g.client.R().Get()` calling: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("in internal/catalog/googlebooks.go/Search(): catalog responded with %s", resp.Status())
	}

	result := make([]models.CatalogBook, 0, len(body.Items))
	for _, item := range body.Items {
		result = append(result, models.CatalogBook{
			BookID:       item.ID,
			Title:        item.VolumeInfo.Title,
			Authors:      JoinAuthors(item.VolumeInfo.Authors),
			ThumbnailURL: item.VolumeInfo.ImageLinks.Thumbnail,
		})
	}

	return result, nil
}
