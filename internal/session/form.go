package session

import (
	"context"
	"strings"
	"time"

	"ordertrack/internal/lookup"
	"ordertrack/internal/rpc"
)

const (
	ArticleSuggestionLimit = 8
	CitySuggestionLimit    = 8
	MinCityQuery           = 2
	CityDelay              = 180 * time.Millisecond
)

// CitySearcher suggests city names for a partial query.
type CitySearcher interface {
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

// Form backs the order editor's type-ahead fields. Each lookup keeps only its
// newest query alive.
type Form struct {
	Articles     *lookup.Lookup[string, []string]
	Descriptions *lookup.Lookup[string, *string]
	Cities       *lookup.Lookup[string, []string]
}

func NewForm(svc rpc.Service, cities CitySearcher, delay time.Duration) *Form {
	return &Form{
		Articles: lookup.New[string, []string](delay, func(ctx context.Context, q string) ([]string, error) {
			q = strings.TrimSpace(q)
			if q == "" {
				return []string{}, nil
			}
			return svc.SearchArticleNames(ctx, q, ArticleSuggestionLimit)
		}),
		Descriptions: lookup.New[string, *string](0, func(ctx context.Context, name string) (*string, error) {
			return svc.GetLatestDescriptionForArticle(ctx, strings.TrimSpace(name))
		}),
		Cities: lookup.New[string, []string](CityDelay, func(ctx context.Context, q string) ([]string, error) {
			q = strings.TrimSpace(q)
			if cities == nil || len([]rune(q)) < MinCityQuery {
				return []string{}, nil
			}
			return cities.Search(ctx, q, CitySuggestionLimit)
		}),
	}
}

// BlankInput is a new order pre-filled from the saved preferences.
func BlankInput(p Preferences) rpc.OrderInput {
	return rpc.OrderInput{
		City:            p.DefaultCity,
		DeliveryCompany: p.DefaultDeliveryCompany,
	}
}

// ShouldAutofill reports whether the latest description for article should
// be copied into an empty description field. The article must be one of the
// names the service suggested.
func ShouldAutofill(article string, suggestions []string, description string) bool {
	article = strings.TrimSpace(article)
	if article == "" || strings.TrimSpace(description) != "" {
		return false
	}
	for _, s := range suggestions {
		if s == article {
			return true
		}
	}
	return false
}
