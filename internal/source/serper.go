package source

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"pricewatch/internal/model"
)

// SerperConfig holds Serper.dev shopping API settings.
type SerperConfig struct {
	APIURL            string        // Endpoint (default: https://google.serper.dev/shopping)
	APIKey            string        // X-API-KEY header value
	Country           string        // gl parameter (default: "uk")
	Language          string        // hl parameter (default: "en")
	Location          string        // Free-text location bias
	MaxResults        int           // num parameter (default: 20)
	Timeout           time.Duration // Per-request timeout (default: 15s)
	ExcludedRetailers []string      // Retailer substrings to drop, lowercase
}

// DefaultSerperConfig returns sensible defaults.
func DefaultSerperConfig() SerperConfig {
	return SerperConfig{
		APIURL:     "https://google.serper.dev/shopping",
		Country:    "uk",
		Language:   "en",
		MaxResults: 20,
		Timeout:    15 * time.Second,
	}
}

// Serper fetches prices from the Serper.dev Google Shopping API.
type Serper struct {
	cfg    SerperConfig
	http   *resty.Client
	logger *slog.Logger
}

// NewSerper creates a new Serper source.
func NewSerper(cfg SerperConfig, logger *slog.Logger) *Serper {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultSerperConfig().APIURL
	}
	if cfg.MaxResults == 0 {
		cfg.MaxResults = DefaultSerperConfig().MaxResults
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultSerperConfig().Timeout
	}

	return &Serper{
		cfg: cfg,
		http: resty.New().
			SetTimeout(cfg.Timeout).
			SetHeader("Content-Type", "application/json"),
		logger: logger,
	}
}

// serperRequest is the POST body for /shopping.
type serperRequest struct {
	Query    string `json:"q"`
	Country  string `json:"gl,omitempty"`
	Language string `json:"hl,omitempty"`
	Location string `json:"location,omitempty"`
	Num      int    `json:"num,omitempty"`
}

// serperResponse is the subset of the response we consume.
type serperResponse struct {
	Shopping []serperOffer `json:"shopping"`
}

type serperOffer struct {
	Title  string `json:"title"`
	Source string `json:"source"` // retailer name
	Link   string `json:"link"`
	Price  string `json:"price"` // e.g. "£1,234.56"
}

// Fetch queries the shopping API and returns the lowest-priced offer from a
// non-excluded retailer. Performs exactly one request; no retries.
func (s *Serper) Fetch(ctx context.Context, item model.Item) (model.PriceSample, error) {
	var result serperResponse

	resp, err := s.http.R().
		SetContext(ctx).
		SetHeader("X-API-KEY", s.cfg.APIKey).
		SetBody(serperRequest{
			Query:    item.FullQuery(),
			Country:  s.cfg.Country,
			Language: s.cfg.Language,
			Location: s.cfg.Location,
			Num:      s.cfg.MaxResults,
		}).
		SetResult(&result).
		Post(s.cfg.APIURL)
	if err != nil {
		return model.PriceSample{}, Unavailable(item.ID, err)
	}
	if resp.IsError() {
		return model.PriceSample{}, Unavailable(item.ID,
			fmt.Errorf("shopping api status %d: %s", resp.StatusCode(), resp.Status()))
	}

	best, err := s.selectOffer(item, result.Shopping)
	if err != nil {
		return model.PriceSample{}, ParseFailure(item.ID, err)
	}

	return best, nil
}

// selectOffer picks the cheapest parsable offer after retailer filtering.
func (s *Serper) selectOffer(item model.Item, offers []serperOffer) (model.PriceSample, error) {
	if len(offers) == 0 {
		return model.PriceSample{}, fmt.Errorf("no shopping results for %q", item.FullQuery())
	}

	fallbackCurrency := "GBP"
	if s.cfg.Country != "uk" && s.cfg.Country != "gb" {
		fallbackCurrency = "USD"
	}

	var (
		best  model.PriceSample
		found bool
	)

	for _, offer := range offers {
		if s.excluded(offer.Source) {
			continue
		}

		price, currency, err := parsePrice(offer.Price, fallbackCurrency)
		if err != nil || !price.IsPositive() {
			s.logger.Debug("skipping unparsable offer",
				"item", item.ID,
				"retailer", offer.Source,
				"price", offer.Price,
			)
			continue
		}

		if !found || price.LessThan(best.Price) {
			best = model.PriceSample{
				ItemID:    item.ID,
				Price:     price,
				Currency:  currency,
				Retailer:  offer.Source,
				Link:      offer.Link,
				Title:     offer.Title,
				FetchedAt: time.Now().UTC(),
			}
			found = true
		}
	}

	if !found {
		return model.PriceSample{}, fmt.Errorf("no offer with a valid price among %d results", len(offers))
	}

	return best, nil
}

func (s *Serper) excluded(retailer string) bool {
	lower := strings.ToLower(retailer)
	for _, ex := range s.cfg.ExcludedRetailers {
		if ex != "" && strings.Contains(lower, ex) {
			return true
		}
	}
	return false
}
