package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"pricewatch/internal/model"
)

// Embed colors.
const (
	colorRange     = 0x00ff00 // price entered the target band
	colorThreshold = 0xff9900 // price moved past the configured threshold
	colorError     = 0xff0000
)

// Discord delivers alerts to a Discord webhook as rich embeds.
type Discord struct {
	webhookURL string
	username   string
	http       *resty.Client
}

// NewDiscord creates a Discord webhook notifier.
func NewDiscord(webhookURL, username string, timeout time.Duration) *Discord {
	if username == "" {
		username = "Price Monitor"
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Discord{
		webhookURL: webhookURL,
		username:   username,
		http:       resty.New().SetTimeout(timeout),
	}
}

type webhookPayload struct {
	Username string  `json:"username"`
	Embeds   []embed `json:"embeds"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url,omitempty"`
	Color       int          `json:"color"`
	Fields      []embedField `json:"fields,omitempty"`
	Timestamp   string       `json:"timestamp"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Notify posts one embed for the event. A non-2xx webhook response is a
// DeliveryError; the caller decides what to do with it.
func (d *Discord) Notify(ctx context.Context, event model.ChangeEvent) error {
	e := embed{
		Title:     fmt.Sprintf("Price Alert: %s", event.Current.Title),
		URL:       event.Current.Link,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Fields: []embedField{
			{Name: "Current Price", Value: formatPrice(event.Current), Inline: true},
			{Name: "Previous Price", Value: formatPrice(event.Previous), Inline: true},
			{Name: "Retailer", Value: event.Current.Retailer, Inline: true},
		},
	}
	if e.Title == "Price Alert: " {
		e.Title = fmt.Sprintf("Price Alert: %s", event.ItemID)
	}

	switch event.Kind {
	case model.AlertKindRange:
		e.Color = colorRange
		e.Description = "Price is now in your target range."
	default:
		e.Color = colorThreshold
		e.Description = fmt.Sprintf("Price changed by %s%%.", event.DeltaPercent.Round(1))
	}

	return d.post(ctx, webhookPayload{Username: d.username, Embeds: []embed{e}})
}

// ReportError posts an operational error embed.
func (d *Discord) ReportError(ctx context.Context, message string) error {
	return d.post(ctx, webhookPayload{
		Username: d.username,
		Embeds: []embed{{
			Title:       "Price Monitor Error",
			Description: message,
			Color:       colorError,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		}},
	})
}

func (d *Discord) post(ctx context.Context, payload webhookPayload) error {
	resp, err := d.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(d.webhookURL)
	if err != nil {
		return &DeliveryError{Channel: "discord", Err: err}
	}
	if resp.IsError() {
		return &DeliveryError{
			Channel: "discord",
			Err:     fmt.Errorf("webhook status %d: %s", resp.StatusCode(), resp.String()),
		}
	}
	return nil
}

func formatPrice(s model.PriceSample) string {
	symbol := map[string]string{"GBP": "£", "USD": "$", "EUR": "€"}[s.Currency]
	if symbol == "" {
		symbol = s.Currency + " "
	}
	return fmt.Sprintf("%s%s", symbol, s.Price.StringFixed(2))
}
