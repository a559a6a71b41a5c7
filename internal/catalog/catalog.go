package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"pricewatch/internal/model"
)

// Sheet column headers recognized in the first CSV row.
const (
	colName    = "Product Name"
	colURL     = "Product URL"
	colQuery   = "Search Query"
	colSpecs   = "Specifications"
	colMin     = "Target Price Min"
	colMax     = "Target Price Max"
	colDropPct = "Drop Alert %"
	colActive  = "Active"
)

// DefaultDropPercent applies when the sheet leaves "Drop Alert %" blank.
var DefaultDropPercent = decimal.NewFromInt(25)

var (
	sheetIDRe = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)
	gidRe     = regexp.MustCompile(`[#&]gid=([0-9]+)`)
)

// ExportURL converts a Google Sheet URL into its CSV export form.
func ExportURL(sheetURL string) (string, error) {
	m := sheetIDRe.FindStringSubmatch(sheetURL)
	if m == nil {
		return "", fmt.Errorf("not a google sheet url: %q", sheetURL)
	}

	gid := "0"
	if gm := gidRe.FindStringSubmatch(sheetURL); gm != nil {
		gid = gm[1]
	}

	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/export?format=csv&gid=%s", m[1], gid), nil
}

// Loader fetches and parses the tracked-item sheet.
type Loader struct {
	csvURL string
	http   *resty.Client
	logger *slog.Logger
}

// NewLoader creates a Loader for the given sheet URL.
func NewLoader(sheetURL string, timeout time.Duration, logger *slog.Logger) (*Loader, error) {
	csvURL, err := ExportURL(sheetURL)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Loader{
		csvURL: csvURL,
		http:   resty.New().SetTimeout(timeout),
		logger: logger,
	}, nil
}

// Load fetches the sheet and returns all active items. Rows without a product
// name or with unparsable numbers are skipped with a warning, never fatal.
func (l *Loader) Load(ctx context.Context) ([]model.Item, error) {
	resp, err := l.http.R().SetContext(ctx).Get(l.csvURL)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog sheet: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch catalog sheet: status %d", resp.StatusCode())
	}

	items, err := l.parse(strings.NewReader(resp.String()))
	if err != nil {
		return nil, fmt.Errorf("parse catalog sheet: %w", err)
	}

	return items, nil
}

// parse reads the CSV export. The first row is the header; unknown columns
// are ignored so the sheet can carry extra notes.
func (l *Loader) parse(r io.Reader) ([]model.Item, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header row: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	if _, ok := cols[colName]; !ok {
		return nil, fmt.Errorf("sheet has no %q column", colName)
	}

	var items []model.Item
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			l.logger.Warn("skipping malformed catalog row", "line", line, "error", err)
			continue
		}

		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		if !isActive(field(colActive)) {
			continue
		}

		name := field(colName)
		if name == "" {
			continue
		}

		item := model.Item{
			ID:             ItemID(name),
			Name:           name,
			URL:            field(colURL),
			SearchQuery:    field(colQuery),
			Specifications: field(colSpecs),
			DropPercent:    DefaultDropPercent,
		}

		ok := true
		item.TargetMin, ok = parseOptionalDecimal(l.logger, line, colMin, field(colMin), ok)
		item.TargetMax, ok = parseOptionalDecimal(l.logger, line, colMax, field(colMax), ok)
		if raw := field(colDropPct); raw != "" {
			if d, err := decimal.NewFromString(raw); err == nil && d.IsPositive() {
				item.DropPercent = d
			} else {
				l.logger.Warn("skipping catalog row with invalid number",
					"line", line, "column", colDropPct, "value", raw)
				ok = false
			}
		}
		if !ok {
			continue
		}

		items = append(items, item)
	}

	l.logger.Info("catalog loaded", "items", len(items))
	return items, nil
}

func parseOptionalDecimal(logger *slog.Logger, line int, col, raw string, ok bool) (decimal.Decimal, bool) {
	if raw == "" {
		return decimal.Zero, ok
	}
	d, err := decimal.NewFromString(strings.TrimPrefix(raw, "£"))
	if err != nil {
		logger.Warn("skipping catalog row with invalid number", "line", line, "column", col, "value", raw)
		return decimal.Zero, false
	}
	return d, ok
}

// ItemID normalizes a product name into a stable state-store key.
func ItemID(name string) string {
	id := strings.ToLower(strings.TrimSpace(name))
	id = strings.Join(strings.Fields(id), "-")
	return id
}

// isActive mirrors the sheet convention: TRUE/YES/Y/1 mark a row active.
func isActive(v string) bool {
	switch strings.ToUpper(v) {
	case "TRUE", "YES", "Y", "1":
		return true
	}
	return false
}
