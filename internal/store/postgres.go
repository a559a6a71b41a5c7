package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"pricewatch/internal/config"
	"pricewatch/internal/model"
)

// BuildConnString builds a PostgreSQL connection string from config.
func BuildConnString(cfg config.DBConfig) string {
	// URL-encode password to handle special characters
	escapedPassword := url.QueryEscape(cfg.Password)

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User,
		escapedPassword,
		cfg.Host,
		cfg.Port,
		cfg.Name,
		sslMode,
	)
}

// PostgresStore keeps one monitor_state row per tracked item.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects, verifies the connection and ensures the schema.
func NewPostgresStore(ctx context.Context, cfg config.DBConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(BuildConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: create pool: %v", ErrUnavailable, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping database: %v", ErrUnavailable, err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Pool exposes the underlying pool for the history recorder and health pings.
func (s *PostgresStore) Pool() *pgxpool.Pool { return s.pool }

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS monitor_state (
			item_id              TEXT PRIMARY KEY,
			price                NUMERIC,
			currency             TEXT,
			retailer             TEXT,
			link                 TEXT,
			title                TEXT,
			fetched_at           TIMESTAMPTZ,
			lowest_price         NUMERIC NOT NULL,
			last_alert_kind      TEXT NOT NULL DEFAULT '',
			last_check           TIMESTAMPTZ NOT NULL,
			last_outcome         TEXT NOT NULL,
			consecutive_failures INT NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS price_history (
			item_id    TEXT NOT NULL,
			fetched_at TIMESTAMPTZ NOT NULL,
			price      NUMERIC NOT NULL,
			currency   TEXT NOT NULL,
			retailer   TEXT NOT NULL,
			link       TEXT,
			PRIMARY KEY (item_id, fetched_at)
		);`

	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("%w: ensure schema: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, itemID string) (*model.MonitorState, error) {
	const q = `
		SELECT price::text, currency, retailer, link, title, fetched_at,
		       lowest_price::text, last_alert_kind, last_check, last_outcome,
		       consecutive_failures
		FROM monitor_state WHERE item_id = $1`

	var (
		price, currency, retailer, link, title *string
		fetchedAt                              *time.Time
		lowest, alertKind, outcome             string
		lastCheck                              time.Time
		failures                               int
	)

	err := s.pool.QueryRow(ctx, q, itemID).Scan(
		&price, &currency, &retailer, &link, &title, &fetchedAt,
		&lowest, &alertKind, &lastCheck, &outcome, &failures,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load state for %s: %v", ErrUnavailable, itemID, err)
	}

	st := &model.MonitorState{
		ItemID:              itemID,
		LastAlertKind:       alertKind,
		LastCheck:           lastCheck,
		LastOutcome:         model.CheckOutcome(outcome),
		ConsecutiveFailures: failures,
	}

	st.LowestPrice, err = decimal.NewFromString(lowest)
	if err != nil {
		return nil, fmt.Errorf("%w: corrupt lowest_price for %s: %v", ErrUnavailable, itemID, err)
	}

	if price != nil && fetchedAt != nil {
		p, err := decimal.NewFromString(*price)
		if err != nil {
			return nil, fmt.Errorf("%w: corrupt price for %s: %v", ErrUnavailable, itemID, err)
		}
		st.LastSample = &model.PriceSample{
			ItemID:    itemID,
			Price:     p,
			Currency:  deref(currency),
			Retailer:  deref(retailer),
			Link:      deref(link),
			Title:     deref(title),
			FetchedAt: *fetchedAt,
		}
	}

	return st, nil
}

func (s *PostgresStore) Save(ctx context.Context, state model.MonitorState) error {
	const q = `
		INSERT INTO monitor_state (
			item_id, price, currency, retailer, link, title, fetched_at,
			lowest_price, last_alert_kind, last_check, last_outcome,
			consecutive_failures
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (item_id) DO UPDATE SET
			price                = EXCLUDED.price,
			currency             = EXCLUDED.currency,
			retailer             = EXCLUDED.retailer,
			link                 = EXCLUDED.link,
			title                = EXCLUDED.title,
			fetched_at           = EXCLUDED.fetched_at,
			lowest_price         = EXCLUDED.lowest_price,
			last_alert_kind      = EXCLUDED.last_alert_kind,
			last_check           = EXCLUDED.last_check,
			last_outcome         = EXCLUDED.last_outcome,
			consecutive_failures = EXCLUDED.consecutive_failures`

	var (
		price, currency, retailer, link, title *string
		fetchedAt                              *time.Time
	)
	if sm := state.LastSample; sm != nil {
		p := sm.Price.String()
		price, currency, retailer, link, title = &p, &sm.Currency, &sm.Retailer, &sm.Link, &sm.Title
		fetchedAt = &sm.FetchedAt
	}

	_, err := s.pool.Exec(ctx, q,
		state.ItemID, price, currency, retailer, link, title, fetchedAt,
		state.LowestPrice.String(), state.LastAlertKind, state.LastCheck,
		string(state.LastOutcome), state.ConsecutiveFailures,
	)
	if err != nil {
		return fmt.Errorf("%w: save state for %s: %v", ErrUnavailable, state.ItemID, err)
	}
	return nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
