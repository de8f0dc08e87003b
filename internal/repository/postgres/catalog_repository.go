package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/demandcast/internal/domain"
)

type catalogRepository struct {
	db *DB
}

func NewCatalogRepository(db *DB) *catalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) GetHistory(ctx context.Context, itemID string, start, end time.Time) ([]domain.DemandObservation, error) {
	query := `
		SELECT item_id, date, units_sold, stock_on_date,
		       promotion_flag, holiday_flag, is_weekend, marketing_spend
		FROM demand_observations
		WHERE item_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date ASC
	`

	var observations []domain.DemandObservation
	if err := r.db.SelectContext(ctx, &observations, query, itemID, start, end); err != nil {
		return nil, fmt.Errorf("failed to load history for %s: %w", itemID, err)
	}
	return observations, nil
}

func (r *catalogRepository) GetStockAndSettings(ctx context.Context, itemID string) (*domain.ItemSettings, error) {
	// Stock is aggregated across locations; per-location queries are the
	// application's concern.
	query := `
		SELECT p.item_id,
		       COALESCE(SUM(s.quantity), 0) AS current_stock,
		       p.unit_cost,
		       p.lead_time_days,
		       p.moq,
		       p.safety_buffer_days
		FROM products p
		LEFT JOIN stock_levels s ON s.item_id = p.item_id
		WHERE p.item_id = $1
		GROUP BY p.item_id, p.unit_cost, p.lead_time_days, p.moq, p.safety_buffer_days
	`

	var settings domain.ItemSettings
	if err := r.db.GetContext(ctx, &settings, query, itemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("item %s not found", itemID)
		}
		return nil, fmt.Errorf("failed to load settings for %s: %w", itemID, err)
	}
	return &settings, nil
}

func (r *catalogRepository) GetContributions(ctx context.Context, start, end time.Time) (map[string]float64, error) {
	query := `
		SELECT d.item_id, SUM(d.units_sold * p.unit_cost) AS revenue
		FROM demand_observations d
		JOIN products p ON p.item_id = d.item_id
		WHERE d.date BETWEEN $1 AND $2
		GROUP BY d.item_id
	`

	rows, err := r.db.QueryxContext(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load contributions: %w", err)
	}
	defer rows.Close()

	contributions := make(map[string]float64)
	for rows.Next() {
		var itemID string
		var revenue float64
		if err := rows.Scan(&itemID, &revenue); err != nil {
			return nil, fmt.Errorf("failed to scan contribution row: %w", err)
		}
		contributions[itemID] = revenue
	}
	return contributions, rows.Err()
}

func (r *catalogRepository) ListItemIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT item_id FROM products ORDER BY item_id`); err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return ids, nil
}
