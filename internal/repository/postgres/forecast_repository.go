package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type forecastRepository struct {
	db *DB
}

func NewForecastRepository(db *DB) *forecastRepository {
	return &forecastRepository{db: db}
}

func (r *forecastRepository) SaveRun(ctx context.Context, run *domain.ForecastRun) error {
	query := `
		INSERT INTO forecast_runs (
			id, item_ids, primary_method, prediction_length,
			include_baseline, training_end_date, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		run.ID,
		pq.Array(run.ItemIDs),
		run.PrimaryMethod,
		run.PredictionLength,
		run.IncludeBaseline,
		run.TrainingEndDate,
		run.Status,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert forecast run: %w", err)
	}

	return nil
}

func (r *forecastRepository) SaveResults(ctx context.Context, results []domain.ForecastResult) error {
	if len(results) == 0 {
		return nil
	}

	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO forecast_results (
				run_id, item_id, method, date,
				point_forecast, lower_bound, upper_bound
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (run_id, item_id, method, date)
			DO UPDATE SET
				point_forecast = EXCLUDED.point_forecast,
				lower_bound = EXCLUDED.lower_bound,
				upper_bound = EXCLUDED.upper_bound
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, result := range results {
			_, err := stmt.ExecContext(
				ctx,
				result.RunID,
				result.ItemID,
				result.Method,
				result.Date,
				result.Value,
				result.LowerBound,
				result.UpperBound,
			)
			if err != nil {
				return fmt.Errorf("failed to insert forecast result: %w", err)
			}
		}

		return nil
	})
}

func (r *forecastRepository) UpdateRunStatus(ctx context.Context, runID string, status domain.RunStatus, completedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE forecast_runs SET status = $1, completed_at = $2 WHERE id = $3`,
		status, completedAt, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to update forecast run %s: %w", runID, err)
	}
	return nil
}

// BackfillActuals copies observed demand onto forecast rows whose date has
// passed, so quality metrics can be computed over matched pairs.
func (r *forecastRepository) BackfillActuals(ctx context.Context, itemID, method string, since time.Time) error {
	query := `
		UPDATE forecast_results fr
		SET actual_value = d.units_sold
		FROM demand_observations d
		WHERE fr.item_id = d.item_id
		  AND fr.date = d.date
		  AND fr.item_id = $1
		  AND fr.method = $2
		  AND fr.date >= $3
		  AND fr.actual_value IS NULL
	`

	if _, err := r.db.ExecContext(ctx, query, itemID, method, since); err != nil {
		return fmt.Errorf("failed to backfill actuals for %s/%s: %w", itemID, method, err)
	}
	return nil
}

func (r *forecastRepository) GetResults(ctx context.Context, itemID, method string, since time.Time) ([]domain.ForecastResult, error) {
	query := `
		SELECT run_id, item_id, method, date,
		       point_forecast, lower_bound, upper_bound, actual_value
		FROM forecast_results
		WHERE item_id = $1 AND method = $2 AND date >= $3
		ORDER BY date ASC
	`

	var results []domain.ForecastResult
	if err := r.db.SelectContext(ctx, &results, query, itemID, method, since); err != nil {
		return nil, fmt.Errorf("failed to load forecast results for %s/%s: %w", itemID, method, err)
	}
	return results, nil
}
