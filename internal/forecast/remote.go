package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/rs/zerolog/log"
)

// RemoteModelConfig encapsulates the connection info for the externally
// hosted forecasting model.
type RemoteModelConfig struct {
	URL     string
	Timeout time.Duration
	Retries int
}

// RemoteModel calls the hosted ML forecasting service over HTTP. It is the
// only method that performs network I/O; it carries its own timeout and
// retry policy so a slow or failing model never blocks the statistical
// methods running alongside it.
type RemoteModel struct {
	cfg    RemoteModelConfig
	client *http.Client
}

func NewRemoteModel(cfg RemoteModelConfig) (*RemoteModel, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("remote model url must be provided")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}

	return &RemoteModel{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

func (r *RemoteModel) Name() string { return domain.MethodMLModel }

type remoteRequest struct {
	History []remoteObservation `json:"history"`
	Horizon int                 `json:"horizon"`
	Start   string              `json:"start_date"`
}

type remoteObservation struct {
	Date           string   `json:"date"`
	UnitsSold      float64  `json:"units_sold"`
	Promotion      bool     `json:"promotion_flag"`
	Holiday        bool     `json:"holiday_flag"`
	Weekend        bool     `json:"is_weekend"`
	MarketingSpend *float64 `json:"marketing_spend,omitempty"`
}

type remoteResponse struct {
	Forecasts []struct {
		Date  string   `json:"date"`
		Value float64  `json:"value"`
		Lower *float64 `json:"lower,omitempty"`
		Upper *float64 `json:"upper,omitempty"`
	} `json:"forecasts"`
}

func (r *RemoteModel) Forecast(ctx context.Context, history []domain.DemandObservation, horizon int, start time.Time) ([]domain.ForecastPoint, error) {
	payload := remoteRequest{
		History: make([]remoteObservation, 0, len(history)),
		Horizon: horizon,
		Start:   start.Format("2006-01-02"),
	}
	for _, obs := range history {
		payload.History = append(payload.History, remoteObservation{
			Date:           obs.Date.Format("2006-01-02"),
			UnitsSold:      obs.UnitsSold,
			Promotion:      obs.PromotionFlag,
			Holiday:        obs.HolidayFlag,
			Weekend:        obs.IsWeekend,
			MarketingSpend: obs.MarketingSpend,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode model request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= r.cfg.Retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * time.Second
			log.Warn().Err(lastErr).Int("attempt", attempt).Msg("retrying remote forecast model")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		points, err := r.call(ctx, body, start, horizon)
		if err == nil {
			return points, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("remote model failed after %d attempts: %w", r.cfg.Retries+1, lastErr)
}

func (r *RemoteModel) call(ctx context.Context, body []byte, start time.Time, horizon int) ([]domain.ForecastPoint, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build model request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("model request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model returned status %d", resp.StatusCode)
	}

	var decoded remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode model response: %w", err)
	}

	points := make([]domain.ForecastPoint, 0, len(decoded.Forecasts))
	for i, f := range decoded.Forecasts {
		date, err := time.Parse("2006-01-02", f.Date)
		if err != nil {
			// tolerate missing dates by position
			date = start.AddDate(0, 0, i)
		}
		value := f.Value
		if value < 0 {
			value = 0
		}
		points = append(points, domain.ForecastPoint{
			Date:       date,
			Value:      value,
			LowerBound: f.Lower,
			UpperBound: f.Upper,
		})
	}

	if len(points) != horizon {
		return nil, fmt.Errorf("model returned %d points, expected %d", len(points), horizon)
	}
	return points, nil
}
