package riskml

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/clinicore/clinicore/internal/config"
)

// ErrServiceUnavailable is returned when the prediction service is down or
// the circuit breaker is open.
var ErrServiceUnavailable = errors.New("risk prediction service unavailable")

// Features is the clinical feature vector submitted for scoring. The model's
// internals are owned by the external service; this is only the contract.
type Features struct {
	Age               int      `json:"age"`
	Gender            string   `json:"gender"`
	BloodType         string   `json:"blood_type,omitempty"`
	ChronicConditions []string `json:"chronic_conditions,omitempty"`
	Allergies         []string `json:"allergies,omitempty"`

	HeartRateBPM       *int     `json:"heart_rate_bpm,omitempty"`
	SystolicBP         *int     `json:"systolic_bp,omitempty"`
	DiastolicBP        *int     `json:"diastolic_bp,omitempty"`
	TemperatureCelsius *float64 `json:"temperature_celsius,omitempty"`
	WeightKg           *float64 `json:"weight_kg,omitempty"`
	HeightCm           *float64 `json:"height_cm,omitempty"`
}

// Prediction is the service's scored response.
type Prediction struct {
	Score     float64   `json:"score"` // 0.0 (low) … 1.0 (high)
	Level     string    `json:"level"` // "low" | "moderate" | "high"
	ModelName string    `json:"model_name"`
	ScoredAt  time.Time `json:"scored_at"`
}

// Client calls the external ML risk service over HTTP, behind a circuit
// breaker so a slow or failing model endpoint cannot pile up requests.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*Prediction]
}

func NewClient(cfg config.RiskMLConfig) *Client {
	settings := gobreaker.Settings{
		Name:    "riskml",
		Timeout: cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerMaxFailures
		},
	}

	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		breaker: gobreaker.NewCircuitBreaker[*Prediction](settings),
	}
}

// Predict submits the feature vector and returns the model's risk score.
func (c *Client) Predict(ctx context.Context, f Features) (*Prediction, error) {
	pred, err := c.breaker.Execute(func() (*Prediction, error) {
		return c.predict(ctx, f)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrServiceUnavailable
		}
		return nil, err
	}
	return pred, nil
}

func (c *Client) predict(ctx context.Context, f Features) (*Prediction, error) {
	payload, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encoding features: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/predict", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrServiceUnavailable, resp.StatusCode)
	}

	var pred Prediction
	if err := json.NewDecoder(resp.Body).Decode(&pred); err != nil {
		return nil, fmt.Errorf("decoding prediction: %w", err)
	}
	return &pred, nil
}
