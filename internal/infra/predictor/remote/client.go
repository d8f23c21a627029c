package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yanqian/surgecast/internal/domain/facility"
)

const defaultTimeout = 10 * time.Second

// Client calls an HTTP model server's /predict endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a model server client.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	url := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if url == "" {
		return nil, fmt.Errorf("predictor base url is required")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    url,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Predict posts the feature vector and decodes the raw model outputs.
func (c *Client) Predict(ctx context.Context, features facility.FeatureVector) (facility.PredictionVector, error) {
	body, err := json.Marshal(features)
	if err != nil {
		return facility.PredictionVector{}, fmt.Errorf("encode predict request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return facility.PredictionVector{}, fmt.Errorf("build predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return facility.PredictionVector{}, fmt.Errorf("predict request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return facility.PredictionVector{}, fmt.Errorf("predict request error: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var raw predictResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&raw); err != nil {
		return facility.PredictionVector{}, fmt.Errorf("decode predict response: %w", err)
	}
	return raw.toVector()
}

// predictResponse accepts staff_workload either as a class index or as its
// label, so both raw model servers and label-emitting ones work.
type predictResponse struct {
	EmergencyLoad    *float64        `json:"emergency_load"`
	ICUBeds          *float64        `json:"icu_beds"`
	VentilatorDemand *float64        `json:"ventilator_demand"`
	StaffWorkload    json.RawMessage `json:"staff_workload"`
}

func (r predictResponse) toVector() (facility.PredictionVector, error) {
	if r.EmergencyLoad == nil || r.ICUBeds == nil || r.VentilatorDemand == nil || len(r.StaffWorkload) == 0 {
		return facility.PredictionVector{}, fmt.Errorf("predict response missing fields")
	}
	idx, err := workloadIndex(r.StaffWorkload)
	if err != nil {
		return facility.PredictionVector{}, err
	}
	return facility.PredictionVector{
		EmergencyLoad:    *r.EmergencyLoad,
		ICUBeds:          *r.ICUBeds,
		VentilatorDemand: *r.VentilatorDemand,
		StaffWorkload:    idx,
	}, nil
}

func workloadIndex(raw json.RawMessage) (int, error) {
	var idx int
	if err := json.Unmarshal(raw, &idx); err == nil {
		return idx, nil
	}
	var label string
	if err := json.Unmarshal(raw, &label); err != nil {
		return 0, fmt.Errorf("staff_workload must be an index or label")
	}
	for i := 0; ; i++ {
		level, err := facility.StaffWorkloadFromIndex(i)
		if err != nil {
			return 0, fmt.Errorf("unknown staff_workload label %q", label)
		}
		if strings.EqualFold(string(level), label) {
			return i, nil
		}
	}
}

var _ facility.Predictor = (*Client)(nil)
