package vpic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/WessleyAI/vincheck/engine/domain"
)

const (
	DefaultDecodeURL     = "https://vpic.nhtsa.dot.gov/api/vehicles/decodevin"
	DefaultRecallsURL    = "https://api.nhtsa.gov/recalls/recallsByVehicle"
	DefaultComplaintsURL = "https://api.nhtsa.gov/complaints/complaintsByVehicle"

	userAgent = "vincheck/1.0 (+https://vpic.nhtsa.dot.gov)"
)

// HTTPClient matches net/http.Client Do signature for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the endpoint base URLs. Empty fields use the NHTSA defaults.
type Config struct {
	DecodeURL     string
	RecallsURL    string
	ComplaintsURL string
}

// Client calls the three NHTSA endpoints. It never retries and sets no timeout
// of its own; callers bound requests through ctx.
type Client struct {
	cfg    Config
	client HTTPClient
}

// New creates a Client. A nil httpClient gets an otelhttp-instrumented default.
func New(cfg Config, httpClient HTTPClient) *Client {
	if cfg.DecodeURL == "" {
		cfg.DecodeURL = DefaultDecodeURL
	}
	if cfg.RecallsURL == "" {
		cfg.RecallsURL = DefaultRecallsURL
	}
	if cfg.ComplaintsURL == "" {
		cfg.ComplaintsURL = DefaultComplaintsURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return &Client{cfg: cfg, client: httpClient}
}

// DecodeVIN fetches the decoder's variable list for vin. It returns
// ErrNoResults when the body is not JSON or carries no Results array.
func (c *Client) DecodeVIN(ctx context.Context, vin domain.VIN) ([]DecodeResult, error) {
	url := fmt.Sprintf("%s/%s?format=json", c.cfg.DecodeURL, neturl.PathEscape(vin.String()))
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var dr decodeResponse
	if err := json.Unmarshal(body, &dr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoResults, err)
	}
	if len(dr.Results) == 0 || bytes.Equal(dr.Results, []byte("null")) {
		return nil, ErrNoResults
	}
	var results []DecodeResult
	if err := json.Unmarshal(dr.Results, &results); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoResults, err)
	}
	return results, nil
}

// Recalls returns every recall campaign for the vehicle, in response order.
func (c *Client) Recalls(ctx context.Context, make_, model, year string) ([]domain.Recall, error) {
	var out []domain.Recall
	if err := c.getList(ctx, vehicleURL(c.cfg.RecallsURL, make_, model, year), &out); err != nil {
		return nil, fmt.Errorf("recalls %s %s %s: %w", make_, model, year, err)
	}
	return out, nil
}

// Complaints returns the first MaxComplaints complaints for the vehicle.
func (c *Client) Complaints(ctx context.Context, make_, model, year string) ([]domain.Complaint, error) {
	var out []domain.Complaint
	if err := c.getList(ctx, vehicleURL(c.cfg.ComplaintsURL, make_, model, year), &out); err != nil {
		return nil, fmt.Errorf("complaints %s %s %s: %w", make_, model, year, err)
	}
	if len(out) > MaxComplaints {
		out = out[:MaxComplaints]
	}
	return out, nil
}

// vehicleURL encodes make and model; the model year is passed through as-is.
func vehicleURL(base, make_, model, year string) string {
	return fmt.Sprintf("%s?make=%s&model=%s&modelYear=%s", base, neturl.QueryEscape(make_), neturl.QueryEscape(model), year)
}

// getList decodes the lower-case results array into out. A results value that
// is missing or not an array leaves out empty.
func (c *Client) getList(ctx context.Context, url string, out any) error {
	body, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	var lr listResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if len(lr.Results) == 0 || lr.Results[0] != '[' {
		return nil
	}
	if err := json.Unmarshal(lr.Results, out); err != nil {
		return fmt.Errorf("decode results: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
