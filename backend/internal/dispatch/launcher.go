package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Launcher opens a platform URI such as tel: or sms:
type Launcher interface {
	Open(ctx context.Context, uri string) error
}

// GatewayLauncher hands URIs to a telephony gateway over HTTP
type GatewayLauncher struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewGatewayLauncher creates a launcher posting to baseURL
func NewGatewayLauncher(baseURL string, timeout time.Duration) *GatewayLauncher {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &GatewayLauncher{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type launchRequest struct {
	URI string `json:"uri"`
}

// Open posts the URI to the gateway's /v1/launch endpoint
func (g *GatewayLauncher) Open(ctx context.Context, uri string) error {
	data, err := json.Marshal(launchRequest{URI: uri})
	if err != nil {
		return fmt.Errorf("marshal launch request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/v1/launch", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create launch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("call dispatch gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("dispatch gateway returned status %d", resp.StatusCode)
	}
	return nil
}

// LogLauncher only logs the URI; used when no gateway is configured
type LogLauncher struct {
	Logger *log.Logger
}

// Open logs the URI
func (l LogLauncher) Open(_ context.Context, uri string) error {
	if l.Logger != nil {
		l.Logger.Printf("[INFO] Launch requested: %s", uri)
	}
	return nil
}
