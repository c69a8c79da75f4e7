// Package devicecatalog implements an HTTP client that fetches device
// metadata, keys, and session activation from a network-server stand-in.
// The gateway bridges do not call it; cmd/lorasim uses it when loading
// devices, whichever bridge variant is configured.
package devicecatalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Config configures the device catalog client.
type Config struct {
	BaseURL       string
	BearerToken   string
	ApplicationID string
	Timeout       time.Duration
}

// DefaultConfig returns a 10-second request timeout.
func DefaultConfig() Config {
	return Config{Timeout: 10 * time.Second}
}

// Client is the device catalog HTTP client.
type Client struct {
	cfg    Config
	client *http.Client
}

// New constructs a Client.
func New(cfg Config) *Client {
	return &Client{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

// DeviceStatus is the optional battery/margin status block.
type DeviceStatus struct {
	BatteryLevel        float64 `json:"batteryLevel"`
	ExternalPowerSource bool    `json:"externalPowerSource"`
	Margin              int     `json:"margin"`
}

// DeviceListEntry is one row of the device list response.
type DeviceListEntry struct {
	DevEUI            string        `json:"devEui"`
	Name              string        `json:"name"`
	DeviceProfileID   string        `json:"deviceProfileId"`
	DeviceProfileName string        `json:"deviceProfileName"`
	CreatedAt         string        `json:"createdAt"`
	UpdatedAt         string        `json:"updatedAt,omitempty"`
	LastSeenAt        string        `json:"lastSeenAt,omitempty"`
	DeviceStatus      *DeviceStatus `json:"deviceStatus,omitempty"`
	Description       string        `json:"description"`
}

// DeviceListResponse is the device list endpoint's response shape.
type DeviceListResponse struct {
	TotalCount uint32            `json:"totalCount"`
	Result     []DeviceListEntry `json:"result"`
}

// ListDevices fetches every device in cfg.ApplicationID.
func (c *Client) ListDevices(ctx context.Context) (DeviceListResponse, error) {
	var out DeviceListResponse
	err := c.get(ctx, "/api/devices", map[string]string{"applicationId": c.cfg.ApplicationID}, &out)
	return out, err
}

// DeviceKeys is the keys endpoint's nested payload.
type DeviceKeys struct {
	DevEUI string `json:"devEui"`
	NwkKey string `json:"nwkKey"`
	AppKey string `json:"appKey"`
}

// DeviceKeysResponse is the device keys endpoint's response shape.
type DeviceKeysResponse struct {
	DeviceKeys DeviceKeys `json:"deviceKeys"`
	CreatedAt  string     `json:"createdAt"`
	UpdatedAt  string     `json:"updatedAt"`
}

// GetDeviceKeys fetches the nwkKey/appKey pair for devEUI.
func (c *Client) GetDeviceKeys(ctx context.Context, devEUI string) (DeviceKeysResponse, error) {
	var out DeviceKeysResponse
	err := c.get(ctx, fmt.Sprintf("/api/devices/%s/keys", devEUI), nil, &out)
	return out, err
}

// DeviceActivation is the activation endpoint's nested payload.
type DeviceActivation struct {
	DevEUI       string `json:"devEui"`
	DevAddr      string `json:"devAddr"`
	AppSKey      string `json:"appSKey"`
	NwkSEncKey   string `json:"nwkSEncKey"`
	SNwkSIntKey  string `json:"sNwkSIntKey"`
	FNwkSIntKey  string `json:"fNwkSIntKey"`
	FCntUp       uint32 `json:"fCntUp"`
	NFCntDown    uint32 `json:"nFCntDown"`
	AFCntDown    uint32 `json:"aFCntDown"`
}

// DeviceActivationResponse is the activation endpoint's response shape.
type DeviceActivationResponse struct {
	DeviceActivation DeviceActivation `json:"deviceActivation"`
}

// GetActivation fetches the current session activation for devEUI.
func (c *Client) GetActivation(ctx context.Context, devEUI string) (DeviceActivationResponse, error) {
	var out DeviceActivationResponse
	err := c.get(ctx, fmt.Sprintf("/api/devices/%s/activation", devEUI), nil, &out)
	return out, err
}

func (c *Client) get(ctx context.Context, path string, query map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("devicecatalog: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.BearerToken)
	q := req.URL.Query()
	for k, v := range query {
		q.Set(k, v)
	}
	req.URL.RawQuery = q.Encode()

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("devicecatalog: request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("devicecatalog: %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("devicecatalog: %s: decode: %w", path, err)
	}
	return nil
}
