package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Al0olo/Fleet-Mangement-System-sub000/internal/model"
)

// RegistryClient 车辆注册服务客户端
//
// Thin HTTP client for the external vehicle registry. Only the report
// compiler consults it, and only for display metadata; every failure is
// survivable there.
type RegistryClient struct {
	baseURL string
	client  *http.Client
}

// NewRegistryClient creates a registry client against baseURL.
func NewRegistryClient(baseURL string) *RegistryClient {
	return &RegistryClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// GetVehicle fetches one vehicle's registry record.
func (c *RegistryClient) GetVehicle(ctx context.Context, id string) (*model.VehicleSummary, error) {
	endpoint := fmt.Sprintf("%s/api/v1/vehicles/%s", c.baseURL, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrVehicleNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry returned status %d", resp.StatusCode)
	}

	var wrapper struct {
		Data model.VehicleSummary `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wrapper); err != nil {
		return nil, fmt.Errorf("decode registry response: %w", err)
	}
	if wrapper.Data.ID == "" {
		wrapper.Data.ID = id
	}
	return &wrapper.Data, nil
}

// GetFleetCounts fetches fleet-wide vehicle counts by type and status.
func (c *RegistryClient) GetFleetCounts(ctx context.Context) (*model.FleetCounts, error) {
	endpoint := fmt.Sprintf("%s/api/v1/vehicles/counts", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry returned status %d", resp.StatusCode)
	}

	var wrapper struct {
		Data model.FleetCounts `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wrapper); err != nil {
		return nil, fmt.Errorf("decode registry response: %w", err)
	}
	return &wrapper.Data, nil
}
