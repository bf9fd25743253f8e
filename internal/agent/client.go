// Package agent implements the host side of server registration: key
// material, host detection and the controller client.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"keyregistry/internal/faults"
)

const defaultTimeout = 30 * time.Second

// Registration is the payload sent to the controller.
type Registration struct {
	ActivationKey string `json:"activation_key"`
	Hostname      string `json:"hostname"`
	IP            string `json:"ip"`
	OS            string `json:"os"`
	PublicKey     string `json:"public_key"`
}

// Registered is the controller's answer to a successful registration.
type Registered struct {
	ServerID     int64    `json:"server_id"`
	Entitlements []string `json:"entitlements"`
}

type errorBody struct {
	FaultCode   int    `json:"faultCode"`
	FaultLabel  string `json:"faultLabel"`
	FaultString string `json:"faultString"`
	Error       string `json:"error"`
}

// Client talks to the controller's agent endpoints.
type Client struct {
	client *resty.Client
}

// NewClient creates a client for the controller at baseURL.
func NewClient(baseURL string) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(defaultTimeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "keyregistry-agent")
	return &Client{client: client}
}

// Register enrolls the host. A refused activation key is returned as a
// *faults.Fault.
func (c *Client) Register(ctx context.Context, reg Registration) (*Registered, error) {
	var out Registered
	var failure errorBody
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(reg).
		SetResult(&out).
		SetError(&failure).
		Post("/agents/register")
	if err != nil {
		return nil, fmt.Errorf("failed to register: %w", err)
	}
	if resp.IsError() {
		return nil, responseError(resp, &failure)
	}
	return &out, nil
}

// Heartbeat reports the host as alive.
func (c *Client) Heartbeat(ctx context.Context, serverID int64, ip string) error {
	var failure errorBody
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"server_id": serverID, "ip": ip}).
		SetError(&failure).
		Post("/agents/heartbeat")
	if err != nil {
		return fmt.Errorf("failed to send heartbeat: %w", err)
	}
	if resp.IsError() {
		return responseError(resp, &failure)
	}
	return nil
}

func responseError(resp *resty.Response, body *errorBody) error {
	if body.FaultCode != 0 {
		return &faults.Fault{Code: body.FaultCode, Label: body.FaultLabel, Message: body.FaultString}
	}
	if body.Error != "" {
		return fmt.Errorf("controller responded with %d: %s", resp.StatusCode(), body.Error)
	}
	return fmt.Errorf("controller responded with %d", resp.StatusCode())
}
