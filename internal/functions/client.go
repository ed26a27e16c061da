package functions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Client calls edge functions on the hosted backend.
type Client struct {
	BaseURL string
	Key     string
	HTTP    *http.Client
	Skip    bool
	Log     logrus.FieldLogger
}

// New creates a client with a short timeout. With skip set, calls are logged and not sent.
func New(baseURL, key string, skip bool, log logrus.FieldLogger) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Key:     key,
		Skip:    skip,
		Log:     log,
		HTTP: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Invoke POSTs payload as JSON to /functions/v1/{name}.
func (c *Client) Invoke(ctx context.Context, name string, payload any) error {
	if name == "" {
		return fmt.Errorf("function name required")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	if c.Skip {
		c.Log.WithFields(logrus.Fields{"function": name, "bytes": len(body)}).Info("function call skipped")
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/functions/v1/"+name, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Key != "" {
		req.Header.Set("Authorization", "Bearer "+c.Key)
		req.Header.Set("apikey", c.Key)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("function %s request failed: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("function %s error %s: %s", name, resp.Status, string(bodyBytes))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
