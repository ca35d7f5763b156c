package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

var (
	// ErrNotConfigured is returned by New when no API token is set
	ErrNotConfigured = errors.New("replicate API not configured")
	// ErrPredictionFailed is returned when the prediction ends in failed or canceled
	ErrPredictionFailed = errors.New("prediction failed")
)

// Config holds the Replicate client settings
type Config struct {
	BaseURL      string
	Token        string
	Model        string
	Timeout      time.Duration
	PollInterval time.Duration
}

// Client generates images through the Replicate predictions API
type Client struct {
	config     Config
	httpClient *http.Client
}

// New creates a client. It returns ErrNotConfigured without a token.
func New(config Config) (*Client, error) {
	if strings.TrimSpace(config.Token) == "" {
		return nil, ErrNotConfigured
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.replicate.com"
	}
	if config.Model == "" {
		config.Model = "black-forest-labs/flux-schnell"
	}
	if config.Timeout <= 0 {
		config.Timeout = 120 * time.Second
	}
	if config.PollInterval <= 0 {
		config.PollInterval = time.Second
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}, nil
}

type predictionInput struct {
	Prompt       string `json:"prompt"`
	GoFast       bool   `json:"go_fast"`
	Megapixels   string `json:"megapixels"`
	AspectRatio  string `json:"aspect_ratio"`
	OutputFormat string `json:"output_format"`
}

type predictionRequest struct {
	Input predictionInput `json:"input"`
}

// Generate runs one prediction for prompt and returns the image URL
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	payload := predictionRequest{Input: predictionInput{
		Prompt:       prompt,
		GoFast:       true,
		Megapixels:   "1",
		AspectRatio:  "16:9",
		OutputFormat: "jpg",
	}}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/v1/models/%s/predictions", c.config.BaseURL, c.config.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "wait")

	body, err := c.do(req)
	if err != nil {
		return "", err
	}

	for {
		prediction := gjson.ParseBytes(body)
		switch status := prediction.Get("status").String(); status {
		case "succeeded":
			return outputURL(prediction)
		case "failed", "canceled":
			return "", fmt.Errorf("%w: %s %s", ErrPredictionFailed, status, prediction.Get("error").String())
		}

		// Still starting or processing; outputs can arrive before the status flips.
		if url, err := outputURL(prediction); err == nil {
			return url, nil
		}
		getURL := prediction.Get("urls.get").String()
		if getURL == "" {
			return "", fmt.Errorf("prediction %q has no polling url", prediction.Get("id").String())
		}

		slog.Debug("Waiting for prediction", "id", prediction.Get("id").String(), "status", prediction.Get("status").String())
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.config.PollInterval):
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, getURL, nil)
		if err != nil {
			return "", fmt.Errorf("failed to create request: %w", err)
		}
		if body, err = c.do(req); err != nil {
			return "", err
		}
	}
}

// outputURL accepts both a single URL and a list of URLs
func outputURL(prediction gjson.Result) (string, error) {
	output := prediction.Get("output")
	if output.IsArray() {
		output = output.Get("0")
	}
	if output.Type != gjson.String || output.String() == "" {
		return "", errors.New("prediction has no output")
	}
	return output.String(), nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+c.config.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := gjson.GetBytes(body, "detail").String()
		if detail == "" {
			detail = string(body)
		}
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, detail)
	}
	return body, nil
}

// Download saves the resource at url to path
func (c *Client) Download(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		return fmt.Errorf("failed to save image: %w", err)
	}
	return file.Close()
}
