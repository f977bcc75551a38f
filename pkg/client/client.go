// Package client is a small HTTP client for the diabetes-backend API, used
// by the probe tool to exercise a deployed scoring endpoint.
package client

import (
	"context"
	"fmt"
	"time"

	"diabetes-backend/pkg/api"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

type Client struct {
	http *resty.Client
}

func New(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(30 * time.Second).
			SetHeader("Content-Type", "application/json"),
	}
}

func (c *Client) Health(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get("/health")
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("health check failed: status %d", resp.StatusCode())
	}
	return nil
}

// Score posts one record (a map) or several (a slice of maps) to the scoring
// endpoint. The returned result carries either predictions or the error the
// scorer reported.
func (c *Client) Score(ctx context.Context, records any) (api.ScoreResult, error) {
	var result api.ScoreResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(records).
		SetResult(&result).
		Post("/score")
	if err != nil {
		return api.ScoreResult{}, fmt.Errorf("scoring request failed: %w", err)
	}
	if resp.IsError() {
		return api.ScoreResult{}, fmt.Errorf("scoring request failed: status %d: %s", resp.StatusCode(), resp.String())
	}
	return result, nil
}

func (c *Client) SubmitTraining(ctx context.Context, req api.TrainRequest) (api.TrainSubmitResponse, error) {
	var result api.TrainSubmitResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		Post("/models")
	if err != nil {
		return api.TrainSubmitResponse{}, fmt.Errorf("training submit failed: %w", err)
	}
	if resp.IsError() {
		return api.TrainSubmitResponse{}, fmt.Errorf("training submit failed: status %d: %s", resp.StatusCode(), resp.String())
	}
	return result, nil
}

func (c *Client) GetModel(ctx context.Context, id uuid.UUID) (api.Model, error) {
	var result api.Model
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/models/" + id.String())
	if err != nil {
		return api.Model{}, fmt.Errorf("get model failed: %w", err)
	}
	if resp.IsError() {
		return api.Model{}, fmt.Errorf("get model failed: status %d: %s", resp.StatusCode(), resp.String())
	}
	return result, nil
}

func (c *Client) ListModels(ctx context.Context, status string) ([]api.Model, error) {
	var result []api.Model
	req := c.http.R().SetContext(ctx).SetResult(&result)
	if status != "" {
		req.SetQueryParam("status", status)
	}
	resp, err := req.Get("/models")
	if err != nil {
		return nil, fmt.Errorf("list models failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("list models failed: status %d: %s", resp.StatusCode(), resp.String())
	}
	return result, nil
}
