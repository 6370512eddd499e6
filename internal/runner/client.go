// Package runner talks to the external scraping runner that executes
// page consultations asynchronously. Work is handed over with StartJob;
// results come back later through the sync service as a completion
// payload, so nothing here waits on job execution.
package runner

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"checktrack/internal/crypto"
	"checktrack/internal/models"
)

// Client is an HTTP client for the external job runner.
type Client struct {
	baseURL  string
	username string
	password string
	http     *resty.Client
}

// NewClient creates a runner client with retry on transient failures.
func NewClient(baseURL, username, password string) *Client {
	client := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
	}

	client.http = resty.New().
		SetBasicAuth(username, password).
		SetTimeout(60 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// Retry on 429 (Too Many Requests) and 5xx server errors
			return r.StatusCode() == 429 || (r.StatusCode() >= 500 && r.StatusCode() <= 504)
		})

	return client
}

// NewClientFromProfile builds a client from a stored runner profile,
// decrypting its password.
func NewClientFromProfile(profile *models.RunnerProfile) (*Client, error) {
	password, err := crypto.DecryptPassword(profile.PasswordEnc)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt runner password: %w", err)
	}
	return NewClient(profile.BaseURL, profile.Username, password), nil
}

// StartJob submits a work order to the runner. Fire-and-forget from the
// caller's perspective: the runner acknowledges receipt and reports
// outcomes later via the completion payload.
func (c *Client) StartJob(jobID string, req StartJobRequest) error {
	resp, err := c.http.R().
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(fmt.Sprintf("%s/api/jobs/%s", c.baseURL, jobID))
	if err != nil {
		return fmt.Errorf("failed to post job %s: %w", jobID, err)
	}

	if !resp.IsSuccess() {
		return fmt.Errorf("runner rejected job %s: HTTP %d: %s", jobID, resp.StatusCode(), resp.String())
	}

	return nil
}
