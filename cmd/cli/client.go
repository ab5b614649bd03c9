package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// apiClient is a thin HTTP client for the service's dashboard API.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string, timeout time.Duration) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *apiClient) getJSON(path string, out any) error {
	resp, err := c.http.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *apiClient) postJSON(path string, out any) (int, error) {
	resp, err := c.http.Post(c.baseURL+path, "application/json", nil)
	if err != nil {
		return 0, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

// pullRequest mirrors the service's pull request JSON shape.
type pullRequest struct {
	ID         int64  `json:"id"`
	Repository string `json:"repository"`
	PRNumber   int    `json:"pr_number"`
	Title      string `json:"title"`
	Status     string `json:"status"`
	Author     string `json:"author"`
	FileCount  int    `json:"changed_files"`
	UpdatedAt  string `json:"updated_at"`
}

// suggestion mirrors the service's suggestion JSON shape.
type suggestion struct {
	FilePath    string `json:"file_path"`
	LineNumber  *int64 `json:"line_number"`
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion"`
	GitHubURL   string `json:"github_url"`
}
