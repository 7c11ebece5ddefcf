// Package cryptohack implements the client for the public CryptoHack user API.
package cryptohack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/assakaf/hackwatch/hackwatch/logger"
)

const (
	DefaultBaseURL = "https://cryptohack.org"

	// API error code returned for unknown usernames.
	codeUserNotFound = 1001
)

// ErrUserNotFound is returned when a username does not exist on CryptoHack.
var ErrUserNotFound = errors.New("cryptohack: user not found")

// APIError covers transient failures: bad status codes, transport errors
// and malformed payloads. Callers treat it as retryable on a later cycle.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("cryptohack: API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("cryptohack: %s", e.Message)
}

type SolvedChallenge struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Points   int    `json:"points"`
	Solves   int    `json:"solves"`
	Date     string `json:"date"`
}

type Profile struct {
	Username         string            `json:"username"`
	Country          string            `json:"country"`
	Score            int               `json:"score"`
	Rank             int               `json:"rank"`
	Level            int               `json:"level"`
	FirstBloods      int               `json:"first_bloods"`
	Joined           string            `json:"joined"`
	SolvedChallenges []SolvedChallenge `json:"solved_challenges"`

	// Error envelope fields, present instead of the profile on failure.
	Code int `json:"code"`
}

func (p *Profile) ProfileURL() string {
	return fmt.Sprintf("%s/user/%s/", DefaultBaseURL, url.PathEscape(p.Username))
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// FetchProfile fetches the current score and solved challenge set for a user.
// Returns ErrUserNotFound for unknown usernames and *APIError for anything
// else that went wrong.
func (c *Client) FetchProfile(ctx context.Context, username string) (*Profile, error) {
	start := time.Now()

	reqURL := fmt.Sprintf("%s/api/user/%s/", c.baseURL, url.PathEscape(username))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &APIError{Message: err.Error()}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.LogFetch(username, time.Since(start), err)
		return nil, &APIError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		logger.LogFetch(username, time.Since(start), apiErr)
		return nil, apiErr
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, &APIError{Message: fmt.Sprintf("invalid API response: %v", err)}
	}

	if profile.Code == codeUserNotFound {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	if profile.Username == "" {
		return nil, &APIError{Message: "invalid API response: missing username"}
	}

	logger.LogFetch(username, time.Since(start), nil)
	return &profile, nil
}

// SearchUsers returns usernames matching the given term. Lookup failures
// degrade to an empty result, matching the lenient search endpoint.
func (c *Client) SearchUsers(ctx context.Context, term string) ([]string, error) {
	reqURL := fmt.Sprintf("%s/search_user/%s.json", c.baseURL, url.PathEscape(term))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &APIError{Message: err.Error()}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	var result struct {
		Users []string `json:"users"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, nil
	}
	return result.Users, nil
}
