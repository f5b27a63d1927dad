package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"leadline-backend/platform/config"
	"leadline-backend/platform/logger"
)

// Provider error codes for destinations blocked by account permissions.
const (
	codeGeoPermissionDenied = 21215
	codeNumberBlocked       = 21610
)

const callTimeFormat = time.RFC1123Z

// Client is the HTTP implementation of Provider against a Twilio-compatible
// REST API (form-encoded writes, basic auth, JSON responses).
type Client struct {
	baseURL    string
	accountSID string
	authToken  string
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a provider client from configuration.
func NewClient(cfg config.TelephonyConfig, log *logger.Logger) *Client {
	timeout := cfg.GetTelephonyTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.GetTelephonyBaseURL(), "/"),
		accountSID: cfg.GetTelephonyAccountSID(),
		authToken:  cfg.GetTelephonyAuthToken(),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

type callResource struct {
	SID       string `json:"sid"`
	Status    string `json:"status"`
	Duration  string `json:"duration"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type recordingResource struct {
	SID         string `json:"sid"`
	Duration    string `json:"duration"`
	DateCreated string `json:"date_created"`
	URI         string `json:"uri"`
}

type recordingList struct {
	Recordings []recordingResource `json:"recordings"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// PlaceCall starts an outbound call with status callbacks and recording.
func (c *Client) PlaceCall(ctx context.Context, req CallRequest) (*CallInfo, error) {
	form := url.Values{}
	form.Set("To", req.To)
	form.Set("From", req.From)
	if req.CallbackURL != "" {
		form.Set("StatusCallback", req.CallbackURL)
		form.Set("StatusCallbackMethod", http.MethodPost)
		for _, event := range []string{"initiated", "ringing", "answered", "completed"} {
			form.Add("StatusCallbackEvent", event)
		}
	}
	if req.Record {
		form.Set("Record", "true")
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls.json", c.baseURL, c.accountSID)
	body, err := c.do(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}

	var resource callResource
	if err := json.Unmarshal(body, &resource); err != nil {
		return nil, fmt.Errorf("decode call resource: %w", err)
	}

	return toCallInfo(resource), nil
}

// FetchCall reads the current call record from the provider.
func (c *Client) FetchCall(ctx context.Context, sid string) (*CallInfo, error) {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls/%s.json", c.baseURL, c.accountSID, sid)
	body, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var resource callResource
	if err := json.Unmarshal(body, &resource); err != nil {
		return nil, fmt.Errorf("decode call resource: %w", err)
	}

	return toCallInfo(resource), nil
}

// ListRecordings returns the recordings attached to a call, newest first
// per the provider's default ordering.
func (c *Client) ListRecordings(ctx context.Context, callSID string) ([]Recording, error) {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls/%s/Recordings.json", c.baseURL, c.accountSID, callSID)
	body, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var list recordingList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decode recording list: %w", err)
	}

	recordings := make([]Recording, 0, len(list.Recordings))
	for _, res := range list.Recordings {
		recordings = append(recordings, Recording{
			SID:       res.SID,
			URL:       c.mediaURL(res.URI),
			Duration:  parseOptionalInt(res.Duration),
			CreatedAt: parseProviderTime(res.DateCreated),
		})
	}

	return recordings, nil
}

// HealthCheck verifies credentials by fetching the account resource.
func (c *Client) HealthCheck(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s.json", c.baseURL, c.accountSID)
	_, err := c.do(ctx, http.MethodGet, endpoint, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build provider request: %w", err)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read provider response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return data, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", ErrMisconfigured, resp.StatusCode)
	default:
		var apiErr apiError
		_ = json.Unmarshal(data, &apiErr)
		if apiErr.Code == codeGeoPermissionDenied || apiErr.Code == codeNumberBlocked {
			return nil, fmt.Errorf("%w: %s", ErrRestrictedDestination, apiErr.Message)
		}
		if apiErr.Message != "" {
			return nil, fmt.Errorf("provider error (status %d): %s", resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("provider error: status %d", resp.StatusCode)
	}
}

func (c *Client) mediaURL(uri string) string {
	if uri == "" {
		return ""
	}
	return c.baseURL + strings.TrimSuffix(uri, ".json") + ".mp3"
}

func toCallInfo(resource callResource) *CallInfo {
	info := &CallInfo{
		SID:      resource.SID,
		Status:   resource.Status,
		Duration: parseOptionalInt(resource.Duration),
	}
	if t := parseProviderTime(resource.StartTime); !t.IsZero() {
		info.StartTime = &t
	}
	if t := parseProviderTime(resource.EndTime); !t.IsZero() {
		info.EndTime = &t
	}
	return info
}

func parseOptionalInt(value string) *int {
	if value == "" {
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return nil
	}
	return &parsed
}

func parseProviderTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(callTimeFormat, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

// Compile-time check that Client implements Provider
var _ Provider = (*Client)(nil)
