package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ProviderClient implements Mailbox against the mail provider's REST API.
type ProviderClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewProviderClient(baseURL string) *ProviderClient {
	return &ProviderClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *ProviderClient) WithHTTPClient(hc *http.Client) *ProviderClient {
	c.httpClient = hc
	return c
}

type providerMessage struct {
	ID          string    `json:"id"`
	ReceivedAt  time.Time `json:"receivedAt"`
	From        string    `json:"from"`
	BodyPreview string    `json:"bodyPreview"`
}

// FindRepliesInThread lists the thread's messages from the given address and
// filters out the original outbound message. Provider and transport failures
// surface as ErrUnavailable so a single bad call only skips one attempt.
func (c *ProviderClient) FindRepliesInThread(ctx context.Context, token AccessToken, threadRef, excludeMessageRef, fromAddress string) ([]Reply, error) {
	if token == "" {
		return nil, fmt.Errorf("mail: missing access token")
	}
	if threadRef == "" {
		return nil, fmt.Errorf("mail: missing thread ref")
	}

	endpoint := fmt.Sprintf("%s/v1/threads/%s/messages?from=%s",
		c.baseURL, url.PathEscape(threadRef), url.QueryEscape(fromAddress))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("mail: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+string(token))
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mail: search thread %s: %w: %v", threadRef, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("mail: search thread %s: credential rejected (status %d)", threadRef, resp.StatusCode)
	default:
		return nil, fmt.Errorf("mail: search thread %s: %w: status %d", threadRef, ErrUnavailable, resp.StatusCode)
	}

	var payload struct {
		Messages []providerMessage `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("mail: decode thread %s: %w", threadRef, err)
	}

	replies := make([]Reply, 0, len(payload.Messages))
	for _, m := range payload.Messages {
		if m.ID == excludeMessageRef {
			continue
		}
		if fromAddress != "" && !strings.EqualFold(m.From, fromAddress) {
			continue
		}
		replies = append(replies, Reply{
			Timestamp:   m.ReceivedAt,
			MessageRef:  m.ID,
			FromAddress: m.From,
			PreviewText: m.BodyPreview,
		})
	}
	return replies, nil
}
