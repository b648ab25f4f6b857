// Package client implements the polling side of the synchronization
// protocol: a thin HTTP API client plus a session that keeps one
// conversation converged through periodic delta fetches.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"httpchat/infrastructure/http/wire"
)

// Client wraps the chat API. Every call takes a context and performs one
// round trip; no state is kept between calls.
type Client struct {
	baseURL string
	httpc   *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Send(ctx context.Context, conversation, text, from string) (wire.SendMessageResponse, error) {
	body, err := json.Marshal(wire.SendMessageRequest{
		Conversation: conversation,
		Text:         &text,
		From:         from,
	})
	if err != nil {
		return wire.SendMessageResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/messages", bytes.NewReader(body))
	if err != nil {
		return wire.SendMessageResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp wire.SendMessageResponse
	if err := c.do(req, http.StatusCreated, &resp); err != nil {
		return wire.SendMessageResponse{}, err
	}
	return resp, nil
}

// ListMessages issues a windowed fetch when since is nil and a delta fetch
// otherwise. limit <= 0 leaves the window size to the server default.
func (c *Client) ListMessages(ctx context.Context, conversation string, since *int64, limit int) ([]wire.Message, error) {
	query := url.Values{}
	query.Set("conversation", conversation)
	if since != nil {
		query.Set("since", strconv.FormatInt(*since, 10))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp wire.ListMessagesResponse
	if err := c.get(ctx, "/api/messages", query, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

func (c *Client) ListConversations(ctx context.Context, from string) ([]wire.Conversation, error) {
	query := url.Values{}
	query.Set("from", from)

	var resp wire.ListConversationsResponse
	if err := c.get(ctx, "/api/conversations", query, &resp); err != nil {
		return nil, err
	}
	return resp.Conversations, nil
}

func (c *Client) SearchMessages(ctx context.Context, conversation, terms string, limit int) ([]wire.Message, error) {
	query := url.Values{}
	query.Set("conversation", conversation)
	query.Set("q", terms)
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp wire.ListMessagesResponse
	if err := c.get(ctx, "/api/messages/search", query, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	return c.do(req, http.StatusOK, out)
}

func (c *Client) do(req *http.Request, wantStatus int, out any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != wantStatus {
		var apiErr wire.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("server rejected request: %s", apiErr.Error)
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
