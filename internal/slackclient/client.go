package slackclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"recapbot/internal/model"
)

// HistoryRequest asks for one page of conversations.history over [Oldest, Latest).
type HistoryRequest struct {
	Channel string
	Oldest  time.Time
	Latest  time.Time
	Cursor  string
	Limit   int
}

// HistoryPage is one bounded batch plus its continuation cursor.
type HistoryPage struct {
	Events     []model.RawEvent
	HasMore    bool
	NextCursor string
}

// Block is a Block Kit layout block (header or section).
type Block struct {
	Type string      `json:"type"`
	Text *TextObject `json:"text,omitempty"`
}

// TextObject is a plain_text or mrkdwn composition object.
type TextObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// HTTPClient is a bearer-token client for the Slack Web API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	now        func() time.Time
}

// Option customizes an HTTPClient.
type Option func(*HTTPClient)

func WithBaseURL(u string) Option { return func(c *HTTPClient) { c.baseURL = u } }

func WithHTTPClient(h *http.Client) Option { return func(c *HTTPClient) { c.httpClient = h } }

// WithRate sets client-side request pacing.
func WithRate(rps float64, burst int) Option {
	return func(c *HTTPClient) { c.limiter = newLimiter(rps, burst) }
}

func NewHTTPClient(token string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:    "https://slack.com/api",
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    newLimiter(defaultRPS, defaultBurst),
		now:        time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *HTTPClient) auth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
}

// FormatTS renders t as a Slack "seconds.micros" timestamp.
func FormatTS(t time.Time) string {
	us := t.UnixMicro()
	sec, frac := us/1_000_000, us%1_000_000
	if frac < 0 {
		sec--
		frac += 1_000_000
	}
	return fmt.Sprintf("%d.%06d", sec, frac)
}

type envelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// call performs one request and decodes the JSON body into out. It never retries:
// 429 surfaces as *RateLimitedError, everything else non-ok as *SourceError.
func (c *HTTPClient) call(ctx context.Context, method string, req *http.Request, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	c.auth(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("slack %s: %w", method, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &RateLimitedError{Method: method, RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), c.now())}
	}
	if resp.StatusCode >= 400 {
		return &SourceError{Method: method, Status: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("slack %s: read body: %w", method, err)
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &SourceError{Method: method, Status: resp.StatusCode, Code: "malformed_response"}
	}
	if !env.OK {
		if env.Error == "ratelimited" {
			return &RateLimitedError{Method: method, RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), c.now())}
		}
		return &SourceError{Method: method, Status: resp.StatusCode, Code: env.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &SourceError{Method: method, Status: resp.StatusCode, Code: "malformed_response"}
	}
	return nil
}

func (c *HTTPClient) postJSON(ctx context.Context, method string, payload, out any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	return c.call(ctx, method, req, out)
}

// History fetches one page of channel history over [Oldest, Latest). Slack treats
// both bounds as exclusive with inclusive=false, so oldest is sent one microsecond
// early to keep a message stamped exactly at Oldest.
func (c *HTTPClient) History(ctx context.Context, r HistoryRequest) (HistoryPage, error) {
	var page HistoryPage
	if r.Channel == "" {
		return page, errors.New("empty channel")
	}
	q := url.Values{}
	q.Set("channel", r.Channel)
	q.Set("oldest", FormatTS(r.Oldest.Add(-time.Microsecond)))
	q.Set("latest", FormatTS(r.Latest))
	q.Set("inclusive", "false")
	if r.Limit > 0 {
		q.Set("limit", strconv.Itoa(r.Limit))
	}
	if r.Cursor != "" {
		q.Set("cursor", r.Cursor)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/conversations.history?"+q.Encode(), nil)
	if err != nil {
		return page, err
	}
	var raw struct {
		Messages []struct {
			TS         string `json:"ts"`
			ThreadTS   string `json:"thread_ts"`
			User       string `json:"user"`
			Username   string `json:"username"`
			BotID      string `json:"bot_id"`
			Subtype    string `json:"subtype"`
			Text       string `json:"text"`
			ReplyCount int    `json:"reply_count"`
			BotProfile *struct {
				AppID    string `json:"app_id"`
				Name     string `json:"name"`
				Username string `json:"username"`
			} `json:"bot_profile"`
		} `json:"messages"`
		HasMore          bool `json:"has_more"`
		ResponseMetadata struct {
			NextCursor string `json:"next_cursor"`
		} `json:"response_metadata"`
	}
	if err := c.call(ctx, "conversations.history", req, &raw); err != nil {
		return page, err
	}
	page.Events = make([]model.RawEvent, 0, len(raw.Messages))
	for _, m := range raw.Messages {
		e := model.RawEvent{
			TS:         m.TS,
			ThreadTS:   m.ThreadTS,
			User:       m.User,
			Username:   m.Username,
			BotID:      m.BotID,
			Subtype:    m.Subtype,
			Text:       m.Text,
			ReplyCount: m.ReplyCount,
		}
		if m.BotProfile != nil {
			e.BotProfile = &model.BotProfile{AppID: m.BotProfile.AppID, Name: m.BotProfile.Name, Username: m.BotProfile.Username}
		}
		page.Events = append(page.Events, e)
	}
	page.HasMore = raw.HasMore
	page.NextCursor = raw.ResponseMetadata.NextCursor
	return page, nil
}

// UserName resolves a user id to the best available display name.
func (c *HTTPClient) UserName(ctx context.Context, userID string) (string, error) {
	q := url.Values{}
	q.Set("user", userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/users.info?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	var raw struct {
		User struct {
			Name     string `json:"name"`
			RealName string `json:"real_name"`
			Profile  struct {
				DisplayName string `json:"display_name"`
			} `json:"profile"`
		} `json:"user"`
	}
	if err := c.call(ctx, "users.info", req, &raw); err != nil {
		return "", err
	}
	for _, n := range []string{raw.User.Profile.DisplayName, raw.User.RealName, raw.User.Name} {
		if n != "" {
			return n, nil
		}
	}
	return userID, nil
}

// PostMessage posts immediately and returns the message ts.
func (c *HTTPClient) PostMessage(ctx context.Context, channel, text string, blocks []Block) (string, error) {
	var out struct {
		TS string `json:"ts"`
	}
	err := c.postJSON(ctx, "chat.postMessage", map[string]any{
		"channel": channel,
		"text":    text,
		"blocks":  blocks,
	}, &out)
	return out.TS, err
}

// ScheduleMessage schedules a post at postAt and returns the scheduled_message_id.
func (c *HTTPClient) ScheduleMessage(ctx context.Context, channel, text string, blocks []Block, postAt time.Time) (string, error) {
	var out struct {
		ScheduledMessageID string `json:"scheduled_message_id"`
	}
	err := c.postJSON(ctx, "chat.scheduleMessage", map[string]any{
		"channel": channel,
		"text":    text,
		"blocks":  blocks,
		"post_at": postAt.Unix(),
	}, &out)
	return out.ScheduledMessageID, err
}
