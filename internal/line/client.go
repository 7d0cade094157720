package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goodjobs/shiftbot/internal/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	// defaultEndpoint is the Messaging API base URL.
	defaultEndpoint = "https://api.line.me"

	// replyTimeout bounds one outbound reply call. Replies are
	// fire-and-forget; the inbound delivery source owns retry semantics.
	replyTimeout = 10 * time.Second

	// maxMessagesPerReply is the platform cap on message units per token.
	maxMessagesPerReply = 5
)

// Client sends replies through the Messaging API.
type Client struct {
	endpoint   string
	tokenSrc   oauth2.TokenSource
	httpClient *http.Client
}

// ClientOpts holds parameters for creating a Client.
type ClientOpts struct {
	Config   config.LineConfig
	Endpoint string       // defaults to the production API
	HTTP     *http.Client // defaults to a client with replyTimeout
}

// NewClient creates a reply client. A static channel access token is used
// when configured; otherwise tokens are issued through the channel OAuth
// client-credentials endpoint.
func NewClient(opts ClientOpts) (*Client, error) {
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	httpClient := opts.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: replyTimeout}
	}

	var tokenSrc oauth2.TokenSource
	switch {
	case opts.Config.ChannelAccessToken != "":
		tokenSrc = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Config.ChannelAccessToken})
	case opts.Config.ChannelID != "" && opts.Config.ChannelSecret != "":
		cc := &clientcredentials.Config{
			ClientID:     opts.Config.ChannelID,
			ClientSecret: opts.Config.ChannelSecret,
			TokenURL:     endpoint + "/v2/oauth/accessToken",
		}
		tokenSrc = cc.TokenSource(context.Background())
	default:
		return nil, fmt.Errorf("line: client: channel access token or channel id+secret required")
	}

	return &Client{
		endpoint:   endpoint,
		tokenSrc:   tokenSrc,
		httpClient: httpClient,
	}, nil
}

// replyRequest is the reply endpoint body.
type replyRequest struct {
	ReplyToken string    `json:"replyToken"`
	Messages   []Message `json:"messages"`
}

// Reply delivers up to five message units against one reply token as a
// single atomic burst. Extra units beyond the platform cap are dropped.
func (c *Client) Reply(ctx context.Context, replyToken string, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}
	if len(messages) > maxMessagesPerReply {
		messages = messages[:maxMessagesPerReply]
	}

	body, err := json.Marshal(replyRequest{ReplyToken: replyToken, Messages: messages})
	if err != nil {
		return fmt.Errorf("line: encode reply: %w", err)
	}

	token, err := c.tokenSrc.Token()
	if err != nil {
		return fmt.Errorf("line: channel token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v2/bot/message/reply", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("line: build reply request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	token.SetAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("line: send reply: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("line: reply rejected: %s: %s", resp.Status, bytes.TrimSpace(detail))
	}
	return nil
}
