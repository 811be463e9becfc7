package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

// MaxMessageLength is the Bot API limit for one message text
const MaxMessageLength = 4096

const timeout = 10 * time.Second

// apiBaseURL is a variable so tests can point the client at a local server
var apiBaseURL = "https://api.telegram.org/bot"

// Client represents a Telegram Bot API client
type Client struct {
	botToken   string
	chatID     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string) (*Client, error) {
	if botToken == "" {
		return nil, fmt.Errorf("bot token is required")
	}
	if chatID == "" {
		return nil, fmt.Errorf("chat ID is required")
	}

	return &Client{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  apiBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// WithBaseURL points the client at a self-hosted Bot API server. The token is
// appended to u, e.g. "http://localhost:8081/bot".
func (c *Client) WithBaseURL(u string) *Client {
	if u != "" {
		c.baseURL = u
	}
	return c
}

// SendMessage sends an HTML formatted text message to the configured chat
func (c *Client) SendMessage(text string) error {
	if text == "" {
		return fmt.Errorf("message text is required")
	}

	base := c.baseURL
	if base == "" {
		base = apiBaseURL
	}
	url := fmt.Sprintf("%s%s/sendMessage", base, c.botToken)

	payload := map[string]interface{}{
		"chat_id":                  c.chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode, gjson.GetBytes(body, "description").String())
	}

	if !gjson.ValidBytes(body) {
		return fmt.Errorf("parsing response: invalid JSON")
	}
	if !gjson.GetBytes(body, "ok").Bool() {
		return fmt.Errorf("telegram API error: %s", gjson.GetBytes(body, "description").String())
	}

	return nil
}
