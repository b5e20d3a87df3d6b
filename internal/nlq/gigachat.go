package nlq

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	defaultGigaChatOAuthURL = "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"
	defaultGigaChatChatURL  = "https://gigachat.devices.sberbank.ru/api/v1/chat/completions"
	defaultGigaChatScope    = "GIGACHAT_API_PERS"
	defaultGigaChatModel    = "GigaChat"
)

type GigaChatConfig struct {
	AuthKey            string
	Scope              string
	OAuthURL           string
	ChatURL            string
	Model              string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// GigaChatClient speaks the provider's OAuth2 client-credentials flow and
// chat-completions endpoint. Access tokens are cached until shortly before
// expiry; the cache is the only mutable state and is mutex-guarded.
type GigaChatClient struct {
	authKey  string
	scope    string
	oauthURL string
	chatURL  string
	model    string
	client   *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewGigaChatClient(cfg GigaChatConfig) (*GigaChatClient, error) {
	if strings.TrimSpace(cfg.AuthKey) == "" {
		return nil, fmt.Errorf("auth key is required")
	}
	scope := strings.TrimSpace(cfg.Scope)
	if scope == "" {
		scope = defaultGigaChatScope
	}
	oauthURL := strings.TrimSpace(cfg.OAuthURL)
	if oauthURL == "" {
		oauthURL = defaultGigaChatOAuthURL
	}
	chatURL := strings.TrimSpace(cfg.ChatURL)
	if chatURL == "" {
		chatURL = defaultGigaChatChatURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultGigaChatModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	if cfg.InsecureSkipVerify {
		// The provider ships a certificate chain rooted in a national CA
		// that is absent from stock trust stores.
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return &GigaChatClient{
		authKey:  strings.TrimSpace(cfg.AuthKey),
		scope:    scope,
		oauthURL: oauthURL,
		chatURL:  chatURL,
		model:    model,
		client:   client,
	}, nil
}

// Chat sends one system+user exchange and returns the raw completion text.
func (c *GigaChatClient) Chat(ctx context.Context, system, user string) (string, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return "", err
	}

	payload := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"temperature": 0,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.chatURL, strings.NewReader(string(body)))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request chat completion: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("chat completion failed status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode chat completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty chat completion choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func (c *GigaChatClient) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Until(c.tokenExpiry) > 30*time.Second {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("scope", c.scope)
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.oauthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+c.authKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	// The OAuth endpoint rejects requests without a unique RqUID.
	req.Header.Set("RqUID", uuid.NewString())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request access token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read token response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("token exchange failed status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed struct {
		AccessToken string  `json:"access_token"`
		ExpiresIn   float64 `json:"expires_in"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if parsed.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}

	expiresIn := parsed.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 29 * 60
	}
	c.token = parsed.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(expiresIn) * time.Second)
	return c.token, nil
}
