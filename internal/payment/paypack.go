package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

type PaypackConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// Paypack is a client for the Paypack merchant API. The access token is
// cached and refreshed shortly before it expires.
type Paypack struct {
	cfg  PaypackConfig
	http *http.Client
	now  func() time.Time

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewPaypack(cfg PaypackConfig) *Paypack {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Paypack{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
		now:  time.Now,
	}
}

func (p *Paypack) Name() string { return "paypack" }

type authorizeRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type authorizeResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	Expires int64  `json:"expires"`
}

type cashRequest struct {
	Amount float64 `json:"amount"`
	Number string  `json:"number"`
}

func (p *Paypack) CashIn(ctx context.Context, amount float64, number string) (*CashResult, error) {
	return p.cash(ctx, "/transactions/cashin", amount, number)
}

func (p *Paypack) CashOut(ctx context.Context, amount float64, number string) (*CashResult, error) {
	return p.cash(ctx, "/transactions/cashout", amount, number)
}

func (p *Paypack) cash(ctx context.Context, path string, amount float64, number string) (*CashResult, error) {
	token, err := p.token(ctx)
	if err != nil {
		return nil, err
	}
	var out CashResult
	if err := p.do(ctx, http.MethodPost, path, token, cashRequest{Amount: amount, Number: number}, &out); err != nil {
		return nil, err
	}
	if out.Ref == "" {
		return nil, fmt.Errorf("%w: %s returned no ref", ErrGateway, path)
	}
	return &out, nil
}

func (p *Paypack) Transactions(ctx context.Context) (json.RawMessage, error) {
	token, err := p.token(ctx)
	if err != nil {
		return nil, err
	}
	var out json.RawMessage
	if err := p.do(ctx, http.MethodGet, "/transactions/list", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Paypack) token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.accessToken != "" && p.now().Before(p.tokenExpiry) {
		return p.accessToken, nil
	}

	var out authorizeResponse
	body := authorizeRequest{ClientID: p.cfg.ClientID, ClientSecret: p.cfg.ClientSecret}
	if err := p.do(ctx, http.MethodPost, "/auth/agents/authorize", "", body, &out); err != nil {
		return "", err
	}
	if out.Access == "" {
		return "", fmt.Errorf("%w: authorize returned no access token", ErrGateway)
	}

	ttl := 10 * time.Minute
	if out.Expires > 0 {
		// expires is a unix timestamp
		if exp := time.Unix(out.Expires, 0); exp.After(p.now()) {
			ttl = exp.Sub(p.now())
		}
	}
	p.accessToken = out.Access
	p.tokenExpiry = p.now().Add(ttl - 30*time.Second)
	return p.accessToken, nil
}

func (p *Paypack) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.cfg.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrGateway, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrGateway, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s %s returned %d: %s", ErrGateway, method, path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrGateway, path, err)
	}
	return nil
}
