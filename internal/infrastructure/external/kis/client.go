package kis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://openapi.koreainvestment.com:9443"

	trInquirePrice      = "FHKST01010100"
	trInquireDailyPrice = "FHKST01010400"

	// 券商限制 access token 每分鐘只能申請一次
	tokenIssueInterval = time.Minute
	tokenExpirySlack   = time.Minute
	errCodeTokenLimit  = "EGW00133"
)

// ErrTokenThrottled 一分鐘內已申請過 token，需等待下一輪。
var ErrTokenThrottled = errors.New("kis token issuance throttled")

// Client 韓國投資證券 Open API 用戶端，token 會快取到過期前。
type Client struct {
	appKey     string
	appSecret  string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	now        func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
	lastIssue   time.Time
}

// NewClient 建立用戶端；ratePerSec <= 0 時不限速。
func NewClient(appKey, appSecret, baseURL string, ratePerSec float64) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	limit := rate.Inf
	burst := 1
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
		burst = int(ratePerSec)
		if burst < 1 {
			burst = 1
		}
	}
	return &Client{
		appKey:     appKey,
		appSecret:  appSecret,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(limit, burst),
		now:        time.Now,
	}
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int64  `json:"expires_in"`
	ErrorCode        string `json:"error_code"`
	ErrorDescription string `json:"error_description"`
}

// accessToken 回傳快取的 token，過期時重新申請。
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.token != "" && now.Before(c.tokenExpiry) {
		return c.token, nil
	}
	if !c.lastIssue.IsZero() && now.Sub(c.lastIssue) < tokenIssueInterval {
		return "", ErrTokenThrottled
	}

	payload, err := json.Marshal(map[string]string{
		"grant_type": "client_credentials",
		"appkey":     c.appKey,
		"appsecret":  c.appSecret,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth2/tokenP", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	c.lastIssue = now
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("kis token request: %w", err)
	}
	defer resp.Body.Close()

	var out tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("kis token decode: %w", err)
	}
	if out.ErrorCode == errCodeTokenLimit {
		return "", ErrTokenThrottled
	}
	if resp.StatusCode != http.StatusOK || out.AccessToken == "" {
		return "", fmt.Errorf("kis token error (status %d): %s %s", resp.StatusCode, out.ErrorCode, out.ErrorDescription)
	}

	ttl := time.Duration(out.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = 23 * time.Hour
	}
	c.token = out.AccessToken
	c.tokenExpiry = now.Add(ttl - tokenExpirySlack)
	return c.token, nil
}

type envelope struct {
	RtCd   string          `json:"rt_cd"`
	MsgCd  string          `json:"msg_cd"`
	Msg1   string          `json:"msg1"`
	Output json.RawMessage `json:"output"`
}

func (c *Client) call(ctx context.Context, path, trID string, params url.Values) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("kis rate limiter: %w", err)
	}
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	fullURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("authorization", "Bearer "+token)
	req.Header.Set("appkey", c.appKey)
	req.Header.Set("appsecret", c.appSecret)
	req.Header.Set("tr_id", trID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("kis api error (status %d): %s", resp.StatusCode, string(body))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("kis decode: %w", err)
	}
	if env.RtCd != "0" {
		return nil, fmt.Errorf("kis api error %s: %s", env.MsgCd, env.Msg1)
	}
	return env.Output, nil
}

// PriceSnapshot 現價查詢結果。
type PriceSnapshot struct {
	Name   string
	Price  decimal.Decimal
	Volume decimal.Decimal
}

// CurrentPrice 查詢國內股票現價與累計成交量。
func (c *Client) CurrentPrice(ctx context.Context, ticker string) (PriceSnapshot, error) {
	raw, err := c.call(ctx, "/uapi/domestic-stock/v1/quotations/inquire-price", trInquirePrice, url.Values{
		"fid_cond_mrkt_div_code": {"J"},
		"fid_input_iscd":         {ticker},
	})
	if err != nil {
		return PriceSnapshot{}, err
	}
	var out struct {
		Name  string `json:"hts_kor_isnm"`
		Price string `json:"stck_prpr"`
		Vol   string `json:"acml_vol"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return PriceSnapshot{}, fmt.Errorf("kis price decode: %w", err)
	}
	price, err := decimal.NewFromString(out.Price)
	if err != nil {
		return PriceSnapshot{}, fmt.Errorf("kis price %q: %w", out.Price, err)
	}
	vol, err := decimal.NewFromString(out.Vol)
	if err != nil {
		return PriceSnapshot{}, fmt.Errorf("kis volume %q: %w", out.Vol, err)
	}
	return PriceSnapshot{Name: out.Name, Price: price, Volume: vol}, nil
}

// DailyCloses 取得最近的日收盤價，由舊到新排列。
func (c *Client) DailyCloses(ctx context.Context, ticker string) ([]decimal.Decimal, error) {
	raw, err := c.call(ctx, "/uapi/domestic-stock/v1/quotations/inquire-daily-price", trInquireDailyPrice, url.Values{
		"fid_cond_mrkt_div_code": {"J"},
		"fid_input_iscd":         {ticker},
		"fid_period_div_code":    {"D"},
		"fid_org_adj_prc":        {"1"},
	})
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Date  string `json:"stck_bsop_date"`
		Close string `json:"stck_clpr"`
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("kis daily decode: %w", err)
	}
	// API 回傳新到舊
	closes := make([]decimal.Decimal, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].Close == "" {
			continue
		}
		d, err := decimal.NewFromString(rows[i].Close)
		if err != nil {
			return nil, fmt.Errorf("kis close %q on %s: %w", rows[i].Close, rows[i].Date, err)
		}
		closes = append(closes, d)
	}
	return closes, nil
}
