package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront/internal/usecase"
)

const DefaultAPIBase = "https://api.mercadopago.com"

var ErrMissingAccessToken = errors.New("MP_ACCESS_TOKEN is required")

// Mercado Pago REST APIの最小クライアント（支払い取得と決済設定の作成だけ）
type Client struct {
	baseURL     string
	accessToken string
	http        *http.Client
}

func NewClient(baseURL, accessToken string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIBase
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		http:        &http.Client{Timeout: timeout},
	}
}

type paymentResponse struct {
	ID                json.Number            `json:"id"`
	Status            string                 `json:"status"`
	StatusDetail      string                 `json:"status_detail"`
	ExternalReference string                 `json:"external_reference"`
	Metadata          map[string]interface{} `json:"metadata"`
}

type preferenceItem struct {
	Title      string  `json:"title"`
	Quantity   int64   `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

type preferencePayer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type preferenceBackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

type preferenceRequest struct {
	ExternalReference string                 `json:"external_reference"`
	Items             []preferenceItem       `json:"items"`
	Payer             preferencePayer        `json:"payer"`
	BackURLs          preferenceBackURLs     `json:"back_urls"`
	NotificationURL   string                 `json:"notification_url"`
	AutoReturn        string                 `json:"auto_return"`
	Metadata          map[string]interface{} `json:"metadata"`
}

type preferenceResponse struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

func (c *Client) GetPayment(ctx context.Context, paymentID string) (usecase.Payment, error) {
	var res paymentResponse
	path := "/v1/payments/" + url.PathEscape(paymentID)
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return usecase.Payment{}, fmt.Errorf("mercado pago payment fetch failed: %w", err)
	}

	return usecase.Payment{
		ID:                res.ID.String(),
		Status:            res.Status,
		StatusDetail:      res.StatusDetail,
		ExternalReference: res.ExternalReference,
		Metadata:          res.Metadata,
	}, nil
}

func (c *Client) CreatePreference(ctx context.Context, in usecase.PreferenceInput) (usecase.Preference, error) {
	items := make([]preferenceItem, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, preferenceItem{
			Title:      it.Title,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			CurrencyID: it.CurrencyID,
		})
	}
	metadata := in.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}

	body := preferenceRequest{
		ExternalReference: in.ExternalReference,
		Items:             items,
		Payer:             preferencePayer{Name: in.PayerName, Email: in.PayerEmail},
		BackURLs: preferenceBackURLs{
			Success: in.BackURLs.Success,
			Failure: in.BackURLs.Failure,
			Pending: in.BackURLs.Pending,
		},
		NotificationURL: in.NotificationURL,
		AutoReturn:      "approved",
		Metadata:        metadata,
	}

	var res preferenceResponse
	if err := c.do(ctx, http.MethodPost, "/checkout/preferences", body, &res); err != nil {
		return usecase.Preference{}, fmt.Errorf("mercado pago preference failed: %w", err)
	}

	return usecase.Preference{
		ID:               res.ID,
		InitPoint:        res.InitPoint,
		SandboxInitPoint: res.SandboxInitPoint,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, in interface{}, out interface{}) error {
	// トークン未設定は呼び出し時にエラー（起動は止めない）
	if c.accessToken == "" {
		return ErrMissingAccessToken
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%d %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	return json.Unmarshal(raw, out)
}
