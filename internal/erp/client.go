package erp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloudpos/internal/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	ipLookupURL = "https://api.ipify.org?format=json"
	dateLayout  = "2006-01-02"
)

var (
	ErrMissingToken = errors.New("erp token is required")
	ErrUnauthorized = errors.New("erp unauthorized")
	ErrNotFound     = errors.New("sale not found")
	ErrSaveRejected = errors.New("erp rejected the update")
)

type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("erp api error: %s", e.Status)
	}
	return fmt.Sprintf("erp api error: %s: %s", e.Status, e.Body)
}

type Credentials struct {
	Username     string
	Password     string
	CompanyEmail string
}

type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

func NewClient(cfg config.Config, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout).
		SetRetryCount(1).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			// only idempotent reads; a PUT must never be re-sent
			if err == nil || resp == nil || resp.Request == nil {
				return false
			}
			return resp.Request.Method == http.MethodGet
		})

	if cfg.Token != "" {
		httpClient.SetAuthScheme("Bearer")
		httpClient.SetAuthToken(strings.Trim(cfg.Token, `"`))
	}

	return &Client{
		http:   httpClient,
		logger: logger.Named("erp"),
	}
}

// Login posts the credentials together with the caller's public IP, the way
// the back office expects, and installs the returned bearer token on the
// client for every subsequent request.
func (c *Client) Login(ctx context.Context, creds Credentials) (string, error) {
	if creds.Username == "" || creds.Password == "" || creds.CompanyEmail == "" {
		return "", errors.New("username, password and company email are required")
	}

	ip, err := c.lookupIP(ctx)
	if err != nil {
		return "", err
	}

	body := loginRequest{
		Username:     creds.Username,
		Password:     creds.Password,
		CompanyEmail: creds.CompanyEmail,
		IPAddress:    ip,
	}

	var result loginResponse
	resp, err := c.http.R().SetContext(ctx).SetBody(body).SetResult(&result).Post("/login")
	if err != nil {
		return "", fmt.Errorf("erp login: %w", err)
	}
	if resp.IsError() {
		return "", apiErrorFromResponse(resp)
	}
	if result.Token == "" {
		return "", errors.New("erp login: empty token in response")
	}

	c.http.SetAuthScheme("Bearer")
	c.http.SetAuthToken(result.Token)
	c.logger.Info("logged in", zap.String("username", creds.Username))
	return result.Token, nil
}

func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	if !c.hasToken() {
		return nil, ErrMissingToken
	}

	var products []Product
	if err := c.doGet(ctx, "/product", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) SalesList(ctx context.Context, from, to time.Time) ([]SalesRow, error) {
	if !c.hasToken() {
		return nil, ErrMissingToken
	}

	var resp salesListResponse
	query := map[string]string{
		"sdate":   from.Format(dateLayout),
		"edate":   to.Format(dateLayout),
		"orderby": "Date",
	}
	if err := c.doGet(ctx, "/stk/sal", query, &resp); err != nil {
		return nil, err
	}
	return resp.Records, nil
}

func (c *Client) SalesSummary(ctx context.Context, from, to time.Time) ([]SalesSummaryRow, error) {
	if !c.hasToken() {
		return nil, ErrMissingToken
	}

	var resp salesSummaryResponse
	query := map[string]string{
		"sdate":   from.Format(dateLayout),
		"edate":   to.Format(dateLayout),
		"orderby": "VocNo",
	}
	if err := c.doGet(ctx, "/stk/salsum", query, &resp); err != nil {
		return nil, err
	}
	return resp.Table, nil
}

// GetSale fetches one ticket by voucher number. The service answers with a
// one-element array; an empty array or a ticket without a Trans line array
// counts as not found.
func (c *Client) GetSale(ctx context.Context, vocNo int) (Sale, error) {
	if !c.hasToken() {
		return Sale{}, ErrMissingToken
	}

	var sales []Sale
	if err := c.doGet(ctx, fmt.Sprintf("/sal/%d", vocNo), nil, &sales); err != nil {
		return Sale{}, err
	}
	if len(sales) == 0 || sales[0].Trans == nil {
		return Sale{}, fmt.Errorf("%w: voc %d", ErrNotFound, vocNo)
	}
	return sales[0], nil
}

func (c *Client) UpdateSale(ctx context.Context, sale Sale) error {
	if !c.hasToken() {
		return ErrMissingToken
	}

	resp, err := c.http.R().SetContext(ctx).SetBody(sale).Put("/sal")
	if err != nil {
		return fmt.Errorf("erp request: %w", err)
	}
	if resp.IsError() {
		apiErr := apiErrorFromResponse(resp)
		if errors.Is(apiErr, ErrUnauthorized) {
			return apiErr
		}
		return fmt.Errorf("%w: %s", ErrSaveRejected, apiErr.Error())
	}

	c.logger.Info("sale updated", zap.Int("voc_no", sale.VocNo), zap.Int("lines", len(sale.Trans)))
	return nil
}

func (c *Client) lookupIP(ctx context.Context) (string, error) {
	var result ipResponse
	resp, err := c.http.R().SetContext(ctx).SetResult(&result).Get(ipLookupURL)
	if err != nil {
		return "", fmt.Errorf("ip lookup: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("ip lookup: %s", resp.Status())
	}
	if result.IP == "" {
		return "", errors.New("ip lookup: empty response")
	}
	return result.IP, nil
}

func (c *Client) doGet(ctx context.Context, path string, query map[string]string, result any) error {
	req := c.http.R().SetContext(ctx).SetResult(result)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}

	resp, err := req.Get(path)
	if err != nil {
		return fmt.Errorf("erp request: %w", err)
	}
	if resp.IsError() {
		return apiErrorFromResponse(resp)
	}
	return nil
}

func (c *Client) hasToken() bool {
	return strings.TrimSpace(c.http.Token) != ""
}

func apiErrorFromResponse(resp *resty.Response) error {
	body := strings.TrimSpace(resp.String())
	apiErr := &APIError{
		StatusCode: resp.StatusCode(),
		Status:     resp.Status(),
		Body:       body,
	}

	switch resp.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, apiErr.Error())
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, apiErr.Error())
	default:
		return apiErr
	}
}
