package payment

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"tailorshop-be/internal/config"
	"tailorshop-be/internal/logger"

	"go.uber.org/zap"
)

const bkashSuccessCode = "0000"

type bkashGateway struct {
	baseURL    string
	appKey     string
	appSecret  string
	username   string
	password   string
	httpClient *http.Client
	now        func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewBkashGateway(cfg *config.Config) *bkashGateway {
	if cfg.BkashAppKey == "" {
		logger.L().Warn("bKash app key is empty")
	}
	return &bkashGateway{
		baseURL:    strings.TrimRight(cfg.BkashBaseURL, "/"),
		appKey:     cfg.BkashAppKey,
		appSecret:  cfg.BkashAppSecret,
		username:   cfg.BkashUsername,
		password:   cfg.BkashPassword,
		httpClient: newHTTPClient(),
		now:        time.Now,
	}
}

func (b *bkashGateway) Provider() Provider { return ProviderBkash }

type bkashGrantResponse struct {
	IDToken       string `json:"id_token"`
	ExpiresIn     int    `json:"expires_in"`
	StatusCode    string `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
}

// grantToken returns a cached id_token, refreshing it a minute early.
func (b *bkashGateway) grantToken(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.token != "" && b.now().Before(b.tokenExpiry) {
		return b.token, nil
	}
	if b.baseURL == "" {
		return "", ErrNotConfigured
	}

	var res bkashGrantResponse
	err := doJSON(ctx, b.httpClient, b.baseURL+"/tokenized/checkout/token/grant",
		map[string]string{"username": b.username, "password": b.password},
		map[string]string{"app_key": b.appKey, "app_secret": b.appSecret},
		&res,
	)
	if err != nil {
		return "", err
	}
	if res.IDToken == "" {
		return "", fmt.Errorf("%w: grant token: %s", ErrProviderRejection, res.StatusMessage)
	}

	ttl := time.Duration(res.ExpiresIn) * time.Second
	if ttl <= time.Minute {
		ttl = 2 * time.Minute
	}
	b.token = res.IDToken
	b.tokenExpiry = b.now().Add(ttl - time.Minute)
	return b.token, nil
}

func (b *bkashGateway) authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": token, "X-APP-Key": b.appKey}
}

type bkashCreateResponse struct {
	PaymentID     string `json:"paymentID"`
	BkashURL      string `json:"bkashURL"`
	StatusCode    string `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
}

func (b *bkashGateway) Create(ctx context.Context, req StartRequest, callbackURL string) (*CreateResponse, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("provider", string(ProviderBkash)),
		zap.String("order_number", req.OrderNumber),
		zap.String("amount", req.Amount.StringFixed(2)),
	)

	token, err := b.grantToken(ctx)
	if err != nil {
		log.Error("bKash token grant failed", zap.Error(err))
		return nil, err
	}

	payer := req.Phone
	if payer == "" {
		payer = req.CustomerEmail
	}

	var res bkashCreateResponse
	err = doJSON(ctx, b.httpClient, b.baseURL+"/tokenized/checkout/create", b.authHeaders(token), map[string]string{
		"mode":                  "0011",
		"payerReference":        payer,
		"callbackURL":           callbackURL,
		"amount":                req.Amount.StringFixed(2),
		"currency":              "BDT",
		"intent":                "sale",
		"merchantInvoiceNumber": req.OrderNumber,
	}, &res)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != bkashSuccessCode || res.BkashURL == "" {
		log.Error("bKash rejected create", zap.String("status_code", res.StatusCode), zap.String("message", res.StatusMessage))
		return nil, fmt.Errorf("%w: %s", ErrProviderRejection, res.StatusMessage)
	}

	log.Info("bKash payment created", zap.String("payment_id", res.PaymentID))
	return &CreateResponse{ProviderPaymentID: res.PaymentID, RedirectURL: res.BkashURL}, nil
}

type bkashExecuteResponse struct {
	PaymentID         string `json:"paymentID"`
	TrxID             string `json:"trxID"`
	TransactionStatus string `json:"transactionStatus"`
	Amount            string `json:"amount"`
	StatusCode        string `json:"statusCode"`
	StatusMessage     string `json:"statusMessage"`
}

func (b *bkashGateway) Execute(ctx context.Context, paymentID string) (*ExecuteResponse, error) {
	token, err := b.grantToken(ctx)
	if err != nil {
		return nil, err
	}

	var res bkashExecuteResponse
	err = doJSON(ctx, b.httpClient, b.baseURL+"/tokenized/checkout/execute", b.authHeaders(token),
		map[string]string{"paymentID": paymentID}, &res)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != bkashSuccessCode || res.TransactionStatus != "Completed" {
		return nil, fmt.Errorf("%w: %s", ErrNotCompleted, res.StatusMessage)
	}

	return &ExecuteResponse{
		PaymentID:         res.PaymentID,
		TrxID:             res.TrxID,
		TransactionStatus: res.TransactionStatus,
		Amount:            res.Amount,
	}, nil
}
