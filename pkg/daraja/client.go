package daraja

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"

	"github.com/dukahub/duka-backend/pkg/config"
	"github.com/dukahub/duka-backend/pkg/logger"
	"github.com/dukahub/duka-backend/pkg/metrics"
)

const (
	tokenPath = "/oauth/v1/generate?grant_type=client_credentials"
	pushPath  = "/mpesa/stkpush/v1/processrequest"
	queryPath = "/mpesa/stkpushquery/v1/query"

	transactionType = "CustomerPayBillOnline"
	timestampLayout = "20060102150405"
)

// ErrGatewayUnavailable is returned when the circuit breaker is open or the
// provider cannot be reached.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// Gateway is the provider surface the payment coordinator depends on.
type Gateway interface {
	InitiatePush(ctx context.Context, req PushRequest) (*PushResponse, error)
	QueryStatus(ctx context.Context, checkoutRequestID string) (*QueryResponse, error)
}

// Client talks to the Daraja API with a cached OAuth token and a circuit
// breaker around all outbound calls.
type Client struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker
	cfg     config.DarajaConfig
	logg    *logger.Logger
	pm      *metrics.PaymentMetrics
	now     func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient builds a gateway client for the configured environment. The
// configuration must already be validated.
func NewClient(cfg config.DarajaConfig, logg *logger.Logger, pm *metrics.PaymentMetrics) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL()).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "daraja",
		MaxRequests: 3,
		Interval:    15 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
	})

	return &Client{
		http:    httpClient,
		breaker: breaker,
		cfg:     cfg,
		logg:    logg,
		pm:      pm,
		now:     time.Now,
	}
}

// InitiatePush asks the provider to raise an STK prompt on the payer's
// handset. A non-nil response with Accepted()==false means the gateway
// rejected the request synchronously.
func (c *Client) InitiatePush(ctx context.Context, req PushRequest) (*PushResponse, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := c.now().Format(timestampLayout)
	payload := stkPushPayload{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          c.password(timestamp),
		Timestamp:         timestamp,
		TransactionType:   transactionType,
		Amount:            req.Amount,
		PartyA:            req.PhoneNumber,
		PartyB:            c.cfg.ShortCode,
		PhoneNumber:       req.PhoneNumber,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  req.AccountReference,
		TransactionDesc:   req.Description,
	}

	started := c.now()
	result, err := c.breaker.Execute(func() (interface{}, error) {
		var out PushResponse
		resp, err := c.http.R().
			SetContext(ctx).
			SetAuthToken(token).
			SetBody(payload).
			SetResult(&out).
			Post(pushPath)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, fmt.Errorf("stk push returned status %d: %s", resp.StatusCode(), resp.String())
		}
		return &out, nil
	})
	c.pm.ObserveGateway("stk_push", c.now().Sub(started))
	if err != nil {
		c.invalidateTokenOnAuthFailure(err)
		return nil, wrapBreakerErr(err)
	}
	return result.(*PushResponse), nil
}

// QueryStatus polls the provider for the outcome of a previously accepted
// push. The ResultCode in the reply uses the query code space: "0" means
// paid, "1032" means the payer cancelled.
func (c *Client) QueryStatus(ctx context.Context, checkoutRequestID string) (*QueryResponse, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := c.now().Format(timestampLayout)
	payload := queryPayload{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          c.password(timestamp),
		Timestamp:         timestamp,
		CheckoutRequestID: checkoutRequestID,
	}

	started := c.now()
	result, err := c.breaker.Execute(func() (interface{}, error) {
		var out QueryResponse
		resp, err := c.http.R().
			SetContext(ctx).
			SetAuthToken(token).
			SetBody(payload).
			SetResult(&out).
			Post(queryPath)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, fmt.Errorf("stk query returned status %d: %s", resp.StatusCode(), resp.String())
		}
		return &out, nil
	})
	c.pm.ObserveGateway("stk_query", c.now().Sub(started))
	if err != nil {
		c.invalidateTokenOnAuthFailure(err)
		return nil, wrapBreakerErr(err)
	}
	return result.(*QueryResponse), nil
}

// accessToken returns the cached OAuth token, refreshing it when expired.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	basic := base64.StdEncoding.EncodeToString([]byte(c.cfg.ConsumerKey + ":" + c.cfg.ConsumerSecret))

	result, err := c.breaker.Execute(func() (interface{}, error) {
		var out tokenResponse
		resp, err := c.http.R().
			SetContext(ctx).
			SetHeader("Authorization", "Basic "+basic).
			SetResult(&out).
			Get(tokenPath)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, fmt.Errorf("token request returned status %d", resp.StatusCode())
		}
		if out.AccessToken == "" {
			return nil, errors.New("token response missing access_token")
		}
		return &out, nil
	})
	if err != nil {
		return "", wrapBreakerErr(err)
	}

	token := result.(*tokenResponse)
	c.token = token.AccessToken
	c.tokenExpiry = c.now().Add(c.cfg.TokenTTL)

	if c.logg != nil {
		c.logg.Info(ctx, "daraja access token refreshed")
	}
	return c.token, nil
}

// password derives the push credential: base64(shortcode + passkey + timestamp).
func (c *Client) password(timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(c.cfg.ShortCode + c.cfg.PassKey + timestamp))
}

// invalidateTokenOnAuthFailure drops the cached token when the provider
// rejects it so the next call re-authenticates.
func (c *Client) invalidateTokenOnAuthFailure(err error) {
	if err == nil {
		return
	}
	msg := err.Error()
	if !strings.Contains(msg, fmt.Sprintf("status %d", http.StatusUnauthorized)) &&
		!strings.Contains(msg, fmt.Sprintf("status %d", http.StatusForbidden)) {
		return
	}
	c.mu.Lock()
	c.token = ""
	c.tokenExpiry = time.Time{}
	c.mu.Unlock()
}

func wrapBreakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	return err
}
