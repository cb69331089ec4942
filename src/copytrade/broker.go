package copytrade

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/nntaoli-project/goex"
	"github.com/nntaoli-project/goex/binance"
	logger "github.com/sirupsen/logrus"
)

const (
	brokerTimeout        = 15 * time.Second
	brokerRetryCount     = 2
	brokerRetryBaseDelay = 500 * time.Millisecond
	brokerRetryMaxWait   = 4 * time.Second
)

// OrderRequest is the broker-neutral order the copy engine constructs. It is
// also persisted verbatim on the CopiedTrade for audit.
type OrderRequest struct {
	ClientOrderID string   `json:"clientOrderId"`
	Symbol        string   `json:"symbol"`
	Side          string   `json:"side"`
	Quantity      float64  `json:"quantity"`
	Price         *float64 `json:"price,omitempty"`
	StopLoss      *float64 `json:"stopLoss,omitempty"`
	TakeProfit    *float64 `json:"takeProfit,omitempty"`
}

// Execution is a broker's answer to one order.
type Execution struct {
	OrderID      string
	FilledPrice  float64
	SlippagePips float64
}

// BrokerAdapter executes one order against a target venue.
type BrokerAdapter interface {
	Name() string
	Execute(ctx context.Context, order *OrderRequest) (*Execution, error)
}

// SimulatedBroker fills every order at the requested price with zero
// slippage. It is the default execution path; real adapters plug in behind
// the same interface.
type SimulatedBroker struct{}

func NewSimulatedBroker() *SimulatedBroker { return &SimulatedBroker{} }

func (*SimulatedBroker) Name() string { return "simulated" }

func (*SimulatedBroker) Execute(_ context.Context, order *OrderRequest) (*Execution, error) {
	filled := 0.0
	if order.Price != nil {
		filled = *order.Price
	}
	return &Execution{
		OrderID:      "sim-" + uuid.NewString(),
		FilledPrice:  filled,
		SlippagePips: 0,
	}, nil
}

func isRetryableResp(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}

	code := r.StatusCode()
	if code >= 500 && code <= 599 {
		return true
	}
	if code == 429 || code == 408 {
		return true
	}
	return false
}

// BridgeBroker forwards orders to an MT4/MT5 bridge over HTTP.
type BridgeBroker struct {
	baseURL string
	apiKey  string
	http    *resty.Client
}

type bridgeFillResponse struct {
	OrderID      string  `json:"orderId"`
	FilledPrice  float64 `json:"filledPrice"`
	SlippagePips float64 `json:"slippagePips"`
	Error        string  `json:"error"`
}

func NewBridgeBroker(baseURL, apiKey string) *BridgeBroker {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(brokerTimeout).
		SetRetryCount(brokerRetryCount).
		SetRetryWaitTime(brokerRetryBaseDelay).
		SetRetryMaxWaitTime(brokerRetryMaxWait).
		AddRetryCondition(isRetryableResp)

	return &BridgeBroker{baseURL: baseURL, apiKey: apiKey, http: httpClient}
}

// WithHTTPClient overrides the outbound client, mainly for tests.
func (b *BridgeBroker) WithHTTPClient(client *resty.Client) *BridgeBroker {
	return &BridgeBroker{baseURL: b.baseURL, apiKey: b.apiKey, http: client}
}

func (b *BridgeBroker) Name() string { return "bridge" }

func (b *BridgeBroker) Execute(ctx context.Context, order *OrderRequest) (*Execution, error) {
	var fill bridgeFillResponse

	req := b.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(order).
		SetResult(&fill)
	if b.apiKey != "" {
		req.SetAuthToken(b.apiKey)
	}

	resp, err := req.Post("/orders")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("bridge returned status %d: %s", resp.StatusCode(), resp.String())
	}
	if fill.Error != "" {
		return nil, fmt.Errorf("bridge rejected order: %s", fill.Error)
	}

	return &Execution{
		OrderID:      fill.OrderID,
		FilledPrice:  fill.FilledPrice,
		SlippagePips: fill.SlippagePips,
	}, nil
}

// BinanceBroker executes spot orders on Binance. Orders without a price go
// out as market orders.
type BinanceBroker struct {
	exchange goex.API
}

func NewBinanceBroker(apiKey, apiSecret, endpoint string) *BinanceBroker {
	if endpoint == "" {
		endpoint = binance.GLOBAL_API_BASE_URL
	}
	apiConfig := &goex.APIConfig{
		HttpClient:   http.DefaultClient,
		Endpoint:     endpoint,
		ApiKey:       apiKey,
		ApiSecretKey: apiSecret,
	}
	return &BinanceBroker{exchange: binance.NewWithConfig(apiConfig)}
}

func (*BinanceBroker) Name() string { return "binance" }

func (b *BinanceBroker) Execute(_ context.Context, order *OrderRequest) (*Execution, error) {
	pair, err := currencyPairFromSymbol(order.Symbol)
	if err != nil {
		return nil, err
	}

	amount := strconv.FormatFloat(order.Quantity, 'f', -1, 64)
	price := ""
	if order.Price != nil {
		price = strconv.FormatFloat(*order.Price, 'f', -1, 64)
	}

	var placed *goex.Order
	switch strings.ToLower(order.Side) {
	case "buy":
		if price == "" {
			placed, err = b.exchange.MarketBuy(amount, price, pair)
		} else {
			placed, err = b.exchange.LimitBuy(amount, price, pair)
		}
	case "sell":
		if price == "" {
			placed, err = b.exchange.MarketSell(amount, price, pair)
		} else {
			placed, err = b.exchange.LimitSell(amount, price, pair)
		}
	default:
		return nil, fmt.Errorf("unsupported order side %q", order.Side)
	}
	if err != nil {
		return nil, err
	}

	filled := placed.AvgPrice
	if filled == 0 && order.Price != nil {
		filled = *order.Price
	}

	logger.WithFields(map[string]interface{}{
		"broker":   "binance",
		"symbol":   order.Symbol,
		"side":     order.Side,
		"order_id": placed.OrderID2,
	}).Info("Order placed")

	return &Execution{OrderID: placed.OrderID2, FilledPrice: filled}, nil
}

var quoteCurrencies = []string{"USDT", "BUSD", "USDC", "BTC", "ETH", "BNB", "USD"}

func currencyPairFromSymbol(symbol string) (goex.CurrencyPair, error) {
	s := strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
	for _, quote := range quoteCurrencies {
		if strings.HasSuffix(s, quote) && len(s) > len(quote) {
			base := strings.TrimSuffix(s, quote)
			return goex.NewCurrencyPair(
				goex.Currency{Symbol: base},
				goex.Currency{Symbol: quote},
			), nil
		}
	}
	return goex.CurrencyPair{}, fmt.Errorf("cannot derive currency pair from symbol %q", symbol)
}
