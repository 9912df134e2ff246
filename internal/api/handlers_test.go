package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"paper-trader-go/internal/auth"
	"paper-trader-go/internal/config"
	"paper-trader-go/internal/database"
	"paper-trader-go/internal/ledger"
	"paper-trader-go/internal/news"
	"paper-trader-go/internal/quotes"
	"paper-trader-go/internal/watch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// MockQuoteProvider is a mock implementation of quotes.ProviderInterface.
type MockQuoteProvider struct {
	mock.Mock
}

func (m *MockQuoteProvider) GetQuote(ctx context.Context, symbol string) (*quotes.Quote, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quotes.Quote), args.Error(1)
}

func (m *MockQuoteProvider) GetQuotes(ctx context.Context, symbols []string) ([]*quotes.Quote, error) {
	args := m.Called(ctx, symbols)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*quotes.Quote), args.Error(1)
}

// setupServer wires a full API server against an in-memory database, a mock
// quote provider, and a fake news upstream.
func setupServer(t *testing.T) (*httptest.Server, *MockQuoteProvider) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	newsUpstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"ok","articles":[{"source":{"name":"Wire"},"title":"Headline"}]}`)
	}))
	t.Cleanup(newsUpstream.Close)

	cfg := &config.Config{
		Trading: config.Trading{
			StartingBalance:  10000,
			DefaultFavorites: []string{"AAPL", "MSFT"},
			DefaultWatchlist: []string{"NFLX", "AMD"},
		},
		News: config.News{BaseURL: newsUpstream.URL, ApiKey: "k", PageSize: 20},
		Auth: config.Auth{Secret: "test-secret", TokenTTL: 3600},
	}

	log := zap.NewNop()
	provider := new(MockQuoteProvider)
	store := ledger.NewStore(db)
	executor := ledger.NewExecutor(store, provider, log, nil)
	newsSvc := news.NewService(db, &cfg.News, log)
	watchSvc := watch.NewService(db, &cfg.Trading, log)
	authMgr := auth.NewManager(cfg.Auth.Secret, time.Duration(cfg.Auth.TokenTTL)*time.Second)

	s := NewServer(cfg, log, executor, store, provider, newsSvc, watchSvc, authMgr, nil)

	ts := httptest.NewServer(s.server.Handler)
	t.Cleanup(ts.Close)
	return ts, provider
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]json.RawMessage
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func signup(t *testing.T, ts *httptest.Server, username string) (accountID, token string) {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/signup", "", map[string]string{"username": username})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body["id"], &accountID))
	require.NoError(t, json.Unmarshal(body["token"], &token))
	return accountID, token
}

func TestSignup(t *testing.T) {
	ts, _ := setupServer(t)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/signup", "", map[string]string{"username": "alice"})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var balance float64
	require.NoError(t, json.Unmarshal(body["balance"], &balance))
	assert.Equal(t, 10000.0, balance)
	assert.NotEmpty(t, body["token"])
}

func TestSignup_MissingUsername(t *testing.T) {
	ts, _ := setupServer(t)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/signup", "", map[string]string{})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuthRequired(t *testing.T) {
	ts, _ := setupServer(t)

	for _, path := range []string{"/api/buy", "/api/portfolio", "/api/transactions", "/api/profile"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
}

func TestBuySellFlow(t *testing.T) {
	ts, provider := setupServer(t)
	_, token := signup(t, ts, "bob")

	// Buy 10 AAPL @ $150
	provider.On("GetQuote", mock.Anything, "AAPL").
		Return(&quotes.Quote{Symbol: "AAPL", Price: 150}, nil).Once()
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/buy", token,
		map[string]any{"symbol": "AAPL", "quantity": 10})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var newBalance float64
	require.NoError(t, json.Unmarshal(body["newBalance"], &newBalance))
	assert.Equal(t, 8500.0, newBalance)

	// Sell 4 AAPL @ $160
	provider.On("GetQuote", mock.Anything, "AAPL").
		Return(&quotes.Quote{Symbol: "AAPL", Price: 160}, nil).Once()
	resp, body = doJSON(t, http.MethodPost, ts.URL+"/api/sell", token,
		map[string]any{"symbol": "AAPL", "quantity": 4})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body["newBalance"], &newBalance))
	assert.Equal(t, 9140.0, newBalance)

	// Portfolio reflects the remaining lot at the original basis
	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/portfolio", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var portfolio map[string]ledger.Holding
	require.NoError(t, json.Unmarshal(body["portfolio"], &portfolio))
	assert.Equal(t, ledger.Holding{NetShares: 6, Invested: 900}, portfolio["AAPL"])

	// Transaction history, most recent first
	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/transactions", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var txs []map[string]any
	require.NoError(t, json.Unmarshal(body["transactions"], &txs))
	require.Len(t, txs, 2)
	assert.Equal(t, "sell", txs[0]["side"])

	provider.AssertExpectations(t)
}

func TestBuy_InsufficientFunds(t *testing.T) {
	ts, provider := setupServer(t)
	_, token := signup(t, ts, "carol")

	provider.On("GetQuote", mock.Anything, "BRK").
		Return(&quotes.Quote{Symbol: "BRK", Price: 730000}, nil)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/buy", token,
		map[string]any{"symbol": "BRK", "quantity": 1})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body["error"]), "insufficient balance")
}

func TestSell_NoShares(t *testing.T) {
	ts, provider := setupServer(t)
	_, token := signup(t, ts, "dave")

	provider.On("GetQuote", mock.Anything, "AAPL").
		Return(&quotes.Quote{Symbol: "AAPL", Price: 150}, nil)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/sell", token,
		map[string]any{"symbol": "AAPL", "quantity": 1})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body["error"]), "not enough shares")
}

func TestBuy_PriceUnavailable(t *testing.T) {
	ts, provider := setupServer(t)
	_, token := signup(t, ts, "erin")

	provider.On("GetQuote", mock.Anything, "AAPL").
		Return(nil, fmt.Errorf("upstream down"))

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/buy", token,
		map[string]any{"symbol": "AAPL", "quantity": 1})

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestProfile(t *testing.T) {
	ts, _ := setupServer(t)
	accountID, token := signup(t, ts, "frank")

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/profile", token, nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var id, username string
	require.NoError(t, json.Unmarshal(body["id"], &id))
	require.NoError(t, json.Unmarshal(body["username"], &username))
	assert.Equal(t, accountID, id)
	assert.Equal(t, "frank", username)
}

func TestQuotes_MissingSymbols(t *testing.T) {
	ts, _ := setupServer(t)
	_, token := signup(t, ts, "grace")

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/quotes", token, nil)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWatch(t *testing.T) {
	ts, _ := setupServer(t)
	_, token := signup(t, ts, "heidi")

	// Defaults seeded on first read
	getReq, err := http.NewRequest(http.MethodGet, ts.URL+"/api/watch?category=favorites", nil)
	require.NoError(t, err)
	getReq.Header.Set("Authorization", "Bearer "+token)
	res, err := http.DefaultClient.Do(getReq)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var list []string
	require.NoError(t, json.NewDecoder(res.Body).Decode(&list))
	assert.Equal(t, []string{"AAPL", "MSFT"}, list)

	// Remove a symbol
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/watch",
		bytes.NewReader([]byte(`{"category":"favorites","type":"remove","symbol":"AAPL"}`)))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	res2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res2.Body.Close()
	require.Equal(t, http.StatusOK, res2.StatusCode)

	var updated []string
	require.NoError(t, json.NewDecoder(res2.Body).Decode(&updated))
	assert.Equal(t, []string{"MSFT"}, updated)
}

func TestNews(t *testing.T) {
	ts, _ := setupServer(t)

	res, err := http.Get(ts.URL + "/api/news")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	var articles []news.Article
	require.NoError(t, json.NewDecoder(res.Body).Decode(&articles))
	require.Len(t, articles, 1)
	assert.Equal(t, "Headline", articles[0].Title)
}

func TestHealth(t *testing.T) {
	ts, _ := setupServer(t)

	res, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
}
