package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPaypackServer(t *testing.T, authorizeCalls *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/agents/authorize", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(authorizeCalls, 1)
		var body authorizeRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body.ClientID != "id" || body.ClientSecret != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(authorizeResponse{
			Access:  "tok",
			Expires: time.Now().Add(time.Hour).Unix(),
		})
	})
	mux.HandleFunc("/transactions/cashin", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var body cashRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body.Number == "0000" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"invalid number"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(CashResult{Ref: "ref-1", Status: "pending", Amount: body.Amount, Kind: "CASHIN"})
	})
	mux.HandleFunc("/transactions/list", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"transactions":[],"total":0}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestPaypackCashInCachesToken(t *testing.T) {
	var calls int32
	srv := newPaypackServer(t, &calls)
	p := NewPaypack(PaypackConfig{BaseURL: srv.URL + "/", ClientID: "id", ClientSecret: "secret"})

	res, err := p.CashIn(context.Background(), 25, "0780000000")
	require.NoError(t, err)
	assert.Equal(t, "ref-1", res.Ref)
	assert.Equal(t, 25.0, res.Amount)

	_, err = p.CashIn(context.Background(), 10, "0780000000")
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	raw, err := p.Transactions(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"transactions":[],"total":0}`, string(raw))
}

func TestPaypackErrorsWrapErrGateway(t *testing.T) {
	var calls int32
	srv := newPaypackServer(t, &calls)

	p := NewPaypack(PaypackConfig{BaseURL: srv.URL, ClientID: "id", ClientSecret: "secret"})
	_, err := p.CashIn(context.Background(), 25, "0000")
	assert.ErrorIs(t, err, ErrGateway)

	bad := NewPaypack(PaypackConfig{BaseURL: srv.URL, ClientID: "id", ClientSecret: "wrong"})
	_, err = bad.CashIn(context.Background(), 25, "0780000000")
	assert.ErrorIs(t, err, ErrGateway)
}

func TestSandboxRecordsTransactions(t *testing.T) {
	s := NewSandbox()
	res, err := s.CashIn(context.Background(), 12.5, "0780000000")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Ref)

	raw, err := s.Transactions(context.Background())
	require.NoError(t, err)
	var out struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, 1, out.Total)
}
