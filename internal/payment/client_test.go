package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePayment(t *testing.T) {
	var gotAuth string
	var gotPayload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/payments", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		_ = json.NewEncoder(w).Encode(map[string]string{
			"payment_id": "pay-abc",
			"pay_url":    "https://pay.example/pay-abc",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sekrit")
	res, err := c.CreatePayment(context.Background(), CreateRequest{
		AmountCents: 20000,
		Currency:    "EUR",
		OrderRef:    "res-1",
		ReturnURL:   "https://rooms.example/booking/res-1",
		NotifyURL:   "https://rooms.example/v1/payments/webhook",
	})
	require.NoError(t, err)
	assert.Equal(t, "pay-abc", res.Ref)
	assert.Equal(t, "https://pay.example/pay-abc", res.PayURL)
	assert.Equal(t, "Bearer sekrit", gotAuth)
	assert.Equal(t, float64(20000), gotPayload["amount_cents"])
	assert.Equal(t, "res-1", gotPayload["order_ref"])
}

func TestCreatePaymentRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "currency not supported"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sekrit")
	_, err := c.CreatePayment(context.Background(), CreateRequest{AmountCents: 1, Currency: "XXX"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "currency not supported")
}

func TestFetchState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payments/pay-abc", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]string{"state": "Succeeded"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sekrit")
	state, err := c.FetchState(context.Background(), "pay-abc")
	require.NoError(t, err)
	assert.Equal(t, KindPaid, state.Kind)
	assert.Equal(t, "Succeeded", state.Raw)
}

func TestMapState(t *testing.T) {
	cases := map[string]Kind{
		"created":   KindCreated,
		"prepared":  KindCreated,
		"PAID":      KindPaid,
		"succeeded": KindPaid,
		"cancelled": KindCanceled,
		"timed_out": KindTimedOut,
		"expired":   KindTimedOut,
		"rejected":  KindFailed,
		"weird":     KindUnknown,
		"":          KindUnknown,
	}
	for raw, want := range cases {
		got := mapState(raw)
		assert.Equal(t, want, got.Kind, "raw=%q", raw)
		assert.Equal(t, raw, got.Raw, "raw spelling is preserved")
	}
}
