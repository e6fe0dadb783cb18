package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/partsdealer-backend/pkg/errors"
)

func TestMobileMoneySubmitAccepted(t *testing.T) {
	var captured chargeRequest
	var auth, idem string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/charges", r.URL.Path)
		auth = r.Header.Get("Authorization")
		idem = r.Header.Get("Idempotency-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(chargeResponse{Status: "accepted", TransactionID: "tx-1"})
	}))
	defer srv.Close()

	gw, err := NewMobileMoney(srv.URL+"/", "secret", WithMerchantAccount("merchant-9"))
	require.NoError(t, err)

	res, err := gw.Submit(context.Background(), SubmitRequest{
		AmountCents:        5135,
		Currency:           "usd",
		DestinationAccount: "+233200000000",
		Reference:          "pay-1",
	})
	require.NoError(t, err)
	require.True(t, res.Accepted)
	require.Equal(t, "tx-1", res.TransactionID)
	require.Equal(t, "Bearer secret", auth)
	require.Equal(t, "pay-1", idem)
	require.Equal(t, int64(5135), captured.Amount)
	require.Equal(t, "USD", captured.Currency)
	require.Equal(t, "merchant-9", captured.MerchantAccount)
}

func TestMobileMoneySubmitRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_ = json.NewEncoder(w).Encode(chargeResponse{Status: "rejected", Reason: "insufficient funds"})
	}))
	defer srv.Close()

	gw, err := NewMobileMoney(srv.URL, "")
	require.NoError(t, err)

	res, err := gw.Submit(context.Background(), SubmitRequest{AmountCents: 100, DestinationAccount: "+1", Reference: "r"})
	require.NoError(t, err)
	require.False(t, res.Accepted)
	require.Equal(t, "insufficient funds", res.Reason)
}

func TestMobileMoneySubmitDeclinedInBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chargeResponse{Status: "DECLINED"})
	}))
	defer srv.Close()

	gw, err := NewMobileMoney(srv.URL, "")
	require.NoError(t, err)

	res, err := gw.Submit(context.Background(), SubmitRequest{AmountCents: 100, DestinationAccount: "+1", Reference: "r"})
	require.NoError(t, err)
	require.False(t, res.Accepted)
	require.Equal(t, "charge declined", res.Reason)
}

func TestMobileMoneySubmitServerErrorIsDependency(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	gw, err := NewMobileMoney(srv.URL, "")
	require.NoError(t, err)

	_, err = gw.Submit(context.Background(), SubmitRequest{AmountCents: 100, DestinationAccount: "+1", Reference: "r"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestMobileMoneySubmitHonorsContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	gw, err := NewMobileMoney(srv.URL, "")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = gw.Submit(ctx, SubmitRequest{AmountCents: 100, DestinationAccount: "+1", Reference: "r"})
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMobileMoneyValidatesInput(t *testing.T) {
	_, err := NewMobileMoney(" ", "")
	require.Error(t, err)

	gw, err := NewMobileMoney("http://mm.test", "")
	require.NoError(t, err)
	_, err = gw.Submit(context.Background(), SubmitRequest{AmountCents: 0, DestinationAccount: "+1"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = gw.Submit(context.Background(), SubmitRequest{AmountCents: 10})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
