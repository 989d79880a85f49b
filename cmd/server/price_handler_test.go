package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"marketdata/internal/cache"
	"marketdata/internal/quotes"
)

type stubSource struct {
	price string
	err   error
}

func (s stubSource) Price(_ context.Context, _ string) (string, error) {
	return s.price, s.err
}

func TestHandlePrice_ReturnsLatest(t *testing.T) {
	svc := quotes.NewService(stubSource{price: "189.91"}, nil)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/price?symbol=AAPL", nil)
	handlePrice(rr, req, svc)

	require.Equal(t, http.StatusOK, rr.Code)
	var p cache.PricePoint
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	require.Equal(t, "AAPL", p.Symbol)
	require.Equal(t, "189.91", p.Price)
}

func TestHandlePrice_MissingSymbol(t *testing.T) {
	svc := quotes.NewService(stubSource{price: "1"}, nil)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/price", nil)
	handlePrice(rr, req, svc)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlePrice_ProviderFailure(t *testing.T) {
	svc := quotes.NewService(stubSource{err: errors.New("boom")}, nil)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/price?symbol=AAPL", nil)
	handlePrice(rr, req, svc)

	require.Equal(t, http.StatusBadGateway, rr.Code)
}
