package rest_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gemshop/internal/shop/adapters/rest"
	"gemshop/internal/shop/app/dto"
)

func newCartAPI(t *testing.T, handler http.HandlerFunc) (*httptest.Server, func()) {
	t.Helper()
	server := httptest.NewServer(handler)
	return server, server.Close
}

func TestFetchNormalizesBothPayloadShapes(t *testing.T) {
	// Сервер отдает одну позицию с вложенным product и одну с плоскими
	// полями; после нормализации формы неразличимы.
	server, closeServer := newCartAPI(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"items": [
				{
					"id": "item-1",
					"product": {"id": "prod-1", "title": "Solitaire Ring", "base_price": 125000},
					"quantity": 2,
					"calculated_price": 250000,
					"metal": "gold",
					"metal_multiplier_bp": 25000
				},
				{
					"id": "item-2",
					"product_id": "prod-2",
					"title": "Anchor Chain",
					"base_price": 78000,
					"quantity": 1
				}
			]
		}`))
	})
	defer closeServer()

	client := rest.NewCartClient(rest.NewClient(server.URL, http.DefaultClient))

	items, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	nested := items[0]
	assert.Equal(t, "item-1", nested.ID)
	assert.Equal(t, "prod-1", nested.ProductID)
	assert.Equal(t, "Solitaire Ring", nested.Title)
	assert.Equal(t, int64(125000), nested.BasePrice)
	require.NotNil(t, nested.CalculatedPrice)
	assert.Equal(t, int64(250000), *nested.CalculatedPrice)
	assert.Equal(t, "gold", nested.Selection.Metal)
	assert.Equal(t, int64(25000), nested.Selection.MetalMultiplierBP)

	flat := items[1]
	assert.Equal(t, "item-2", flat.ID)
	assert.Equal(t, "prod-2", flat.ProductID)
	assert.Equal(t, "Anchor Chain", flat.Title)
	assert.Nil(t, flat.CalculatedPrice)
}

func TestNestedProductWinsOverFlatFields(t *testing.T) {
	server, closeServer := newCartAPI(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"items": [
				{
					"id": "item-1",
					"product_id": "stale",
					"title": "Stale Title",
					"base_price": 1,
					"product": {"id": "prod-1", "title": "Solitaire Ring", "base_price": 125000},
					"quantity": 1
				}
			]
		}`))
	})
	defer closeServer()

	client := rest.NewCartClient(rest.NewClient(server.URL, http.DefaultClient))

	items, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, "prod-1", items[0].ProductID)
	assert.Equal(t, "Solitaire Ring", items[0].Title)
	assert.Equal(t, int64(125000), items[0].BasePrice)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":"token expired"}`, expected: rest.ErrUnauthorized},
		{name: "forbidden", status: http.StatusForbidden, body: `{"error":"admin required"}`, expected: rest.ErrUnauthorized},
		{name: "not found", status: http.StatusNotFound, body: `{"error":"no such item"}`, expected: rest.ErrNotFound},
		{name: "conflict", status: http.StatusConflict, body: `{"error":"already in cart"}`, expected: rest.ErrDuplicateItem},
		{name: "bad request", status: http.StatusBadRequest, body: `{"error":"bad payload"}`, expected: rest.ErrValidation},
		{name: "unprocessable", status: http.StatusUnprocessableEntity, body: `{"error":"quantity"}`, expected: rest.ErrValidation},
		{name: "server error", status: http.StatusInternalServerError, body: `boom`, expected: rest.ErrServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, closeServer := newCartAPI(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			defer closeServer()

			client := rest.NewCartClient(rest.NewClient(server.URL, http.DefaultClient))

			_, err := client.Fetch(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestAddSendsSelection(t *testing.T) {
	server, closeServer := newCartAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/cart", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{
			"id": "item-1",
			"product": {"id": "prod-1", "title": "Solitaire Ring", "base_price": 125000},
			"quantity": 2,
			"calculated_price": 625000,
			"metal": "gold",
			"metal_multiplier_bp": 25000
		}`))
	})
	defer closeServer()

	client := rest.NewCartClient(rest.NewClient(server.URL, http.DefaultClient))

	item, err := client.Add(context.Background(), &dto.AddCartItemRequest{
		ProductID: "prod-1",
		Quantity:  2,
		Metal:     "gold",
	})
	require.NoError(t, err)

	assert.Equal(t, "item-1", item.ID)
	require.NotNil(t, item.CalculatedPrice)
	assert.Equal(t, int64(625000), *item.CalculatedPrice)
}
