// Package rest содержит клиентов удаленного REST API магазина.
// Все вызовы проходят через Session Guard, который прикрепляет bearer
// токен и прозрачно обновляет его при истечении.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	maxResponseBody = 8 << 20
)

// Doer выполняет HTTP запрос. Реализуется Session Guard.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client - базовый JSON клиент удаленного API.
type Client struct {
	baseURL string
	doer    Doer
}

// NewClient создает базовый клиент поверх транспорта doer.
func NewClient(baseURL string, doer Doer) *Client {
	return &Client{
		baseURL: baseURL,
		doer:    doer,
	}
}

// do выполняет запрос и декодирует JSON ответ в target.
// Тело запроса собирается из bytes.Reader, поэтому GetBody установлен
// и Session Guard может повторить запрос после обновления токена.
func (c *Client) do(ctx context.Context, method, path string, body, target any) error {
	var bodyReader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%s %s: %w", method, path, mapError(resp.StatusCode, respBody))
	}

	if target == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, target); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
