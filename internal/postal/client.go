// Package postal resolves Brazilian postal codes (CEP) to street addresses
// through ViaCEP and caches successful answers in the KV store.
package postal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"lavibaby-storefront/internal/domain"
	"lavibaby-storefront/internal/format"
	"lavibaby-storefront/internal/kv"
)

var (
	ErrInvalidCEP = errors.New("postal: CEP must have 8 digits")
	ErrUpstream   = errors.New("postal: lookup service unavailable")
)

type Client struct {
	baseURL string
	http    *http.Client
	cache   kv.Store
	logger  *zap.Logger
}

func New(baseURL string, cache kv.Store, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
		cache:   cache,
		logger:  logger,
	}
}

type viaCEPResponse struct {
	CEP         string `json:"cep"`
	Logradouro  string `json:"logradouro"`
	Complemento string `json:"complemento"`
	Bairro      string `json:"bairro"`
	Localidade  string `json:"localidade"`
	UF          string `json:"uf"`
	Erro        any    `json:"erro"`
}

// Lookup returns the address for cep. Number and Complement are left for the
// shopper to fill in.
func (c *Client) Lookup(ctx context.Context, cep string) (domain.Address, error) {
	digits := format.Digits(cep)
	if len(digits) != 8 {
		return domain.Address{}, ErrInvalidCEP
	}
	key := "postal:" + digits

	if c.cache != nil {
		var cached domain.Address
		err := kv.GetJSON(ctx, c.cache, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, kv.ErrNotFound) {
			c.logger.Warn("postal cache read failed", zap.String("cep", digits), zap.Error(err))
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/ws/%s/json/", c.baseURL, digits), nil)
	if err != nil {
		return domain.Address{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("postal lookup failed", zap.String("cep", digits), zap.Error(err))
		return domain.Address{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return domain.Address{}, ErrInvalidCEP
	case resp.StatusCode != http.StatusOK:
		return domain.Address{}, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var body viaCEPResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Address{}, fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}
	if isTrue(body.Erro) {
		return domain.Address{}, domain.ErrNotFound
	}

	addr := domain.Address{
		CEP:          format.CEP(digits),
		Street:       body.Logradouro,
		Neighborhood: body.Bairro,
		City:         body.Localidade,
		State:        body.UF,
	}
	if c.cache != nil {
		if err := kv.SetJSON(ctx, c.cache, key, addr); err != nil {
			c.logger.Warn("postal cache write failed", zap.String("cep", digits), zap.Error(err))
		}
	}
	return addr, nil
}

// ViaCEP has answered "erro": true and "erro": "true" over time.
func isTrue(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true"
	}
	return false
}
