// Package adapters provides concrete RegistryPort implementations: an HTTP
// client for the split-service deployment and an in-process bridge for the
// single-binary one.
package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"identity-manager/internal/verifier/ports"
	"identity-manager/pkg/response"
)

type certifyRequest struct {
	Principal string `json:"principal"`
	Domain    string `json:"domain"`
}

// HTTPRegistryAdapter implements ports.RegistryPort against the registry's
// internal HTTP surface.
type HTTPRegistryAdapter struct {
	baseURL string
	client  *http.Client
}

func NewHTTPRegistryAdapter(baseURL string) *HTTPRegistryAdapter {
	return &HTTPRegistryAdapter{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

var _ ports.RegistryPort = (*HTTPRegistryAdapter)(nil)

func (a *HTTPRegistryAdapter) CertifyPhoneNumberSha2(ctx context.Context, principal, domain string) (string, error) {
	payload, err := json.Marshal(certifyRequest{Principal: principal, Domain: domain})
	if err != nil {
		return "", fmt.Errorf("encode certify request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/internal/certify_phone_number_sha2", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build certify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call registry: %w", err)
	}
	defer resp.Body.Close()

	var env response.Envelope[string]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", fmt.Errorf("decode registry response: %w", err)
	}
	if env.Error != nil {
		return "", errors.New(*env.Error)
	}
	if env.Data == nil {
		return "", errors.New("registry returned no data")
	}
	return *env.Data, nil
}
