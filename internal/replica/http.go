package replica

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"identity-manager/internal/account/models"
	"identity-manager/pkg/response"
)

// WireAccount carries the phone hash, which the public Account shape hides
// from API responses but replication must preserve.
type WireAccount struct {
	models.Account
	PhoneNumberHash *string `json:"phone_number_hash"`
}

// ToWire converts accounts to the replication wire shape.
func ToWire(accounts []models.Account) []WireAccount {
	out := make([]WireAccount, len(accounts))
	for i, acc := range accounts {
		out[i] = WireAccount{Account: acc, PhoneNumberHash: acc.PhoneNumberHash}
	}
	return out
}

// FromWire converts the replication wire shape back to accounts.
func FromWire(wire []WireAccount) []models.Account {
	out := make([]models.Account, len(wire))
	for i, w := range wire {
		acc := w.Account
		acc.PhoneNumberHash = w.PhoneNumberHash
		out[i] = acc
	}
	return out
}

// HTTPReplica pushes snapshots to a remote replica over HTTP.
type HTTPReplica struct {
	baseURL string
	client  *http.Client
}

func NewHTTPReplica(baseURL string) *HTTPReplica {
	return &HTTPReplica{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

var _ ReplicaPort = (*HTTPReplica)(nil)

func (r *HTTPReplica) PushSnapshot(ctx context.Context, accounts []models.Account) error {
	payload, err := json.Marshal(ToWire(accounts))
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/replica/snapshot", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build snapshot request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("push snapshot: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("push snapshot: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// HTTPBackup fetches snapshots for the restore operation. The source is the
// backup host; the snapshot id selects which backup to pull.
type HTTPBackup struct {
	client *http.Client
}

func NewHTTPBackup() *HTTPBackup {
	return &HTTPBackup{client: &http.Client{Timeout: 30 * time.Second}}
}

var _ BackupPort = (*HTTPBackup)(nil)

func (b *HTTPBackup) Fetch(ctx context.Context, source, backupCanisterID string) ([]models.Account, error) {
	endpoint := source + "/backup/" + url.PathEscape(backupCanisterID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build backup request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch backup: %w", err)
	}
	defer resp.Body.Close()

	var env response.Envelope[[]WireAccount]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode backup: %w", err)
	}
	if env.Error != nil {
		return nil, errors.New(*env.Error)
	}
	if env.Data == nil {
		return nil, errors.New("backup returned no data")
	}
	return FromWire(*env.Data), nil
}
