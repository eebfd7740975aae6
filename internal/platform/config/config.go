package config

import (
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Server captures process-level configuration resolved once at startup.
// Request-path tunables live in Runtime so the configure operation can
// change them without a restart.
type Server struct {
	Addr          string `yaml:"addr"`
	VerifierAddr  string `yaml:"verifier_addr"`
	JWTSigningKey string `yaml:"jwt_signing_key"`
	PhoneHashKey  string `yaml:"phone_hash_key"`
	PostgresDSN   string `yaml:"postgres_dsn"`
	RedisURL      string `yaml:"redis_url"`
	KafkaBrokers  string `yaml:"kafka_brokers"`
	AuditTopic    string `yaml:"audit_topic"`
	ReplicaURL    string `yaml:"replica_url"`
	RegistryURL   string `yaml:"registry_url"`
	Operator      string `yaml:"operator"`
	DevMode       bool   `yaml:"dev_mode"`
}

// FromEnv builds a Server config from environment variables, optionally
// overlaid by a YAML file named in CONFIG_FILE, so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:         envOr("IDM_ADDR", ":8080"),
		VerifierAddr: envOr("VERIFIER_ADDR", ":8081"),
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		RedisURL:     os.Getenv("REDIS_URL"),
		KafkaBrokers: os.Getenv("KAFKA_BROKERS"),
		AuditTopic:   envOr("AUDIT_TOPIC", "idm.audit"),
		ReplicaURL:   os.Getenv("REPLICA_URL"),
		RegistryURL:  envOr("REGISTRY_URL", "http://localhost:8080"),
		Operator:     os.Getenv("IDM_OPERATOR"),
		DevMode:      os.Getenv("IDM_DEV_MODE") == "true",
		PhoneHashKey: os.Getenv("PHONE_HASH_KEY"),
	}

	cfg.JWTSigningKey = os.Getenv("JWT_SIGNING_KEY")
	if cfg.JWTSigningKey == "" {
		// Use a default for development - should be overridden in production
		cfg.JWTSigningKey = "dev-secret-key-change-in-production"
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if raw, err := os.ReadFile(path); err == nil {
			_ = yaml.Unmarshal(raw, &cfg)
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// HeartbeatDisabled is the period value at or above which replication stops
// ticking; deployments use it interchangeably with zero.
const HeartbeatDisabled = 1_000_000_000

// ConfigureRequest is the payload of the configure operation. Nil fields
// leave the current value untouched.
type ConfigureRequest struct {
	TokenTTLSeconds         *uint64  `json:"token_ttl"`
	TokenRefreshTTLSeconds  *uint64  `json:"token_refresh_ttl"`
	WhitelistedPhoneNumbers []string `json:"whitelisted_phone_numbers"`
	HeartbeatPeriod         *uint32  `json:"heartbeat"`
	BackupCanisterID        *string  `json:"backup_canister_id"`
	IdentityManagerID       *string  `json:"identity_manager"`
	Operator                *string  `json:"operator"`
	Lambda                  *string  `json:"lambda"`
	TokenMismatchMessage    *string  `json:"token_mismatch_message"`
	Env                     *string  `json:"env"`
}

// Runtime holds the dynamically reconfigurable subset. All reads go through
// Snapshot; Apply replaces only the fields named in the request.
type Runtime struct {
	mu sync.RWMutex
	s  Snapshot
}

// Snapshot is an immutable view of the runtime configuration.
type Snapshot struct {
	TokenTTL             time.Duration
	TokenRefreshTTL      time.Duration
	WhitelistedPhones    map[string]struct{}
	HeartbeatPeriod      uint32
	BackupCanisterID     string
	IdentityManagerID    string
	Operator             string
	Lambda               string
	TokenMismatchMessage string
	Env                  string
}

// NewRuntime seeds the defaults the deployment fixtures assume.
func NewRuntime() *Runtime {
	return &Runtime{s: Snapshot{
		TokenTTL:             60 * time.Second,
		TokenRefreshTTL:      60 * time.Second,
		HeartbeatPeriod:      HeartbeatDisabled,
		TokenMismatchMessage: "Token does not match.",
		WhitelistedPhones:    map[string]struct{}{},
	}}
}

func (r *Runtime) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.s
	wl := make(map[string]struct{}, len(s.WhitelistedPhones))
	for k := range s.WhitelistedPhones {
		wl[k] = struct{}{}
	}
	s.WhitelistedPhones = wl
	return s
}

func (r *Runtime) Apply(req ConfigureRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req.TokenTTLSeconds != nil {
		r.s.TokenTTL = time.Duration(*req.TokenTTLSeconds) * time.Second
	}
	if req.TokenRefreshTTLSeconds != nil {
		r.s.TokenRefreshTTL = time.Duration(*req.TokenRefreshTTLSeconds) * time.Second
	}
	if req.WhitelistedPhoneNumbers != nil {
		wl := make(map[string]struct{}, len(req.WhitelistedPhoneNumbers))
		for _, p := range req.WhitelistedPhoneNumbers {
			wl[strings.TrimSpace(p)] = struct{}{}
		}
		r.s.WhitelistedPhones = wl
	}
	if req.HeartbeatPeriod != nil {
		r.s.HeartbeatPeriod = *req.HeartbeatPeriod
	}
	if req.BackupCanisterID != nil {
		r.s.BackupCanisterID = *req.BackupCanisterID
	}
	if req.IdentityManagerID != nil {
		r.s.IdentityManagerID = *req.IdentityManagerID
	}
	if req.Operator != nil {
		r.s.Operator = *req.Operator
	}
	if req.Lambda != nil {
		r.s.Lambda = *req.Lambda
	}
	if req.TokenMismatchMessage != nil {
		r.s.TokenMismatchMessage = *req.TokenMismatchMessage
	}
	if req.Env != nil {
		r.s.Env = *req.Env
	}
}

// HeartbeatEnabled reports whether the replication ticker should run.
func (s Snapshot) HeartbeatEnabled() bool {
	return s.HeartbeatPeriod > 0 && s.HeartbeatPeriod < HeartbeatDisabled
}

// Describe renders the snapshot for the configuration query endpoint.
func (s Snapshot) Describe() map[string]any {
	wl := make([]string, 0, len(s.WhitelistedPhones))
	for p := range s.WhitelistedPhones {
		wl = append(wl, p)
	}
	return map[string]any{
		"token_ttl":                 uint64(s.TokenTTL / time.Second),
		"token_refresh_ttl":         uint64(s.TokenRefreshTTL / time.Second),
		"whitelisted_phone_numbers": wl,
		"heartbeat":                 s.HeartbeatPeriod,
		"backup_canister_id":        s.BackupCanisterID,
		"identity_manager":          s.IdentityManagerID,
		"operator":                  s.Operator,
		"env":                       s.Env,
	}
}
