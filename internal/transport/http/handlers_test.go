package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"

	accountservice "identity-manager/internal/account/service"
	accountstore "identity-manager/internal/account/store"
	"identity-manager/internal/application"
	"identity-manager/internal/audit"
	"identity-manager/internal/phone"
	"identity-manager/internal/platform/config"
	"identity-manager/internal/platform/metrics"
	"identity-manager/internal/platform/middleware"
	"identity-manager/internal/pubsub"
	"identity-manager/internal/replica"
)

var testMetrics = metrics.New()

const signingKey = "test-signing-key"

type HandlerSuite struct {
	suite.Suite
	server  *httptest.Server
	runtime *config.Runtime
	phone   *phone.Service
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.runtime = config.NewRuntime()
	auth := middleware.NewAuthenticator(signingKey, true, log)

	auditStore := audit.NewMemoryStore()
	auditSvc := audit.NewService(auditStore)
	ctx, cancel := context.WithCancel(context.Background())
	s.T().Cleanup(cancel)
	go func() { _ = audit.NewWorker(auditStore, nil, auditSvc.Inbox(), log).Run(ctx) }()

	accStore := accountstore.NewMemory()
	s.phone = phone.NewService(phone.NewMemoryTokenStore(), accStore, s.runtime, []byte("hash-key"), testMetrics, log)
	apps := application.NewService(application.NewMemoryStore())
	accounts := accountservice.NewService(
		accStore, s.phone, apps, auth, replica.NewMemoryReplica(),
		s.runtime, auditSvc, testMetrics, log,
	)
	pubsubSvc := pubsub.NewService(log)

	handler := NewHandler(accounts, s.phone, apps, pubsubSvc, auditSvc, s.runtime, auth, testMetrics, log)
	s.server = httptest.NewServer(handler.NewRouter())
	s.T().Cleanup(s.server.Close)
}

// call performs a request as principal (dev-mode header auth) and decodes
// the envelope into out when it is non-nil.
func (s *HandlerSuite) call(method, path, principal string, body any, out any) *http.Response {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		payload = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.server.URL+path, payload)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if principal != "" {
		req.Header.Set("X-Principal", principal)
	}

	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	if out != nil {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

type envelope struct {
	Data       json.RawMessage `json:"data"`
	Error      *string         `json:"error"`
	StatusCode uint16          `json:"status_code"`
}

func (s *HandlerSuite) verifyPhone(principal, number, code string) {
	var env envelope
	s.call(http.MethodPost, "/phone/post_token", "lambda", map[string]string{
		"phone_number_encrypted": "enc:" + number,
		"phone_number_hash":      "hash:" + number,
		"token":                  code,
		"principal_id":           principal,
	}, &env)
	s.Require().Nil(env.Error)

	s.call(http.MethodPost, "/phone/verify_token", principal, map[string]string{"token": code}, &env)
	s.Require().Nil(env.Error)
}

func (s *HandlerSuite) TestAuthentication() {
	s.Run("garbage bearer token fails at the transport", func() {
		req, err := http.NewRequest(http.MethodGet, s.server.URL+"/account", nil)
		s.Require().NoError(err)
		req.Header.Set("Authorization", "Bearer not-a-jwt")

		resp, err := s.server.Client().Do(req)
		s.Require().NoError(err)
		defer resp.Body.Close()
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
	})

	s.Run("signed bearer token resolves the caller", func() {
		s.verifyPhone("alice", "+15551234567", "1234")

		token := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.CallerClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "alice",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		signed, err := token.SignedString([]byte(signingKey))
		s.Require().NoError(err)

		req, err := http.NewRequest(http.MethodPost, s.server.URL+"/account", nil)
		s.Require().NoError(err)
		req.Header.Set("Authorization", "Bearer "+signed)

		resp, err := s.server.Client().Do(req)
		s.Require().NoError(err)
		defer resp.Body.Close()

		var env envelope
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(&env))
		s.Require().Nil(env.Error)
		s.EqualValues(200, env.StatusCode)
	})

	s.Run("anonymous caller gets a domain 403", func() {
		var env envelope
		resp := s.call(http.MethodPost, "/account", "", nil, &env)
		s.Equal(http.StatusForbidden, resp.StatusCode)
		s.Equal("Unauthorized.", *env.Error)
	})
}

func (s *HandlerSuite) TestAccountFlow() {
	s.verifyPhone("alice", "+15551234567", "1234")

	s.Run("create account", func() {
		var env envelope
		resp := s.call(http.MethodPost, "/account", "alice", nil, &env)
		s.Equal(http.StatusOK, resp.StatusCode)
		s.Require().Nil(env.Error)

		var acc struct {
			Anchor      uint64  `json:"anchor"`
			PhoneNumber *string `json:"phone_number"`
		}
		s.Require().NoError(json.Unmarshal(env.Data, &acc))
		s.EqualValues(10_001, acc.Anchor)
		s.Nil(acc.PhoneNumber)
	})

	s.Run("envelope status is mirrored on the transport", func() {
		var env envelope
		resp := s.call(http.MethodGet, "/account", "nobody", nil, &env)
		s.Equal(http.StatusNotFound, resp.StatusCode)
		s.EqualValues(404, env.StatusCode)
		s.Equal("Unable to find Account.", *env.Error)
	})

	s.Run("update the display name", func() {
		var env envelope
		s.call(http.MethodPut, "/account", "alice", map[string]string{"name": "Alice"}, &env)
		s.Require().Nil(env.Error)

		var acc struct {
			Name *string `json:"name"`
		}
		s.Require().NoError(json.Unmarshal(env.Data, &acc))
		s.Equal("Alice", *acc.Name)
	})

	s.Run("name-only update", func() {
		var env envelope
		s.call(http.MethodPut, "/account/name", "alice", map[string]string{"name": "Alice A."}, &env)
		s.Require().Nil(env.Error)

		var acc struct {
			Name *string `json:"name"`
		}
		s.Require().NoError(json.Unmarshal(env.Data, &acc))
		s.Equal("Alice A.", *acc.Name)
	})

	s.Run("lookup by anchor", func() {
		var env envelope
		s.call(http.MethodGet, "/account/by_anchor/10001", "alice", nil, &env)
		s.Require().Nil(env.Error)
	})

	s.Run("malformed anchor", func() {
		var env envelope
		s.call(http.MethodGet, "/account/by_anchor/xyz", "alice", nil, &env)
		s.Equal("Anchor not registered.", *env.Error)
	})

	s.Run("remove account", func() {
		var env envelope
		s.call(http.MethodDelete, "/account", "alice", nil, &env)
		s.Require().Nil(env.Error)

		resp := s.call(http.MethodDelete, "/account", "alice", nil, &env)
		s.Equal(http.StatusNotFound, resp.StatusCode)
		s.Equal("Unable to remove Account.", *env.Error)
	})

	s.Run("operator reads the audit trail", func() {
		var env envelope
		s.call(http.MethodPost, "/configure", "op", map[string]any{"operator": "op"}, &env)
		s.Require().Nil(env.Error)

		// The worker persists events asynchronously.
		s.Eventually(func() bool {
			var env envelope
			s.call(http.MethodGet, "/audit/alice", "op", nil, &env)
			if env.Error != nil {
				return false
			}
			var events []map[string]any
			if err := json.Unmarshal(env.Data, &events); err != nil {
				return false
			}
			return len(events) >= 2
		}, 2*time.Second, 20*time.Millisecond)

		resp := s.call(http.MethodGet, "/audit/alice", "mallory", nil, &env)
		s.Equal(http.StatusForbidden, resp.StatusCode)
	})
}

func (s *HandlerSuite) TestPubSub() {
	s.Run("create and repost", func() {
		var env envelope
		resp := s.call(http.MethodPost, "/topics", "alice", map[string]string{"topic": "pairing"}, &env)
		s.Equal(http.StatusOK, resp.StatusCode)

		resp = s.call(http.MethodPost, "/topics", "alice", map[string]string{"topic": "pairing"}, &env)
		s.Equal(http.StatusConflict, resp.StatusCode)
		s.Equal("Topic exist", *env.Error)
	})

	s.Run("post, peek, drain", func() {
		var env envelope
		s.call(http.MethodPost, "/topics/pairing/messages", "alice", map[string][]string{"messages": {"m1", "m2"}}, &env)
		s.Require().Nil(env.Error)

		var msgs []string
		s.call(http.MethodGet, "/topics/pairing/messages", "bob", nil, &env)
		s.Require().NoError(json.Unmarshal(env.Data, &msgs))
		s.Len(msgs, 2)

		s.call(http.MethodPost, "/topics/pairing/messages/drain", "bob", nil, &env)
		s.Require().NoError(json.Unmarshal(env.Data, &msgs))
		s.Len(msgs, 2)

		s.call(http.MethodGet, "/topics/pairing/messages", "bob", nil, &env)
		s.Require().NoError(json.Unmarshal(env.Data, &msgs))
		s.Empty(msgs)
	})
}

func (s *HandlerSuite) TestApplicationLimitQuery() {
	s.Run("caller without an account is under every limit", func() {
		var env envelope
		resp := s.call(http.MethodGet, "/applications/is_over_the_limit?domain=app.io", "nobody", nil, &env)
		s.Equal(http.StatusOK, resp.StatusCode)
		s.Require().Nil(env.Error)

		var over bool
		s.Require().NoError(json.Unmarshal(env.Data, &over))
		s.False(over)
	})

	s.Run("caller with an account gets the domain verdict", func() {
		s.verifyPhone("alice", "+15551234567", "1234")
		var env envelope
		s.call(http.MethodPost, "/account", "alice", nil, &env)
		s.Require().Nil(env.Error)

		resp := s.call(http.MethodGet, "/applications/is_over_the_limit?domain=app.io", "alice", nil, &env)
		s.Equal(http.StatusOK, resp.StatusCode)

		var over bool
		s.Require().NoError(json.Unmarshal(env.Data, &over))
		s.False(over)
	})
}

func (s *HandlerSuite) TestConfigure() {
	s.Run("anonymous cannot configure", func() {
		var env envelope
		resp := s.call(http.MethodPost, "/configure", "", map[string]any{"token_ttl": 10}, &env)
		s.Equal(http.StatusForbidden, resp.StatusCode)
	})

	s.Run("bootstrap configure pins the operator", func() {
		var env envelope
		s.call(http.MethodPost, "/configure", "op", map[string]any{"operator": "op", "token_ttl": 10}, &env)
		s.Require().Nil(env.Error)
		s.Equal(10*time.Second, s.runtime.Snapshot().TokenTTL)
	})

	s.Run("non-operator is locked out afterwards", func() {
		var env envelope
		resp := s.call(http.MethodPost, "/configure", "mallory", map[string]any{"token_ttl": 1}, &env)
		s.Equal(http.StatusForbidden, resp.StatusCode)
		s.Equal(10*time.Second, s.runtime.Snapshot().TokenTTL)
	})

	s.Run("operator reads the configuration back", func() {
		var env envelope
		s.call(http.MethodGet, "/configure", "op", nil, &env)
		s.Require().Nil(env.Error)

		var described map[string]any
		s.Require().NoError(json.Unmarshal(env.Data, &described))
		s.EqualValues(10, described["token_ttl"])
	})
}

func (s *HandlerSuite) TestInternalSurface() {
	s.verifyPhone("alice", "+15551234567", "1234")
	var env envelope
	s.call(http.MethodPost, "/account", "alice", nil, &env)
	s.Require().Nil(env.Error)
	s.call(http.MethodPost, "/personas", "alice", map[string]string{"domain": "app.io", "persona_id": "p-1"}, &env)
	s.Require().Nil(env.Error)

	s.Run("certify hands out the phone hash", func() {
		s.call(http.MethodPost, "/internal/certify_phone_number_sha2", "",
			map[string]string{"principal": "alice", "domain": "app.io"}, &env)
		s.Require().Nil(env.Error)

		var sha2 string
		s.Require().NoError(json.Unmarshal(env.Data, &sha2))
		s.Equal("hash:+15551234567", sha2)
	})

	s.Run("backup serves the snapshot with phone hashes", func() {
		s.call(http.MethodGet, "/backup/current", "", nil, &env)
		s.Require().Nil(env.Error)

		var accounts []map[string]any
		s.Require().NoError(json.Unmarshal(env.Data, &accounts))
		s.Require().Len(accounts, 1)
		s.Equal("hash:+15551234567", accounts[0]["phone_number_hash"])
	})

	s.Run("replica snapshot replaces local state", func() {
		s.call(http.MethodPost, "/replica/snapshot", "", []map[string]any{
			{"anchor": 10_900, "principal_id": "replicated"},
		}, &env)
		s.Require().Nil(env.Error)

		s.call(http.MethodGet, "/account/by_principal/replicated", "alice", nil, &env)
		s.Require().Nil(env.Error)
	})
}
