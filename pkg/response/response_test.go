package response

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ResponseSuite struct {
	suite.Suite
}

func TestResponseSuite(t *testing.T) {
	suite.Run(t, new(ResponseSuite))
}

func (s *ResponseSuite) TestWriteMirrorsStatus() {
	s.Run("ok envelope", func() {
		rec := httptest.NewRecorder()
		Write(rec, Ok("hello"))

		s.Equal(200, rec.Code)
		s.Equal("application/json", rec.Header().Get("Content-Type"))

		var env Envelope[string]
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &env))
		s.Require().NotNil(env.Data)
		s.Equal("hello", *env.Data)
		s.Nil(env.Error)
		s.EqualValues(200, env.StatusCode)
	})

	s.Run("domain error envelope", func() {
		rec := httptest.NewRecorder()
		Write(rec, NotFound[string]("Unable to find Account."))

		s.Equal(404, rec.Code)

		var env Envelope[string]
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &env))
		s.Nil(env.Data)
		s.Equal("Unable to find Account.", *env.Error)
		s.EqualValues(404, env.StatusCode)
	})

	s.Run("zero status defaults to 200", func() {
		rec := httptest.NewRecorder()
		Write(rec, Envelope[bool]{})
		s.Equal(200, rec.Code)
	})

	// Through a real server: net/http drops any body written after a 204.
	s.Run("204 carries no body", func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			Write(w, NoContent[bool]())
		}))
		defer srv.Close()

		resp, err := http.Get(srv.URL)
		s.Require().NoError(err)
		defer resp.Body.Close()

		s.Equal(204, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		s.Require().NoError(err)
		s.Empty(body)
	})
}
