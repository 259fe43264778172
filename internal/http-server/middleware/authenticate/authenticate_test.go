package authenticate

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"clubq/entity"

	"github.com/stretchr/testify/assert"
)

type stubAuth struct{}

func (stubAuth) AuthenticateByToken(_ context.Context, token string) (*entity.User, error) {
	if token == "tok-ana" {
		return &entity.User{ID: 1, Username: "ana"}, nil
	}
	return nil, entity.ErrUnauthorized
}

func TestAuthenticate(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := New(log, stubAuth{})(next)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", "Bearer tok-ana", http.StatusNoContent},
		{"missing header", "", http.StatusUnauthorized},
		{"bearer without token", "Bearer", http.StatusUnauthorized},
		{"bearer with trailing space", "Bearer ", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}
