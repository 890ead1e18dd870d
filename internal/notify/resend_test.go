package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/and161185/briefbridge/internal/errs"
)

func TestResend_Notify(t *testing.T) {
	var (
		got  sendRequest
		auth string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/emails", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"em_1"}`))
	}))
	defer srv.Close()

	n := NewResend(srv.URL, "re_key", "BriefBridge <noreply@briefbridge.dev>", "ops@example.com", time.Second)
	require.NoError(t, n.Notify(context.Background(), "New brief posted", "Title: Logo"))

	require.Equal(t, "Bearer re_key", auth)
	require.Equal(t, []string{"ops@example.com"}, got.To)
	require.Equal(t, "BriefBridge <noreply@briefbridge.dev>", got.From)
	require.Equal(t, "New brief posted", got.Subject)
	require.Equal(t, "Title: Logo", got.Text)
}

func TestResend_Notify_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid from"}`))
	}))
	defer srv.Close()

	n := NewResend(srv.URL, "re_key", "from", "to@example.com", time.Second)
	err := n.Notify(context.Background(), "s", "t")
	require.ErrorIs(t, err, errs.ErrNotifier)
	require.ErrorContains(t, err, "422")
}

func TestResend_Notify_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	n := NewResend(url, "re_key", "from", "to@example.com", time.Second)
	require.ErrorIs(t, n.Notify(context.Background(), "s", "t"), errs.ErrNotifier)
}
