package sms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGatewayTransport_Send(t *testing.T) {
	t.Parallel()

	var got message

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(server.Close)

	transport := NewGatewayTransport(server.URL, "secret", "SOS", time.Second)

	require.NoError(t, transport.Send(context.Background(), " +15550001 ", "help"))
	require.Equal(t, message{To: "+15550001", From: "SOS", Text: "help"}, got)
}

func TestGatewayTransport_Rejected(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"no credit"}`))
	}))
	t.Cleanup(server.Close)

	transport := NewGatewayTransport(server.URL, "", "", time.Second)

	err := transport.Send(context.Background(), "+15550001", "help")
	require.ErrorIs(t, err, errGatewayRejected)
	require.ErrorContains(t, err, "no credit")
	require.Equal(t, int32(1), calls.Load())
}

func TestGatewayTransport_EmptyNumber(t *testing.T) {
	t.Parallel()

	transport := NewGatewayTransport("http://127.0.0.1:1", "", "", time.Second)

	require.ErrorIs(t, transport.Send(context.Background(), "  ", "help"), ErrEmptyNumber)
}

func TestLogTransport(t *testing.T) {
	t.Parallel()

	require.NoError(t, LogTransport{}.Send(context.Background(), "+15550001", "help"))
	require.ErrorIs(t, LogTransport{}.Send(context.Background(), "", "help"), ErrEmptyNumber)
}
