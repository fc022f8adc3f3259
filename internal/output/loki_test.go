package output

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exec-launcher/internal/event"
)

func TestLokiPush(t *testing.T) {
	var got lokiPushRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ev := event.LaunchEvent{
		Timestamp: time.Unix(0, 1234),
		PID:       77,
		Program:   "ls",
		Outcome:   event.OutcomeStarted,
	}
	require.NoError(t, NewLokiClient(srv.URL).Push(ev))

	require.Len(t, got.Streams, 1)
	s := got.Streams[0]
	assert.Equal(t, "exec-launcher", s.Stream["app"])
	assert.Equal(t, "77", s.Stream["pid"])
	assert.Equal(t, "ls", s.Stream["program"])
	assert.Equal(t, "started", s.Stream["outcome"])
	require.Len(t, s.Values, 1)
	assert.Equal(t, "1234", s.Values[0][0])
	assert.Equal(t, ev.String(), s.Values[0][1])
}

func TestLokiPushErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "entry out of order", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewLokiClient(srv.URL).Push(event.LaunchEvent{Outcome: event.OutcomeExited})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "entry out of order")
}
