package events_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/openpool/betledger/internal/events"
	"github.com/openpool/betledger/internal/ledger"
	"github.com/openpool/betledger/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestHub(t *testing.T) (*events.Hub, *httptest.Server) {
	t.Helper()

	hub := events.NewHub(&events.Config{
		BufferSize: 16,
		Logger:     zaptest.NewLogger(t),
	})
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(srv.Close)
	t.Cleanup(hub.Close)

	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func TestHub_PublishDelivers(t *testing.T) {
	t.Parallel()

	hub, srv := newTestHub(t)
	conn := dial(t, srv)

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)

	betAddr := ledger.DeriveBetAddress("hub-test")
	hub.Publish(ledger.Event{
		Type:   ledger.EventStaked,
		Bet:    betAddr,
		User:   testutil.Alice,
		Amount: 100,
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var event ledger.Event
	require.NoError(t, json.Unmarshal(payload, &event))
	assert.Equal(t, ledger.EventStaked, event.Type)
	assert.Equal(t, betAddr, event.Bet)
	assert.Equal(t, testutil.Alice, event.User)
}

func TestHub_FansOutToAllClients(t *testing.T) {
	t.Parallel()

	hub, srv := newTestHub(t)
	connA := dial(t, srv)
	connB := dial(t, srv)

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 2
	}, time.Second, 10*time.Millisecond)

	hub.Publish(ledger.Event{Type: ledger.EventBetCreated, Title: "fan-out"})

	for _, conn := range []*websocket.Conn{connA, connB} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
		_, payload, err := conn.ReadMessage()
		require.NoError(t, err)

		var event ledger.Event
		require.NoError(t, json.Unmarshal(payload, &event))
		assert.Equal(t, ledger.EventBetCreated, event.Type)
		assert.Equal(t, "fan-out", event.Title)
	}
}

func TestHub_RemovesDisconnectedClient(t *testing.T) {
	t.Parallel()

	hub, srv := newTestHub(t)
	conn := dial(t, srv)

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestHub_PublishConcurrentWithDisconnects(t *testing.T) {
	t.Parallel()

	hub, srv := newTestHub(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	// Keep publishers running while clients connect and drop, so sends race
	// client removal.
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					hub.Publish(ledger.Event{Type: ledger.EventStaked, Amount: 1})
				}
			}
		}()
	}

	for i := 0; i < 30; i++ {
		conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		if resp != nil {
			_ = resp.Body.Close()
		}
		_ = conn.Close()
	}

	close(stop)
	wg.Wait()

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestHub_PublishWithNoClients(t *testing.T) {
	t.Parallel()

	hub := events.NewHub(&events.Config{BufferSize: 1, Logger: zaptest.NewLogger(t)})
	defer hub.Close()

	// Must not block or panic.
	hub.Publish(ledger.Event{Type: ledger.EventResolved})
	assert.Equal(t, 0, hub.ClientCount())
}
