package spectate

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/setgame/internal/ui"
)

func newTestHub() *Hub {
	return NewHub("01TESTGAME000000", []string{"Alice", "Bob"}, 12, log.NewWithOptions(io.Discard, log.Options{}))
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHubMirrorsBoard(t *testing.T) {
	hub := newTestHub()

	hub.PlaceCard(40, 3)
	hub.PlaceCard(7, 4)
	hub.PlaceToken(1, 3)
	hub.PlaceToken(0, 3)
	hub.SetScore(1, 4)
	hub.SetFreeze(1, 1500*time.Millisecond)
	hub.SetCountdown(2*time.Second, true)
	hub.RemoveCard(4)

	s := hub.Snapshot()
	assert.Equal(t, "01TESTGAME000000", s.GameID)
	assert.Equal(t, SlotState{Slot: 3, Card: 40, Tokens: []int{0, 1}}, s.Slots[3])
	assert.Equal(t, SlotState{Slot: 4, Card: -1, Tokens: []int{}}, s.Slots[4])
	assert.Equal(t, PlayerState{ID: 1, Name: "Bob", Score: 4, FrozenMillis: 1500}, s.Players[1])
	assert.Equal(t, int64(2000), s.RemainingMillis)
	assert.True(t, s.Warn)

	hub.RemoveTokens(3)
	hub.AnnounceWinner([]int{1})
	s = hub.Snapshot()
	assert.Empty(t, s.Slots[3].Tokens)
	assert.Equal(t, []int{1}, s.Winners)
}

func TestSpectatorGetsSnapshotThenEvents(t *testing.T) {
	hub := newTestHub()
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	hub.PlaceCard(5, 2)
	hub.SetScore(0, 1)

	conn := dial(t, srv)

	msg := readMessage(t, conn)
	require.Equal(t, MessageTypeSnapshot, msg.Type)
	var snapshot Snapshot
	require.NoError(t, json.Unmarshal(msg.Data, &snapshot))
	assert.Equal(t, 5, snapshot.Slots[2].Card)
	assert.Equal(t, 1, snapshot.Players[0].Score)

	hub.PlaceToken(1, 2)

	msg = readMessage(t, conn)
	require.Equal(t, MessageTypeEvent, msg.Type)
	var event ui.Event
	require.NoError(t, json.Unmarshal(msg.Data, &event))
	assert.Equal(t, ui.Event{Kind: ui.KindPlaceToken, Player: 1, Slot: 2}, event)
}

func TestSpectatorInputIsIgnored(t *testing.T) {
	hub := newTestHub()
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	readMessage(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"press","data":{"slot":1}}`)))
	hub.SetCountdown(time.Second, false)

	msg := readMessage(t, conn)
	var event ui.Event
	require.NoError(t, json.Unmarshal(msg.Data, &event))
	assert.Equal(t, ui.KindCountdown, event.Kind)
	assert.Equal(t, 1, hub.Spectators())
	assert.Equal(t, -1, hub.Snapshot().Slots[1].Card)
}

func TestSpectatorDisconnectUnregisters(t *testing.T) {
	hub := newTestHub()
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	readMessage(t, conn)
	require.Equal(t, 1, hub.Spectators())

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		return hub.Spectators() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(newTestHub().Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestServeStopsOnCancel(t *testing.T) {
	hub := newTestHub()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		errs <- hub.Serve(ctx, ln)
	}()

	url := "ws://" + ln.Addr().String() + "/ws"
	var conn *websocket.Conn
	require.Eventually(t, func() bool {
		c, resp, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		conn = c
		return true
	}, 2*time.Second, 10*time.Millisecond)
	defer conn.Close()
	readMessage(t, conn)

	cancel()
	select {
	case err := <-errs:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err, "spectator disconnected on shutdown")
	assert.Zero(t, hub.Spectators())
}
