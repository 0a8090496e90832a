package ws

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorlab/liveboard/pkg/api"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// testServer принимает websocket-подключения и записывает входящие сообщения
type testServer struct {
	*httptest.Server

	mu       sync.Mutex
	conns    []*websocket.Conn
	received []api.Message
	queries  []url.Values
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ts := &testServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.mu.Lock()
		ts.queries = append(ts.queries, r.URL.Query())
		ts.mu.Unlock()

		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		ts.mu.Lock()
		ts.conns = append(ts.conns, conn)
		ts.mu.Unlock()

		for {
			var msg api.Message
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			ts.mu.Lock()
			ts.received = append(ts.received, msg)
			ts.mu.Unlock()
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *testServer) connCount() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.conns)
}

func (ts *testServer) lastConn() *websocket.Conn {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if len(ts.conns) == 0 {
		return nil
	}
	return ts.conns[len(ts.conns)-1]
}

func (ts *testServer) receivedKinds() []api.Kind {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	kinds := make([]api.Kind, len(ts.received))
	for i, m := range ts.received {
		kinds[i] = m.Kind
	}
	return kinds
}

func createTestChannel(t *testing.T, serverURL string, role Role, onMessage func(api.Message)) *Channel {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ch, err := New(logger, Config{
		ServerURL: serverURL,
		SessionID: "lesson-1",
		ClientID:  "client-1",
		Role:      role,
		OnMessage: onMessage,
	})
	require.NoError(t, err)
	return ch
}

func TestNew_BuildsWebsocketURL(t *testing.T) {
	ch := createTestChannel(t, "http://example.com:8080", RoleAuthor, nil)

	assert.True(t, strings.HasPrefix(ch.url, "ws://example.com:8080/ws?"))
	assert.Contains(t, ch.url, "session=lesson-1")
	assert.Contains(t, ch.url, "client_id=client-1")
	assert.Contains(t, ch.url, "role=author")

	// https переключается на wss
	ch = createTestChannel(t, "https://example.com", RoleViewer, nil)
	assert.True(t, strings.HasPrefix(ch.url, "wss://"))
}

func TestChannel_ViewerCannotSendMutating(t *testing.T) {
	ch := createTestChannel(t, "http://localhost:8080", RoleViewer, nil)

	err := ch.Send(api.Message{Kind: api.KindAdd})
	assert.ErrorIs(t, err, ErrNotAuthor)

	err = ch.Send(api.Message{Kind: api.KindClear})
	assert.ErrorIs(t, err, ErrNotAuthor)

	// Немутирующие сообщения зрителю доступны
	assert.NoError(t, ch.Send(api.Message{Kind: api.KindPeerJoined}))
}

func TestChannel_SendAfterClose(t *testing.T) {
	ch := createTestChannel(t, "http://localhost:8080", RoleAuthor, nil)
	ch.Close()

	err := ch.Send(api.Message{Kind: api.KindAdd})
	assert.ErrorIs(t, err, ErrChannelClosed)
	assert.Equal(t, StateClosed, ch.State())
}

func TestChannel_AuthorAnnouncesOpenOnConnect(t *testing.T) {
	server := newTestServer(t)
	ch := createTestChannel(t, server.URL, RoleAuthor, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		ch.Run(ctx)
		close(done)
	}()

	// Автор объявляет доску активной сразу после подключения
	require.Eventually(t, func() bool {
		kinds := server.receivedKinds()
		return len(kinds) >= 1 && kinds[0] == api.KindOpen
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, StateOpen, ch.State())

	require.NoError(t, ch.Send(api.Message{Kind: api.KindClear}))
	require.Eventually(t, func() bool {
		kinds := server.receivedKinds()
		return len(kinds) == 2 && kinds[1] == api.KindClear
	}, 2*time.Second, 10*time.Millisecond)

	ch.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Close")
	}
}

func TestChannel_DeliversIncomingMessages(t *testing.T) {
	server := newTestServer(t)

	var mu sync.Mutex
	var got []api.Message
	ch := createTestChannel(t, server.URL, RoleViewer, func(msg api.Message) {
		mu.Lock()
		got = append(got, msg)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ch.Run(ctx)
	defer ch.Close()

	require.Eventually(t, func() bool {
		return server.connCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, server.lastConn().WriteJSON(api.Message{
		Kind:      api.KindDelete,
		ElementID: "el-9",
	}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, api.KindDelete, got[0].Kind)
	assert.Equal(t, "el-9", got[0].ElementID)
	mu.Unlock()
}

func TestChannel_StopsOnServerNormalClose(t *testing.T) {
	server := newTestServer(t)
	ch := createTestChannel(t, server.URL, RoleViewer, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		ch.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return server.connCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Нормальное закрытие сервером — конец сессии: реконнекта нет
	conn := server.lastConn()
	require.NoError(t, conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session_end"),
		time.Now().Add(time.Second)))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after normal close")
	}
	assert.Equal(t, StateClosed, ch.State())
	assert.Equal(t, 1, server.connCount())
}

func TestChannel_RunStopsOnContextCancel(t *testing.T) {
	server := newTestServer(t)
	ch := createTestChannel(t, server.URL, RoleViewer, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ch.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return server.connCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	// Отмена контекста рвет соединение через дедлайн чтения либо
	// через цикл реконнекта; закрываем соединение, чтобы не ждать
	ch.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after context cancel")
	}
}

func TestChannel_StateCallback(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var mu sync.Mutex
	var states []State
	ch, err := New(logger, Config{
		ServerURL: "http://localhost:8080",
		SessionID: "lesson-1",
		ClientID:  "client-1",
		Role:      RoleViewer,
		OnState: func(s State) {
			mu.Lock()
			states = append(states, s)
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	ch.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, states, 1)
	assert.Equal(t, StateClosed, states[0])
}
