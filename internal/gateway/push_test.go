package gateway_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/wagate/internal/gateway"
	"github.com/dmitrymomot/wagate/internal/pairing"
	"github.com/dmitrymomot/wagate/internal/session"
)

func newPushServer(t *testing.T, s *fakeSession, opts ...gateway.Option) (*httptest.Server, *pairing.Relay) {
	t.Helper()
	relay := pairing.New(pairing.WithStatus(s), pairing.WithSize(64))
	srv := httptest.NewServer(gateway.New(s, relay, opts...).Router())
	t.Cleanup(srv.Close)
	return srv, relay
}

func dialWS(t *testing.T, srv *httptest.Server, path string, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestPush_DeliversQRCode(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"/", "/ws"} {
		t.Run(path, func(t *testing.T) {
			t.Parallel()
			srv, relay := newPushServer(t, &fakeSession{state: session.StateAwaitingPairing})
			conn := dialWS(t, srv, path, nil)

			relay.Deliver("2@challenge,ref")

			require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
			var msg gateway.PushMessage
			require.NoError(t, conn.ReadJSON(&msg))
			assert.True(t, strings.HasPrefix(msg.QRCode, "data:image/png;base64,"))
			assert.Empty(t, msg.Status)
		})
	}
}

func TestPush_AlreadyLoggedIn(t *testing.T) {
	t.Parallel()

	srv, relay := newPushServer(t, &fakeSession{state: session.StateConnected})
	conn := dialWS(t, srv, "/ws", nil)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg gateway.PushMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, gateway.PushMessage{Status: "Already logged in"}, msg)

	relay.Deliver("late")
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestPush_ClientGoesAway(t *testing.T) {
	t.Parallel()

	srv, relay := newPushServer(t, &fakeSession{state: session.StateConnecting})
	conn := dialWS(t, srv, "/ws", nil)
	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		relay.Deliver("ref")
		return relay.Pending()
	}, 2*time.Second, 10*time.Millisecond, "challenges are retained once the observer is gone")
}

func TestPush_OriginCheck(t *testing.T) {
	t.Parallel()

	srv, _ := newPushServer(t, &fakeSession{}, gateway.WithCORSOrigins("https://ops.example.com"))
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example.com"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn := dialWS(t, srv, "/ws", http.Header{"Origin": {"https://ops.example.com"}})
	assert.NotNil(t, conn)
}

func TestPush_PlainGetIsRejected(t *testing.T) {
	t.Parallel()

	srv, _ := newPushServer(t, &fakeSession{})
	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
