package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticResolver map[string][2]string

func (r staticResolver) ResolveToken(_ context.Context, token string) (string, string, error) {
	id, ok := r[token]
	if !ok {
		return "", "", errors.New("unknown token")
	}
	return id[0], id[1], nil
}

func newWSServer(t *testing.T, origin string) (*httptest.Server, *Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h, _ := newTestHub(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)

	resolver := staticResolver{
		"tok-alice": {"u1", "Alice"},
		"tok-bob":   {"u2", "Bob"},
	}
	r := gin.New()
	r.GET("/ws", NewWSHandler(h, resolver, origin).HandleWS())

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, h
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readUntil(t *testing.T, conn *websocket.Conn, msgType string) Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var env Envelope
		require.NoError(t, conn.ReadJSON(&env))
		if env.Type == msgType {
			return env
		}
	}
}

func TestHandleWS_RejectsMissingToken(t *testing.T) {
	srv, _ := newWSServer(t, "")

	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandleWS_RejectsBadToken(t *testing.T) {
	srv, _ := newWSServer(t, "")

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=forged"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandleWS_RejectsForeignOrigin(t *testing.T) {
	srv, _ := newWSServer(t, "https://arena.example")

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=tok-alice"
	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHandleWS_MatchOverSockets(t *testing.T) {
	srv, h := newWSServer(t, "")
	alice := dial(t, srv, "tok-alice")
	bob := dial(t, srv, "tok-bob")

	require.NoError(t, alice.WriteJSON(Message{Type: TypeJoinQueue, Payload: "prisoners_dilemma"}))
	readUntil(t, alice, TypeQueueJoined)

	require.NoError(t, bob.WriteJSON(Message{Type: TypeJoinQueue, Payload: "prisoners_dilemma"}))
	found := readUntil(t, bob, TypeMatchFound)

	var payload MatchFoundPayload
	require.NoError(t, json.Unmarshal(found.Payload, &payload))
	assert.Equal(t, "Alice", payload.OpponentName)
	readUntil(t, alice, TypeMatchFound)

	require.NoError(t, alice.WriteJSON(Message{Type: TypeMakeChoice, Payload: "defect"}))
	readUntil(t, alice, TypeChoiceReceived)
	require.NoError(t, bob.WriteJSON(Message{Type: TypeMakeChoice, Payload: "cooperate"}))

	var rr RoundResultPayload
	require.NoError(t, json.Unmarshal(readUntil(t, bob, TypeRoundResult).Payload, &rr))
	assert.Equal(t, 0, rr.MyScore)
	assert.Equal(t, 5, rr.OpponentScore)

	// malformed frames get a private error and do not kill the socket
	require.NoError(t, bob.WriteMessage(websocket.TextMessage, []byte("{not json")))
	readUntil(t, bob, TypeError)

	require.NoError(t, bob.Close())
	readUntil(t, alice, TypeOpponentDisconnected)

	require.Eventually(t, func() bool {
		s, err := h.Stats(context.Background())
		return err == nil && s.Rooms == 0
	}, 2*time.Second, 20*time.Millisecond)
}
