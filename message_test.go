package maestro

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrame_Valid(t *testing.T) {
	frame, err := parseFrame([]byte(`{"type":"session_output","timestamp":1700000000123,"sessionId":"s1","data":"ok","msgId":"m1"}`))
	require.NoError(t, err)
	assert.Equal(t, MsgSessionOutput, frame.Type)
	assert.Equal(t, int64(1700000000123), frame.Timestamp)

	var ev SessionOutputEvent
	require.NoError(t, frame.Decode(&ev))
	assert.Equal(t, "s1", ev.SessionID)
	assert.Equal(t, "ok", ev.Data)
	assert.Equal(t, "m1", ev.MsgID)
}

func TestParseFrame_MalformedJSON(t *testing.T) {
	_, err := parseFrame([]byte(`{oops`))
	require.Error(t, err)
}

func TestParseFrame_MissingType(t *testing.T) {
	_, err := parseFrame([]byte(`{"sessionId":"s1"}`))
	require.Error(t, err)
}

func TestParseFrame_UnknownTypeStillParses(t *testing.T) {
	// Unknown variants must decode; the dispatcher decides to ignore them.
	frame, err := parseFrame([]byte(`{"type":"future_feature","x":1}`))
	require.NoError(t, err)
	assert.Equal(t, "future_feature", frame.Type)
}

func TestFrame_Raw(t *testing.T) {
	raw := []byte(`{"type":"pong"}`)
	frame, err := parseFrame(raw)
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), string(frame.Raw()))
}

func TestDecode_ConnectedEvent(t *testing.T) {
	frame, err := parseFrame([]byte(`{"type":"connected","clientId":"c1","authenticated":true}`))
	require.NoError(t, err)

	var ev ConnectedEvent
	require.NoError(t, frame.Decode(&ev))
	assert.Equal(t, "c1", ev.ClientID)
	assert.True(t, ev.Authenticated)
}

func TestDecode_SessionsList(t *testing.T) {
	frame, err := parseFrame([]byte(`{
		"type": "sessions_list",
		"sessions": [
			{"id":"s1","name":"api work","tool":"claude-code","state":"busy","cwd":"/repo"},
			{"id":"s2","name":"bugfix","tool":"aider","state":"idle"}
		]
	}`))
	require.NoError(t, err)

	var ev sessionsListEvent
	require.NoError(t, frame.Decode(&ev))
	require.Len(t, ev.Sessions, 2)
	assert.Equal(t, "claude-code", ev.Sessions[0].Tool)
	assert.Equal(t, "/repo", ev.Sessions[0].Cwd)
	assert.Equal(t, "idle", ev.Sessions[1].State)
}

func TestDecode_Theme_KeepsRawJSON(t *testing.T) {
	frame, err := parseFrame([]byte(`{"type":"theme","theme":{"name":"dark","accent":"#7aa2f7"}}`))
	require.NoError(t, err)

	var ev themeEvent
	require.NoError(t, frame.Decode(&ev))

	var theme map[string]string
	require.NoError(t, json.Unmarshal(ev.Theme, &theme))
	assert.Equal(t, "dark", theme["name"])
}

func TestOutboundFrames_WireShape(t *testing.T) {
	data, err := json.Marshal(authFrame{Type: "auth", Token: "tok"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"auth","token":"tok"}`, string(data))

	data, err = json.Marshal(pingFrame{Type: "ping"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ping"}`, string(data))

	data, err = json.Marshal(subscribeFrame{Type: "subscribe", SessionID: "s1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"subscribe","sessionId":"s1"}`, string(data))
}

func TestGenerateID_Unique(t *testing.T) {
	a, b := generateID(), generateID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
