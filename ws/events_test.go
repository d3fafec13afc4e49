package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeInbound(t *testing.T) {
	ev, err := DecodeInbound([]byte(`{"type":"message","message":"hello"}`))
	require.NoError(t, err)
	assert.Equal(t, EventMessage, ev.Type)
	assert.Equal(t, "hello", ev.Message)

	ev, err = DecodeInbound([]byte(`{"type":"typing","is_typing":true}`))
	require.NoError(t, err)
	assert.Equal(t, EventTyping, ev.Type)
	assert.True(t, ev.IsTyping)

	ev, err = DecodeInbound([]byte(`{"type":"mark_read","message_ids":[1,2,3]}`))
	require.NoError(t, err)
	assert.Equal(t, EventMarkRead, ev.Type)
	assert.Equal(t, []uint{1, 2, 3}, ev.MessageIDs)
}

func TestDecodeInboundRejectsUnknownType(t *testing.T) {
	_, err := DecodeInbound([]byte(`{"type":"shutdown"}`))
	assert.Error(t, err)

	// Server-only types are not accepted from clients.
	_, err = DecodeInbound([]byte(`{"type":"user_join"}`))
	assert.Error(t, err)

	_, err = DecodeInbound([]byte(`{"type":"message_ack"}`))
	assert.Error(t, err)
}

func TestDecodeInboundRejectsMalformedJSON(t *testing.T) {
	_, err := DecodeInbound([]byte(`{"type":`))
	assert.Error(t, err)
}
