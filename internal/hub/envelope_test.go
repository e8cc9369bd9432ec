package hub

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeInboundVariants(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want interface{}
	}{
		{
			name: "join",
			raw:  `{"type":"join","userId":"u-1","boardId":"b-1","userName":"Alice"}`,
			want: joinMessage{UserID: "u-1", BoardID: "b-1", UserName: "Alice"},
		},
		{
			name: "join with empty ids is decoded, rejected later by the registry",
			raw:  `{"type":"join"}`,
			want: joinMessage{},
		},
		{
			name: "typing",
			raw:  `{"type":"typing","cardId":"c-1"}`,
			want: typingMessage{CardID: "c-1"},
		},
		{
			name: "notify",
			raw:  `{"type":"notify","message":"hi"}`,
			want: notifyMessage{Message: "hi"},
		},
		{
			name: "card_moved",
			raw:  `{"type":"card_moved","cardId":"c-1","fromColumnId":"a","toColumnId":"b","toPosition":0}`,
			want: cardMovedMessage{CardID: "c-1", FromColumnID: "a", ToColumnID: "b", ToPosition: 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeInbound([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeInboundRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{{{`},
		{"typing without cardId", `{"type":"typing"}`},
		{"notify without message", `{"type":"notify"}`},
		{"card_moved missing column", `{"type":"card_moved","cardId":"c-1","toColumnId":"b"}`},
		{"card_moved negative position", `{"type":"card_moved","cardId":"c-1","fromColumnId":"a","toColumnId":"b","toPosition":-1}`},
		{"card_updated without updates", `{"type":"card_updated","cardId":"c-1"}`},
		{"column_updated without columnId", `{"type":"column_updated","updates":{"title":"x"}}`},
		{"board_updated without updates", `{"type":"board_updated"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeInbound([]byte(tt.raw))
			require.Error(t, err)
			assert.NotErrorIs(t, err, errUnknownMessageType)
		})
	}
}

func TestDecodeInboundUnknownType(t *testing.T) {
	_, err := decodeInbound([]byte(`{"type":"selfdestruct"}`))
	assert.ErrorIs(t, err, errUnknownMessageType)
}

func TestCardMovedEnvelopeSerializesZeroPosition(t *testing.T) {
	raw, err := json.Marshal(cardMovedEnvelope{
		Type:       typeCardUpdate,
		CardID:     "c-1",
		ToColumnID: "b",
		ToPosition: 0,
	})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"toPosition":0`)
}
