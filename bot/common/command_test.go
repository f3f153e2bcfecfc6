package common

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		text     string
		wantName string
		wantArgs []string
		wantOK   bool
	}{
		{"!duel @bob 100", "duel", []string{"@bob", "100"}, true},
		{"  !ACCEPT  ", "accept", []string{}, true},
		{"!", "", nil, false},
		{"hello !duel", "", nil, false},
		{"", "", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			name, args, ok := Parse("!", tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantName, name)
			if tt.wantOK {
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"100", 100, false},
		{"1,500", 1500, false},
		{"2k", 2000, false},
		{"0", 0, true},
		{"-5", 0, true},
		{"lots", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatBalance(t *testing.T) {
	assert.Equal(t, "999", FormatBalance(999))
	assert.Equal(t, "1,000", FormatBalance(1000))
	assert.Equal(t, "1,234,567", FormatBalance(1234567))
	assert.Equal(t, "-1,000", FormatBalance(-1000))
}

type recordingSender struct {
	messages []string
	whispers []string
}

func (s *recordingSender) SendMessage(_ context.Context, channel, text string) error {
	s.messages = append(s.messages, channel+": "+text)
	return nil
}

func (s *recordingSender) SendWhisper(_ context.Context, username, text string) error {
	s.whispers = append(s.whispers, username+": "+text)
	return nil
}

func TestContext_Reply(t *testing.T) {
	ctx := context.Background()
	out := &recordingSender{}

	public := &Context{Message: Message{Channel: "chan", Username: "alice"}, Out: out}
	require.NoError(t, public.Reply(ctx, "hi"))
	require.NoError(t, public.Reply(ctx, ""))

	private := &Context{Message: Message{Username: "alice", Private: true}, Out: out}
	require.NoError(t, private.Reply(ctx, "psst"))

	assert.Equal(t, []string{"chan: hi"}, out.messages)
	assert.Equal(t, []string{"alice: psst"}, out.whispers)
}
