package messages

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslator_T(t *testing.T) {
	tr := NewTranslator("en")

	tests := []struct {
		name string
		key  string
		data map[string]any
		want string
	}{
		{
			name: "duel win",
			key:  "duel_win",
			data: map[string]any{"WinnerWeapon": "Rock", "Verb": "smashed", "LoserWeapon": "Scissors", "Winner": "alice", "Loser": "bob"},
			want: "Rock smashed Scissors! alice beats bob.",
		},
		{
			name: "duel payout",
			key:  "duel_wins",
			data: map[string]any{"Winner": "alice", "Amount": 100},
			want: "alice wins 100 chews.",
		},
		{
			name: "insufficient funds",
			key:  "duel_accept_not_enough_chews",
			data: map[string]any{"User": "bob", "Amount": 20},
			want: "bob does not have enough chews to accept the duel (20 needed).",
		},
		{
			name: "missing key",
			key:  "no_such_key",
			want: "no_such_key",
		},
		{
			name: "empty key",
			key:  "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tr.T(tt.key, tt.data))
		})
	}
}

func TestTranslator_UnknownLocaleFallsBack(t *testing.T) {
	tr := NewTranslator("not a locale")
	assert.Equal(t, "Duels are available again!", tr.T("duel_available", nil))
}
