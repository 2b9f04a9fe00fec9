package chat

import "testing"

func TestConversationKey(t *testing.T) {
	tests := []struct {
		a, b, want string
	}{
		{"alice", "bob", "alice_bob"},
		{"bob", "alice", "alice_bob"},
		{"u1", "u1", "u1_u1"},
		{"Z", "a", "Z_a"},
	}
	for _, tt := range tests {
		if got := ConversationKey(tt.a, tt.b); got != tt.want {
			t.Errorf("ConversationKey(%q, %q) = %q, want %q", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestConversationKeySymmetric(t *testing.T) {
	if ConversationKey("u7", "u2") != ConversationKey("u2", "u7") {
		t.Error("key depends on argument order")
	}
}
