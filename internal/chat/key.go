package chat

// ConversationKey derives the canonical id of the conversation between two
// users: the lexicographically smaller uid first, joined by an underscore.
// Both participants derive the same key regardless of argument order. A
// user's conversation with themselves yields "uid_uid", which is a valid
// single-participant stream.
func ConversationKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "_" + b
}
