package store

// User is a registered account plus its public profile fields.
type User struct {
	UID          string
	Email        string
	PasswordHash string
	DisplayName  string
	CreatedAt    int64
}

// Contact statuses.
const (
	ContactStatusActive   = "active"
	ContactStatusInactive = "inactive"
)

// Contact is an address-book entry owned by a single user.
type Contact struct {
	ID        string `json:"id"`
	OwnerUID  string `json:"owner_uid"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Company   string `json:"company,omitempty"`
	Favorite  bool   `json:"favorite"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

// Message is one direct message between two users. ConversationKey is the
// canonical sorted-pair key locating the message's conversation stream.
// Timestamp is assigned by the store at append time, monotonically within
// a conversation.
type Message struct {
	ID              string `json:"id"`
	ConversationKey string `json:"conversation_key"`
	From            string `json:"from"`
	To              string `json:"to"`
	Body            string `json:"body"`
	Read            bool   `json:"read"`
	Timestamp       int64  `json:"timestamp"`
}
