// ABOUTME: Domain types for entities and messages returned by the Telegram client.
// ABOUTME: Raw message fields mirror what MTProto exposes before normalization.

package telegram

// EntityKind classifies a resolved Telegram peer.
type EntityKind string

const (
	KindUser    EntityKind = "user"
	KindGroup   EntityKind = "group"
	KindChannel EntityKind = "channel"
)

// Entity is a resolved, addressable Telegram peer. The access hash is
// session-scoped and required to address users and channels in later calls.
type Entity struct {
	Kind       EntityKind
	ID         int64
	AccessHash int64
	Title      string
	Username   string
}

// RawSender identifies the author of a raw message, when the platform
// exposes one. Channel broadcasts typically have no sender.
type RawSender struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

// RawMessage is a single message as returned by the platform, prior to
// normalization. Date is seconds since epoch; zero means absent.
type RawMessage struct {
	ID       int
	Text     string
	Date     int64
	Sender   *RawSender
	Views    *int
	Forwards *int
}

// DialogInfo describes one conversation from the session's dialog list.
type DialogInfo struct {
	ID       int64
	Title    string
	Username string
	Kind     EntityKind
	IsPublic bool
}

// Member is a participant of a group or channel.
type Member struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
	Phone     string
	Status    string
	IsBot     bool
}
