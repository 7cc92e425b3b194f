// ABOUTME: Normalized message schema and the pure raw-to-normalized mapping.
// ABOUTME: Absent source fields become nulls, never errors.

package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/lanternworks/telegate/internal/telegram"
)

// Message is the output projection of one Telegram message.
type Message struct {
	ID                int     `json:"id"`
	PeerType          string  `json:"peerType"`
	PeerID            string  `json:"peerId"`
	SenderID          *string `json:"senderId"`
	SenderDisplayName string  `json:"senderDisplayName"`
	TimestampUTC      *string `json:"timestampUtc"`
	Text              *string `json:"text"`
	ViewCount         *int    `json:"viewCount"`
	ForwardCount      *int    `json:"forwardCount"`
	ContainsLink      bool    `json:"containsLink"`
	FirstLink         *string `json:"firstLink"`
}

// Normalize maps a raw message into the output schema. Pure function: no
// I/O, and missing fields map to nil rather than failing.
func Normalize(raw telegram.RawMessage, entity *telegram.Entity) Message {
	msg := Message{
		ID:                raw.ID,
		PeerType:          string(entity.Kind),
		PeerID:            strconv.FormatInt(entity.ID, 10),
		SenderDisplayName: displayName(raw.Sender),
		ViewCount:         raw.Views,
		ForwardCount:      raw.Forwards,
	}

	if raw.Sender != nil {
		id := strconv.FormatInt(raw.Sender.ID, 10)
		msg.SenderID = &id
	}
	if raw.Date > 0 {
		ts := time.Unix(raw.Date, 0).UTC().Format(time.RFC3339)
		msg.TimestampUTC = &ts
	}
	if raw.Text != "" {
		text := raw.Text
		msg.Text = &text
	}
	if link, ok := FirstLink(raw.Text); ok {
		msg.ContainsLink = true
		msg.FirstLink = &link
	}
	return msg
}

// displayName picks a human-readable sender name: the handle when one
// exists, otherwise first+last name, otherwise "Unknown".
func displayName(sender *telegram.RawSender) string {
	if sender == nil {
		return "Unknown"
	}
	if sender.Username != "" {
		return sender.Username
	}
	name := strings.TrimSpace(sender.FirstName) + strings.TrimSpace(sender.LastName)
	if name == "" {
		return "Unknown"
	}
	return name
}
