package models

import (
	"time"
)

// MediaInfo descrive un allegato multimediale risolto su disco
type MediaInfo struct {
	LocalPath   string  `json:"localPath,omitempty"`
	Title       string  `json:"title,omitempty"`
	FileSize    int64   `json:"fileSize"`
	Latitude    float64 `json:"latitude,omitempty"`
	Longitude   float64 `json:"longitude,omitempty"`
	MessageType int     `json:"messageType"`
}

// ForwardInfo identifica un inoltro tramite il suo hash opaco,
// estratto dai metadati al posto di un vero testo citato
type ForwardInfo struct {
	HashID string `json:"hashId"`
}

// Message represents a reconstructed WhatsApp message
type Message struct {
	ID              int64        `json:"id"`
	Date            time.Time    `json:"date"`
	Content         string       `json:"content"`
	IsFromMe        bool         `json:"isFromMe"`
	MessageType     int          `json:"messageType"`
	FromJID         string       `json:"fromJid,omitempty"`
	ToJID           string       `json:"toJid,omitempty"`
	ChatSession     int64        `json:"chatSession,omitempty"`
	ParentMessageID int64        `json:"parentMessageId,omitempty"`
	GroupMemberID   int64        `json:"groupMemberId,omitempty"`
	Flags           int64        `json:"flags,omitempty"`
	MediaItemID     int64        `json:"mediaItemId,omitempty"`
	SenderName      string       `json:"senderName,omitempty"`
	ReactionEmoji   string       `json:"reactionEmoji,omitempty"`
	QuotedText      string       `json:"quotedText,omitempty"`
	ForwardMarker   *ForwardInfo `json:"forwardMarker,omitempty"`
	IsForwarded     bool         `json:"isForwarded"`
	Media           *MediaInfo   `json:"media,omitempty"`
}

// HasCitation indica se il messaggio ha una citazione risolta (testo o inoltro)
func (m *Message) HasCitation() bool {
	return m.QuotedText != "" || m.ForwardMarker != nil
}
