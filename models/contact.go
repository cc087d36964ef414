package models

import (
	"time"
)

// Contact represents a chat session entry (individual or group)
type Contact struct {
	JID            string `json:"jid"`
	Name           string `json:"name"`
	Phone          string `json:"phone,omitempty"`
	FormattedPhone string `json:"formattedPhone,omitempty"`
	IsGroup        bool   `json:"isGroup"`
	ReactionCount  int    `json:"reactionCount"`
}

// Participant è un membro della conversazione esportata
type Participant struct {
	JID            string `json:"jid"`
	Name           string `json:"name"`
	Phone          string `json:"phone,omitempty"`
	FormattedPhone string `json:"formattedPhone,omitempty"`
}

// ExportRecord traccia un'esportazione completata
type ExportRecord struct {
	ID           string    `json:"id"`
	ContactName  string    `json:"contactName"`
	ContactJID   string    `json:"contactJid"`
	FilePath     string    `json:"filePath"`
	MessageCount int       `json:"messageCount"`
	Reactions    int       `json:"reactions"`
	ExportedAt   time.Time `json:"exportedAt"`
}
