package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubInitials map[string]string

func (s stubInitials) InitialsFor(groupJID, memberJID string) string {
	if ini, ok := s[memberJID]; ok {
		return ini
	}
	return "?"
}

func TestDecodeReactionModernEmoji(t *testing.T) {
	// 😂 incorporata tra byte di rumore
	blob := append([]byte{0x08, 0x01, 0x12, 0x04}, []byte("😂")...)
	blob = append(blob, 0x00, 0x1A)

	assert.Equal(t, "😂", DecodeReaction(blob, false, "", nil))
}

func TestDecodeReactionSkinTone(t *testing.T) {
	// 👍 seguito dal modificatore di tono 🏽: devono restare uniti
	blob := append([]byte{0x12, 0x08}, []byte("👍🏽")...)

	assert.Equal(t, "👍🏽", DecodeReaction(blob, false, "", nil))
}

func TestDecodeReactionLegacyEmoji(t *testing.T) {
	// ❤ con selettore di variazione
	blob := append([]byte{0x12, 0x06}, []byte("❤️")...)

	assert.Equal(t, "❤️", DecodeReaction(blob, false, "", nil))
}

func TestDecodeReactionNoEmoji(t *testing.T) {
	assert.Empty(t, DecodeReaction([]byte("just some receipt data"), false, "", nil))
	assert.Empty(t, DecodeReaction(nil, false, "", nil))
}

func TestDecodeReactionGroupAttribution(t *testing.T) {
	initials := stubInitials{"33612345678@s.whatsapp.net": "JD"}

	blob := append([]byte{0x0A, 0x20}, []byte("33612345678@s.whatsapp.net")...)
	blob = append(blob, 0x12, 0x04)
	blob = append(blob, []byte("😂")...)

	result := DecodeReaction(blob, true, "33699999999-1234567890@g.us", initials)
	assert.Equal(t, "[JD:😂]", result)
}

func TestDecodeReactionGroupOwnerFallback(t *testing.T) {
	// Nessun JID nel blob: la reazione è del creatore del gruppo
	initials := stubInitials{"33699999999@s.whatsapp.net": "Ow"}

	blob := append([]byte{0x12, 0x04}, []byte("😍")...)

	result := DecodeReaction(blob, true, "33699999999-1234567890@g.us", initials)
	assert.Equal(t, "[Ow:😍]", result)
}
