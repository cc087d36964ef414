package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanContactName(t *testing.T) {
	assert.Equal(t, "Jean Dupont", CleanContactName("‎Jean Dupont‏"))
	assert.Equal(t, "Jean", CleanContactName("  Jean  "))
	// Un nome fatto solo di invisibili resta com'era
	assert.Equal(t, "‎‏", CleanContactName("‎‏"))
	assert.Equal(t, "", CleanContactName(""))
}

func TestIsGroupJID(t *testing.T) {
	assert.True(t, IsGroupJID("33612345678-1234567890@g.us"))
	assert.False(t, IsGroupJID("33612345678@s.whatsapp.net"))
}

func TestExtractPhoneNumber(t *testing.T) {
	assert.Equal(t, "33612345678", ExtractPhoneNumber("33612345678@s.whatsapp.net"))
	assert.Equal(t, "33612345678", ExtractPhoneNumber("33612345678-1234567890@g.us"))
	assert.Equal(t, "", ExtractPhoneNumber("not a jid"))
}

func TestGroupOwnerJID(t *testing.T) {
	assert.Equal(t, "33612345678@s.whatsapp.net", GroupOwnerJID("33612345678-1234567890@g.us"))
}

func TestFormatPhoneNumber(t *testing.T) {
	assert.Equal(t, "+33 6 12 34 56 78", FormatPhoneNumber("33612345678"))
	assert.Equal(t, "+1 (555) 123-4567", FormatPhoneNumber("15551234567"))
	assert.Equal(t, "+4917612345678", FormatPhoneNumber("4917612345678"))
	assert.Equal(t, "1234", FormatPhoneNumber("1234"))
	assert.Equal(t, "", FormatPhoneNumber(""))
}

func TestSanitizePathComponent(t *testing.T) {
	assert.Equal(t, "Jean_Dupont", SanitizePathComponent("Jean/Dupont"))
	assert.Equal(t, "a_b_c", SanitizePathComponent("a:b*c"))
}

func TestGetMediaTypeName(t *testing.T) {
	assert.Equal(t, "Image", GetMediaTypeName(1))
	assert.Equal(t, "Sticker", GetMediaTypeName(14))
	assert.Equal(t, "Media", GetMediaTypeName(42))
}
