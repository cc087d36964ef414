package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"whatsapp-exporter/db"
)

// stubContacts è un ContactStore in memoria per i test
type stubContacts struct {
	sessions map[string]string
	pushes   map[string]string
	members  map[string][]db.GroupMemberRow
}

func (s *stubContacts) SessionName(jid string) (string, error) {
	return s.sessions[jid], nil
}

func (s *stubContacts) PushName(jid string) (string, error) {
	return s.pushes[jid], nil
}

func (s *stubContacts) GroupMembers(groupJID string) ([]db.GroupMemberRow, error) {
	return s.members[groupJID], nil
}

func TestBaseInitials(t *testing.T) {
	assert.Equal(t, "JD", BaseInitials("Jean Dupont"))
	assert.Equal(t, "Ma", BaseInitials("marie"))
	assert.Equal(t, "M", BaseInitials("m"))
	assert.Equal(t, "?", BaseInitials(""))
	// Le particelle minuscole restano minuscole
	assert.Equal(t, "JdlF", BaseInitials("Jean de la Fontaine"))
}

func TestUniqueInitialsNoCollision(t *testing.T) {
	labels := UniqueInitials(map[string]string{
		"a@s.whatsapp.net": "Jean Dupont",
		"b@s.whatsapp.net": "Marie Curie",
	})
	assert.Equal(t, "JD", labels["a@s.whatsapp.net"])
	assert.Equal(t, "MC", labels["b@s.whatsapp.net"])
}

func TestUniqueInitialsCollision(t *testing.T) {
	labels := UniqueInitials(map[string]string{
		"a@s.whatsapp.net": "Jean Dupont",
		"b@s.whatsapp.net": "Jeanne Dubois",
	})

	assert.NotEqual(t, labels["a@s.whatsapp.net"], labels["b@s.whatsapp.net"])
	assert.Equal(t, "JeD", labels["a@s.whatsapp.net"])
	assert.Equal(t, "JeaD", labels["b@s.whatsapp.net"])
}

func TestUniqueInitialsDeterministic(t *testing.T) {
	names := map[string]string{
		"c@s.whatsapp.net": "Paul Martin",
		"a@s.whatsapp.net": "Pierre Moreau",
		"b@s.whatsapp.net": "Patricia Mercier",
	}
	first := UniqueInitials(names)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, UniqueInitials(names))
	}
}

func TestChooseDisplayName(t *testing.T) {
	// Il nome di sessione vince quando è un vero nome
	assert.Equal(t, "Jean Dupont", chooseDisplayName("Jean Dupont", "jeandu"))
	// Il push name vince sui segnaposto numerici
	assert.Equal(t, "Jean", chooseDisplayName("+33 6 12 34 56 78", "Jean"))
	assert.Equal(t, "Jean", chooseDisplayName("", "Jean"))
	// Il push name più completo vince su quello più corto
	assert.Equal(t, "Jean Dupont", chooseDisplayName("Jean", "Jean Dupont"))
}

func TestMemberDisplayNameDirect(t *testing.T) {
	pm := NewParticipantManager(&stubContacts{
		sessions: map[string]string{"33612345678@s.whatsapp.net": "Jean Dupont"},
	})

	name := pm.MemberDisplayName("336-123@g.us", "33612345678@s.whatsapp.net")
	assert.Equal(t, "Jean Dupont", name)
}

func TestMemberDisplayNameFallsBackToInitials(t *testing.T) {
	// Il membro non ha nessun nome diretto, ma il gruppo lo conosce:
	// al posto del numero grezzo compaiono le sue iniziali
	groupJID := "33699999999-1234@g.us"
	memberJID := "33612345678@s.whatsapp.net"
	pm := NewParticipantManager(&stubContacts{
		members: map[string][]db.GroupMemberRow{
			groupJID: {{MemberJID: memberJID, PushName: "Jean Dupont"}},
		},
	})

	assert.Equal(t, "JD", pm.MemberDisplayName(groupJID, memberJID))
}

func TestMemberDisplayNamePlaceholderWhenUnknown(t *testing.T) {
	// Sconosciuto sia direttamente sia nel gruppo: resta il segnaposto
	pm := NewParticipantManager(&stubContacts{})

	name := pm.MemberDisplayName("336-123@g.us", "33612345678@s.whatsapp.net")
	assert.Equal(t, "Contact (33612345678)", name)
}

func TestIsPhonePlaceholder(t *testing.T) {
	assert.True(t, isPhonePlaceholder("+33 6 12 34 56 78"))
	assert.True(t, isPhonePlaceholder("33612345678"))
	assert.False(t, isPhonePlaceholder("Jean"))
	assert.False(t, isPhonePlaceholder(""))
}
