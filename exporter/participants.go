package exporter

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"whatsapp-exporter/db"
	"whatsapp-exporter/models"
	"whatsapp-exporter/utils"
)

// ContactStore fornisce i nomi necessari alla risoluzione dei partecipanti
type ContactStore interface {
	SessionName(jid string) (string, error)
	PushName(jid string) (string, error)
	GroupMembers(groupJID string) ([]db.GroupMemberRow, error)
}

// ParticipantManager risolve nomi e iniziali dei partecipanti.
// Le cache vivono per la durata di una singola esportazione.
type ParticipantManager struct {
	store         ContactStore
	contactNames  map[string]string
	groupInitials map[string]map[string]string
}

// NewParticipantManager crea il gestore dei partecipanti
func NewParticipantManager(store ContactStore) *ParticipantManager {
	return &ParticipantManager{
		store:         store,
		contactNames:  make(map[string]string),
		groupInitials: make(map[string]map[string]string),
	}
}

// ContactName risolve il nome visualizzato di un JID, con cache.
// Preferisce il nome di sessione, poi il push name, poi un segnaposto
// con il numero di telefono.
func (pm *ParticipantManager) ContactName(jid string) string {
	if name, ok := pm.contactNames[jid]; ok {
		return name
	}

	name := ""
	if sessionName, err := pm.store.SessionName(jid); err == nil {
		name = utils.CleanContactName(sessionName)
	}
	if name == "" {
		if pushName, err := pm.store.PushName(jid); err == nil {
			name = utils.CleanContactName(pushName)
		}
	}
	if name == "" {
		if idx := strings.Index(jid, "@"); idx > 0 {
			name = fmt.Sprintf("Contact (%s)", jid[:idx])
		} else {
			name = jid
		}
	}

	pm.contactNames[jid] = name
	return name
}

// MemberDisplayName risolve il nome di un membro del gruppo, ripiegando
// sulle iniziali del gruppo quando nessun nome diretto è disponibile
func (pm *ParticipantManager) MemberDisplayName(groupJID, memberJID string) string {
	name := pm.ContactName(memberJID)
	if !strings.HasPrefix(name, "Contact (") {
		return name
	}
	if initials := pm.InitialsFor(groupJID, memberJID); initials != "" && initials != "?" {
		return initials
	}
	return name
}

// InitialsFor restituisce le iniziali univoche di un membro nel suo gruppo.
// Implementa InitialsResolver per il decoder delle reazioni.
func (pm *ParticipantManager) InitialsFor(groupJID, memberJID string) string {
	initialsMap, ok := pm.groupInitials[groupJID]
	if !ok {
		initialsMap = pm.computeGroupInitials(groupJID)
		pm.groupInitials[groupJID] = initialsMap
	}
	if initials, ok := initialsMap[memberJID]; ok {
		return initials
	}
	return "?"
}

// computeGroupInitials raccoglie i nomi dei membri e genera etichette univoche
func (pm *ParticipantManager) computeGroupInitials(groupJID string) map[string]string {
	members, err := pm.store.GroupMembers(groupJID)
	if err != nil {
		fmt.Printf("⚠️ Error generating group initials: %v\n", err)
		return map[string]string{}
	}

	names := make(map[string]string)
	for _, member := range members {
		name := chooseDisplayName(member.SessionName, member.PushName)
		if name != "" {
			names[member.MemberJID] = name
		}
	}
	return UniqueInitials(names)
}

// chooseDisplayName preferisce il push name quando il nome di sessione è un
// segnaposto (numero di telefono) o ha meno parole
func chooseDisplayName(sessionName, pushName string) string {
	session := utils.CleanContactName(sessionName)
	push := utils.CleanContactName(pushName)

	if push == "" {
		return session
	}
	if session == "" || isPhonePlaceholder(session) {
		return push
	}
	if len(strings.Fields(push)) > len(strings.Fields(session)) {
		return push
	}
	return session
}

// isPhonePlaceholder riconosce i nomi che sono solo numeri di telefono
func isPhonePlaceholder(name string) bool {
	trimmed := strings.TrimLeft(name, "+")
	if trimmed == "" {
		return false
	}
	for _, r := range trimmed {
		if !unicode.IsDigit(r) && r != ' ' && r != '-' {
			return false
		}
	}
	return true
}

// BaseInitials calcola l'etichetta base di un nome: prima lettera di ogni
// parola per i nomi composti (preservando le maiuscole, così le particelle
// come "de" restano minuscole), prime due lettere per i nomi singoli.
func BaseInitials(name string) string {
	words := strings.Fields(name)
	if len(words) == 0 {
		return "?"
	}
	if len(words) == 1 {
		runes := []rune(words[0])
		if len(runes) == 1 {
			return string(unicode.ToUpper(runes[0]))
		}
		return string(unicode.ToUpper(runes[0])) + string(unicode.ToLower(runes[1]))
	}
	var b strings.Builder
	for _, word := range words {
		runes := []rune(word)
		b.WriteRune(runes[0])
	}
	return b.String()
}

// UniqueInitials genera un'etichetta corta univoca per ogni membro.
// Le collisioni si risolvono allungando il prefisso del nome proprio,
// con suffisso numerico come ultima risorsa.
func UniqueInitials(names map[string]string) map[string]string {
	jids := make([]string, 0, len(names))
	for jid := range names {
		jids = append(jids, jid)
	}
	sort.Strings(jids)

	base := make(map[string]string, len(names))
	count := make(map[string]int)
	for _, jid := range jids {
		b := BaseInitials(names[jid])
		base[jid] = b
		count[b]++
	}

	result := make(map[string]string, len(names))
	used := make(map[string]bool)
	for _, jid := range jids {
		label := base[jid]
		if count[label] > 1 || used[label] {
			label = disambiguate(names[jid], label, used)
		}
		result[jid] = label
		used[label] = true
	}
	return result
}

// disambiguate allunga il prefisso del nome proprio finché l'etichetta
// non è libera
func disambiguate(name, fallback string, used map[string]bool) string {
	words := strings.Fields(name)
	if len(words) == 0 {
		return numberedLabel(fallback, used)
	}

	first := []rune(words[0])
	var lastPart strings.Builder
	for _, word := range words[1:] {
		lastPart.WriteRune([]rune(word)[0])
	}

	for prefixLen := 2; ; prefixLen++ {
		label := casePrefix(first, prefixLen) + lastPart.String()
		if !used[label] {
			return label
		}
		if prefixLen >= len(first) {
			return numberedLabel(label, used)
		}
	}
}

// casePrefix prende le prime n rune del nome: iniziale maiuscola, resto minuscolo
func casePrefix(runes []rune, n int) string {
	if n > len(runes) {
		n = len(runes)
	}
	if n == 0 {
		return ""
	}
	prefix := string(unicode.ToUpper(runes[0]))
	for _, r := range runes[1:n] {
		prefix += string(unicode.ToLower(r))
	}
	return prefix
}

func numberedLabel(base string, used map[string]bool) string {
	for n := 1; ; n++ {
		label := fmt.Sprintf("%s%d", base, n)
		if !used[label] {
			return label
		}
	}
}

// Participants elenca i partecipanti della conversazione, "Moi" incluso
func (pm *ParticipantManager) Participants(contactJID string) []models.Participant {
	var participants []models.Participant

	if utils.IsGroupJID(contactJID) {
		members, err := pm.store.GroupMembers(contactJID)
		if err != nil {
			fmt.Printf("⚠️ Error getting conversation participants: %v\n", err)
			return participants
		}

		myPhone := ""
		for _, member := range members {
			phone := utils.ExtractPhoneNumber(member.MemberJID)
			formatted := "Numéro inconnu"
			if phone != "" {
				formatted = utils.FormatPhoneNumber(phone)
			}

			name := utils.CleanContactName(member.SessionName)
			// Il contatto salvato come "vous"/"you" è il proprietario
			if lower := strings.ToLower(name); lower == "vous" || lower == "you" {
				myPhone = formatted
				continue
			}
			if name == "" {
				name = "Inconnu"
			}

			participants = append(participants, models.Participant{
				JID:            member.MemberJID,
				Name:           name,
				Phone:          phone,
				FormattedPhone: formatted,
			})
		}

		me := models.Participant{JID: "me", Name: "Moi", FormattedPhone: "Mon numéro"}
		if myPhone != "" {
			me.FormattedPhone = myPhone
		}
		participants = append(participants, me)
		return participants
	}

	// Conversazione individuale: il contatto e "Moi"
	name := pm.ContactName(contactJID)
	phone := utils.ExtractPhoneNumber(contactJID)
	formatted := "Numéro inconnu"
	if phone != "" {
		formatted = utils.FormatPhoneNumber(phone)
	}
	if name == contactJID {
		name = "Inconnu"
	}
	participants = append(participants,
		models.Participant{JID: contactJID, Name: name, Phone: phone, FormattedPhone: formatted},
		models.Participant{JID: "me", Name: "Moi", FormattedPhone: "Moi"},
	)
	return participants
}
