package utils

import (
	"fmt"
	"strings"

	"go.mau.fi/whatsmeow/types"
)

// Caratteri Unicode invisibili che WhatsApp inserisce nei nomi dei contatti
var invisibleChars = []string{
	"\u200E", "\u200F", // marcatori direzionali LTR/RTL
	"\u202A", "\u202B", "\u202C", "\u202D", "\u202E",
	"\u2066", "\u2067", "\u2068", "\u2069",
	"\uFEFF", "\u200B", "\u200C", "\u200D",
}

// CleanContactName rimuove i caratteri invisibili dal nome del contatto
func CleanContactName(name string) string {
	if name == "" {
		return name
	}
	cleaned := name
	for _, ch := range invisibleChars {
		cleaned = strings.ReplaceAll(cleaned, ch, "")
	}
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return name
	}
	return cleaned
}

// IsGroupJID indica se il JID identifica un gruppo
func IsGroupJID(jid string) bool {
	parsed, err := types.ParseJID(jid)
	if err != nil {
		return strings.HasSuffix(jid, "@"+types.GroupServer)
	}
	return parsed.Server == types.GroupServer
}

// ExtractPhoneNumber estrae il numero di telefono da un JID.
// Per i gruppi restituisce il numero del creatore (prima del trattino).
func ExtractPhoneNumber(jid string) string {
	parsed, err := types.ParseJID(jid)
	if err != nil {
		return ""
	}
	switch parsed.Server {
	case types.DefaultUserServer:
		return parsed.User
	case types.GroupServer:
		if idx := strings.Index(parsed.User, "-"); idx > 0 {
			return parsed.User[:idx]
		}
	}
	return ""
}

// GroupOwnerJID ricostruisce il JID del creatore di un gruppo
func GroupOwnerJID(groupJID string) string {
	phone := ExtractPhoneNumber(groupJID)
	if phone == "" {
		return ""
	}
	return types.NewJID(phone, types.DefaultUserServer).String()
}

// FormatPhoneNumber formatta un numero di telefono per la leggibilità
func FormatPhoneNumber(phone string) string {
	if phone == "" || !isAllDigits(phone) {
		return phone
	}

	// Numeri francesi (prefisso 33)
	if strings.HasPrefix(phone, "33") && len(phone) >= 11 {
		formatted := fmt.Sprintf("+33 %c", phone[2])
		for i := 3; i < len(phone); i += 2 {
			if i+1 < len(phone) {
				formatted += " " + phone[i:i+2]
			} else {
				formatted += " " + phone[i:]
			}
		}
		return formatted
	}

	// Numeri USA (prefisso 1)
	if strings.HasPrefix(phone, "1") && len(phone) == 11 {
		return fmt.Sprintf("+1 (%s) %s-%s", phone[1:4], phone[4:7], phone[7:])
	}

	// Altri numeri internazionali
	if len(phone) > 7 {
		return "+" + phone
	}
	return phone
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// SanitizePathComponent sanitizza una stringa per l'uso nei percorsi dei file
func SanitizePathComponent(s string) string {
	// Rimuovi caratteri non sicuri per i percorsi dei file
	for _, ch := range []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"} {
		s = strings.ReplaceAll(s, ch, "_")
	}
	return s
}

// GetMediaTypeName restituisce il nome leggibile del tipo di media
func GetMediaTypeName(messageType int) string {
	switch messageType {
	case 1:
		return "Image"
	case 2:
		return "Video"
	case 3:
		return "Audio"
	case 5:
		return "Location"
	case 9:
		return "Document"
	case 13:
		return "GIF"
	case 14:
		return "Sticker"
	default:
		return "Media"
	}
}
