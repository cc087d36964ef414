package exporter

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"whatsapp-exporter/utils"
)

// Pattern esadecimali per il riconoscimento delle emoji nei blob di ricevuta.
// Le emoji moderne iniziano con F0 9F, i simboli legacy con E2.
var (
	modernEmojiPattern = regexp.MustCompile(`F09F[0-9A-F]{4}`)
	skinTonePattern    = regexp.MustCompile(`^F09F8F(BB|BC|BD|BE|BF)`)
	legacyEmojiPattern = regexp.MustCompile(`E2[89AB][0-9A-F]{3}`)
	variationPattern   = regexp.MustCompile(`^EFB8[89AB][0-9A-F]`)

	// JID codificato in esadecimale dentro il blob: numero che inizia per "3"
	// seguito da "@s.whatsapp.net" (40732E...6574)
	hexJIDPattern = regexp.MustCompile(`333[0-9A-F]+?40732E77686174736170702E6E6574`)
	phonePattern  = regexp.MustCompile(`(\d+)@s\.whatsapp\.net`)
)

// InitialsResolver risolve le iniziali univoche di un membro in un gruppo
type InitialsResolver interface {
	InitialsFor(groupJID, memberJID string) string
}

// DecodeReaction estrae l'emoji di reazione da un blob di ricevuta.
// Per i gruppi la reazione viene attribuita ai membri trovati nel blob,
// nel formato "[iniziali:emoji]" o "[a:e;b:e]" per reazioni multiple.
// Restituisce stringa vuota se il blob non contiene una reazione decodificabile.
func DecodeReaction(blob []byte, isGroup bool, groupJID string, initials InitialsResolver) string {
	if len(blob) == 0 {
		return ""
	}

	hexData := strings.ToUpper(hex.EncodeToString(blob))
	emoji := findEmoji(hexData)
	if emoji == "" {
		return ""
	}

	if isGroup && groupJID != "" && initials != nil {
		return attributeGroupReaction(hexData, emoji, groupJID, initials)
	}
	return emoji
}

// findEmoji cerca la prima emoji decodificabile nella rappresentazione
// esadecimale del blob, estendendola con l'eventuale modificatore
// (tono di pelle per le emoji moderne, variazione per i simboli legacy).
func findEmoji(hexData string) string {
	if strings.Contains(hexData, "F09F") {
		for _, base := range modernEmojiPattern.FindAllString(hexData, -1) {
			rest := hexData[strings.Index(hexData, base)+len(base):]
			sequence := base
			if modifier := skinTonePattern.FindString(rest); modifier != "" {
				sequence += modifier
			}
			if emoji, ok := decodeHexEmoji(sequence); ok {
				return emoji
			}
		}
	} else if strings.Contains(hexData, "E2") {
		for _, base := range legacyEmojiPattern.FindAllString(hexData, -1) {
			rest := hexData[strings.Index(hexData, base)+len(base):]
			sequence := base
			if modifier := variationPattern.FindString(rest); modifier != "" {
				sequence += modifier
			}
			if emoji, ok := decodeHexEmoji(sequence); ok {
				return emoji
			}
		}
	}
	return ""
}

// decodeHexEmoji riconverte una sequenza esadecimale in testo UTF-8
func decodeHexEmoji(sequence string) (string, bool) {
	raw, err := hex.DecodeString(sequence)
	if err != nil || !utf8.Valid(raw) {
		return "", false
	}
	return string(raw), true
}

// attributeGroupReaction cerca i JID incorporati nel blob per capire chi ha
// reagito. Se nessun JID è presente, la reazione è del proprietario della
// conversazione (il creatore del gruppo).
func attributeGroupReaction(hexData, emoji, groupJID string, initials InitialsResolver) string {
	var reactors []string
	for _, match := range hexJIDPattern.FindAllString(hexData, -1) {
		raw, err := hex.DecodeString(match)
		if err != nil {
			continue
		}
		sub := phonePattern.FindStringSubmatch(string(raw))
		if sub == nil {
			continue
		}
		cleanJID := sub[1] + "@s.whatsapp.net"
		ini := initials.InitialsFor(groupJID, cleanJID)
		if ini != "" && !containsString(reactors, ini) {
			reactors = append(reactors, ini)
		}
	}

	if len(reactors) == 0 {
		ownerJID := utils.GroupOwnerJID(groupJID)
		if ownerJID != "" {
			ownerInitials := initials.InitialsFor(groupJID, ownerJID)
			if ownerInitials != "" && ownerInitials != "?" {
				return fmt.Sprintf("[%s:%s]", ownerInitials, emoji)
			}
		}
		return emoji
	}

	if len(reactors) == 1 {
		return fmt.Sprintf("[%s:%s]", reactors[0], emoji)
	}
	pairs := make([]string, 0, len(reactors))
	for _, r := range reactors {
		pairs = append(pairs, r+":"+emoji)
	}
	return "[" + strings.Join(pairs, ";") + "]"
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
