package exporter

import (
	"fmt"
	"time"

	"whatsapp-exporter/db"
	"whatsapp-exporter/models"
	"whatsapp-exporter/utils"
)

// I timestamp del database contano i secondi dall'epoca Apple (2001-01-01)
const appleEpochOffset = 978307200

// Tipi di messaggio che trasportano un media
var mediaMessageTypes = map[int]bool{
	1: true, 2: true, 3: true, 5: true, 9: true, 13: true, 14: true,
}

const callMessageType = 59

// Assembler ricostruisce i messaggi di una conversazione a partire dalle
// righe del database, arricchendoli con reazioni, citazioni e media.
type Assembler struct {
	store    *db.ChatStorage
	pm       *ParticipantManager
	resolver *CitationResolver
}

// NewAssembler crea l'assemblatore per lo storage indicato
func NewAssembler(store *db.ChatStorage, pm *ParticipantManager, resolver *CitationResolver) *Assembler {
	return &Assembler{store: store, pm: pm, resolver: resolver}
}

// Conversation ricostruisce la conversazione con un contatto in ordine
// cronologico. Con recent=true il limite si applica ai messaggi più recenti.
func (a *Assembler) Conversation(contactJID string, limit int, recent bool) ([]*models.Message, error) {
	rows, err := a.store.ConversationRows(contactJID, limit, recent)
	if err != nil {
		return nil, fmt.Errorf("errore nel recupero della conversazione: %v", err)
	}
	if recent {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}

	isGroup := utils.IsGroupJID(contactJID)
	messages := make([]*models.Message, 0, len(rows))
	for _, row := range rows {
		msg := a.buildMessage(row, contactJID, isGroup)
		messages = append(messages, msg)
	}

	a.resolver.ResolvePass(messages)
	return dedupForwards(messages), nil
}

// buildMessage converte una riga del database in un messaggio arricchito.
// Gli errori di arricchimento non scartano il messaggio: il contenuto base
// resta sempre disponibile.
func (a *Assembler) buildMessage(row db.MessageRow, contactJID string, isGroup bool) *models.Message {
	msg := &models.Message{
		ID:              row.ID,
		Date:            time.Unix(int64(row.MessageDate)+appleEpochOffset, 0),
		Content:         row.Text,
		IsFromMe:        row.IsFromMe,
		MessageType:     row.MessageType,
		FromJID:         row.FromJID,
		ToJID:           row.ToJID,
		ChatSession:     row.ChatSession,
		ParentMessageID: row.ParentMessageID,
		GroupMemberID:   row.GroupMemberID,
		Flags:           row.Flags,
		MediaItemID:     row.MediaItemID,
		IsForwarded:     row.Flags&0x180 == 0x180,
	}

	if isGroup && !row.IsFromMe && row.GroupMemberID != 0 {
		memberJID, err := a.store.GroupMemberJID(contactJID, row.GroupMemberID)
		if err != nil {
			fmt.Printf("⚠️ Errore nella risoluzione del mittente %d: %v\n", row.GroupMemberID, err)
		} else if memberJID != "" {
			msg.SenderName = a.pm.MemberDisplayName(contactJID, memberJID)
		}
	}

	if len(row.ReceiptInfo) > 0 {
		msg.ReactionEmoji = DecodeReaction(row.ReceiptInfo, isGroup, contactJID, a.pm)
	}

	msg.Media = mediaDescriptor(row)

	// Alcune righe media non hanno la JOIN risolta: recupera il media item
	// direttamente dal messaggio
	if msg.Media == nil && mediaMessageTypes[row.MessageType] {
		if item, err := a.store.MediaItemForMessage(row.ID); err == nil && item != nil {
			if item.LocalPath != "" || item.FileSize != 0 || item.Title != "" || item.Latitude != 0 || item.Longitude != 0 {
				msg.Media = &models.MediaInfo{
					LocalPath:   item.LocalPath,
					Title:       item.Title,
					FileSize:    item.FileSize,
					Latitude:    item.Latitude,
					Longitude:   item.Longitude,
					MessageType: row.MessageType,
				}
			}
		}
	}

	a.resolver.EnrichFromMetadata(msg)
	return msg
}

// mediaDescriptor costruisce la descrizione del media allegato, se presente.
// Le chiamate (tipo 59) non hanno file ma vengono comunque segnalate.
func mediaDescriptor(row db.MessageRow) *models.MediaInfo {
	if row.MessageType == callMessageType {
		return &models.MediaInfo{Title: "Appel vocal/vidéo", MessageType: callMessageType}
	}
	if !mediaMessageTypes[row.MessageType] {
		return nil
	}
	if row.MediaLocalPath == "" && row.MediaFileSize == 0 && row.MediaTitle == "" &&
		row.MediaLatitude == 0 && row.MediaLongitude == 0 {
		return nil
	}
	return &models.MediaInfo{
		LocalPath:   row.MediaLocalPath,
		Title:       row.MediaTitle,
		FileSize:    row.MediaFileSize,
		Latitude:    row.MediaLatitude,
		Longitude:   row.MediaLongitude,
		MessageType: row.MessageType,
	}
}

// dedupForwards elimina le copie degli inoltri multipli: lo stesso contenuto
// allo stesso istante compare una sola volta
func dedupForwards(messages []*models.Message) []*models.Message {
	type key struct {
		content string
		unix    int64
	}
	seen := make(map[key]bool)
	result := messages[:0]
	for _, msg := range messages {
		if msg.ForwardMarker != nil || msg.IsForwarded {
			k := key{msg.Content, msg.Date.Unix()}
			if seen[k] {
				continue
			}
			seen[k] = true
		}
		result = append(result, msg)
	}
	return result
}
