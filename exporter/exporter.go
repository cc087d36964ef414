package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"whatsapp-exporter/db"
	"whatsapp-exporter/formatter"
	"whatsapp-exporter/models"
	"whatsapp-exporter/mood"
	"whatsapp-exporter/persistence"
	"whatsapp-exporter/utils"
)

// Exporter orchestra l'esportazione completa di una conversazione:
// ricostruzione dei messaggi, formattazione, copia dei media e storico.
type Exporter struct {
	cfg       *utils.Config
	store     *db.ChatStorage
	pm        *ParticipantManager
	assembler *Assembler
	media     *MediaIndex
	history   *persistence.ExportHistory
}

// New apre la sorgente dati secondo la configurazione e prepara l'esportatore
func New(cfg *utils.Config) (*Exporter, error) {
	dbPath := cfg.Database.Path
	var err error
	if dbPath == "" {
		if cfg.Database.BackupMode {
			dbPath, err = db.FindBackupDatabase(cfg.Database.BackupPath)
		} else {
			dbPath, err = db.FindLocalDatabase()
		}
		if err != nil {
			return nil, err
		}
	}

	store := db.NewChatStorage(dbPath)
	pm := NewParticipantManager(store)
	resolver := NewCitationResolver(store, DefaultThresholds())

	history, err := persistence.NewExportHistory(cfg.Export.HistoryDB)
	if err != nil {
		return nil, fmt.Errorf("errore nell'apertura dello storico esportazioni: %v", err)
	}

	return &Exporter{
		cfg:       cfg,
		store:     store,
		pm:        pm,
		assembler: NewAssembler(store, pm, resolver),
		media:     NewMediaIndex(filepath.Dir(dbPath)),
		history:   history,
	}, nil
}

// Close chiude le risorse aperte
func (e *Exporter) Close() {
	if err := e.store.Close(); err != nil {
		fmt.Printf("⚠️ Errore nella chiusura del database: %v\n", err)
	}
	e.history.Close()
}

// FindContact cerca un contatto per nome o JID
func (e *Exporter) FindContact(input string) (*models.Contact, error) {
	row, err := e.store.FindContact(input)
	if err != nil {
		return nil, fmt.Errorf("errore nella ricerca del contatto: %v", err)
	}
	if row == nil {
		return nil, nil
	}
	return &models.Contact{
		JID:     row.JID,
		Name:    row.Name,
		Phone:   utils.ExtractPhoneNumber(row.JID),
		IsGroup: utils.IsGroupJID(row.JID),
	}, nil
}

// AllContacts elenca tutti i contatti e gruppi noti
func (e *Exporter) AllContacts() ([]models.Contact, error) {
	rows, err := e.store.Contacts()
	if err != nil {
		return nil, fmt.Errorf("errore nel recupero dei contatti: %v", err)
	}
	contacts := make([]models.Contact, 0, len(rows))
	for _, row := range rows {
		contacts = append(contacts, models.Contact{
			JID:            row.JID,
			Name:           utils.CleanContactName(row.Name),
			Phone:          utils.ExtractPhoneNumber(row.JID),
			FormattedPhone: utils.FormatPhoneNumber(utils.ExtractPhoneNumber(row.JID)),
			IsGroup:        utils.IsGroupJID(row.JID),
		})
	}
	return contacts, nil
}

// ContactsWithReactions elenca i contatti ordinati per reazioni ricevute
func (e *Exporter) ContactsWithReactions() ([]models.Contact, error) {
	rows, err := e.store.ContactsWithReactions()
	if err != nil {
		return nil, fmt.Errorf("errore nel conteggio delle reazioni: %v", err)
	}
	contacts := make([]models.Contact, 0, len(rows))
	for _, row := range rows {
		name := utils.CleanContactName(e.pm.ContactName(row.JID))
		contacts = append(contacts, models.Contact{
			JID:           row.JID,
			Name:          name,
			Phone:         utils.ExtractPhoneNumber(row.JID),
			ReactionCount: row.ReactionCount,
		})
	}
	return contacts, nil
}

// ExportConversation esporta la conversazione con un contatto su file di
// testo, registrando l'esportazione nello storico. Restituisce il record.
func (e *Exporter) ExportConversation(input string, limit int, recent bool) (*models.ExportRecord, error) {
	contact, err := e.FindContact(input)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, fmt.Errorf("❌ Contact '%s' not found", input)
	}
	fmt.Printf("📱 Exporting conversation with %s (%s)\n", contact.Name, contact.JID)

	messages, err := e.assembler.Conversation(contact.JID, limit, recent)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("❌ No messages found for %s", contact.Name)
	}

	e.resolveMediaLinks(messages)

	participants := e.pm.Participants(contact.JID)
	analysis := mood.Analyze(messages)
	content := formatter.Format(messages, contact.Name, participants, analysis)

	if err := os.MkdirAll(e.cfg.Export.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("errore nella creazione della directory di esportazione: %v", err)
	}
	filePath := filepath.Join(e.cfg.Export.Dir, e.generateFilename(contact.Name))
	if err := os.WriteFile(filePath, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("errore nella scrittura del file: %v", err)
	}
	fmt.Printf("✅ Exported %d messages to %s\n", len(messages), filePath)

	if e.cfg.Export.Timeline && analysis.Weeks > 0 {
		pngPath := strings.TrimSuffix(filePath, filepath.Ext(filePath)) + "_mood.png"
		if err := mood.RenderHeatmap(analysis, pngPath); err != nil {
			fmt.Printf("⚠️ Errore nella generazione della timeline: %v\n", err)
		} else {
			fmt.Printf("🎨 Mood timeline saved to %s\n", pngPath)
		}
	}

	record := models.ExportRecord{
		ID:           uuid.New().String(),
		ContactName:  contact.Name,
		ContactJID:   contact.JID,
		FilePath:     filePath,
		MessageCount: len(messages),
		Reactions:    analysis.TotalReactions,
		ExportedAt:   time.Now(),
	}
	if err := e.history.SaveExport(record); err != nil {
		fmt.Printf("⚠️ Errore nel salvataggio dello storico: %v\n", err)
	}
	return &record, nil
}

// ExportHistory restituisce le esportazioni registrate
func (e *Exporter) ExportHistory() ([]models.ExportRecord, error) {
	return e.history.ListExports()
}

// DeleteExport rimuove un'esportazione dallo storico
func (e *Exporter) DeleteExport(id string) error {
	return e.history.DeleteExport(id)
}

// resolveMediaLinks localizza i file media e li copia nella directory di
// esportazione, sostituendo i percorsi con link relativi
func (e *Exporter) resolveMediaLinks(messages []*models.Message) {
	mediaName := e.cfg.Export.MediaDir
	if mediaName == "" {
		mediaName = "media"
	}
	destDir := filepath.Join(e.cfg.Export.Dir, mediaName)

	for _, msg := range messages {
		if msg.Media == nil || msg.Media.LocalPath == "" {
			continue
		}
		source, ok := e.media.Resolve(msg.Media.LocalPath)
		if !ok {
			continue
		}
		relPath, err := CopyInto(source, destDir)
		if err != nil {
			fmt.Printf("⚠️ Errore nella copia di %s: %v\n", msg.Media.LocalPath, err)
			continue
		}
		msg.Media.LocalPath = relPath
	}
}

// generateFilename costruisce il nome del file di esportazione
func (e *Exporter) generateFilename(contactName string) string {
	name := utils.SanitizePathComponent(contactName)
	if name == "" {
		name = "conversation"
	}
	return fmt.Sprintf("%s_%s.txt", name, time.Now().Format("2006-01-02"))
}
