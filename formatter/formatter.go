package formatter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"whatsapp-exporter/models"
	"whatsapp-exporter/mood"
	"whatsapp-exporter/utils"
)

const separator = "================================================================================"

// Format compone il testo completo dell'esportazione: intestazione, timeline
// dell'umore, partecipanti e messaggi raggruppati per giorno.
func Format(messages []*models.Message, contactName string, participants []models.Participant, analysis *mood.Analysis) string {
	var b strings.Builder

	writeHeader(&b, contactName, len(messages), analysis)
	writeMoodTimeline(&b, analysis)
	writeParticipants(&b, participants)

	currentDay := ""
	for _, msg := range messages {
		day := msg.Date.Format("2006-01-02")
		if day != currentDay {
			currentDay = day
			fmt.Fprintf(&b, "\n--- %s ---\n", day)
		}
		writeMessage(&b, msg)
	}

	b.WriteString("\n" + separator + "\n")
	fmt.Fprintf(&b, "Total: %d messages", len(messages))
	if analysis.TotalReactions > 0 {
		fmt.Fprintf(&b, ", %d réactions", analysis.TotalReactions)
	}
	b.WriteString("\n")
	return b.String()
}

func writeHeader(b *strings.Builder, contactName string, messageCount int, analysis *mood.Analysis) {
	b.WriteString(separator + "\n")
	fmt.Fprintf(b, "Conversation avec: %s\n", contactName)
	fmt.Fprintf(b, "Exporté le: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(b, "Messages: %d\n", messageCount)
	if !analysis.StartDate.IsZero() {
		fmt.Fprintf(b, "Période: %s → %s\n",
			analysis.StartDate.Format("2006-01-02"),
			analysis.EndDate.Format("2006-01-02"))
	}
	b.WriteString(separator + "\n")
}

func writeMoodTimeline(b *strings.Builder, analysis *mood.Analysis) {
	if analysis == nil || len(analysis.Timeline) == 0 {
		return
	}
	b.WriteString("\nMOOD TIMELINE (par semaine)\n")
	for _, line := range analysis.Timeline {
		b.WriteString(line + "\n")
	}

	// Legenda limitata alle categorie effettivamente presenti
	present := make(map[int]bool)
	for _, week := range analysis.WeekStats {
		for cat, count := range week.MoodCounts {
			if count > 0 {
				present[cat] = true
			}
		}
	}
	if len(present) > 0 {
		var legend []string
		for i, cat := range mood.Categories() {
			if present[i] {
				legend = append(legend, cat.Representative+" "+cat.Name)
			}
		}
		fmt.Fprintf(b, "Légende: %s\n", strings.Join(legend, "  "))
	}
	fmt.Fprintf(b, "Réactions totales: %d (%d réactions, %d dans les messages)\n",
		analysis.TotalReactions, analysis.FromReactions, analysis.FromContent)
}

func writeParticipants(b *strings.Builder, participants []models.Participant) {
	if len(participants) == 0 {
		return
	}
	// "Moi" per primo, poi gli altri in ordine alfabetico
	sorted := make([]models.Participant, 0, len(participants))
	var me *models.Participant
	for i := range participants {
		if participants[i].JID == "me" {
			me = &participants[i]
			continue
		}
		sorted = append(sorted, participants[i])
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	b.WriteString("\nPARTICIPANTS\n")
	if me != nil {
		fmt.Fprintf(b, "- %s (%s)\n", me.Name, me.FormattedPhone)
	}
	for _, p := range sorted {
		fmt.Fprintf(b, "- %s (%s)\n", p.Name, p.FormattedPhone)
	}
}

// writeMessage scrive un messaggio con orario, direzione e decorazioni
func writeMessage(b *strings.Builder, msg *models.Message) {
	timestamp := msg.Date.Format("15:04:05")
	direction := "<"
	indent := "    "
	if msg.IsFromMe {
		direction = ">"
		indent = ""
	}

	prefix := fmt.Sprintf("[%s] %s %s", timestamp, direction, indent)
	quoteIndent := strings.Repeat(" ", len("[00:00:00] > ")) + indent

	// La citazione va sopra il messaggio, come nell'app
	if msg.QuotedText != "" {
		fmt.Fprintf(b, "%s↳ %s\n", quoteIndent, msg.QuotedText)
	} else if msg.ForwardMarker != nil {
		fmt.Fprintf(b, "%s↳ (transféré %s)\n", quoteIndent, msg.ForwardMarker.HashID)
	}

	var parts []string
	if msg.SenderName != "" && !msg.IsFromMe {
		parts = append(parts, msg.SenderName+":")
	}
	if msg.IsForwarded {
		parts = append(parts, "(transféré)")
	}

	content := msg.Content
	if content == "" && msg.Media == nil {
		content = fmt.Sprintf("⚠️ [Message vide - Type %d]", msg.MessageType)
	}
	if content != "" {
		parts = append(parts, content)
	}

	if len(parts) > 0 {
		line := prefix + strings.Join(parts, " ")
		if msg.ReactionEmoji != "" {
			line += "  " + msg.ReactionEmoji
		}
		b.WriteString(line + "\n")
	}

	if msg.Media != nil {
		writeMediaLine(b, msg, prefix, len(parts) == 0)
	}
}

// writeMediaLine scrive la riga dell'allegato con link relativo e dimensione
func writeMediaLine(b *strings.Builder, msg *models.Message, prefix string, standalone bool) {
	media := msg.Media
	typeName := utils.GetMediaTypeName(media.MessageType)
	if media.MessageType == 59 {
		typeName = "Appel"
	}

	line := fmt.Sprintf("📎 %s", typeName)
	if media.LocalPath != "" {
		line += fmt.Sprintf(": [fichier](./%s)", media.LocalPath)
	}
	if media.FileSize > 0 {
		line += fmt.Sprintf(" (%d KB)", media.FileSize/1024)
	}
	if media.Title != "" {
		line += " - " + media.Title
	}
	if media.Latitude != 0 || media.Longitude != 0 {
		line += fmt.Sprintf(" 📍 %.5f, %.5f", media.Latitude, media.Longitude)
	}

	if standalone {
		if msg.ReactionEmoji != "" {
			line += "  " + msg.ReactionEmoji
		}
		b.WriteString(prefix + line + "\n")
		return
	}
	b.WriteString(strings.Repeat(" ", len("[00:00:00] > ")) + line + "\n")
}
