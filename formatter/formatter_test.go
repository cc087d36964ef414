package formatter

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"whatsapp-exporter/models"
	"whatsapp-exporter/mood"
)

func sampleMessages() []*models.Message {
	base := time.Date(2023, 5, 3, 14, 23, 11, 0, time.UTC)
	return []*models.Message{
		{ID: 1, Date: base, Content: "Salut, ça va ?", IsFromMe: false},
		{ID: 2, Date: base.Add(time.Minute), Content: "Oui et toi ?", IsFromMe: true, ReactionEmoji: "👍"},
		{ID: 3, Date: base.Add(24 * time.Hour), Content: "On se voit demain", IsFromMe: false, QuotedText: "Oui et toi ?"},
	}
}

func TestFormatStructure(t *testing.T) {
	participants := []models.Participant{
		{JID: "33612345678@s.whatsapp.net", Name: "Jean", FormattedPhone: "+33 6 12 34 56 78"},
		{JID: "me", Name: "Moi", FormattedPhone: "Moi"},
	}
	messages := sampleMessages()
	analysis := mood.Analyze(messages)

	output := Format(messages, "Jean", participants, analysis)

	assert.Contains(t, output, "Conversation avec: Jean")
	assert.Contains(t, output, "Messages: 3")
	assert.Contains(t, output, "--- 2023-05-03 ---")
	assert.Contains(t, output, "--- 2023-05-04 ---")
	assert.Contains(t, output, "[14:23:11] <     Salut, ça va ?")
	assert.Contains(t, output, "[14:24:11] > Oui et toi ?  👍")
	assert.Contains(t, output, "↳ Oui et toi ?")
	assert.Contains(t, output, "- Moi (Moi)")
	assert.Contains(t, output, "- Jean (+33 6 12 34 56 78)")
	assert.Contains(t, output, "Total: 3 messages")
}

func TestFormatMoodSection(t *testing.T) {
	messages := sampleMessages()
	analysis := mood.Analyze(messages)

	output := Format(messages, "Jean", nil, analysis)

	assert.Contains(t, output, "MOOD TIMELINE (par semaine)")
	assert.Contains(t, output, "2023: 👍")
	assert.Contains(t, output, "Réactions totales: 1 (1 réactions, 0 dans les messages)")
}

func TestFormatMediaLine(t *testing.T) {
	base := time.Date(2023, 5, 3, 10, 0, 0, 0, time.UTC)
	messages := []*models.Message{
		{ID: 1, Date: base, IsFromMe: true, MessageType: 1, Media: &models.MediaInfo{
			LocalPath:   "media/photo.jpg",
			FileSize:    204800,
			Title:       "vacances",
			MessageType: 1,
		}},
	}

	output := Format(messages, "Jean", nil, mood.Analyze(messages))

	assert.Contains(t, output, "📎 Image: [fichier](./media/photo.jpg) (200 KB) - vacances")
}

func TestFormatLocationLine(t *testing.T) {
	base := time.Date(2023, 5, 3, 10, 0, 0, 0, time.UTC)
	messages := []*models.Message{
		{ID: 1, Date: base, IsFromMe: false, MessageType: 5, Media: &models.MediaInfo{
			Latitude:    48.85837,
			Longitude:   2.29448,
			MessageType: 5,
		}},
	}

	output := Format(messages, "Jean", nil, mood.Analyze(messages))

	assert.Contains(t, output, "📎 Location")
	assert.Contains(t, output, "📍 48.85837, 2.29448")
}

func TestFormatEmptyMessagePlaceholder(t *testing.T) {
	base := time.Date(2023, 5, 3, 10, 0, 0, 0, time.UTC)
	messages := []*models.Message{
		{ID: 1, Date: base, IsFromMe: false, MessageType: 38},
	}

	output := Format(messages, "Jean", nil, mood.Analyze(messages))

	assert.Contains(t, output, "⚠️ [Message vide - Type 38]")
}

func TestFormatForwardMarker(t *testing.T) {
	base := time.Date(2023, 5, 3, 10, 0, 0, 0, time.UTC)
	messages := []*models.Message{
		{ID: 1, Date: base, IsFromMe: false, Content: "regarde ça",
			ForwardMarker: &models.ForwardInfo{HashID: "AB12'xyZ3"}},
	}

	output := Format(messages, "Jean", nil, mood.Analyze(messages))

	assert.Contains(t, output, "↳ (transféré AB12'xyZ3)")
	lines := strings.Split(output, "\n")
	for i, line := range lines {
		if strings.Contains(line, "transféré") {
			assert.Contains(t, lines[i+1], "regarde ça")
		}
	}
}
