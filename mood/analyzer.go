package mood

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"whatsapp-exporter/models"
)

// Category raggruppa le emoji che esprimono lo stesso stato d'animo.
// Representative è il glifo usato nella timeline settimanale.
type Category struct {
	Name           string
	Representative string
	Emojis         []string
}

// Le categorie in ordine canonico: l'ordine decide anche i pareggi
// nella scelta dell'umore dominante di una settimana.
var categories = []Category{
	{"joy", "😂", []string{"😂", "🤣", "😹", "💀"}},
	{"happiness", "😊", []string{"😊", "😁", "😄", "😃", "🙂", "☺"}},
	{"love", "❤️", []string{"❤", "❤️", "😍", "🥰", "😘", "💕", "💖", "💗", "💘", "💝", "💞", "💓", "🧡", "💛", "💚", "💙", "💜", "🤍", "🖤", "💋"}},
	{"approval", "👍", []string{"👍", "👌", "🙏", "✅", "💯"}},
	{"celebration", "🎉", []string{"🎉", "🥳", "🎊", "🍾", "🥂", "🎁"}},
	{"cool", "😎", []string{"😎", "🤙", "✌"}},
	{"excitement", "🔥", []string{"🔥", "⚡", "🚀", "🤩"}},
	{"strength", "💪", []string{"💪", "🏆", "🥇"}},
	{"sadness", "😢", []string{"😢", "😭", "😿", "💔"}},
	{"disappointment", "😔", []string{"😔", "😞", "😕", "🙁", "☹"}},
	{"anger", "😡", []string{"😡", "😠", "🤬", "👿"}},
	{"shock", "😱", []string{"😱", "🤯"}},
	{"fear", "😨", []string{"😨", "😧", "😦"}},
	{"anxiety", "😰", []string{"😰", "😥", "😓", "😬"}},
	{"surprise", "😮", []string{"😮", "😯", "😲", "😳"}},
	{"thinking", "🤔", []string{"🤔", "🧐", "🤨"}},
	{"confusion", "🤷", []string{"🤷", "😵", "🫤"}},
	{"skepticism", "🙄", []string{"🙄", "😒", "😑"}},
	{"neutral", "😐", []string{"😐", "😶"}},
	{"tired", "😴", []string{"😴", "🥱", "😪", "🤒", "🤕", "🤧", "🥴"}},
	{"playful", "😜", []string{"😜", "😝", "😛", "🤪", "😏", "🤭", "😇", "🤡"}},
	{"disapproval", "👎", []string{"👎", "🖕", "💩"}},
	{"misc", "✨", []string{"✨", "⭐", "🌟", "👀", "🙈", "🙊", "🤝", "👏", "🫶", "🤗"}},
}

// Glifi a larghezza piena per le settimane senza umore o senza attività,
// così la timeline resta allineata con le emoji
const (
	noMoodGlyph     = "＿"
	noActivityGlyph = "　"
)

var emojiCategory map[string]int

func init() {
	emojiCategory = make(map[string]int)
	for i, cat := range categories {
		for _, emoji := range cat.Emojis {
			emojiCategory[emoji] = i
		}
	}
}

// WeekStats raccoglie l'attività di una settimana (dal lunedì)
type WeekStats struct {
	Start      time.Time
	Messages   int
	MoodCounts map[int]int
}

// Dominant restituisce l'indice della categoria dominante della settimana,
// o -1 se la settimana non ha umori. I pareggi vanno alla categoria che
// viene prima nell'ordine canonico, per avere risultati ripetibili.
func (w WeekStats) Dominant() int {
	best := -1
	bestCount := 0
	for i := range categories {
		if count := w.MoodCounts[i]; count > bestCount {
			best = i
			bestCount = count
		}
	}
	return best
}

// Analysis è il risultato dell'analisi dell'umore di una conversazione
type Analysis struct {
	Timeline       []string // una riga per anno, un glifo per settimana
	Weeks          int
	WeekStats      []WeekStats
	TotalReactions int
	FromReactions  int
	FromContent    int
	StartDate      time.Time
	EndDate        time.Time
}

// Categories restituisce le categorie in ordine canonico
func Categories() []Category {
	return categories
}

// Analyze costruisce la timeline settimanale dell'umore di una conversazione
// combinando le emoji di reazione e quelle nel testo dei messaggi
func Analyze(messages []*models.Message) *Analysis {
	analysis := &Analysis{}
	weekMap := make(map[time.Time]*WeekStats)

	for _, msg := range messages {
		if msg.Date.IsZero() {
			continue
		}
		start := weekStart(msg.Date)
		week, ok := weekMap[start]
		if !ok {
			week = &WeekStats{Start: start, MoodCounts: make(map[int]int)}
			weekMap[start] = week
		}
		week.Messages++

		for _, emoji := range reactionEmojis(msg.ReactionEmoji) {
			if cat, ok := lookupCategory(emoji); ok {
				week.MoodCounts[cat]++
				analysis.TotalReactions++
				analysis.FromReactions++
			}
		}
		for _, emoji := range contentEmojis(msg.Content) {
			if cat, ok := lookupCategory(emoji); ok {
				week.MoodCounts[cat]++
				analysis.TotalReactions++
				analysis.FromContent++
			}
		}

		if analysis.StartDate.IsZero() || msg.Date.Before(analysis.StartDate) {
			analysis.StartDate = msg.Date
		}
		if msg.Date.After(analysis.EndDate) {
			analysis.EndDate = msg.Date
		}
	}

	if len(weekMap) == 0 {
		return analysis
	}

	starts := make([]time.Time, 0, len(weekMap))
	for start := range weekMap {
		starts = append(starts, start)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	// Settimane continue dalla prima all'ultima, vuote incluse
	for cursor := starts[0]; !cursor.After(starts[len(starts)-1]); cursor = cursor.AddDate(0, 0, 7) {
		if week, ok := weekMap[cursor]; ok {
			analysis.WeekStats = append(analysis.WeekStats, *week)
		} else {
			analysis.WeekStats = append(analysis.WeekStats, WeekStats{Start: cursor})
		}
	}
	analysis.Weeks = len(analysis.WeekStats)
	analysis.Timeline = buildTimeline(analysis.WeekStats)
	return analysis
}

// buildTimeline compone le righe della timeline, una per anno
func buildTimeline(weeks []WeekStats) []string {
	var lines []string
	currentYear := 0
	var line strings.Builder

	flush := func() {
		if currentYear != 0 {
			lines = append(lines, fmt.Sprintf("%d: %s", currentYear, line.String()))
		}
		line.Reset()
	}

	for _, week := range weeks {
		if year := week.Start.Year(); year != currentYear {
			flush()
			currentYear = year
		}
		switch {
		case week.Messages == 0:
			line.WriteString(noActivityGlyph)
		case week.Dominant() < 0:
			line.WriteString(noMoodGlyph)
		default:
			line.WriteString(categories[week.Dominant()].Representative)
		}
	}
	flush()
	return lines
}

// weekStart restituisce la mezzanotte del lunedì della settimana della data
func weekStart(date time.Time) time.Time {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// lookupCategory classifica un'emoji, ignorando i modificatori in coda
// (toni di pelle, selettori di variazione)
func lookupCategory(emoji string) (int, bool) {
	if cat, ok := emojiCategory[emoji]; ok {
		return cat, true
	}
	runes := []rune(emoji)
	if len(runes) > 1 {
		if cat, ok := emojiCategory[string(runes[0])]; ok {
			return cat, true
		}
	}
	return 0, false
}

// reactionEmojis estrae le emoji da una reazione decodificata: il formato
// può essere l'emoji nuda oppure "[AB:😂]" / "[AB:😂;CD:😍]" per i gruppi
func reactionEmojis(reaction string) []string {
	if reaction == "" {
		return nil
	}
	if !strings.HasPrefix(reaction, "[") || !strings.HasSuffix(reaction, "]") {
		return []string{reaction}
	}
	var emojis []string
	inner := reaction[1 : len(reaction)-1]
	for _, pair := range strings.Split(inner, ";") {
		if idx := strings.LastIndex(pair, ":"); idx >= 0 && idx < len(pair)-1 {
			emojis = append(emojis, pair[idx+1:])
		}
	}
	return emojis
}

// contentEmojis estrae le emoji classificabili dal testo di un messaggio
func contentEmojis(content string) []string {
	var emojis []string
	runes := []rune(content)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if !isEmojiRune(r) {
			continue
		}
		// Prova la coppia con il selettore di variazione (es. ❤️)
		if i+1 < len(runes) && runes[i+1] == 0xFE0F {
			emojis = append(emojis, string([]rune{r, runes[i+1]}))
			i++
			continue
		}
		emojis = append(emojis, string(r))
	}
	return emojis
}

func isEmojiRune(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1FAFF:
		return true
	case r >= 0x2600 && r <= 0x27BF:
		return true
	case r == 0x2764: // ❤
		return true
	}
	return false
}
