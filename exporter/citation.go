package exporter

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"

	"whatsapp-exporter/models"
	"whatsapp-exporter/wire"
)

// Thresholds raccoglie le costanti euristiche della risoluzione citazioni.
// Il formato sorgente non è documentato e questi valori sono empirici:
// meglio tenerli regolabili che cablati.
type Thresholds struct {
	QuotePrefixLen   int           // troncamento citazioni dirette
	QuoteMinTextLen  int           // testo minimo per accettare una citazione
	Tag1MinLen       int           // lunghezza minima del campo tag 1
	FragmentTags     []int         // tag dei frammenti brevi
	FragmentMinLen   int           // banda di lunghezza dei frammenti
	FragmentMaxLen   int           //
	LongTag1MinLen   int           // banda del contenuto lungo nel tag 1
	LongTag1MaxLen   int           //
	AuxTags          []int         // tag secondari accettati come frammenti
	AuxMinLen        int           //
	AuxMaxLen        int           //
	FallbackMaxLen   int           // limite del fallback sui tag bassi
	MatchWindow      time.Duration // distanza massima tra citazione e originale
	MatchPartMinLen  int           // lunghezza minima di un frammento probante
	IndexKeyLen      int           // prefisso usato come chiave di indice
	IndexMinLen      int           // contenuto minimo per essere indicizzato
	KeyPrefixLen     int           // prefisso chiave cercato nella ricostruzione
	MatchTruncateLen int           // troncamento citazioni ricostruite
	WordOverlapMin   int           // parole in comune minime nel match fuzzy
}

// DefaultThresholds restituisce i valori della versione più completa del
// formato osservato
func DefaultThresholds() Thresholds {
	return Thresholds{
		QuotePrefixLen:   50,
		QuoteMinTextLen:  3,
		Tag1MinLen:       10,
		FragmentTags:     []int{5, 6, 9, 13, 14},
		FragmentMinLen:   10,
		FragmentMaxLen:   130,
		LongTag1MinLen:   50,
		LongTag1MaxLen:   500,
		AuxTags:          []int{2, 3, 4},
		AuxMinLen:        15,
		AuxMaxLen:        200,
		FallbackMaxLen:   500,
		MatchWindow:      48 * time.Hour,
		MatchPartMinLen:  15,
		IndexKeyLen:      60,
		IndexMinLen:      40,
		KeyPrefixLen:     25,
		MatchTruncateLen: 90,
		WordOverlapMin:   3,
	}
}

// MetadataSource fornisce l'accesso ai metadati dei media item
type MetadataSource interface {
	MediaItemMetadata(mediaItemID int64) ([]byte, error)
	MediaItemSummary(mediaItemID int64) (path, title string, err error)
	ParentMediaItemID(parentMessageID int64) (int64, error)
}

// CitationResolver risolve il testo citato da un messaggio di risposta,
// provando nell'ordine: link diretto al padre, estrazione dai metadati,
// ricostruzione per frammenti con match sui messaggi già caricati.
type CitationResolver struct {
	meta MetadataSource
	th   Thresholds
}

// NewCitationResolver crea il resolver con le soglie indicate
func NewCitationResolver(meta MetadataSource, th Thresholds) *CitationResolver {
	return &CitationResolver{meta: meta, th: th}
}

var (
	controlChars    = regexp.MustCompile(`[\x00-\x1f]+`)
	forwardSanitize = regexp.MustCompile("[^A-Za-z0-9'`{}]")
	forwardShape    = regexp.MustCompile("^[A-Za-z0-9]{2,24}['`][A-Za-z0-9{}]{2,48}$")
	stopWords       = map[string]bool{
		"le": true, "la": true, "les": true, "de": true, "du": true, "des": true,
		"un": true, "une": true, "et": true, "ou": true, "que": true, "qui": true,
		"je": true, "tu": true, "il": true, "elle": true, "on": true, "nous": true,
		"vous": true, "ils": true, "elles": true, "ce": true, "ca": true, "ça": true,
	}
	// Pronomi usati come indizio che un campo tag 1 lungo è testo citato
	pronounHints = []string{"que", "je", "tu", "il", "elle", "on", "nous", "vous", "ils"}
)

// EnrichFromMetadata è la prima passata, eseguita riga per riga: estrae la
// citazione dai metadati del messaggio o, in mancanza, da quelli del padre.
// I marcatori di inoltro vengono soppressi se esiste un riferimento al padre,
// perché in quel caso la citazione vera arriva dalla seconda passata.
func (r *CitationResolver) EnrichFromMetadata(msg *models.Message) {
	var (
		quoted string
		fwd    *models.ForwardInfo
	)

	if msg.MediaItemID != 0 {
		quoted, fwd = r.extractQuoted(msg.MediaItemID)
	}
	if quoted == "" && fwd == nil && msg.ParentMessageID != 0 {
		parentMediaID, err := r.meta.ParentMediaItemID(msg.ParentMessageID)
		if err == nil && parentMediaID != 0 {
			quoted, fwd = r.extractQuoted(parentMediaID)
		}
	}

	if fwd != nil {
		if msg.ParentMessageID == 0 {
			msg.ForwardMarker = fwd
		}
		return
	}
	if quoted != "" {
		msg.QuotedText = quoted
	}
}

// extractQuoted estrae una citazione da un media item: prima il riepilogo del
// media stesso (per le citazioni di foto/video), poi il campo tag 1 del blob,
// infine i tag bassi come fallback.
func (r *CitationResolver) extractQuoted(mediaItemID int64) (string, *models.ForwardInfo) {
	if path, title, err := r.meta.MediaItemSummary(mediaItemID); err == nil && path != "" {
		mediaType := mediaTypeFromPath(path)
		if title = strings.TrimSpace(title); title != "" {
			return fmt.Sprintf("[%s] %s", mediaType, title), nil
		}
		return fmt.Sprintf("[%s]", mediaType), nil
	}

	blob, err := r.meta.MediaItemMetadata(mediaItemID)
	if err != nil || len(blob) == 0 {
		return "", nil
	}

	// Il tag 1 è il più affidabile per il testo citato
	for _, field := range wire.Tagged(blob, 1) {
		if field.Length <= r.th.Tag1MinLen {
			continue
		}
		text := cleanFieldText(field.Data)
		if runeLen(text) <= r.th.QuoteMinTextLen {
			continue
		}
		if hash, ok := isForwardHash(text); ok {
			return "", &models.ForwardInfo{HashID: hash}
		}
		return wordSafeTruncate(text, r.th.QuotePrefixLen, r.th.QuotePrefixLen), nil
	}

	// Fallback sui tag 0, 2, 3, 4
	for _, field := range wire.Extract(blob) {
		if field.Tag > 4 || field.Tag == 1 {
			continue
		}
		if field.Length <= r.th.Tag1MinLen || field.Length >= r.th.FallbackMaxLen {
			continue
		}
		text := cleanFieldText(field.Data)
		if runeLen(text) > r.th.QuoteMinTextLen {
			return wordSafeTruncate(text, r.th.QuotePrefixLen, r.th.QuotePrefixLen), nil
		}
	}

	return "", nil
}

// ResolvePass è la seconda passata, sull'intera conversazione: risolve i link
// diretti al padre e poi tenta la ricostruzione per frammenti sui messaggi
// rimasti senza citazione.
func (r *CitationResolver) ResolvePass(messages []*models.Message) {
	lookup := make(map[int64]*models.Message, len(messages))
	for _, msg := range messages {
		lookup[msg.ID] = msg
	}

	// Livello 1: riferimento esplicito al messaggio padre
	for _, msg := range messages {
		if msg.HasCitation() || msg.ParentMessageID == 0 {
			continue
		}
		parent, ok := lookup[msg.ParentMessageID]
		if !ok || parent.Content == "" {
			continue
		}
		msg.QuotedText = prefixTruncate(parent.Content, r.th.QuotePrefixLen)
	}

	// Livello 3: ricostruzione dai frammenti dei metadati
	var targets []*models.Message
	for _, msg := range messages {
		if !msg.HasCitation() && msg.ParentMessageID == 0 && msg.MediaItemID != 0 {
			targets = append(targets, msg)
		}
	}
	r.resolveFragments(messages, targets)
}

// fragmentScan è il risultato della scansione dei frammenti di un blob
type fragmentScan struct {
	parts         []string
	quotedContent string
}

// scanFragments raccoglie i frammenti di testo ai tag noti e l'eventuale
// contenuto lungo nel tag 1
func (r *CitationResolver) scanFragments(blob []byte) fragmentScan {
	var scan fragmentScan
	for _, field := range wire.Extract(blob) {
		switch {
		case field.Length > r.th.FragmentMinLen && field.Length < r.th.FragmentMaxLen && containsInt(r.th.FragmentTags, field.Tag):
			if text := cleanFieldText(field.Data); text != "" {
				scan.parts = append(scan.parts, text)
			}
		case field.Tag == 1 && field.Length > r.th.LongTag1MinLen && field.Length < r.th.LongTag1MaxLen:
			text := cleanFieldText(field.Data)
			if runeLen(text) > 20 && containsPronoun(text) {
				scan.quotedContent = runePrefix(text, 200)
			}
		case containsInt(r.th.AuxTags, field.Tag) && field.Length > r.th.AuxMinLen && field.Length < r.th.AuxMaxLen:
			if text := cleanFieldText(field.Data); runeLen(text) > r.th.AuxMinLen {
				scan.parts = append(scan.parts, text)
			}
		}
	}
	return scan
}

// resolveFragments applica la strategia di match in ordine di priorità:
// match diretto sul contenuto lungo, poi ricostruzione frammenti contro
// l'indice dei messaggi originali.
func (r *CitationResolver) resolveFragments(messages, targets []*models.Message) {
	if len(targets) == 0 {
		return
	}

	// Indice dei messaggi candidabili come originali, per prefisso
	originals := make(map[string][]*models.Message)
	var keys []string
	for _, msg := range messages {
		text := strings.TrimSpace(msg.Content)
		if runeLen(text) < r.th.IndexMinLen {
			continue
		}
		key := runePrefix(text, r.th.IndexKeyLen)
		if _, ok := originals[key]; !ok {
			keys = append(keys, key)
		}
		originals[key] = append(originals[key], msg)
	}

	for _, msg := range targets {
		blob, err := r.meta.MediaItemMetadata(msg.MediaItemID)
		if err != nil || len(blob) == 0 {
			continue
		}

		scan := r.scanFragments(blob)
		if len(scan.parts) < 2 && scan.quotedContent == "" {
			continue
		}

		// Contenuto lungo senza abbastanza frammenti: match diretto
		if scan.quotedContent != "" && len(scan.parts) < 2 {
			if candidate := r.matchByContent(messages, scan.quotedContent, msg); candidate != nil {
				msg.QuotedText = wordSafeTruncate(candidate.Content, r.th.MatchTruncateLen, r.th.MatchTruncateLen-5)
			}
			continue
		}
		if len(scan.parts) < 2 {
			continue
		}

		reconstruction := strings.Join(scan.parts, " ")
		var best *models.Message
		var bestDelta time.Duration

		for _, key := range keys {
			matchFound := false
			for _, part := range scan.parts {
				if runeLen(part) > r.th.MatchPartMinLen && strings.Contains(key, part) {
					matchFound = true
					break
				}
			}
			if !matchFound && strings.Contains(reconstruction, runePrefix(key, r.th.KeyPrefixLen)) {
				matchFound = true
			}
			if !matchFound {
				continue
			}

			for _, candidate := range originals[key] {
				if candidate.IsFromMe == msg.IsFromMe {
					continue
				}
				if candidate.Date.IsZero() || msg.Date.IsZero() {
					continue
				}
				if !candidate.Date.Before(msg.Date) {
					continue
				}
				delta := msg.Date.Sub(candidate.Date)
				if delta > r.th.MatchWindow {
					continue
				}
				if best == nil || delta < bestDelta {
					best = candidate
					bestDelta = delta
				}
			}
		}

		if best != nil && msg.QuotedText == "" {
			msg.QuotedText = wordSafeTruncate(best.Content, r.th.MatchTruncateLen, r.th.MatchTruncateLen-5)
		}
	}
}

// matchByContent cerca il messaggio originale che corrisponde al contenuto
// citato: per sottostringa del prefisso, oppure per sovrapposizione di parole
// significative dopo la rimozione delle stop word.
func (r *CitationResolver) matchByContent(messages []*models.Message, quoted string, reply *models.Message) *models.Message {
	cleanQuoted := strings.ToLower(strings.TrimSpace(quoted))

	for _, candidate := range messages {
		if candidate.Content == "" || candidate.IsFromMe == reply.IsFromMe {
			continue
		}
		if candidate.Date.IsZero() || reply.Date.IsZero() {
			continue
		}
		if !candidate.Date.Before(reply.Date) {
			continue
		}
		if reply.Date.Sub(candidate.Date) > r.th.MatchWindow {
			continue
		}

		candidateContent := strings.ToLower(strings.TrimSpace(candidate.Content))
		if strings.Contains(candidateContent, runePrefix(cleanQuoted, r.th.QuotePrefixLen)) {
			return candidate
		}

		quotedWords := contentWords(cleanQuoted)
		candidateWords := contentWords(candidateContent)
		if len(quotedWords) > 3 && len(candidateWords) > 3 {
			overlap := 0
			for word := range quotedWords {
				if candidateWords[word] {
					overlap++
				}
			}
			threshold := float64(len(quotedWords)) * 0.6
			if threshold > float64(r.th.WordOverlapMin) {
				threshold = float64(r.th.WordOverlapMin)
			}
			if float64(overlap) >= threshold {
				return candidate
			}
		}
	}
	return nil
}

// isForwardHash classifica un testo estratto come marcatore di inoltro:
// due token alfanumerici separati da apostrofo o backtick, con almeno una
// cifra, una maiuscola o una graffa.
func isForwardHash(text string) (string, bool) {
	sanitized := forwardSanitize.ReplaceAllString(text, "")
	if !forwardShape.MatchString(sanitized) {
		return "", false
	}
	for _, r := range sanitized {
		if unicode.IsDigit(r) || unicode.IsUpper(r) || r == '{' || r == '}' {
			return sanitized, true
		}
	}
	return "", false
}

func containsPronoun(text string) bool {
	lower := strings.ToLower(text)
	for _, hint := range pronounHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

func contentWords(text string) map[string]bool {
	words := make(map[string]bool)
	for _, word := range strings.Fields(text) {
		if !stopWords[word] {
			words[word] = true
		}
	}
	return words
}

func containsInt(list []int, n int) bool {
	for _, item := range list {
		if item == n {
			return true
		}
	}
	return false
}

// cleanFieldText riconverte i byte di un campo in testo, scartando le
// sequenze UTF-8 non valide e i caratteri di controllo
func cleanFieldText(data []byte) string {
	text := strings.ToValidUTF8(string(data), "")
	text = controlChars.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func mediaTypeFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return "Image"
	case ".mp4", ".mov", ".avi":
		return "Video"
	case ".mp3", ".wav", ".m4a":
		return "Audio"
	default:
		return "Media"
	}
}

func runeLen(s string) int {
	return len([]rune(s))
}

func runePrefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// prefixTruncate taglia il contenuto al prefisso richiesto, con ellissi
func prefixTruncate(content string, limit int) string {
	if runeLen(content) <= limit {
		return content
	}
	return runePrefix(content, limit) + "..."
}

// wordSafeTruncate taglia al prefisso richiesto senza spezzare l'ultima
// parola; per i contenuti senza spazi usa il limite ridotto
func wordSafeTruncate(content string, limit, singleLimit int) string {
	if runeLen(content) <= limit {
		return content
	}
	words := strings.Fields(runePrefix(content, limit))
	if len(words) > 1 {
		return strings.Join(words[:len(words)-1], " ") + "..."
	}
	return runePrefix(content, singleLimit) + "..."
}
