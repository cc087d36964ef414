package exporter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whatsapp-exporter/models"
)

// stubMetadata è una sorgente di metadati in memoria per i test
type stubMetadata struct {
	blobs     map[int64][]byte
	summaries map[int64][2]string
	parents   map[int64]int64
}

func (s *stubMetadata) MediaItemMetadata(id int64) ([]byte, error) {
	return s.blobs[id], nil
}

func (s *stubMetadata) MediaItemSummary(id int64) (string, string, error) {
	if summary, ok := s.summaries[id]; ok {
		return summary[0], summary[1], nil
	}
	return "", "", nil
}

func (s *stubMetadata) ParentMediaItemID(parentID int64) (int64, error) {
	return s.parents[parentID], nil
}

// wireField codifica un campo con wire type 2 e lunghezza a un byte
func wireField(tag int, data string) []byte {
	return append([]byte{byte(tag<<3 | 2), byte(len(data))}, data...)
}

func newTestResolver(meta *stubMetadata) *CitationResolver {
	if meta.blobs == nil {
		meta.blobs = make(map[int64][]byte)
	}
	if meta.summaries == nil {
		meta.summaries = make(map[int64][2]string)
	}
	if meta.parents == nil {
		meta.parents = make(map[int64]int64)
	}
	return NewCitationResolver(meta, DefaultThresholds())
}

func TestResolveParentLink(t *testing.T) {
	resolver := newTestResolver(&stubMetadata{})

	parent := &models.Message{ID: 1, Content: "Hello"}
	reply := &models.Message{ID: 2, ParentMessageID: 1}
	resolver.ResolvePass([]*models.Message{parent, reply})

	assert.Equal(t, "Hello", reply.QuotedText)
}

func TestResolveParentLinkTruncates(t *testing.T) {
	resolver := newTestResolver(&stubMetadata{})

	long := "Ceci est un message particulièrement long qui dépasse largement la limite"
	parent := &models.Message{ID: 1, Content: long}
	reply := &models.Message{ID: 2, ParentMessageID: 1}
	resolver.ResolvePass([]*models.Message{parent, reply})

	require.NotEmpty(t, reply.QuotedText)
	assert.True(t, len([]rune(reply.QuotedText)) <= 53)
	assert.Contains(t, reply.QuotedText, "...")
}

func TestForwardHashShape(t *testing.T) {
	hash, ok := isForwardHash("AB12'xyZ3")
	assert.True(t, ok)
	assert.Equal(t, "AB12'xyZ3", hash)

	_, ok = isForwardHash("hello there friend")
	assert.False(t, ok)

	// Due token ma nessuna cifra, maiuscola o graffa
	_, ok = isForwardHash("ab'cdef")
	assert.False(t, ok)
}

func TestEnrichQuotedText(t *testing.T) {
	meta := &stubMetadata{blobs: map[int64][]byte{
		7: wireField(1, "This is the quoted message text"),
	}}
	resolver := newTestResolver(meta)

	msg := &models.Message{ID: 2, MediaItemID: 7}
	resolver.EnrichFromMetadata(msg)

	assert.Equal(t, "This is the quoted message text", msg.QuotedText)
	assert.Nil(t, msg.ForwardMarker)
}

func TestEnrichForwardMarker(t *testing.T) {
	meta := &stubMetadata{blobs: map[int64][]byte{
		7: wireField(1, "AbCd123'xYz789AbQ"),
	}}
	resolver := newTestResolver(meta)

	msg := &models.Message{ID: 2, MediaItemID: 7}
	resolver.EnrichFromMetadata(msg)

	require.NotNil(t, msg.ForwardMarker)
	assert.Equal(t, "AbCd123'xYz789AbQ", msg.ForwardMarker.HashID)
	assert.Empty(t, msg.QuotedText)
}

func TestEnrichForwardMarkerSuppressedWithParent(t *testing.T) {
	// Con un riferimento al padre il marcatore viene scartato: la citazione
	// vera arriva dalla risoluzione del link diretto
	meta := &stubMetadata{blobs: map[int64][]byte{
		7: wireField(1, "AbCd123'xYz789AbQ"),
	}}
	resolver := newTestResolver(meta)

	msg := &models.Message{ID: 2, MediaItemID: 7, ParentMessageID: 1}
	resolver.EnrichFromMetadata(msg)

	assert.Nil(t, msg.ForwardMarker)
	assert.Empty(t, msg.QuotedText)
}

func TestEnrichMediaSummary(t *testing.T) {
	meta := &stubMetadata{summaries: map[int64][2]string{
		7: {"Media/33612345678@s.whatsapp.net/photo.jpg", "vacances"},
	}}
	resolver := newTestResolver(meta)

	msg := &models.Message{ID: 2, MediaItemID: 7}
	resolver.EnrichFromMetadata(msg)

	assert.Equal(t, "[Image] vacances", msg.QuotedText)
}

func fragmentMessages(gap time.Duration) (*models.Message, *models.Message, *stubMetadata) {
	base := time.Date(2023, 5, 3, 12, 0, 0, 0, time.UTC)
	original := &models.Message{
		ID:       1,
		Content:  "the quick brown fox jumps over the lazy dog near the river bank",
		IsFromMe: false,
		Date:     base,
	}
	reply := &models.Message{
		ID:          2,
		IsFromMe:    true,
		MediaItemID: 7,
		Date:        base.Add(gap),
	}
	blob := append(wireField(5, "quick brown fox jumps"), wireField(6, "over the lazy dog")...)
	meta := &stubMetadata{blobs: map[int64][]byte{7: blob}}
	return original, reply, meta
}

func TestFragmentReconstruction(t *testing.T) {
	original, reply, meta := fragmentMessages(2 * time.Hour)
	resolver := newTestResolver(meta)

	resolver.ResolvePass([]*models.Message{original, reply})

	assert.Equal(t, original.Content, reply.QuotedText)
}

func TestFragmentMatchWindowBoundary(t *testing.T) {
	// 47h59m: dentro la finestra
	original, reply, meta := fragmentMessages(47*time.Hour + 59*time.Minute)
	resolver := newTestResolver(meta)
	resolver.ResolvePass([]*models.Message{original, reply})
	assert.Equal(t, original.Content, reply.QuotedText)

	// 48h01s: fuori
	original, reply, meta = fragmentMessages(48*time.Hour + time.Second)
	resolver = newTestResolver(meta)
	resolver.ResolvePass([]*models.Message{original, reply})
	assert.Empty(t, reply.QuotedText)
}

func TestFragmentRequiresOppositeSender(t *testing.T) {
	original, reply, meta := fragmentMessages(2 * time.Hour)
	original.IsFromMe = reply.IsFromMe
	resolver := newTestResolver(meta)

	resolver.ResolvePass([]*models.Message{original, reply})

	assert.Empty(t, reply.QuotedText)
}

func TestMatchByContentWordOverlap(t *testing.T) {
	resolver := newTestResolver(&stubMetadata{})
	base := time.Date(2023, 5, 3, 12, 0, 0, 0, time.UTC)

	original := &models.Message{
		ID:       1,
		Content:  "on va manger ensemble demain soir au restaurant italien",
		IsFromMe: false,
		Date:     base,
	}
	reply := &models.Message{ID: 2, IsFromMe: true, Date: base.Add(time.Hour)}

	match := resolver.matchByContent([]*models.Message{original, reply},
		"manger ensemble demain soir restaurant", reply)
	assert.Equal(t, original, match)
}

func TestWordSafeTruncate(t *testing.T) {
	assert.Equal(t, "court", wordSafeTruncate("court", 50, 50))

	long := "un message avec beaucoup de mots qui finit par être coupé proprement sur une limite de mots"
	truncated := wordSafeTruncate(long, 50, 50)
	assert.True(t, len([]rune(truncated)) <= 53)
	assert.False(t, truncated[len(truncated)-4] == ' ')
	assert.Contains(t, truncated, "...")

	// Senza spazi: taglio secco alla limite ridotta
	single := wordSafeTruncate("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", 50, 45)
	assert.Equal(t, 48, len([]rune(single)))
}
