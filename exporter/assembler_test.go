package exporter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whatsapp-exporter/db"
	"whatsapp-exporter/models"
)

func TestMediaDescriptorLocation(t *testing.T) {
	// Un messaggio posizione (tipo 5) ha solo le coordinate
	row := db.MessageRow{
		ID:             1,
		MessageType:    5,
		MediaItemID:    7,
		MediaLatitude:  48.85837,
		MediaLongitude: 2.29448,
	}

	media := mediaDescriptor(row)
	require.NotNil(t, media)
	assert.Equal(t, 48.85837, media.Latitude)
	assert.Equal(t, 2.29448, media.Longitude)
	assert.Equal(t, 5, media.MessageType)
}

func TestMediaDescriptorFile(t *testing.T) {
	row := db.MessageRow{
		ID:             1,
		MessageType:    1,
		MediaItemID:    7,
		MediaLocalPath: "Media/photo.jpg",
		MediaFileSize:  2048,
	}

	media := mediaDescriptor(row)
	require.NotNil(t, media)
	assert.Equal(t, "Media/photo.jpg", media.LocalPath)
	assert.Equal(t, int64(2048), media.FileSize)
	assert.Zero(t, media.Latitude)
}

func TestMediaDescriptorEmpty(t *testing.T) {
	// Nessun percorso, titolo, dimensione o coordinata: niente media
	assert.Nil(t, mediaDescriptor(db.MessageRow{MessageType: 1, MediaItemID: 7}))
	// Tipo non multimediale
	assert.Nil(t, mediaDescriptor(db.MessageRow{MessageType: 0, MediaLocalPath: "x"}))
}

func TestMediaDescriptorCall(t *testing.T) {
	media := mediaDescriptor(db.MessageRow{MessageType: 59})
	require.NotNil(t, media)
	assert.Equal(t, "Appel vocal/vidéo", media.Title)
}

func TestDedupForwards(t *testing.T) {
	base := time.Date(2023, 5, 3, 14, 0, 0, 0, time.UTC)
	marker := &models.ForwardInfo{HashID: "AB12'xyZ3"}

	messages := []*models.Message{
		{ID: 1, Content: "même contenu", Date: base, ForwardMarker: marker},
		{ID: 2, Content: "même contenu", Date: base, ForwardMarker: marker},
		{ID: 3, Content: "autre contenu", Date: base, ForwardMarker: marker},
		{ID: 4, Content: "même contenu", Date: base},
	}

	result := dedupForwards(messages)
	require.Len(t, result, 3)
	assert.Equal(t, int64(1), result[0].ID)
	assert.Equal(t, int64(3), result[1].ID)
	// Il messaggio senza marcatore non viene mai deduplicato
	assert.Equal(t, int64(4), result[2].ID)
}
