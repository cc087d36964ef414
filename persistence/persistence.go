package persistence

import (
	"bytes"
	"encoding/gob"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.etcd.io/bbolt"
	"whatsapp-exporter/models"
)

var exportsBucket = []byte("exports")

// ExportHistory registra le esportazioni effettuate su un database bbolt
type ExportHistory struct {
	db *bbolt.DB
}

// NewExportHistory apre (o crea) lo storico al percorso indicato
func NewExportHistory(path string) (*ExportHistory, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(exportsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &ExportHistory{db: db}, nil
}

// Salva un'esportazione
func (h *ExportHistory) SaveExport(record models.ExportRecord) error {
	return h.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(exportsBucket)
		data, err := encodeToBinary(record)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(record.ID), data)
	})
}

// Carica tutte le esportazioni, dalla più recente
func (h *ExportHistory) ListExports() ([]models.ExportRecord, error) {
	var records []models.ExportRecord

	err := h.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(exportsBucket)
		cursor := bucket.Cursor()

		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			var record models.ExportRecord
			if err := decodeBinary(v, &record); err != nil {
				continue
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].ExportedAt.After(records[j].ExportedAt)
	})
	return records, nil
}

// Cancella un'esportazione dallo storico
func (h *ExportHistory) DeleteExport(id string) error {
	return h.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(exportsBucket)
		return bucket.Delete([]byte(id))
	})
}

func (h *ExportHistory) Close() error {
	return h.db.Close()
}

func encodeToBinary(data interface{}) ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(data)
	return buf.Bytes(), err
}

func decodeBinary(data []byte, target interface{}) error {
	buf := bytes.NewBuffer(data)
	return gob.NewDecoder(buf).Decode(target)
}
