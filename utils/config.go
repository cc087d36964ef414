package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Configurazione della sorgente dati (ChatStorage.sqlite)
type DatabaseConfig struct {
	Path       string `json:"path"`
	BackupMode bool   `json:"backup_mode"`
	BackupPath string `json:"backup_path"`
}

// Configurazione dell'esportazione
type ExportConfig struct {
	Dir       string `json:"dir"`
	MediaDir  string `json:"media_dir"`
	HistoryDB string `json:"history_db"`
	Timeline  bool   `json:"timeline_png"`
}

// Configurazione del server
type ServerConfig struct {
	Port int `json:"port"`
}

// Configurazione completa
type Config struct {
	Database DatabaseConfig `json:"database"`
	Export   ExportConfig   `json:"export"`
	Server   ServerConfig   `json:"server"`
}

// DefaultConfig restituisce la configurazione di base quando manca il file
func DefaultConfig() *Config {
	return &Config{
		Export: ExportConfig{
			Dir:       "conversations",
			HistoryDB: filepath.Join("conversations", "exports.db"),
		},
		Server: ServerConfig{Port: 8080},
	}
}

// Carica la configurazione dal file, con fallback ai default se assente
func LoadConfig(filePath string) (*Config, error) {
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("errore nell'apertura del file di configurazione: %v", err)
	}
	defer file.Close()

	config := DefaultConfig()
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("errore nella decodifica del file di configurazione: %v", err)
	}

	return config, nil
}
