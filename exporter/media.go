package exporter

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// MediaIndex localizza i file multimediali su disco. I percorsi registrati
// nel database sono relativi all'installazione originale e spesso non
// corrispondono più: l'indice per nome file costruito alla prima richiesta
// permette di ritrovarli comunque.
type MediaIndex struct {
	root    string
	indexed bool
	byName  map[string]string
}

// NewMediaIndex crea l'indice radicato nella directory indicata
func NewMediaIndex(root string) *MediaIndex {
	return &MediaIndex{root: root, byName: make(map[string]string)}
}

// Resolve cerca il file corrispondente a un percorso registrato nel database.
// Prova prima il percorso diretto sotto la radice, poi l'indice per nome.
func (mi *MediaIndex) Resolve(localPath string) (string, bool) {
	if localPath == "" || mi.root == "" {
		return "", false
	}

	direct := filepath.Join(mi.root, filepath.FromSlash(strings.TrimPrefix(localPath, "/")))
	if _, err := os.Stat(direct); err == nil {
		return direct, true
	}

	mi.buildIndex()
	if found, ok := mi.byName[filepath.Base(localPath)]; ok {
		return found, true
	}
	return "", false
}

// buildIndex percorre l'albero una sola volta e indicizza i file per nome.
// In caso di omonimi vince il primo incontrato.
func (mi *MediaIndex) buildIndex() {
	if mi.indexed {
		return
	}
	mi.indexed = true

	count := 0
	filepath.WalkDir(mi.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		name := d.Name()
		if _, ok := mi.byName[name]; !ok {
			mi.byName[name] = path
			count++
		}
		return nil
	})
	if count > 0 {
		fmt.Printf("📁 Indexed %d media files\n", count)
	}
}

// CopyInto copia un file media nella directory di esportazione e restituisce
// il percorso relativo da usare nei link. Il file viene saltato se già copiato.
func CopyInto(sourcePath, mediaDir string) (string, error) {
	if err := os.MkdirAll(mediaDir, 0o755); err != nil {
		return "", fmt.Errorf("errore nella creazione della directory media: %v", err)
	}

	name := filepath.Base(sourcePath)
	destPath := filepath.Join(mediaDir, name)
	relPath := filepath.ToSlash(filepath.Join(filepath.Base(mediaDir), name))

	if _, err := os.Stat(destPath); err == nil {
		return relPath, nil
	}

	source, err := os.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("errore nell'apertura del media: %v", err)
	}
	defer source.Close()

	dest, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("errore nella creazione della copia: %v", err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, source); err != nil {
		return "", fmt.Errorf("errore nella copia del media: %v", err)
	}
	return relPath, nil
}
