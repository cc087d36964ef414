package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// SetupFileRoutes configura le route per scaricare i file esportati
func SetupFileRoutes(router *gin.Engine, exportDir string) {
	// Route per scaricare una conversazione esportata o un media copiato
	router.GET("/exports/*file", func(c *gin.Context) {
		fileName := strings.TrimPrefix(c.Param("file"), "/")
		if fileName == "" {
			c.String(http.StatusBadRequest, "Nome file mancante")
			return
		}

		// Blocca i tentativi di uscire dalla directory di esportazione
		filePath := filepath.Join(exportDir, filepath.Clean("/"+fileName))
		if !strings.HasPrefix(filePath, filepath.Clean(exportDir)+string(filepath.Separator)) {
			c.String(http.StatusBadRequest, "Percorso non valido")
			return
		}

		c.File(filePath)
	})
}
