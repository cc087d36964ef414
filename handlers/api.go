package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"whatsapp-exporter/exporter"
)

// SetupAPIRoutes configura tutte le rotte API
func SetupAPIRoutes(router *gin.Engine, exp *exporter.Exporter) {
	// Abilita CORS
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// API per ottenere tutti i contatti
	router.GET("/api/contacts", func(c *gin.Context) {
		contacts, err := exp.AllContacts()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Errore nel caricamento dei contatti: %v", err)})
			return
		}
		c.JSON(http.StatusOK, contacts)
	})

	// API per i contatti ordinati per reazioni ricevute
	router.GET("/api/contacts/reactions", func(c *gin.Context) {
		contacts, err := exp.ContactsWithReactions()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Errore nel conteggio delle reazioni: %v", err)})
			return
		}
		c.JSON(http.StatusOK, contacts)
	})

	// API per avviare un'esportazione
	router.POST("/api/export", func(c *gin.Context) {
		var request struct {
			Contact string `json:"contact"`
			Limit   int    `json:"limit"`
			Recent  bool   `json:"recent"`
		}
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Richiesta non valida"})
			return
		}
		if request.Contact == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Campo 'contact' obbligatorio"})
			return
		}

		record, err := exp.ExportConversation(request.Contact, request.Limit, request.Recent)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Errore nell'esportazione: %v", err)})
			return
		}
		c.JSON(http.StatusOK, record)
	})

	// API per lo storico delle esportazioni
	router.GET("/api/history", func(c *gin.Context) {
		records, err := exp.ExportHistory()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Errore nel caricamento dello storico: %v", err)})
			return
		}

		// Limite opzionale sul numero di risultati
		if limitParam := c.Query("limit"); limitParam != "" {
			if limit, err := strconv.Atoi(limitParam); err == nil && limit > 0 && limit < len(records) {
				records = records[:limit]
			}
		}
		c.JSON(http.StatusOK, records)
	})

	// API per rimuovere un'esportazione dallo storico
	router.DELETE("/api/history/:id", func(c *gin.Context) {
		id := c.Param("id")
		if id == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Identificativo mancante"})
			return
		}
		if err := exp.DeleteExport(id); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Errore nella rimozione dall'elenco: %v", err)})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": id})
	})
}
