package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"whatsapp-exporter/exporter"
	"whatsapp-exporter/handlers"
	"whatsapp-exporter/utils"
)

var (
	configPath string
	cfg        *utils.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "whatsapp-exporter",
		Short: "Esporta le conversazioni WhatsApp da ChatStorage.sqlite",
		Long: `Esportatore di conversazioni WhatsApp in testo leggibile.
Legge il database locale del client macOS o un backup estratto con
wtsexporter, ricostruisce reazioni e citazioni e genera la timeline
dell'umore della conversazione.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = utils.LoadConfig(configPath)
			return err
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json", "percorso del file di configurazione")

	rootCmd.AddCommand(exportCmd(), contactsCmd(), historyCmd(), serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
}

func exportCmd() *cobra.Command {
	var (
		limit      int
		recent     bool
		backup     bool
		backupPath string
		timeline   bool
	)

	cmd := &cobra.Command{
		Use:   "export <contatto>",
		Short: "Esporta la conversazione con un contatto",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if backup {
				cfg.Database.BackupMode = true
			}
			if backupPath != "" {
				cfg.Database.BackupMode = true
				cfg.Database.BackupPath = backupPath
			}
			if timeline {
				cfg.Export.Timeline = true
			}

			exp, err := exporter.New(cfg)
			if err != nil {
				return err
			}
			defer exp.Close()

			_, err = exp.ExportConversation(args[0], limit, recent)
			return err
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "numero massimo di messaggi (0 = tutti)")
	cmd.Flags().BoolVar(&recent, "recent", false, "applica il limite ai messaggi più recenti")
	cmd.Flags().BoolVar(&backup, "backup", false, "leggi da un backup invece del client locale")
	cmd.Flags().StringVar(&backupPath, "backup-path", "", "directory del backup estratto")
	cmd.Flags().BoolVar(&timeline, "timeline", false, "genera anche la timeline PNG dell'umore")
	return cmd
}

func contactsCmd() *cobra.Command {
	var reactions bool

	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "Elenca i contatti disponibili",
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := exporter.New(cfg)
			if err != nil {
				return err
			}
			defer exp.Close()

			if reactions {
				contacts, err := exp.ContactsWithReactions()
				if err != nil {
					return err
				}
				fmt.Printf("💬 %d contacts with reactions:\n", len(contacts))
				for _, c := range contacts {
					fmt.Printf("   %4d  %s (%s)\n", c.ReactionCount, c.Name, c.JID)
				}
				return nil
			}

			contacts, err := exp.AllContacts()
			if err != nil {
				return err
			}
			fmt.Printf("📇 %d contacts:\n", len(contacts))
			for _, c := range contacts {
				marker := ""
				if c.IsGroup {
					marker = " [groupe]"
				}
				fmt.Printf("   • %s%s\n", c.Name, marker)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&reactions, "reactions", false, "ordina per reazioni ricevute")
	return cmd
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Mostra lo storico delle esportazioni",
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := exporter.New(cfg)
			if err != nil {
				return err
			}
			defer exp.Close()

			records, err := exp.ExportHistory()
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("📭 No exports yet")
				return nil
			}
			for _, r := range records {
				fmt.Printf("%s  %s  %d messages  %s\n",
					r.ExportedAt.Format("2006-01-02 15:04"), r.ContactName, r.MessageCount, r.FilePath)
			}
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Avvia il server HTTP con le API di esportazione",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != 0 {
				cfg.Server.Port = port
			}

			exp, err := exporter.New(cfg)
			if err != nil {
				return err
			}
			defer exp.Close()

			gin.SetMode(gin.ReleaseMode)
			router := gin.Default()
			handlers.SetupAPIRoutes(router, exp)
			handlers.SetupFileRoutes(router, cfg.Export.Dir)

			addr := fmt.Sprintf(":%d", cfg.Server.Port)
			fmt.Printf("🌐 API server listening on %s\n", addr)
			return router.Run(addr)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "porta del server (default dalla configurazione)")
	return cmd
}
