package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("notice: .env not loaded: %v", err)
	}

	rootCmd := &cobra.Command{
		Use:          "storefront",
		Short:        "storefront backend",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(
		serveCommand(),
		migrateCommand(),
		reindexCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
