package cmd

import (
	"fmt"
	"log"

	"github.com/gregriff/stegochat/configs"
	server "github.com/gregriff/stegochat/internal"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print relay event counts from the audit log",
	Args:  cobra.MaximumNArgs(0),
	Run:   printStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func printStats(_ *cobra.Command, _ []string) {
	conn, audit, err := server.OpenAudit(configs.Load().Audit.Path)
	if err != nil {
		log.Fatalf("error opening audit log: %v", err)
	}
	defer conn.Close()

	stats, err := audit.Stats()
	if err != nil {
		log.Fatal(err.Error())
	}
	for _, ec := range stats.Events {
		fmt.Printf("%-10s %-28s %d\n", ec.Kind, ec.Outcome, ec.Count)
	}
	fmt.Printf("%-39s %d\n", "total", stats.Total)
}
