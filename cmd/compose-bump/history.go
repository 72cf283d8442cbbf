package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nholik/compose-bump/internal/history"
)

var flagHistoryLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past update runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		log, err := history.NewFileStore(cfg.HistoryFile, logger).Load(cmd.Context())
		if err != nil {
			return err
		}
		if len(log.Records) == 0 {
			fmt.Println("No update runs recorded.")
			return nil
		}

		shown := 0
		for i := len(log.Records) - 1; i >= 0; i-- {
			if flagHistoryLimit > 0 && shown >= flagHistoryLimit {
				break
			}
			record := log.Records[i]
			line := fmt.Sprintf("%s  %-12s %s -> %s",
				record.FinishedAt.Format("2006-01-02 15:04:05"),
				record.Outcome, record.From, record.To)
			if record.Profile != "" {
				line += fmt.Sprintf("  [%s]", record.Profile)
			}
			if record.Error != "" {
				line += fmt.Sprintf("  (%s)", record.Error)
			}
			fmt.Println(line)
			shown++
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "maximum number of runs to show (0 for all)")
}
