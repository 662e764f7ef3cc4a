package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/lang"
	"github.com/ayusman/mudra/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List or clear past translations",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent translations, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		language, _ := cmd.Flags().GetString("language")
		since, _ := cmd.Flags().GetDuration("since")

		filter := store.TranslationFilter{Limit: limit}
		if language != "" {
			l, err := lang.Resolve(language)
			if err != nil {
				return err
			}
			filter.Language = l.Name
		}
		if since > 0 {
			filter.Since = time.Now().Add(-since)
		}

		return withStore(cmd, func(s *store.Store) error {
			list, err := s.Translations().List(filter)
			if err != nil {
				return fmt.Errorf("list translations: %w", err)
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No translations yet.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tLANGUAGE\tCONFIDENCE\tTEXT")
			for _, t := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.CreatedAt.Local().Format("2006-01-02 15:04:05"), t.Language, t.Confidence, t.Text)
			}
			return w.Flush()
		})
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every stored translation",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(s *store.Store) error {
			n, err := s.Translations().DeleteAll()
			if err != nil {
				return fmt.Errorf("clear history: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d translations.\n", n)
			return nil
		})
	},
}

func withStore(cmd *cobra.Command, fn func(*store.Store) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := ensureStoreDir(cfg); err != nil {
		return err
	}
	s, err := store.New(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func init() {
	historyListCmd.Flags().Int("limit", 20, "Maximum number of translations to show (0 for all)")
	historyListCmd.Flags().String("language", "", "Only show translations in this language")
	historyListCmd.Flags().Duration("since", 0, "Only show translations newer than this, e.g. 24h")

	historyCmd.AddCommand(historyListCmd, historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}
