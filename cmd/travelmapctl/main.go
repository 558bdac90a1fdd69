package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	apiFlag     string
	verboseFlag bool
	rootCmd     = &cobra.Command{
		Use:   "travelmapctl",
		Short: "CLI client for the travel journal REST API",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.InfoLevel
			if verboseFlag {
				level = zerolog.DebugLevel
			}
			logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
				Level(level).With().Timestamp().Logger()
		},
	}
	logger = zerolog.Nop()
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:11546", "Travel journal service base URL")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "V", false, "Log requests")

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Record a memory, optionally with photos and videos",
		RunE: func(cmd *cobra.Command, args []string) error {
			place, _ := cmd.Flags().GetString("place")
			desc, _ := cmd.Flags().GetString("description")
			date, _ := cmd.Flags().GetString("date")
			files, _ := cmd.Flags().GetStringSlice("file")
			return runAdd(newClient(apiFlag), place, desc, date, files, os.Stdout)
		},
	}
	addCmd.Flags().StringP("place", "p", "", "Place name to geocode (required)")
	addCmd.Flags().StringP("description", "d", "", "Free text")
	addCmd.Flags().String("date", "", "YYYY-MM-DD, defaults to today")
	addCmd.Flags().StringSliceP("file", "f", nil, "Media file to attach (repeatable)")
	_ = addCmd.MarkFlagRequired("place")
	rootCmd.AddCommand(addCmd)

	addMediaCmd := &cobra.Command{
		Use:   "add-media <memoryId>",
		Short: "Attach media to an existing memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, _ := cmd.Flags().GetStringSlice("file")
			if len(files) == 0 {
				return fmt.Errorf("at least one --file required")
			}
			return runAddMedia(newClient(apiFlag), args[0], files, os.Stdout)
		},
	}
	addMediaCmd.Flags().StringSliceP("file", "f", nil, "Media file to attach (repeatable)")
	rootCmd.AddCommand(addMediaCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List memories, filtered by place or description",
		RunE: func(cmd *cobra.Command, args []string) error {
			query, _ := cmd.Flags().GetString("query")
			return runList(newClient(apiFlag), query, os.Stdout)
		},
	}
	listCmd.Flags().StringP("query", "q", "", "Case-insensitive search text")
	rootCmd.AddCommand(listCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "show <memoryId>",
		Short: "Show one memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(newClient(apiFlag), args[0], os.Stdout)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "select [memoryId]",
		Short: "Select a memory on the map; no argument clears the selection",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return runSelect(newClient(apiFlag), id, os.Stdout)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
