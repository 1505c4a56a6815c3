package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/frenesis/frenesis/internal/app"
	"github.com/frenesis/frenesis/internal/domain"
)

var (
	serverURL   string
	noAutoStart bool
	rootCmd     = &cobra.Command{
		Use:           "frenesis",
		Short:         "FRENESIS CLI - YouTube video, audio and playlist downloader",
		Long:          `A command-line interface for the FRENESIS download server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:5000", "Server URL")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")

	downloadCmd.Flags().StringP("format", "f", "", "Output format (mp4, mp3, playlist)")
	downloadCmd.Flags().StringP("quality", "q", "", "Quality (e.g. 720, best, 192)")
	downloadCmd.Flags().BoolP("watch", "w", false, "Follow progress until the download finishes")
	historyClearCmd.Flags().Bool("yes", false, "Confirm clearing the history")

	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyRetryCmd)
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(configCmd)
}

// ensureServer checks if server is running and starts it if needed (unless --no-auto-start)
func ensureServer() {
	if noAutoStart {
		return
	}
	if err := ensureServerRunning(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

var downloadCmd = &cobra.Command{
	Use:   "download [url]",
	Short: "Start downloading a URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()
		client := newAPIClient(serverURL)

		format, _ := cmd.Flags().GetString("format")
		quality, _ := cmd.Flags().GetString("quality")
		watch, _ := cmd.Flags().GetBool("watch")

		if !watch {
			session, err := client.Download(args[0], format, quality)
			if err != nil {
				return err
			}
			printSession(session)
			return nil
		}

		// Subscribe before starting so no event is missed
		conn, err := client.Events()
		if err != nil {
			return err
		}
		defer conn.Close()

		session, err := client.Download(args[0], format, quality)
		if err != nil {
			return err
		}
		printSession(session)

		record, err := watchDownload(conn, os.Stdout, session.StartedAt)
		if err != nil {
			return err
		}
		if record != nil && record.Status != domain.HistorySuccess {
			return fmt.Errorf("download %s: %s", record.Status, record.Details)
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current download",
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()
		s, err := newAPIClient(serverURL).Status()
		if err != nil {
			return err
		}

		fmt.Printf("State: %s\n", s.State)
		if s.Session != nil {
			fmt.Printf("  URL:      %s\n", s.Session.Request.URL)
			fmt.Printf("  Format:   %s (%s)\n", s.Session.Request.Format, s.Session.Request.Quality)
			fmt.Printf("  Progress: %.0f%%\n", s.Session.ProgressPercent)
			if s.Session.Speed != "" {
				fmt.Printf("  Speed:    %s\n", s.Session.Speed)
			}
			fmt.Printf("  ETA:      %s\n", domain.FormatETA(s.Session.ETASeconds))
		}
		if s.LastRecord != nil {
			fmt.Printf("Last: %s %s (%s)\n", s.LastRecord.Status, s.LastRecord.URL, s.LastRecord.Details)
		}
		return nil
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel the running download",
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()
		if err := newAPIClient(serverURL).Cancel(); err != nil {
			return err
		}
		fmt.Println("Download cancellation requested")
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent downloads",
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()
		records, err := newAPIClient(serverURL).History()
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No downloads yet")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tFORMAT\tURL\tWHEN\tDETAILS")
		for _, r := range records {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
				r.ID,
				r.Status,
				r.Format,
				truncate(r.URL, 40),
				r.Timestamp.Local().Format(time.DateTime),
				truncate(r.Details, 40))
		}
		return w.Flush()
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the download history",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			return errors.New("refusing to clear history without --yes")
		}

		ensureServer()
		if err := newAPIClient(serverURL).ClearHistory(); err != nil {
			return err
		}
		fmt.Println("History cleared")
		return nil
	},
}

var historyRetryCmd = &cobra.Command{
	Use:   "retry [id]",
	Short: "Download a history entry again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid record id %q", args[0])
		}

		ensureServer()
		session, err := newAPIClient(serverURL).Retry(id)
		if err != nil {
			return err
		}
		printSession(session)
		return nil
	},
}

var infoCmd = &cobra.Command{
	Use:   "info [url]",
	Short: "Show video details without downloading",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()
		info, err := newAPIClient(serverURL).VideoInfo(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Title:    %s\n", info.Title)
		fmt.Printf("Uploader: %s\n", info.Uploader)
		fmt.Printf("Duration: %s\n", info.Duration)
		fmt.Printf("Views:    %s\n", info.Views)
		fmt.Printf("Uploaded: %s\n", info.UploadDate)
		if len(info.Formats) > 0 {
			fmt.Println("Formats:")
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, f := range info.Formats {
				fmt.Fprintf(w, "  %s\t%s\t%s\n", f.Quality, f.Format, f.Size)
			}
			return w.Flush()
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a config file with default values",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := filepath.Join(os.Getenv("HOME"), ".frenesis", "config.yaml")
		if len(args) == 1 {
			path = args[0]
		}

		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s", path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		if err := app.SaveConfig(domain.DefaultConfig(), path); err != nil {
			return err
		}
		fmt.Printf("Config written to %s\n", path)
		return nil
	},
}

func printSession(session *domain.DownloadSession) {
	fmt.Printf("Download started!\n")
	fmt.Printf("ID:      %s\n", session.ID)
	fmt.Printf("URL:     %s\n", session.Request.URL)
	fmt.Printf("Format:  %s (%s)\n", session.Request.Format, session.Request.Quality)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
