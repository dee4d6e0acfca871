package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"tinytrail/internal/engine/account"
	"tinytrail/internal/engine/analytics"
	"tinytrail/internal/engine/shorten"
	"tinytrail/internal/pkg/dates"
	"tinytrail/internal/pkg/logger"
	"tinytrail/internal/platform/config"
	"tinytrail/internal/platform/session"
	"tinytrail/internal/transport"
)

var (
	cfgPath   string
	startFlag string
	endFlag   string

	username string
	password string
	email    string

	store    *session.Store
	accounts *account.Service
	links    *shorten.Coordinator
	clicks   *analytics.Aggregator
)

var rootCmd = &cobra.Command{
	Use:           "tinytrail",
	Short:         "Command line client for the TinyTrail URL shortener",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		cfg, err := config.Load(cfgPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg = config.Default()
		}
		logger.Init(cfg.Logging)

		store = session.NewStore(cfg.Session.CredentialPath)
		store.Load()

		dispatcher := transport.NewDispatcher(cfg.API.BaseURL, cfg.API.Timeout, store)
		accounts = account.NewService(dispatcher, store)
		links = shorten.NewCoordinator(dispatcher, store, cfg.Client.BaseURL)
		clicks = analytics.NewAggregator(dispatcher)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate and persist the session credential",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := accounts.Login(cmd.Context(), username, password); err != nil {
			return err
		}
		fmt.Println("Logged in.")
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account (log in separately afterwards)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := accounts.Register(cmd.Context(), username, email, password); err != nil {
			return err
		}
		fmt.Println("Registered. Run `tinytrail login` to sign in.")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the session credential",
	Run: func(cmd *cobra.Command, args []string) {
		accounts.Logout()
		fmt.Println("Logged out.")
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the active session",
	RunE: func(cmd *cobra.Command, args []string) error {
		identity, err := store.Identity()
		if err != nil {
			return err
		}
		fmt.Printf("Logged in as %s\n", identity.Username)
		if !identity.ExpiresAt.IsZero() {
			fmt.Printf("Session expires %s\n", identity.ExpiresAt.Local().Format(time.RFC1123))
		}
		return nil
	},
}

var shortenCmd = &cobra.Command{
	Use:   "shorten <url>",
	Short: "Shorten a long URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		shortURL, err := links.Shorten(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(shortURL)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List your shortened URLs",
	RunE: func(cmd *cobra.Command, args []string) error {
		mappings, err := links.MyURLs(cmd.Context())
		if err != nil {
			return err
		}
		if len(mappings) == 0 {
			fmt.Println("No URLs yet.")
			return nil
		}
		for _, mapping := range mappings {
			fmt.Printf("%-30s %8d clicks  created %-12s  %s\n",
				links.Compose(mapping.ShortURL),
				mapping.ClickCount,
				dates.Display(mapping.CreatedDate),
				mapping.OriginalURL)
		}
		return nil
	},
}

var totalsCmd = &cobra.Command{
	Use:   "totals",
	Short: "Show total clicks per day across all your URLs",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := parseRange(startFlag, endFlag)
		if err != nil {
			return err
		}
		result, err := clicks.QueryTotals(cmd.Context(), r)
		if err != nil {
			return err
		}
		printSeries(result)
		return nil
	},
}

var analyticsCmd = &cobra.Command{
	Use:   "analytics <short-url>",
	Short: "Show clicks per day for one short URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := parseRange(startFlag, endFlag)
		if err != nil {
			return err
		}
		result, err := clicks.QueryURL(cmd.Context(), args[0], r)
		if err != nil {
			return err
		}
		printSeries(result)
		return nil
	},
}

// parseRange turns --start/--end day strings into a Range; unset flags
// default to the last month, matching the dashboard's initial window.
func parseRange(start, end string) (dates.Range, error) {
	var r dates.Range
	today := dates.Day(time.Now())

	if start == "" {
		r.Start = today.AddDate(0, -1, 0)
	} else {
		parsed, err := dates.ParseDay(start)
		if err != nil {
			return dates.Range{}, fmt.Errorf("invalid --start date: %w", err)
		}
		r.Start = parsed
	}

	if end == "" {
		r.End = today
	} else {
		parsed, err := dates.ParseDay(end)
		if err != nil {
			return dates.Range{}, fmt.Errorf("invalid --end date: %w", err)
		}
		r.End = parsed
	}
	return r, nil
}

func printSeries(result analytics.Result) {
	if len(result.Records) == 0 {
		fmt.Println("No clicks in this range.")
		return
	}
	for _, record := range result.Records {
		fmt.Printf("%-12s %8d\n", record.Date, record.Clicks)
	}
	fmt.Printf("%-12s %8d\n", "total", result.Total)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "configs/config.yaml", "path to config file")

	loginCmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	loginCmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	loginCmd.MarkFlagRequired("username")
	loginCmd.MarkFlagRequired("password")

	registerCmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	registerCmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	registerCmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	registerCmd.MarkFlagRequired("username")
	registerCmd.MarkFlagRequired("email")
	registerCmd.MarkFlagRequired("password")

	for _, cmd := range []*cobra.Command{totalsCmd, analyticsCmd} {
		cmd.Flags().StringVar(&startFlag, "start", "", "range start (YYYY-MM-DD), default one month ago")
		cmd.Flags().StringVar(&endFlag, "end", "", "range end (YYYY-MM-DD), default today")
	}

	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd, shortenCmd, listCmd, totalsCmd, analyticsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
