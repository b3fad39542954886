package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"rhfetch/broker"
	"rhfetch/internal"
	"rhfetch/utils"
)

var (
	baseURL         string
	sessionFile     string
	proxyURL        string
	quiet           bool
	debug           bool
	logLevel        string
	logFile         string
	persistPassword bool
	config          *internal.Config
)

var rootCmd = &cobra.Command{
	Use:     "rhfetch",
	Short:   "Log into the Robinhood API and bulk-download account documents",
	Version: "v1.0.0",
	Long: `rhfetch manages a Robinhood API session (including SMS/app MFA) and
downloads account documents -- statements, tax forms, confirmations --
into a per-type directory tree, honoring the server's download throttle.

Examples:
  rhfetch login -u someuser
  rhfetch status
  rhfetch docs -o ~/robinhood-docs
  rhfetch docs --type account_statement --limit-rate 1M
  rhfetch logout

Environment Variables:
  RHFETCH_BASE_URL          API base URL
  RHFETCH_SESSION_FILE      Path of the persisted session record
  RHFETCH_PROXY             Proxy URL (http, https or socks5)
  RHFETCH_TIMEOUT           HTTP timeout in seconds
  RHFETCH_MAX_ATTEMPTS      Throttle retry ceiling per document (0 = unbounded)
  RHFETCH_PERSIST_PASSWORD  Write the password into the session record (unsafe)`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfiguration(); err != nil {
			return fmt.Errorf("configuration error: %v", err)
		}

		if err := internal.InitLogger(config); err != nil {
			return fmt.Errorf("failed to initialize logger: %v", err)
		}

		internal.LogDebug("configuration loaded: base_url=%s, session_file=%s, timeout=%d",
			config.BaseURL, config.SessionFile, config.TimeoutSeconds)
		return nil
	},
}

// loadConfiguration builds the effective config: defaults, then
// environment, then explicitly set flags
func loadConfiguration() error {
	config = internal.DefaultConfig()
	config.LoadFromEnv()

	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if sessionFile != "" {
		config.SessionFile = sessionFile
	}
	if proxyURL != "" {
		config.ProxyURL = proxyURL
	}
	if logLevel != "" {
		config.LogLevel = logLevel
	}
	if logFile != "" {
		config.LogFile = logFile
	}
	if persistPassword {
		config.PersistPassword = true
	}
	config.EnableDebug = config.EnableDebug || debug
	config.QuietMode = config.QuietMode || quiet

	return config.ValidateConfig()
}

// newHTTPClient builds the transport from the effective config
func newHTTPClient() *utils.HTTPClient {
	return utils.NewHTTPClientWithConfig(&utils.HTTPClientConfig{
		Timeout:  time.Duration(config.TimeoutSeconds) * time.Second,
		ProxyURL: config.ProxyURL,
	})
}

// newSessionManager builds the session manager over the configured store
func newSessionManager() *broker.SessionManager {
	return broker.NewSessionManager(config, newHTTPClient(), broker.NewFileSessionStore(config.SessionFile))
}

// loadSession restores the persisted session or explains how to get one
func loadSession(manager *broker.SessionManager) (*internal.Session, error) {
	session, err := manager.Load()
	if err != nil {
		if internal.IsErrorType(err, internal.ErrNotFound) {
			return nil, fmt.Errorf("no saved session; run `rhfetch login` first")
		}
		if internal.IsErrorType(err, internal.ErrSessionExpired) {
			return nil, fmt.Errorf("saved session has expired; run `rhfetch login` again")
		}
		return nil, err
	}
	return session, nil
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate and persist the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		if username == "" {
			var err error
			username, err = utils.ReadLine(bufio.NewReader(os.Stdin), "Username: ", os.Stderr)
			if err != nil {
				return err
			}
		}

		manager := newSessionManager()
		// Password and MFA code are prompted interactively when needed
		session, err := manager.Authenticate(cmd.Context(), internal.Credentials{Username: username}, nil)
		if err != nil {
			return err
		}
		if err := manager.Save(); err != nil {
			return err
		}

		if !config.QuietMode {
			fmt.Printf("Logged in as %s (account %s), session valid until %s\n",
				session.Username, session.Account, session.ExpiresAt.Format(time.RFC1123))
		}
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Invalidate the remote token and delete the saved session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		manager := newSessionManager()
		if _, err := loadSession(manager); err != nil {
			return err
		}
		if err := manager.Logout(cmd.Context()); err != nil {
			return err
		}
		if !config.QuietMode {
			fmt.Println("Logged out.")
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the saved session's state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		manager := newSessionManager()
		session, err := loadSession(manager)
		if err != nil {
			return err
		}
		fmt.Printf("User:    %s\nAccount: %s\nExpires: %s\n",
			session.Username, session.Account, session.ExpiresAt.Format(time.RFC1123))
		return nil
	},
}

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Download all account documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		docType, _ := cmd.Flags().GetString("type")
		rateLimit, _ := cmd.Flags().GetString("limit-rate")
		maxAttempts, _ := cmd.Flags().GetInt("max-attempts")

		rateLimitBytes, err := utils.ParseRateLimit(rateLimit)
		if err != nil {
			return fmt.Errorf("invalid rate limit: %v (use formats like 1M, 500K or 1024)", err)
		}
		if maxAttempts < 0 {
			maxAttempts = config.MaxThrottleAttempts
		}

		manager := newSessionManager()
		session, err := loadSession(manager)
		if err != nil {
			return err
		}

		retriever := broker.NewRetriever(config, newHTTPClient())
		docs, err := retriever.ListDocuments(cmd.Context(), session)
		if err != nil {
			return err
		}

		if docType != "" {
			filtered := docs[:0]
			for _, doc := range docs {
				if doc.Type == docType {
					filtered = append(filtered, doc)
				}
			}
			docs = filtered
		}
		if len(docs) == 0 {
			fmt.Println("No documents to download.")
			return nil
		}

		internal.LogInfo("downloading %d documents to %s", len(docs), output)
		return retriever.DownloadAll(cmd.Context(), session, docs, &internal.DownloadConfig{
			TargetFolder: output,
			RateLimit:    rateLimitBytes,
			MaxAttempts:  maxAttempts,
			Quiet:        config.QuietMode,
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "API base URL")
	rootCmd.PersistentFlags().StringVar(&sessionFile, "session-file", "", "Path of the persisted session record")
	rootCmd.PersistentFlags().StringVar(&proxyURL, "proxy", "", "Proxy URL (http, https or socks5)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to a file instead of stderr")

	loginCmd.Flags().StringP("username", "u", "", "Account username")
	loginCmd.Flags().BoolVar(&persistPassword, "persist-password", false,
		"Write the password into the session record in plaintext (unsafe)")

	docsCmd.Flags().StringP("output", "o", "documents", "Target folder for downloaded documents")
	docsCmd.Flags().String("type", "", "Only download documents of this type")
	docsCmd.Flags().String("limit-rate", "", "Download bandwidth cap (e.g. 1M, 500K)")
	docsCmd.Flags().Int("max-attempts", -1, "Throttle retry ceiling per document (0 = unbounded)")

	rootCmd.AddCommand(loginCmd, logoutCmd, statusCmd, docsCmd)
}

// Execute runs the root command
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		var be *internal.BrokerError
		if errors.As(err, &be) {
			internal.LogBrokerError(be)
		}
	}
	return err
}
