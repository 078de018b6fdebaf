// agencydesk is the terminal admin client for the insurance-agency
// API: customer and policy CRUD, stats, exports and an interactive
// dashboard.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"agencydesk/internal/api"
	"agencydesk/internal/auth"
	"agencydesk/internal/config"
	"agencydesk/internal/customer"
	"agencydesk/internal/insurance"
	"agencydesk/internal/logging"
	"agencydesk/internal/query"
	"agencydesk/internal/resource"
	"agencydesk/internal/store"
)

var (
	// Global flags
	configPath string
	apiURL     string
	verbose    bool

	// Wired collaborators, built in PersistentPreRunE.
	cfg      *config.Config
	sessions *auth.Sessions
	authMgr  *auth.Manager
	client   *api.Client
	cache    *query.Cache
	notices  *query.Notices
	journal  *store.Activity
	services map[string]*resource.Service
)

// entityOrder fixes the command and dashboard tab order.
var entityOrder = []string{"customer", "health-insurance", "life-insurance", "vehicle-insurance"}

var rootCmd = &cobra.Command{
	Use:   "agencydesk",
	Short: "Terminal admin client for the insurance-agency API",
	Long: `agencydesk manages an insurance agency's customers and policies
(health, life, vehicle) against the agency REST API: list and stat
views, create/edit forms with document upload, soft delete and
restore, spreadsheet exports, and an interactive dashboard.

Run 'agencydesk dashboard' for the interactive UI, or use the
per-entity command groups directly.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath == "" {
			configPath = config.DefaultPath()
		}
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if apiURL != "" {
			cfg.API.BaseURL = apiURL
		}
		if verbose {
			cfg.Logging.Enabled = true
			cfg.Logging.Level = "debug"
		}
		if err := logging.Initialize(cfg.LogDir(), logging.Options{
			Enabled:    cfg.Logging.Enabled,
			Level:      cfg.Logging.Level,
			Categories: cfg.Logging.Categories,
		}); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}

		sessions = auth.NewSessions()
		authMgr = auth.NewManager(cfg.CredentialsPath(), cfg.ProfilePath(), sessions)
		client = api.New(cfg.API.BaseURL, cfg.APITimeout(), authMgr)
		cache = query.NewCache()
		notices = query.NewNotices()

		// The journal is best-effort local state; a broken db must not
		// take the whole CLI down.
		journal, err = store.Open(cfg.ActivityDBPath())
		if err != nil {
			logging.Audit("activity journal unavailable: %v", err)
			journal = nil
		}

		services = map[string]*resource.Service{}
		for _, desc := range []resource.Descriptor{
			customer.Descriptor,
			insurance.Health,
			insurance.Life,
			insurance.Vehicle,
		} {
			var j resource.Journal
			if journal != nil {
				j = journal
			}
			services[desc.Name] = resource.New(client, cache, notices, j, desc)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if journal != nil {
			_ = journal.Close()
		}
		logging.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.agencydesk/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "override the API base URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(loginCmd, logoutCmd, statusCmd, dashboardCmd, activityCmd)
	for _, name := range entityOrder {
		rootCmd.AddCommand(newEntityCmd(name))
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
