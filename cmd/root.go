// Package cmd contains all CLI commands for taskboard.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/SEP490-G11/Project-Round/internal/api"
	"github.com/SEP490-G11/Project-Round/internal/app"
	"github.com/SEP490-G11/Project-Round/internal/model"
	"github.com/SEP490-G11/Project-Round/internal/push"
	"github.com/SEP490-G11/Project-Round/internal/realtime"
	"github.com/SEP490-G11/Project-Round/internal/session"
	"github.com/SEP490-G11/Project-Round/internal/store"
)

var (
	cfgFile string
	verbose bool
	cfg     *model.AppConfig
	logger  *slog.Logger
	version = "dev"
)

// rootCmd launches the interactive terminal client when called without a
// subcommand.
var rootCmd = &cobra.Command{
	Use:   "taskboard",
	Short: "Terminal client for the team task board",
	Long: `taskboard is a terminal client for the team task board server.

Running it without a subcommand opens the interactive UI: task list,
task detail, notifications, and task management for admins.

Example usage:
  taskboard                    # Open the interactive UI
  taskboard login              # Log in from the command line
  taskboard export tasks.xlsx  # Download the task report (admin)
  taskboard logout             # Clear the stored session`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUI()
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string for the CLI.
func SetVersion(v string) {
	version = v
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.config/taskboard/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("server", "", "task board server base URL")

	_ = viper.BindPFlag("server.base_url", rootCmd.PersistentFlags().Lookup("server"))
}

// initConfig sets up the logger and loads the configuration file.
func initConfig() error {
	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	path := cfgFile
	if path == "" {
		path = model.DefaultConfigPath()
	}

	var err error
	cfg, err = model.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if s := viper.GetString("server.base_url"); s != "" {
		cfg.Server.BaseURL = s
	}

	logger.Debug("configuration loaded",
		"base_url", cfg.Server.BaseURL,
		"cache_path", cfg.CachePath,
	)

	return nil
}

// services holds the wired client stack shared by the UI and the
// command-line subcommands.
type services struct {
	sess      *session.Store
	client    *api.Client
	public    *api.Public
	auth      *api.AuthAPI
	tasks     *api.TaskAPI
	notifs    *api.NotificationAPI
	users     *api.UserAPI
	reports   *api.ReportAPI
	pushAPI   *api.PushAPI
	channel   *realtime.Channel
	registrar *push.Registrar
	cache     *store.SQLiteStore
}

// buildServices wires the session store, API client, realtime channel,
// push registrar, and snapshot cache from the loaded configuration.
func buildServices() (*services, error) {
	if cfg.Server.BaseURL == "" {
		return nil, fmt.Errorf("no server configured: set server.base_url in %s or pass --server", model.DefaultConfigPath())
	}

	sess := session.NewStore(session.KeyringBackend{})

	clientOpts := []api.Option{api.WithLogger(logger)}
	if cfg.Server.TimeoutSec > 0 {
		clientOpts = append(clientOpts, api.WithTimeout(time.Duration(cfg.Server.TimeoutSec)*time.Second))
	}
	client := api.NewClient(cfg.Server.BaseURL, sess, clientOpts...)
	public := api.NewPublic(cfg.Server.BaseURL, client.Jar())

	channelOpts := []realtime.ChannelOption{realtime.WithChannelLogger(logger)}
	if cfg.Server.ReconnectDelaySec > 0 {
		channelOpts = append(channelOpts, realtime.WithReconnectDelay(time.Duration(cfg.Server.ReconnectDelaySec)*time.Second))
	}
	channel := realtime.NewChannel(cfg.Server.ResolveWebSocketURL(), sess, channelOpts...)

	pushAPI := api.NewPushAPI(client)
	registrar := push.NewRegistrar(
		push.TerminalPlatform{}, pushAPI,
		cfg.Server.VAPIDPublicKey, uuid.NewString(), logger,
	)

	cachePath := cfg.CachePath
	if cachePath == "" {
		cachePath = model.DefaultCachePath()
	}
	cache, err := store.NewSQLiteStore(cachePath)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot cache: %w", err)
	}

	return &services{
		sess:      sess,
		client:    client,
		public:    public,
		auth:      api.NewAuthAPI(public, client, sess),
		tasks:     api.NewTaskAPI(client),
		notifs:    api.NewNotificationAPI(client),
		users:     api.NewUserAPI(client),
		reports:   api.NewReportAPI(client),
		pushAPI:   pushAPI,
		channel:   channel,
		registrar: registrar,
		cache:     cache,
	}, nil
}

// runUI wires the services and starts the Bubble Tea program.
func runUI() error {
	svc, err := buildServices()
	if err != nil {
		return err
	}
	defer svc.cache.Close()

	root := app.New(app.Deps{
		Config:    cfg,
		Session:   svc.sess,
		Client:    svc.client,
		Auth:      svc.auth,
		Tasks:     svc.tasks,
		Notifs:    svc.notifs,
		Users:     svc.users,
		Channel:   svc.channel,
		Registrar: svc.registrar,
		Cache:     svc.cache,
		Logger:    logger,
	})

	p := tea.NewProgram(root, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}
	svc.channel.Disconnect()
	return nil
}
