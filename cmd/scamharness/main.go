package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/PabloGalante/scam-harness/internal/adapters/detection"
	memstore "github.com/PabloGalante/scam-harness/internal/adapters/storage/memory"
	"github.com/PabloGalante/scam-harness/internal/app/conversation"
	"github.com/PabloGalante/scam-harness/internal/app/scenario"
	"github.com/PabloGalante/scam-harness/internal/config"
	"github.com/PabloGalante/scam-harness/internal/domain"
	"github.com/PabloGalante/scam-harness/internal/observability"
)

var (
	// Global flags
	verbose  bool
	apiURL   string
	useMock  bool
	language string
	channel  string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "scamharness",
	Short: "Test harness for a remote scam-detection service",
	Long: `scamharness drives conversations against a scam-detection API.

Messages are sent one at a time together with the conversation so far; the
service's verdict, extracted intelligence and agent replies are merged back
into a local session that can be replayed from scripted scenarios and exported.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(cmd)
		if err != nil {
			return err
		}

		logger, err = observability.Init(cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		observability.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "detection service base URL (overrides HARNESS_API_URL)")
	rootCmd.PersistentFlags().BoolVar(&useMock, "mock", false, "use the local mock detector instead of the remote service")

	rootCmd.AddCommand(serveCmd, playCmd, sendCmd, scenariosCmd, remoteCmd)
}

// loadConfig reads .env files and the environment, applies the flags on top and
// validates the result once.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if _, err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	c, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// flags override the environment
	if cmd.Flags().Changed("api-url") {
		c.APIURL = apiURL
	}
	if cmd.Flags().Changed("mock") {
		c.UseMockDetector = useMock
	}
	if verbose {
		c.LogLevel = "debug"
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// detector is either the remote client or the mock; both also expose the
// remote session endpoints.
type detector interface {
	domain.DetectionClient
	domain.RemoteSessions
}

func newDetector() (detector, error) {
	if cfg.UseMockDetector {
		logger.Info("using mock detector")
		return detection.NewMock(), nil
	}

	logger.Info("using detection service", zap.String("api_url", cfg.APIURL))
	return detection.NewClient(cfg.APIURL, cfg.APIKey, detection.WithTimeout(cfg.RequestTimeout))
}

// newService wires the orchestrator the same way for every command.
func newService() (*conversation.Service, error) {
	det, err := newDetector()
	if err != nil {
		return nil, err
	}

	catalog := scenario.NewCatalog()
	if cfg.ScenarioDir != "" {
		n, err := catalog.LoadDir(cfg.ScenarioDir)
		if err != nil {
			return nil, err
		}
		logger.Info("scenarios loaded", zap.String("dir", cfg.ScenarioDir), zap.Int("from_files", n))
	}

	lang, ch := cfg.DefaultLanguage, cfg.DefaultChannel
	if language != "" {
		lang = language
	}
	if channel != "" {
		ch = channel
	}

	svc := conversation.NewService(det,
		memstore.NewSessionStore(),
		memstore.NewTimelineStore(),
		memstore.NewLedgerStore(),
		conversation.WithCatalog(catalog),
		conversation.WithScheduler(scenario.NewScheduler(
			scenario.WithSettleDelay(cfg.SettleDelay),
			scenario.WithTurnInterval(cfg.TurnInterval),
		)),
		conversation.WithAutoReplyDelay(cfg.AutoReplyDelay),
		conversation.WithDefaults(lang, ch, cfg.AutoMode),
	)
	return svc, nil
}
