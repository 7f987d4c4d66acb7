package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/code-payments/program-pinger/pkg/metrics"
	"github.com/code-payments/program-pinger/pkg/ping"
	"github.com/code-payments/program-pinger/pkg/solana"
)

const (
	newRelicLicenseKeyEnvName = "NEW_RELIC_LICENSE_KEY"
	newRelicAppNameEnvName    = "NEW_RELIC_APP_NAME"
	defaultNewRelicAppName    = "program-pinger"

	newRelicShutdownTimeout = 10 * time.Second
)

var flag = struct {
	LogLevel  string
	LogFormat string
	Program   string
	Space     uint64
}{}

var cmd = &cobra.Command{
	Use:           "ping",
	Short:         "Create a program owned account on a Solana cluster and ping the program with it",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return configureLogger(flag.LogLevel, flag.LogFormat, nil)
	},
}

var cmdRun = &cobra.Command{
	Use:   "run",
	Short: "Provision the client account if needed and send one ping",
	Args:  cobra.NoArgs,
	RunE:  run,
}

var cmdAddress = &cobra.Command{
	Use:   "address",
	Short: "Print the client account address without contacting the cluster",
	Args:  cobra.NoArgs,
	RunE:  address,
}

func init() {
	cmd.PersistentFlags().StringVar(&flag.LogLevel, "log-level", "info", "Log level")
	cmd.PersistentFlags().StringVar(&flag.LogFormat, "log-format", "text", "Log format, text or json")
	cmd.PersistentFlags().StringVar(&flag.Program, "program", ping.DefaultProgramName, "Name of the program to ping, resolved as <program path>/<name>-keypair.json")

	cmdRun.Flags().Uint64Var(&flag.Space, "space", ping.DefaultAccountSpace, "Data size of the client account, in bytes, if it has to be created")

	cmd.AddCommand(cmdRun, cmdAddress)
}

func main() {
	if err := cmd.Execute(); err != nil {
		logrus.StandardLogger().WithField("type", "cmd/ping").WithError(err).Error("failed")
		os.Exit(exitCode(err))
	}
}

func run(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app, err := newRelicApplication()
	if err != nil {
		return err
	}
	if app != nil {
		defer app.Shutdown(newRelicShutdownTimeout)

		if err := configureLogger(flag.LogLevel, flag.LogFormat, app); err != nil {
			return err
		}
		ctx = metrics.NewContext(ctx, app)
	}

	result, err := ping.New(ping.WithEnvConfigs()).Run(ctx, ping.Params{
		ProgramName:  flag.Program,
		AccountSpace: flag.Space,
	})
	if err != nil {
		return err
	}

	fmt.Println(result.PingSignature.String())
	return nil
}

func address(_ *cobra.Command, _ []string) error {
	derivation, err := ping.New(ping.WithEnvConfigs()).Derive(context.Background(), flag.Program)
	if err != nil {
		return err
	}

	fmt.Printf("owner:   %s\n", solana.PublicKeyString(derivation.Owner))
	fmt.Printf("program: %s\n", solana.PublicKeyString(derivation.Program.Address))
	fmt.Printf("seed:    %s\n", derivation.Seed)
	fmt.Printf("address: %s\n", solana.PublicKeyString(derivation.Address))
	if derivation.OnCurve {
		fmt.Println("warning: address lies on the ed25519 curve")
	}
	return nil
}

func newRelicApplication() (*newrelic.Application, error) {
	licenseKey := os.Getenv(newRelicLicenseKeyEnvName)
	if len(licenseKey) == 0 {
		return nil, nil
	}

	appName := os.Getenv(newRelicAppNameEnvName)
	if len(appName) == 0 {
		appName = defaultNewRelicAppName
	}

	return newrelic.NewApplication(
		newrelic.ConfigFromEnvironment(),
		newrelic.ConfigAppName(appName),
		newrelic.ConfigLicense(licenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		newrelic.ConfigAppLogForwardingEnabled(true),
	)
}

func configureLogger(logLevel, logFormat string, metricsProvider *newrelic.Application) error {
	var formatter logrus.Formatter
	switch strings.ToLower(logFormat) {
	case "text":
		formatter = &logrus.TextFormatter{FullTimestamp: true}
	case "json":
		formatter = &logrus.JSONFormatter{}
	default:
		return errors.Errorf("unknown log format %q", logFormat)
	}

	if metricsProvider != nil {
		formatter = metrics.NewCustomNewRelicLogFormatter(metricsProvider, formatter)
	}
	logrus.SetFormatter(formatter)

	level, err := logrus.ParseLevel(strings.ToLower(logLevel))
	if err != nil {
		logrus.StandardLogger().WithField("log_level", logLevel).Warn("unknown log level, ignoring")
	} else {
		logrus.SetLevel(level)
	}

	logrus.SetOutput(os.Stderr)
	return nil
}

func exitCode(err error) int {
	switch ping.KindOf(err) {
	case ping.KindConfiguration:
		return 2
	case ping.KindTransport:
		return 3
	case ping.KindRemoteRejection:
		return 4
	default:
		return 1
	}
}
