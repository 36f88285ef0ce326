package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/interpretive-systems/peekaboo/internal/config"
	"github.com/interpretive-systems/peekaboo/internal/logging"
	"github.com/interpretive-systems/peekaboo/internal/stegoapi"
)

const (
	flagConfig  = "config"
	flagEnvFile = "env-file"

	annotationInteractive = "interactive"
)

// app carries what every command needs once flags are parsed.
type app struct {
	cfg    config.Config
	log    logging.Logger
	closer io.Closer
}

func Execute() error {
	if err := newRootCmd().Execute(); err != nil {
		return fmt.Errorf("execute: %w", err)
	}
	return nil
}

func newRootCmd() *cobra.Command {
	a := &app{log: logging.Nop()}
	root := &cobra.Command{
		Use:   "peekaboo",
		Short: "Hide an image inside another image",
		Long: "Peekaboo: embed a photo inside a carrier photo with a secret key, " +
			"or extract it again, using a remote steganography service.",
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		Annotations:       map[string]string{annotationInteractive: "true"},
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) { a.close() },
		RunE:              a.runTUI,
	}

	pf := root.PersistentFlags()
	pf.String(flagConfig, "", "Config file (default: user config dir/peekaboo/config.yml)")
	pf.String(flagEnvFile, ".env", "Dotenv file with PEEKABOO_* settings")
	config.BindFlags(pf)

	root.AddCommand(newTUICmd(a), newEmbedCmd(a), newExtractCmd(a))
	return root
}

// setup resolves configuration and the logger. Interactive commands never
// log to the terminal the UI is drawn on.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.Sources{
		File:    mustGetStringFlag(cmd, flagConfig),
		EnvFile: mustGetStringFlag(cmd, flagEnvFile),
	})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ApplyFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	a.cfg = cfg

	switch {
	case cfg.LogFile != "":
		l, c, err := logging.OpenFile(cfg.LogFile, cfg.LogLevel)
		if err != nil {
			return err
		}
		a.log, a.closer = l, c
	case cmd.Annotations[annotationInteractive] == "true":
		if _, err := logging.New(io.Discard, cfg.LogLevel); err != nil {
			return err
		}
		a.log = logging.Nop()
	default:
		l, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
		if err != nil {
			return err
		}
		a.log = l
	}
	a.log.Debug("config resolved", "server", cfg.Server, "timeout", cfg.Timeout, "out", cfg.DownloadDir)
	return nil
}

func (a *app) close() {
	if a.closer != nil {
		_ = a.closer.Close()
		a.closer = nil
	}
}

// newClient builds the service client from the resolved config.
func (a *app) newClient() (*stegoapi.Client, error) {
	return stegoapi.New(a.cfg.Server,
		stegoapi.WithTimeout(a.cfg.Timeout),
		stegoapi.WithRateLimit(a.cfg.RateLimit, 1),
		stegoapi.WithLogger(a.log),
	)
}

func mustGetStringFlag(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		fmt.Fprintln(os.Stderr, "flag error:", err)
		os.Exit(2)
	}
	return v
}

func mustGetBoolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		fmt.Fprintln(os.Stderr, "flag error:", err)
		os.Exit(2)
	}
	return v
}
