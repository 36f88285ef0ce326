package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/interpretive-systems/peekaboo/internal/config"
	"github.com/interpretive-systems/peekaboo/internal/prefs"
	"github.com/interpretive-systems/peekaboo/internal/stegoapi"
	"github.com/interpretive-systems/peekaboo/internal/tui"
)

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "tui",
		Short:       "Open the interactive interface (default)",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationInteractive: "true"},
		RunE:        a.runTUI,
	}
}

func (a *app) runTUI(cmd *cobra.Command, _ []string) error {
	client, err := a.newClient()
	if err != nil {
		return err
	}

	prefsPath, err := prefs.DefaultPath()
	if err != nil {
		a.log.Warn("prefs disabled", "err", err)
		prefsPath = ""
	}
	p := prefs.Load(prefsPath)

	startDir := p.LastDir
	if !p.LastDirSet {
		startDir, _ = os.Getwd()
	}
	colored := a.cfg.ColoredPreview
	if p.ColoredSet && !cmd.Flags().Changed(config.FlagNoColor) {
		colored = p.Colored
	}
	theme := tui.LoadTheme()

	a.log.Info("starting ui", "server", client.Server())
	return tui.Run(tui.Options{
		Remote:    client,
		Navigator: &stegoapi.Downloader{Client: client, Dir: a.cfg.DownloadDir},
		Timeout:   a.cfg.Timeout,
		Logger:    a.log,
		Colored:   colored,
		StartDir:  startDir,
		PrefsPath: prefsPath,
		Theme:     &theme,
	})
}
