package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/interpretive-systems/peekaboo/internal/preview"
	"github.com/interpretive-systems/peekaboo/internal/session"
	"github.com/interpretive-systems/peekaboo/internal/stegoapi"
)

const (
	flagCover      = "cover"
	flagPayload    = "payload"
	flagStego      = "stego"
	flagKey        = "key"
	flagPreview    = "preview"
	flagNoDownload = "no-download"
)

func newEmbedCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "embed --cover FILE --payload FILE",
		Short: "Hide the original photo inside a carrier photo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHeadless(cmd, session.OpEmbed, []staged{
				{slot: session.SlotCover, path: mustGetStringFlag(cmd, flagCover)},
				{slot: session.SlotPayload, path: mustGetStringFlag(cmd, flagPayload)},
			})
		},
	}
	cmd.Flags().String(flagCover, "", "Photo to hide (sent as the original)")
	cmd.Flags().String(flagPayload, "", "Carrier photo it is hidden in")
	_ = cmd.MarkFlagRequired(flagCover)
	_ = cmd.MarkFlagRequired(flagPayload)
	addHeadlessFlags(cmd)
	return cmd
}

func newExtractCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract --stego FILE",
		Short: "Recover the photo hidden in a stego photo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHeadless(cmd, session.OpExtract, []staged{
				{slot: session.SlotStego, path: mustGetStringFlag(cmd, flagStego)},
			})
		},
	}
	cmd.Flags().String(flagStego, "", "Stego photo to read")
	_ = cmd.MarkFlagRequired(flagStego)
	addHeadlessFlags(cmd)
	return cmd
}

func addHeadlessFlags(cmd *cobra.Command) {
	cmd.Flags().StringP(flagKey, "k", "", "Secret key (prompted when omitted)")
	cmd.Flags().Bool(flagPreview, false, "Print the returned preview as ASCII art")
	cmd.Flags().Bool(flagNoDownload, false, "Do not download the result")
}

// reportedError is a failure the notifier already printed.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }

// IsReported reports whether err was already shown to the user.
func IsReported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}

type staged struct {
	slot session.Slot
	path string
}

// runHeadless drives the same session the UI uses: stage, run, then follow
// the download locator.
func (a *app) runHeadless(cmd *cobra.Command, op session.Operation, files []staged) error {
	client, err := a.newClient()
	if err != nil {
		return err
	}
	dl := &stegoapi.Downloader{Client: client, Dir: a.cfg.DownloadDir}
	s := session.New(client,
		session.WithNavigator(dl),
		session.WithLogger(a.log),
		session.WithNotifier(session.NotifierFunc(func(msg string) {
			fmt.Fprintln(cmd.ErrOrStderr(), "peekaboo:", msg)
		})),
	)
	defer s.Close()

	s.Start()
	if op == session.OpExtract {
		s.SwitchTab(session.TabExtract)
	}
	for _, f := range files {
		pf, err := session.LoadFile(f.path)
		if err != nil {
			return err
		}
		if err := s.Stage(f.slot, pf); err != nil {
			return &reportedError{fmt.Errorf("%s: %w", f.path, err)}
		}
	}

	key, err := secretKey(cmd)
	if err != nil {
		return fmt.Errorf("read secret key: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := s.Run(ctx, op, key)
	if err != nil {
		return &reportedError{err}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s complete\n", op)
	if res.FileID != "" {
		fmt.Fprintf(out, "file id: %s\n", res.FileID)
	}

	if res.HasInlinePreview() {
		if mt, data, err := preview.ParseDataURL(res.Preview); err == nil {
			fmt.Fprintf(out, "preview: %s, %s\n", mt, humanize.IBytes(uint64(len(data))))
		}
		if mustGetBoolFlag(cmd, flagPreview) {
			if err := printPreview(out, res.Preview, a.cfg.ColoredPreview); err != nil {
				a.log.Warn("preview failed", "err", err)
			}
		}
	}

	switch {
	case res.DownloadURL == "":
		fmt.Fprintln(out, "no download available")
	case mustGetBoolFlag(cmd, flagNoDownload):
		u, err := client.ResolveURL(res.DownloadURL)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "download: %s\n", u)
	default:
		if err := s.ActivateDownload(ctx); err != nil {
			return fmt.Errorf("download: %w", err)
		}
		saved := dl.Last()
		if st, err := os.Stat(saved); err == nil {
			fmt.Fprintf(out, "saved %s (%s)\n", saved, humanize.IBytes(uint64(st.Size())))
		} else {
			fmt.Fprintf(out, "saved %s\n", saved)
		}
	}
	return nil
}

// secretKey returns --key, or prompts for it without echo on a terminal,
// or reads one line from stdin.
func secretKey(cmd *cobra.Command) (string, error) {
	if cmd.Flags().Changed(flagKey) {
		return mustGetStringFlag(cmd, flagKey), nil
	}
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Secret key: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		return string(b), err
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func printPreview(w io.Writer, dataURL string, colored bool) error {
	width := 60
	if tw, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && tw > 0 && tw < width {
		width = tw
	}
	art, err := preview.NewRenderer(width, 24, colored).RenderDataURL(dataURL)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, art)
	return nil
}
