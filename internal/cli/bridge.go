package cli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/jask/shortcutquiz/internal/quiz"
	"github.com/jask/shortcutquiz/internal/service"
)

const maxBridgeLine = 4 << 20

func newBridgeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "bridge",
		Short: "Speak the quiz message protocol as JSON lines on stdin and stdout",
		Long: `bridge lets an external quiz front end drive the quiz. Every input line is
one message such as {"command":"ready"}; replies are written one per line.
The session ends on {"command":"quit"} or end of input.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.openWithTable(ctx); err != nil {
				return err
			}
			return serveBridge(ctx, app.shortcuts, cmd.InOrStdin(), cmd.OutOrStdout(), app.log)
		},
	}
}

// serveBridge answers messages read from r until quit or EOF. Bad lines are
// answered with an error message and do not end the session.
func serveBridge(ctx context.Context, svc *service.ShortcutService, r io.Reader, w io.Writer, log *zap.Logger) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxBridgeLine)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		msg, err := quiz.DecodeMessage(line)
		if err != nil {
			log.Warn("bad bridge message", zap.Error(err))
			if err := writeBridgeError(w, err); err != nil {
				return err
			}
			continue
		}
		if _, ok := msg.(quiz.Quit); ok {
			return nil
		}
		replies, err := svc.HandleMessage(ctx, msg)
		if err != nil {
			log.Warn("bridge message failed", zap.String("command", msg.Kind()), zap.Error(err))
			if err := writeBridgeError(w, err); err != nil {
				return err
			}
			continue
		}
		for _, reply := range replies {
			b, err := quiz.EncodeMessage(reply)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "%s\n", b); err != nil {
				return err
			}
		}
	}
	return sc.Err()
}

func writeBridgeError(w io.Writer, cause error) error {
	out, err := sjson.Set(`{"command":"error"}`, "message", cause.Error())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}
