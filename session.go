package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/maastricht-university/prosody-coach/capture"
	"github.com/maastricht-university/prosody-coach/orchestrator"
	"github.com/maastricht-university/prosody-coach/render"
	"github.com/maastricht-university/prosody-coach/ui"
)

// keymap maps a key to the element it presses in each section.
var keymap = map[string][2]ui.ID{
	"r": {ui.CalibRecordButton, ui.RecordButton},
	"s": {ui.CalibStopButton, ui.StopButton},
	"u": {ui.CalibUploadButton, ui.AnalyzeButton},
	"x": {"", ui.ReRecordButton},
	"p": {"", ui.RecordedAudio},
}

func keyLabels() map[ui.ID]string {
	out := map[ui.ID]string{}
	for k, ids := range keymap {
		for _, id := range ids {
			if id != "" {
				out[id] = k
			}
		}
	}
	return out
}

func newSessionCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Interactive calibration and practice from the microphone",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, h, err := setup(v)
			if err != nil {
				return err
			}
			if conf.Practice.Chapter == "" || conf.Practice.Sentence == "" {
				return fmt.Errorf("--chapter and --sentence are required for practice")
			}
			sid, outDir, err := orchestrator.SessionDir(conf.Paths.Outputs)
			if err != nil {
				return err
			}
			logrus.WithField("session", sid).Info("session started")

			page := orchestrator.NewPage(
				orchestrator.PageContext{Chapter: conf.Practice.Chapter, Sentence: conf.Practice.Sentence},
				orchestrator.Deps{
					Source:   newMicrophone(conf),
					Client:   h,
					Renderer: &render.Renderer{Dir: outDir},
					Player:   &capture.Speaker{SampleRate: conf.Audio.SampleRate},
					Objects:  &capture.Objects{Dir: outDir},
					Endpoints: orchestrator.Endpoints{
						Calibrate: conf.URL(conf.Endpoints.Calibrate),
						Analyze:   conf.URL(conf.Endpoints.Analyze),
					},
				},
			)
			return runSession(cmd.Context(), page, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// runSession reads one key per line and presses the matching element of
// whichever section is visible.
func runSession(ctx context.Context, page *orchestrator.Page, in io.Reader, out io.Writer) error {
	painter := ui.NewPainter(out)
	painter.Attach(page.Doc)
	labels := keyLabels()

	painter.Say("── %s ──", ui.Calibration)
	painter.Controls(page.Doc, labels)

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- strings.TrimSpace(sc.Text())
		}
	}()

	for {
		select {
		case <-ctx.Done():
			page.Wait()
			return nil
		case line, ok := <-lines:
			if !ok || line == "q" {
				page.Wait()
				return nil
			}
			if line == "" || line == "?" {
				painter.Controls(page.Doc, labels)
				continue
			}
			ids, known := keymap[line]
			if !known {
				painter.Say("unknown key %q, press ? for help", line)
				continue
			}
			section := 0
			if page.Doc.Hidden(ui.Calibration) {
				section = 1
			}
			if ids[section] == "" || !page.Press(ctx, ids[section]) {
				painter.Say("  not available right now")
				painter.Controls(page.Doc, labels)
			}
		}
	}
}
