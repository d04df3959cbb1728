package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/maastricht-university/prosody-coach/capture"
	"github.com/maastricht-university/prosody-coach/clients"
	cfg "github.com/maastricht-university/prosody-coach/config"
	"github.com/maastricht-university/prosody-coach/orchestrator"
	"github.com/maastricht-university/prosody-coach/render"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logrus.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	v := cfg.NewViper()

	root := &cobra.Command{
		Use:           "prosody-coach",
		Short:         "Record, calibrate and score pronunciation against a reference speaker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	f := root.PersistentFlags()
	f.String("config", "", "path to config.yaml (default config/$CONFIG_ENV/config.yaml)")
	f.String("server", "", "analysis server base URL")
	f.String("log-level", "", "log level (debug, info, warn, error)")
	f.String("chapter", "", "chapter of the practised sentence")
	f.String("sentence", "", "sentence id within the chapter")
	f.String("outputs", "", "directory for rendered charts")

	for key, flag := range map[string]string{
		"config":            "config",
		"server.url":        "server",
		"app.log_level":     "log-level",
		"practice.chapter":  "chapter",
		"practice.sentence": "sentence",
		"paths.outputs":     "outputs",
	} {
		if err := v.BindPFlag(key, f.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	sessionCmd := newSessionCmd(v)
	root.AddCommand(sessionCmd, newAnalyzeCmd(v))
	root.RunE = sessionCmd.RunE
	return root
}

// setup loads configuration and the pieces shared by every command.
func setup(v *viper.Viper) (*cfg.Root, *clients.HTTP, error) {
	conf, err := cfg.Load(v)
	if err != nil {
		return nil, nil, err
	}
	lvl, err := logrus.ParseLevel(conf.App.LogLvl)
	if err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}
	logrus.SetLevel(lvl)
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	h, err := clients.NewHTTP(conf.Timeout())
	if err != nil {
		return nil, nil, err
	}
	return conf, h, nil
}

func newAnalyzeCmd(v *viper.Viper) *cobra.Command {
	var audio, calibration string
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Upload an existing recording and render its scores",
		RunE: func(cmd *cobra.Command, args []string) error {
			if audio == "" && len(args) > 0 {
				audio = args[0]
			}
			if audio == "" {
				return fmt.Errorf("usage: prosody-coach analyze --audio path/to/take.wav [--calibration calib.wav]")
			}
			conf, h, err := setup(v)
			if err != nil {
				return err
			}
			_, outDir, err := orchestrator.SessionDir(conf.Paths.Outputs)
			if err != nil {
				return err
			}

			p := orchestrator.NewPipeline(conf, h, &render.Renderer{Dir: outDir})
			rep, err := p.Run(cmd.Context(), orchestrator.RunRequest{
				AudioPath:       audio,
				CalibrationPath: calibration,
				Page:            orchestrator.PageContext{Chapter: conf.Practice.Chapter, Sentence: conf.Practice.Sentence},
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, rep.Score)
			fmt.Fprintf(out, "similarity chart: %s\npitch chart: %s\n", rep.Charts.Bar, rep.Charts.Pitch)
			return nil
		},
	}
	cmd.Flags().StringVar(&audio, "audio", "", "path to the practice recording (wav)")
	cmd.Flags().StringVar(&calibration, "calibration", "", "optional calibration recording (wav) uploaded first")
	return cmd
}

func newMicrophone(conf *cfg.Root) *capture.Microphone {
	return &capture.Microphone{
		SampleRate:      conf.Audio.SampleRate,
		Channels:        conf.Audio.Channels,
		FramesPerBuffer: conf.Audio.FramesPerBuffer,
	}
}
