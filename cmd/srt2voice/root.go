package main

import (
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nupi-ai/plugin-tts-srt-voice/internal/adapterinfo"
	"github.com/nupi-ai/plugin-tts-srt-voice/internal/config"
	"github.com/nupi-ai/plugin-tts-srt-voice/internal/telemetry"
)

// commandContext carries the persistent flags shared by every subcommand.
type commandContext struct {
	configPath string
	logLevel   string
	stub       bool
}

func (c *commandContext) loadConfig() (config.Config, error) {
	cfg, err := config.LoadFile(c.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if c.stub {
		cfg.UseStubSynthesizer = true
	}
	return cfg, nil
}

func (c *commandContext) logger(cmd *cobra.Command, cfg config.Config) *slog.Logger {
	level := cfg.LogLevel
	if strings.TrimSpace(c.logLevel) != "" {
		level = c.logLevel
	}
	return telemetry.NewLogger(cmd.ErrOrStderr(), level)
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "srt2voice",
		Short:         "Render SRT subtitles into a timed voice-over track",
		Version:       adapterinfo.Version(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configPath, "config", "c", "", "TOML configuration file path")
	rootCmd.PersistentFlags().StringVar(&ctx.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&ctx.stub, "stub", false, "Use the tone generator instead of the TTS server")

	rootCmd.AddCommand(newRenderCommand(ctx))
	rootCmd.AddCommand(newCheckCommand())

	return rootCmd
}
