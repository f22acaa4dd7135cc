package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nupi-ai/plugin-tts-srt-voice/internal/audio"
	"github.com/nupi-ai/plugin-tts-srt-voice/internal/voiceover"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var (
		srtPath   string
		reference string
		outPath   string
		speed     float64
		stretcher string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Synthesize every subtitle with a cloned voice and write one WAV track",
		Long: `Reads an SRT file, clones the voice in the reference WAV and writes a
mono 24 kHz WAV whose speech segments start and end exactly on the subtitle
timings. Gaps between subtitles are filled with silence.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig()
			if err != nil {
				return err
			}
			if stretcher != "" {
				cfg.Stretcher = stretcher
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			if reference == "" {
				reference = cfg.ReferenceAudio
			}
			if reference == "" {
				return errors.New("a reference voice is required (--reference or reference_audio)")
			}
			if !cmd.Flags().Changed("speed") {
				speed = cfg.Speed
			}

			subtitles, err := os.ReadFile(srtPath)
			if err != nil {
				return fmt.Errorf("read subtitles: %w", err)
			}
			voice, err := audio.ReadWAVFile(reference)
			if err != nil {
				return fmt.Errorf("read reference: %w", err)
			}

			logger := ctx.logger(cmd, cfg)
			svc, err := voiceover.FromConfig(cfg, logger, nil)
			if err != nil {
				return err
			}

			res, err := svc.Render(cmd.Context(), voiceover.Request{
				SubtitleText: string(subtitles),
				Reference:    voice,
				Speed:        speed,
			})
			if err != nil {
				return err
			}

			if outPath == "" {
				outPath = defaultOutputPath(srtPath)
			}
			if err := audio.WriteWAVFile(outPath, res.Waveform); err != nil {
				return fmt.Errorf("write output: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d entries, %.3fs at %d Hz\n",
				outPath, res.Entries, res.Waveform.Duration(), res.SampleRate)
			return nil
		},
	}

	cmd.Flags().StringVarP(&srtPath, "srt", "s", "", "SRT subtitle file")
	cmd.Flags().StringVarP(&reference, "reference", "r", "", "Reference voice WAV file")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output WAV path (defaults to the SRT path with .wav)")
	cmd.Flags().Float64Var(&speed, "speed", voiceover.DefaultSpeed, "Speech speed, 0.5 to 2.0 (accepted, not applied)")
	cmd.Flags().StringVar(&stretcher, "stretcher", "", "Time-stretch backend (wsola or ffmpeg)")
	_ = cmd.MarkFlagRequired("srt")

	return cmd
}

func defaultOutputPath(srtPath string) string {
	ext := filepath.Ext(srtPath)
	return srtPath[:len(srtPath)-len(ext)] + ".wav"
}
