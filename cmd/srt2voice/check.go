package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nupi-ai/plugin-tts-srt-voice/internal/subtitle"
)

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file.srt>",
		Short: "Parse and validate an SRT file without synthesizing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read subtitles: %w", err)
			}
			entries, err := subtitle.ParseBytes(data)
			if err != nil {
				return err
			}
			if err := subtitle.Validate(entries); err != nil {
				return err
			}

			var speech float64
			for _, e := range entries {
				speech += e.Duration()
			}
			total := subtitle.End(entries)
			fmt.Fprintf(cmd.OutOrStdout(), "%d entries, %.3fs track, %.3fs of speech\n", len(entries), total, speech)
			return nil
		},
	}
}
