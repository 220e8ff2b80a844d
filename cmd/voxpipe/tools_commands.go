package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"voxpipe/internal/audioanalysis"
	"voxpipe/internal/media/ffprobe"
	"voxpipe/internal/textclean"
	"voxpipe/internal/workflow"
)

func newClassifyCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:         "classify <wav>",
		Short:       "Classify a 16 kHz mono WAV as speech, mixed, or music",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			analysis, err := audioanalysis.ClassifyFile(args[0])
			if err != nil {
				return fmt.Errorf("classify %s: %w", args[0], err)
			}
			audioType, profile := workflow.SelectProfile(analysis)
			if jsonOutput {
				return writeJSON(cmd, struct {
					audioanalysis.Analysis
					Profile string `json:"asr_profile"`
				}{analysis, profile})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderDetails([][2]string{
				{"Type", audioType},
				{"Profile", profile},
				{"Duration", strconv.FormatFloat(analysis.DurationSeconds, 'f', 2, 64) + "s"},
				{"Speech ratio", strconv.FormatFloat(analysis.SpeechRatio, 'f', 3, 64)},
				{"Speech method", analysis.SpeechMethod},
				{"Music prob", strconv.FormatFloat(analysis.MusicProbability, 'f', 3, 64)},
				{"SNR (dB)", strconv.FormatFloat(analysis.SNREstimate, 'f', 2, 64)},
			}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON")
	return cmd
}

func newCleanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clean [text]",
		Short: "Clean a Persian transcript (reads stdin when no text is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var raw string
			if len(args) == 1 {
				raw = args[0]
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				raw = string(data)
			}
			cleaned, err := textclean.NewFromConfig(cfg, cliLogger(cfg)).Clean(cmd.Context(), raw)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cleaned)
			return nil
		},
	}
}

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "probe <file>",
		Short: "Report duration and audio streams using ffprobe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			binary := cfg.FFprobeBinary()
			seconds, err := ffprobe.Duration(cmd.Context(), binary, args[0])
			if err != nil {
				return err
			}
			result, inspectErr := ffprobe.Inspect(cmd.Context(), binary, args[0])

			limit := cfg.Limits.MaxSeconds
			if jsonOutput {
				payload := map[string]any{
					"duration_seconds": seconds,
					"max_seconds":      limit,
					"within_limit":     seconds <= float64(limit),
				}
				if inspectErr == nil {
					payload["audio_streams"] = result.AudioStreamCount()
					payload["format"] = result.Format.FormatName
				}
				return writeJSON(cmd, payload)
			}

			pairs := [][2]string{
				{"Duration", strconv.FormatFloat(seconds, 'f', 2, 64) + "s"},
				{"Within limit", fmt.Sprintf("%s (max %ds)", yesNo(seconds <= float64(limit)), limit)},
			}
			if inspectErr == nil {
				pairs = append(pairs,
					[2]string{"Format", dash(result.Format.FormatName)},
					[2]string{"Audio streams", strconv.Itoa(result.AudioStreamCount())},
				)
				if stream, ok := result.PrimaryAudio(); ok {
					pairs = append(pairs, [2]string{"Primary audio", strings.TrimSpace(fmt.Sprintf("%s %d Hz %dch", stream.CodecName, stream.SampleRateHz(), stream.Channels))})
				}
			}
			fmt.Fprint(cmd.OutOrStdout(), renderDetails(pairs))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON")
	return cmd
}
