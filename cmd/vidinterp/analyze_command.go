package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vidinterp/internal/pipeline"
	"vidinterp/internal/runs"
	"vidinterp/internal/validate"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var task string
	var skipTranscription bool
	var jsonOut bool
	var outputPath string

	cmd := &cobra.Command{
		Use:   "analyze <video>",
		Short: "Analyze a video for the given task",
		Long: "Detect the workflow matching the task, sample frames, transcribe the audio,\n" +
			"dispatch frame batches to the configured agent and print the executive summary.\n\n" +
			"Accepted video formats: " + strings.Join(validate.VideoExtensions(), " "),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			catalog, err := ctx.catalog(logger)
			if err != nil {
				return err
			}

			var opts []pipeline.Option
			if cfg.History.Enabled {
				store, err := runs.Open(cfg)
				if err != nil {
					return fmt.Errorf("open run history: %w", err)
				}
				defer store.Close()
				opts = append(opts, pipeline.WithHistory(store))
			}

			orch, err := pipeline.New(cfg, catalog, logger, opts...)
			if err != nil {
				return err
			}
			result, err := orch.Analyze(cmd.Context(), pipeline.Request{
				VideoPath:         args[0],
				Task:              task,
				SkipTranscription: skipTranscription,
			})
			if err != nil {
				return err
			}

			if path := strings.TrimSpace(outputPath); path != "" {
				if err := writeJSONFile(path, result); err != nil {
					return err
				}
			}
			if jsonOut {
				return writeJSON(cmd, result)
			}
			return printAnalysis(cmd, result, outputPath)
		},
	}

	cmd.Flags().StringVarP(&task, "task", "t", "", "What to analyze in the video (required)")
	cmd.Flags().BoolVar(&skipTranscription, "skip-transcription", false, "Skip audio extraction and transcription")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the full result as JSON")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Also write the full result as JSON to this file")
	_ = cmd.MarkFlagRequired("task")
	return cmd
}

func printAnalysis(cmd *cobra.Command, result *pipeline.Result, outputPath string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run:         %s\n", result.RunID)
	fmt.Fprintf(out, "Workflow:    %s (%s)\n", result.Settings.Workflow, result.Workflow)
	fmt.Fprintf(out, "Frames:      %d at %g fps\n", len(result.Frames), result.Settings.FPS)
	fmt.Fprintf(out, "Batches:     %d\n", result.Analysis.NumAgents)
	fmt.Fprintf(out, "Transcribed: %s\n", yesNo(result.Transcript != nil))
	if result.TranscriptPath != "" {
		fmt.Fprintf(out, "Transcript:  %s\n", result.TranscriptPath)
	}
	if path := strings.TrimSpace(outputPath); path != "" {
		fmt.Fprintf(out, "Result:      %s\n", path)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, result.Analysis.ExecutiveSummary)
	return nil
}
