package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"vidinterp/internal/runs"
)

const defaultHistoryLimit = 20

type runView struct {
	ID           string     `json:"id"`
	VideoPath    string     `json:"video_path"`
	Task         string     `json:"task"`
	Workflow     string     `json:"workflow,omitempty"`
	Status       string     `json:"status"`
	Frames       int        `json:"frames"`
	Batches      int        `json:"batches"`
	Transcribed  bool       `json:"transcribed"`
	ErrorMessage string     `json:"error_message,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var clear bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent analysis runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !cfg.History.Enabled {
				fmt.Fprintln(out, "Run history is disabled (history.enabled = false)")
				return nil
			}
			store, err := runs.Open(cfg)
			if err != nil {
				return fmt.Errorf("open run history: %w", err)
			}
			defer store.Close()

			if clear {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return fmt.Errorf("clear run history: %w", err)
				}
				fmt.Fprintf(out, "Removed %d run(s)\n", removed)
				return nil
			}

			list, err := store.List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			if jsonOut {
				views := make([]runView, 0, len(list))
				for _, run := range list {
					views = append(views, toRunView(run))
				}
				return writeJSON(cmd, views)
			}
			if len(list) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderTable(historyColumns(), historyRows(list)))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultHistoryLimit, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&clear, "clear", false, "Delete all recorded runs")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func historyColumns() []column {
	return []column{
		{header: "Run"},
		{header: "Started"},
		{header: "Status"},
		{header: "Workflow"},
		{header: "Frames", align: alignRight},
		{header: "Batches", align: alignRight},
		{header: "Audio"},
		{header: "Duration", align: alignRight},
		{header: "Task", maxWidth: 40},
	}
}

func historyRows(list []*runs.Run) [][]string {
	rows := make([][]string, 0, len(list))
	for _, run := range list {
		duration := "-"
		if d := run.Duration(); d > 0 {
			duration = d.Round(100 * time.Millisecond).String()
		}
		task := run.Task
		if run.ErrorMessage != "" {
			task += "\nerror: " + run.ErrorMessage
		}
		rows = append(rows, []string{
			shortRunID(run.ID),
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			string(run.Status),
			run.Workflow,
			strconv.Itoa(run.Frames),
			strconv.Itoa(run.Batches),
			yesNo(run.Transcribed),
			duration,
			task,
		})
	}
	return rows
}

func toRunView(run *runs.Run) runView {
	return runView{
		ID:           run.ID,
		VideoPath:    run.VideoPath,
		Task:         run.Task,
		Workflow:     run.Workflow,
		Status:       string(run.Status),
		Frames:       run.Frames,
		Batches:      run.Batches,
		Transcribed:  run.Transcribed,
		ErrorMessage: run.ErrorMessage,
		StartedAt:    run.StartedAt,
		FinishedAt:   run.FinishedAt,
	}
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
