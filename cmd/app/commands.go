package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"iso2god-desktop/internal/diagnostics"
	"iso2god-desktop/internal/domain"
	"iso2god-desktop/internal/engine"
)

func newInspectCommand(ctx *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <iso>",
		Short: "Print title metadata read from a disc image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.settings()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(settings)
			if err != nil {
				return err
			}

			proc := engine.NewProcess(settings.EnginePath, nil, logger)
			game, err := proc.ReadIso(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, gameRows(game), nil))
			return nil
		},
	}
}

func newDoctorCommand(ctx *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the converter and output folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.settings()
			if err != nil {
				return err
			}
			report := diagnostics.NewChecker().Run(settings)
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Check", "Status", "Message", "Hint"},
				reportRows(report),
				nil,
			))
			if report.HasFailures {
				return fmt.Errorf("%d check(s) failed", countFailures(report))
			}
			return nil
		},
	}
}

func gameRows(game domain.IsoGame) [][]string {
	rows := [][]string{
		{"Path", game.Path},
		{"Title", game.Title},
		{"Title ID", game.ID},
		{"Media ID", game.MediaID},
		{"Disc", fmt.Sprintf("%d/%d", game.DiscNumber, game.DiscCount)},
		{"Platform", game.Platform.Label()},
		{"Executable type", strconv.Itoa(game.ExecutableType)},
	}
	if game.ContentType != "" {
		rows = append(rows, []string{"Content type", game.ContentType})
	}
	return rows
}

func reportRows(report domain.DiagnosticReport) [][]string {
	rows := make([][]string, 0, len(report.Items))
	for _, item := range report.Items {
		rows = append(rows, []string{item.Name, string(item.Status), item.Message, item.Hint})
	}
	return rows
}

func countFailures(report domain.DiagnosticReport) int {
	n := 0
	for _, item := range report.Items {
		if item.Status == domain.DiagnosticStatusFail {
			n++
		}
	}
	return n
}
