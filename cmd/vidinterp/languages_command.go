package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vidinterp/internal/language"
)

type languageView struct {
	Code   string `json:"code"`
	ISO3   string `json:"iso639_2"`
	Name   string `json:"name"`
	Native string `json:"native_name"`
}

func newLanguagesCommand() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:         "languages",
		Short:       "List supported transcription languages",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			codes := language.Codes()
			views := make([]languageView, 0, len(codes))
			for _, code := range codes {
				views = append(views, languageView{
					Code:   code,
					ISO3:   language.ToISO3(code),
					Name:   language.DisplayName(code),
					Native: language.NativeName(code),
				})
			}
			if jsonOut {
				return writeJSON(cmd, views)
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				rows = append(rows, []string{v.Code, v.ISO3, v.Name, v.Native})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{
				{header: "Code"},
				{header: "ISO 639-2"},
				{header: "Language"},
				{header: "Native"},
			}, rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}
