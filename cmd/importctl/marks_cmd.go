package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-import-api/internal/bootstrap"
	"github.com/noah-isme/sma-import-api/internal/models"
	"github.com/noah-isme/sma-import-api/internal/service"
)

func newHistoricalMarksCmd() *cobra.Command {
	var (
		file string
		req  models.HistoricalMarkImportRequest
	)

	cmd := &cobra.Command{
		Use:   "historical-marks",
		Short: "Import marks a class earned in an earlier grade",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return usageError("open %s: %v", file, err)
			}
			defer f.Close() //nolint:errcheck

			return withContainer(func(c *bootstrap.Container) error {
				result, err := c.HistoricalMarks.Import(cmd.Context(), req, f)
				if err != nil {
					return classify(err)
				}
				return finish(service.HistoricalMarkStatus(result), result)
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the filled template (required)")
	cmd.Flags().StringVar(&req.TermName, "term", "", "Term name, created when missing (required)")
	cmd.Flags().StringVar(&req.ClassID, "class", "", "Class ID (required)")
	cmd.Flags().IntVar(&req.HistoricalGrade, "grade", 0, "Grade level the marks were earned in (required)")
	for _, name := range []string{"file", "term", "class", "grade"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newTemplateCmd() *cobra.Command {
	var (
		out string
		req models.HistoricalMarkTemplateRequest
	)

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write the historical-marks template of a class",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(func(c *bootstrap.Container) error {
				body, filename, err := c.HistoricalMarks.Template(cmd.Context(), req)
				if err != nil {
					return classify(err)
				}
				if out == "" {
					out = filename
				}
				if err := os.WriteFile(out, body, 0o644); err != nil {
					return usageError("write %s: %v", out, err)
				}
				return writeJSON(map[string]any{"file": out, "bytes": len(body)})
			})
		},
	}

	cmd.Flags().StringVar(&req.ClassID, "class", "", "Class ID (required)")
	cmd.Flags().IntVar(&req.HistoricalGrade, "grade", 0, "Grade level (required)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output path (defaults to the generated filename)")
	_ = cmd.MarkFlagRequired("class")
	_ = cmd.MarkFlagRequired("grade")
	return cmd
}
