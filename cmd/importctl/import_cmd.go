package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-import-api/internal/bootstrap"
	"github.com/noah-isme/sma-import-api/internal/models"
	"github.com/noah-isme/sma-import-api/internal/service"
)

func newImportCmd(kind, short string) *cobra.Command {
	var (
		file          string
		clearExisting bool
		reportFormat  string
		timeout       time.Duration
	)

	cmd := &cobra.Command{
		Use:   kind,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return usageError("open %s: %v", file, err)
			}
			defer f.Close() //nolint:errcheck

			return withContainer(func(c *bootstrap.Container) error {
				ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
				defer cancel()

				result, err := c.Imports.Import(ctx, service.ImportRequest{
					Type:          models.ImportType(kind),
					ClearExisting: clearExisting,
					ReportFormat:  reportFormat,
					File:          f,
				})
				if err != nil {
					return classify(err)
				}
				return finish(service.ImportStatus(result), result)
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the xlsx workbook (required)")
	cmd.Flags().BoolVar(&clearExisting, "clear-existing", false, "Delete existing users of this type first")
	cmd.Flags().StringVar(&reportFormat, "report", "", "Write a problem-row report (csv or pdf)")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "Abort the batch after this long")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
