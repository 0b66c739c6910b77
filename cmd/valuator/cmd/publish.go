package cmd

import (
	"errors"
	"fmt"

	"github.com/aristath/valuator/internal/config"
	"github.com/aristath/valuator/internal/reliability"
	"github.com/spf13/cobra"
)

func newPublishCmd(root *rootOptions) *cobra.Command {
	var bucket, prefix string

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upload the artifacts to S3 or an S3-compatible store",
		Long: `Upload every *.json and *.xlsx file of the output directory to
s3://<bucket>/<prefix>/<name>. Set S3_ENDPOINT for S3-compatible stores.

Example:
  valuator publish --bucket my-site --prefix data`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.load(cmd, func(cfg *config.Config) {
				if bucket != "" {
					cfg.S3.Bucket = bucket
				}
				if cmd.Flags().Changed("prefix") {
					cfg.S3.Prefix = prefix
				}
			})
			if err != nil {
				return err
			}
			if !cfg.S3.Enabled() {
				return errors.New("no bucket configured (S3_BUCKET or --bucket)")
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			uploader, err := reliability.NewS3Uploader(ctx, reliability.S3Options{
				Region:          cfg.S3.Region,
				Endpoint:        cfg.S3.Endpoint,
				AccessKeyID:     cfg.S3.AccessKeyID,
				SecretAccessKey: cfg.S3.SecretAccessKey,
			})
			if err != nil {
				return err
			}

			publisher := reliability.NewPublisher(uploader, cfg.S3.Bucket, cfg.S3.Prefix, log)
			files, err := publisher.Publish(ctx, cfg.OutputDir)
			if err != nil {
				return err
			}

			for _, f := range files {
				fmt.Fprintf(cmd.OutOrStdout(), "s3://%s/%s\n", cfg.S3.Bucket, f.Key)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&bucket, "bucket", "", "target bucket (S3_BUCKET)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "key prefix (S3_PREFIX)")

	return cmd
}
