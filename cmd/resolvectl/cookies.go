package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/denisAlshanov/mediaresolver/internal/services/storage"
)

var pushCookiesCmd = &cobra.Command{
	Use:   "push-cookies <file> <key>",
	Short: "Upload an exported Netscape cookie jar to the S3 bucket",
	Args:  cobra.ExactArgs(2),
	RunE:  pushCookiesRun,
}

var fs = afero.NewOsFs()

func pushCookiesRun(cmd *cobra.Command, args []string) error {
	path, key := args[0], args[1]

	ctx := cmd.Context()
	store, err := storage.NewCookieStore(ctx, &cfg.S3)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("S3_BUCKET_NAME is not set")
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return fmt.Errorf("reading cookie jar: %w", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("cookie jar %s is empty", path)
	}

	if err := store.Put(ctx, key, data); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s to s3://%s/%s\n", path, store.BucketName(), key)
	return nil
}
