package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/denisAlshanov/mediaresolver/internal/models"
	"github.com/denisAlshanov/mediaresolver/internal/services/credentials"
	"github.com/denisAlshanov/mediaresolver/internal/services/storage"
	"github.com/denisAlshanov/mediaresolver/internal/utils"
)

var checkSessionCmd = &cobra.Command{
	Use:   "check-session <instagram|youtube> [token]",
	Short: "Check that a session credential is accepted by the platform",
	Long: `Validates the configured credential for a platform, or the token given
as the second argument, with the same probe the server uses.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: checkSessionRun,
}

func checkSessionRun(cmd *cobra.Command, args []string) error {
	platform, ok := models.ParsePlatform(strings.ToLower(args[0]))
	if !ok || platform == models.PlatformGeneric {
		return fmt.Errorf("unsupported platform %q", args[0])
	}
	ref := ""
	if len(args) == 2 {
		ref = args[1]
	}

	ctx := cmd.Context()
	store, err := storage.NewCookieStore(ctx, &cfg.S3)
	if err != nil {
		return err
	}
	opts := []credentials.Option{}
	if store != nil {
		opts = append(opts, credentials.WithCookieStore(store))
	}
	provider := credentials.NewProvider(&cfg.Credentials, opts...)
	defer provider.Close()
	if err := provider.Load(ctx); err != nil {
		return err
	}

	cred, err := provider.Get(platform, ref)
	if err != nil {
		return err
	}
	if cred == nil {
		return fmt.Errorf("no %s credential configured", platform)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Source: %s\n", cred.Source)
	if cred.Token != "" {
		fmt.Fprintf(out, "Token:  %s\n", utils.MaskSecret(cred.Token))
	}

	// Force a probe even when validation is disabled for the configured credential.
	cred.Source = credentials.SourceRequest
	if !provider.Validate(ctx, cred) {
		return fmt.Errorf("%s session is invalid or expired", platform)
	}
	fmt.Fprintln(out, "Session is valid")
	return nil
}
