package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/denisAlshanov/mediaresolver/internal/app"
	"github.com/denisAlshanov/mediaresolver/internal/models"
	"github.com/denisAlshanov/mediaresolver/internal/services/resolver"
)

var (
	flagCredential string
	flagPlatform   string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <url>",
	Short: "Resolve a post URL to playable stream URLs",
	Args:  cobra.ExactArgs(1),
	RunE:  resolveRun,
}

func init() {
	resolveCmd.Flags().StringVarP(&flagCredential, "credential", "c", "", "Session token overriding the configured one")
	resolveCmd.Flags().StringVarP(&flagPlatform, "platform", "p", "", "Platform hint: instagram | youtube | generic")
}

func resolveRun(cmd *cobra.Command, args []string) error {
	req := models.MediaRequest{
		RawURL:        args[0],
		CredentialRef: flagCredential,
	}
	if flagPlatform != "" {
		platform, ok := models.ParsePlatform(strings.ToLower(flagPlatform))
		if !ok {
			return fmt.Errorf("unknown platform %q", flagPlatform)
		}
		req.PlatformHint = platform
	}

	application, err := app.Build(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer application.Close()

	res, err := application.Resolver.Resolve(cmd.Context(), req)
	if err != nil {
		re := resolver.Classify(err)
		return fmt.Errorf("%s: %s", re.Kind, re.Error())
	}

	out := cmd.OutOrStdout()
	if flagJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(models.ResolveResponse{
			Status:       "success",
			Platform:     res.Platform,
			CanonicalURL: res.CanonicalURL,
			Title:        res.Title,
			VideoURL:     res.Selection.VideoURL,
			AudioURL:     res.Selection.AudioURL,
			Combined:     res.Selection.Combined,
		})
	}

	fmt.Fprintf(out, "Platform:  %s\n", res.Platform)
	fmt.Fprintf(out, "Canonical: %s\n", res.CanonicalURL)
	if res.Title != "" {
		fmt.Fprintf(out, "Title:     %s\n", res.Title)
	}
	if res.Selection.VideoURL != "" {
		fmt.Fprintf(out, "Video:     %s\n", res.Selection.VideoURL)
	}
	if res.Selection.AudioURL != "" {
		fmt.Fprintf(out, "Audio:     %s\n", res.Selection.AudioURL)
	}
	fmt.Fprintf(out, "Combined:  %t\n", res.Selection.Combined)
	return nil
}
