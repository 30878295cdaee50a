package main

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/comunidad/residence-service/pkg/residenceclient"
)

type rootOptions struct {
	baseURL string
	token   string
	timeout time.Duration
	retries int
}

func (o *rootOptions) client() residenceclient.ResidenceRepository {
	return residenceclient.New(residenceclient.Options{
		BaseURL:    o.baseURL,
		Token:      o.token,
		Timeout:    o.timeout,
		RetryCount: o.retries,
	})
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "residencectl",
		Short:        "Manage community residences and their occupants",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.baseURL, "url", envOr("RESIDENCE_API_URL", "http://localhost:8080"), "Residence API base URL")
	cmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("RESIDENCE_API_TOKEN"), "Bearer access token")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "Request timeout")
	cmd.PersistentFlags().IntVar(&opts.retries, "retries", 2, "Retries for read requests")

	cmd.AddCommand(
		newListCmd(opts),
		newGetCmd(opts),
		newCreateCmd(opts),
		newUpdateCmd(opts),
		newDeleteCmd(opts),
		newAssignCmd(opts),
		newReleaseCmd(opts),
		newHistoryCmd(opts),
	)
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
