package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/matchmaker/internal/api/response"
)

const healthPollInterval = 250 * time.Millisecond

func newHealthCmd() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Long: `Check that the matchmaker API is serving.

With --wait, poll until the server answers or the duration elapses,
which is useful when scripting against a server that is still starting.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := pollHealth(wait)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 0, "Keep retrying for up to this long")
	return cmd
}

func pollHealth(wait time.Duration) (response.Health, error) {
	deadline := time.Now().Add(wait)
	for {
		var result response.Health
		err := client.Get("/health", &result)
		if err == nil {
			return result, nil
		}
		if !time.Now().Before(deadline) {
			if wait > 0 {
				return result, fmt.Errorf("server not healthy after %s: %w", wait, err)
			}
			return result, err
		}
		time.Sleep(healthPollInterval)
	}
}
