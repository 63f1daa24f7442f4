package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mcoot/matchmaker/internal/api/request"
	"github.com/mcoot/matchmaker/internal/api/response"
)

func newLobbyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lobby",
		Short: "Lobby commands",
	}

	cmd.AddCommand(newLobbyFindCmd())
	cmd.AddCommand(newLobbyJoinCmd())
	cmd.AddCommand(newLobbyListCmd())
	cmd.AddCommand(newLobbyReadyCmd())
	cmd.AddCommand(newLobbyClosedCmd())

	return cmd
}

// captchaFlags collects a captcha solution from flags
type captchaFlags struct {
	hcaptcha  string
	turnstile string
}

func (f *captchaFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.hcaptcha, "hcaptcha", "", "hCaptcha client response")
	cmd.Flags().StringVar(&f.turnstile, "turnstile", "", "Turnstile client response")
	cmd.MarkFlagsMutuallyExclusive("hcaptcha", "turnstile")
}

func (f *captchaFlags) toRequest() *request.Captcha {
	switch {
	case f.hcaptcha != "":
		return &request.Captcha{HCaptcha: &request.CaptchaSolution{ClientResponse: f.hcaptcha}}
	case f.turnstile != "":
		return &request.Captcha{Turnstile: &request.CaptchaSolution{ClientResponse: f.turnstile}}
	default:
		return nil
	}
}

func newLobbyFindCmd() *cobra.Command {
	var (
		gameModes    []string
		regions      []string
		noAutoCreate bool
		captcha      captchaFlags
	)

	cmd := &cobra.Command{
		Use:   "find",
		Short: "Find or create a lobby of the given game modes",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := request.FindLobbyRequest{
				GameModes:              gameModes,
				PreventAutoCreateLobby: noAutoCreate,
				Captcha:                captcha.toRequest(),
			}
			if cmd.Flags().Changed("region") {
				req.Regions = regions
			}

			var result response.JoinResponse
			if err := client.Post("/lobbies/find", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&gameModes, "game-mode", "g", nil, "Game mode name, in preference order (repeatable, required)")
	cmd.Flags().StringSliceVarP(&regions, "region", "r", nil, "Region name, in preference order (repeatable; default nearest)")
	cmd.Flags().BoolVar(&noAutoCreate, "no-auto-create", false, "Never create a lobby")
	captcha.register(cmd)
	_ = cmd.MarkFlagRequired("game-mode")

	return cmd
}

func newLobbyJoinCmd() *cobra.Command {
	var captcha captchaFlags

	cmd := &cobra.Command{
		Use:   "join <lobby-id>",
		Short: "Join a specific lobby",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := request.JoinLobbyRequest{
				LobbyID: args[0],
				Captcha: captcha.toRequest(),
			}

			var result response.JoinResponse
			if err := client.Post("/lobbies/join", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	captcha.register(cmd)

	return cmd
}

func newLobbyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the namespace's lobbies and regions",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.ListLobbiesResponse
			if err := client.Get("/lobbies/list", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newLobbyReadyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ready",
		Short: "Mark the token's lobby as ready (lobby token)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post("/lobbies/ready", nil, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Lobby ready")
			return nil
		},
	}
}

func newLobbyClosedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "closed <true|false>",
		Short: "Close the token's lobby to new players, or reopen it (lobby token)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			isClosed, err := strconv.ParseBool(args[0])
			if err != nil {
				return fmt.Errorf("invalid value %q: must be true or false", args[0])
			}

			req := request.SetLobbyClosedRequest{IsClosed: isClosed}
			if err := client.Put("/lobbies/closed", req, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			if isClosed {
				out.PrintMessage("Lobby closed")
			} else {
				out.PrintMessage("Lobby opened")
			}
			return nil
		},
	}
}
