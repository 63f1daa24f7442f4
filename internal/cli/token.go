package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"

	"github.com/mcoot/matchmaker/internal/dependencies/clock"
	"github.com/mcoot/matchmaker/internal/dependencies/random"
	"github.com/mcoot/matchmaker/internal/model"
	"github.com/mcoot/matchmaker/internal/services/auth"
)

// TokenResult is a minted token
type TokenResult struct {
	Token string `json:"token"`
}

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Token commands",
		Long: `Token commands.

lobby and dev mint tokens offline. They read the signing settings from the
same TOKEN_* environment variables as the server.`,
	}

	cmd.AddCommand(newTokenSaveCmd())
	cmd.AddCommand(newTokenLobbyCmd())
	cmd.AddCommand(newTokenDevCmd())

	return cmd
}

func newTokenSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save <token>",
		Short: "Save a token to the token file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.SaveToken(args[0]); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Token saved to " + cfg.TokenFile)
			return nil
		},
	}
}

func newTokenLobbyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lobby <namespace-id> <lobby-id>",
		Short: "Mint the token a lobby's game server reports lifecycle with",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := offlineAuth()
			if err != nil {
				return err
			}

			token, err := svc.IssueLobbyToken(model.NamespaceID(args[0]), model.SessionID(args[1]))
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(TokenResult{Token: token})
			return nil
		},
	}
}

func newTokenDevCmd() *cobra.Command {
	var (
		hostname  string
		portSpecs []string
	)

	cmd := &cobra.Command{
		Use:   "dev <namespace-id>",
		Short: "Mint a development token for a local game server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ports := make([]auth.DevPort, 0, len(portSpecs))
			for _, spec := range portSpecs {
				p, err := ParseDevPort(spec)
				if err != nil {
					return err
				}
				ports = append(ports, p)
			}

			svc, err := offlineAuth()
			if err != nil {
				return err
			}

			token, err := svc.IssueDevToken(model.NamespaceID(args[0]), hostname, ports)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(TokenResult{Token: token})
			return nil
		},
	}

	cmd.Flags().StringVar(&hostname, "hostname", "localhost", "Hostname of the local game server")
	cmd.Flags().StringArrayVarP(&portSpecs, "port", "p", nil, "Port as label:port:protocol or label:min-max:protocol (repeatable)")

	return cmd
}

// offlineAuth builds an auth service able to sign tokens without storage
func offlineAuth() (*auth.Service, error) {
	authCfg, err := env.ParseAsWithOptions[auth.Config](env.Options{Prefix: "TOKEN_"})
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOKEN_* environment variables: %w", err)
	}
	if authCfg.Secret == "" {
		return nil, errors.New("TOKEN_SECRET is required to mint tokens")
	}
	return auth.New(nil, clock.New(), random.New(), authCfg), nil
}

// ParseDevPort parses label:port:protocol or label:min-max:protocol
func ParseDevPort(spec string) (auth.DevPort, error) {
	parts := strings.Split(spec, ":")
	if len(parts) != 3 || parts[0] == "" {
		return auth.DevPort{}, fmt.Errorf("invalid port %q: want label:port:protocol", spec)
	}

	protocol := model.ProxyProtocol(parts[2])
	if _, ok := model.RunProtocolFor(protocol); !ok {
		return auth.DevPort{}, fmt.Errorf("invalid port %q: unknown protocol %q", spec, parts[2])
	}

	port := auth.DevPort{Label: parts[0], ProxyProtocol: protocol}

	if lo, hi, ok := strings.Cut(parts[1], "-"); ok {
		if protocol != model.ProxyProtocolTCP && protocol != model.ProxyProtocolUDP {
			return auth.DevPort{}, fmt.Errorf("invalid port %q: ranges need tcp or udp", spec)
		}
		minPort, err := parsePort(lo)
		if err != nil {
			return auth.DevPort{}, fmt.Errorf("invalid port %q: %w", spec, err)
		}
		maxPort, err := parsePort(hi)
		if err != nil {
			return auth.DevPort{}, fmt.Errorf("invalid port %q: %w", spec, err)
		}
		if minPort > maxPort {
			return auth.DevPort{}, fmt.Errorf("invalid port %q: range min exceeds max", spec)
		}
		port.PortRange = &model.PortRange{Min: minPort, Max: maxPort}
		return port, nil
	}

	target, err := parsePort(parts[1])
	if err != nil {
		return auth.DevPort{}, fmt.Errorf("invalid port %q: %w", spec, err)
	}
	port.TargetPort = &target
	return port, nil
}

func parsePort(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("bad port number %q", s)
	}
	return uint16(n), nil
}
