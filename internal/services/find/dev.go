package find

import (
	"fmt"
	"net"
	"strconv"

	"github.com/mcoot/matchmaker/internal/model"
	"github.com/mcoot/matchmaker/internal/services/auth"
)

// devLobby fabricates a session on the developer's local game server
func (s *Service) devLobby(ident *auth.Identity) (*model.JoinResult, error) {
	if ident.Dev == nil {
		return nil, fmt.Errorf("%w: development identity without bindings", model.ErrInternal)
	}

	player, err := s.tokens.IssueDevPlayerToken(ident.NamespaceID, model.PlayerID(s.random.NewID()))
	if err != nil {
		return nil, fmt.Errorf("issuing player token: %w", err)
	}

	return &model.JoinResult{
		SessionID: model.NilSessionID,
		Region: model.JoinRegion{
			ID:          model.DevRegionID,
			DisplayName: model.DevRegionDisplayName,
		},
		Ports:  DevPorts(ident.Dev),
		Player: player,
	}, nil
}

// DevPorts builds join ports for a developer's local game server
func DevPorts(dev *auth.DevBindings) map[string]model.JoinPort {
	out := make(map[string]model.JoinPort, len(dev.Ports))
	for _, p := range dev.Ports {
		jp := model.JoinPort{
			Hostname: dev.Hostname,
			IsTLS:    p.ProxyProtocol.IsTLS(),
		}
		if p.TargetPort != nil {
			port := *p.TargetPort
			host := net.JoinHostPort(dev.Hostname, strconv.Itoa(int(port)))
			jp.Host = &host
			jp.Port = &port
		}
		if p.PortRange != nil {
			pr := *p.PortRange
			jp.PortRange = &pr
		}
		out[p.Label] = jp
	}
	return out
}
