// Package ports translates a game mode's declared ports into the endpoints
// clients use to reach a session's compute run.
package ports

import (
	"fmt"
	"net"
	"strconv"

	"github.com/mcoot/matchmaker/internal/model"
)

// runPortLabelPrefix is prepended to a port label by the compute-run layer
const runPortLabelPrefix = "game_"

// RunPortLabel returns the label the compute run uses for a declared port
func RunPortLabel(label string) string {
	return runPortLabelPrefix + label
}

// Translate resolves a declared port against a compute run. A proxied port
// with no matching endpoint yields a nil JoinPort and no error.
// Configuration that cannot be served returns model.ErrInvalidPortConfig.
func Translate(run *model.Run, port model.PortDecl) (string, *model.JoinPort, error) {
	switch port.ProxyKind {
	case model.ProxyKindProxied:
		return port.Label, translateProxied(run, port), nil
	case model.ProxyKindDirect:
		jp, err := translateDirect(run, port)
		if err != nil {
			return "", nil, err
		}
		return port.Label, jp, nil
	default:
		return "", nil, fmt.Errorf("%w: port %q has unknown proxy kind %q", model.ErrInvalidPortConfig, port.Label, port.ProxyKind)
	}
}

// TranslateAll translates every declared port, omitting unmatched proxied ports
func TranslateAll(run *model.Run, decls []model.PortDecl) (map[string]model.JoinPort, error) {
	out := make(map[string]model.JoinPort, len(decls))
	for _, decl := range decls {
		label, jp, err := Translate(run, decl)
		if err != nil {
			return nil, err
		}
		if jp != nil {
			out[label] = *jp
		}
	}
	return out, nil
}

func translateProxied(run *model.Run, port model.PortDecl) *model.JoinPort {
	target := RunPortLabel(port.Label)
	for _, pp := range run.ProxiedPorts {
		if pp.TargetLabel != target || !model.ProtocolsEquivalent(port.ProxyProtocol, pp.Protocol) {
			continue
		}
		if len(pp.IngressHostnames) == 0 {
			continue
		}

		hostname := pp.IngressHostnames[0]
		ingressPort := pp.IngressPort
		host := net.JoinHostPort(hostname, strconv.Itoa(int(ingressPort)))
		return &model.JoinPort{
			Host:     &host,
			Hostname: hostname,
			Port:     &ingressPort,
			IsTLS:    port.ProxyProtocol.IsTLS(),
		}
	}
	return nil
}

func translateDirect(run *model.Run, port model.PortDecl) (*model.JoinPort, error) {
	switch port.ProxyProtocol {
	case model.ProxyProtocolTCP, model.ProxyProtocolUDP:
	default:
		return nil, fmt.Errorf("%w: direct port %q cannot use protocol %q", model.ErrInvalidPortConfig, port.Label, port.ProxyProtocol)
	}

	if port.PortRange == nil {
		return nil, fmt.Errorf("%w: direct port %q has no port range", model.ErrInvalidPortConfig, port.Label)
	}

	network := run.HostNetwork()
	if network == nil {
		return nil, fmt.Errorf("%w: run %s has no host network for port %q", model.ErrInvalidPortConfig, run.ID, port.Label)
	}

	portRange := *port.PortRange
	return &model.JoinPort{
		Hostname:  network.IP,
		PortRange: &portRange,
		IsTLS:     false,
	}, nil
}
