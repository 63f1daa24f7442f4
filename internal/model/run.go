package model

// RunProxyProtocol is the compute-run layer's proxy protocol vocabulary.
// It evolves independently of ProxyProtocol; see RunProtocolFor.
type RunProxyProtocol int

const (
	RunProxyProtocolUnknown RunProxyProtocol = iota
	RunProxyProtocolHTTP
	RunProxyProtocolHTTPS
	RunProxyProtocolTCP
	RunProxyProtocolTCPTLS
	RunProxyProtocolUDP
)

// HostNetworkMode is the network mode of a run's host network
const HostNetworkMode = "host"

// ProxiedPort is an endpoint exposed for a run through the shared ingress
type ProxiedPort struct {
	TargetLabel      string
	IngressHostnames []string
	IngressPort      uint16
	Protocol         RunProxyProtocol
}

// Network is a network attached to a run
type Network struct {
	Mode string
	IP   string
}

// Run is the compute run backing a session
type Run struct {
	ID           RunID
	RegionID     RegionID
	ProxiedPorts []ProxiedPort
	Networks     []Network
}

// HostNetwork returns the run's host-mode network, or nil
func (r *Run) HostNetwork() *Network {
	for i := range r.Networks {
		if r.Networks[i].Mode == HostNetworkMode {
			return &r.Networks[i]
		}
	}
	return nil
}
