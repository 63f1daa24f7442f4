package model

// protocolTable pairs each matchmaking protocol with its compute-run equivalent.
// It must stay a bijection.
var protocolTable = map[ProxyProtocol]RunProxyProtocol{
	ProxyProtocolHTTP:   RunProxyProtocolHTTP,
	ProxyProtocolHTTPS:  RunProxyProtocolHTTPS,
	ProxyProtocolTCP:    RunProxyProtocolTCP,
	ProxyProtocolTCPTLS: RunProxyProtocolTCPTLS,
	ProxyProtocolUDP:    RunProxyProtocolUDP,
}

// RunProtocolFor returns the compute-run protocol equivalent to p
func RunProtocolFor(p ProxyProtocol) (RunProxyProtocol, bool) {
	rp, ok := protocolTable[p]
	return rp, ok
}

// ProxyProtocolFor returns the matchmaking protocol equivalent to rp
func ProxyProtocolFor(rp RunProxyProtocol) (ProxyProtocol, bool) {
	for p, candidate := range protocolTable {
		if candidate == rp {
			return p, true
		}
	}
	return "", false
}

// ProtocolsEquivalent reports whether p and rp name the same protocol
func ProtocolsEquivalent(p ProxyProtocol, rp RunProxyProtocol) bool {
	expected, ok := protocolTable[p]
	return ok && expected == rp
}
