package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allProxyProtocols = []ProxyProtocol{
	ProxyProtocolHTTP,
	ProxyProtocolHTTPS,
	ProxyProtocolTCP,
	ProxyProtocolTCPTLS,
	ProxyProtocolUDP,
}

func TestProtocolTableIsBijection(t *testing.T) {
	seen := make(map[RunProxyProtocol]ProxyProtocol)
	for _, p := range allProxyProtocols {
		rp, ok := RunProtocolFor(p)
		require.True(t, ok, "no run protocol for %s", p)

		prev, dup := seen[rp]
		assert.False(t, dup, "%s and %s share run protocol %d", prev, p, rp)
		seen[rp] = p

		back, ok := ProxyProtocolFor(rp)
		require.True(t, ok)
		assert.Equal(t, p, back)
	}
	assert.Len(t, protocolTable, len(allProxyProtocols))
}

func TestProtocolsEquivalent(t *testing.T) {
	assert.True(t, ProtocolsEquivalent(ProxyProtocolHTTPS, RunProxyProtocolHTTPS))
	assert.False(t, ProtocolsEquivalent(ProxyProtocolHTTPS, RunProxyProtocolHTTP))
	assert.False(t, ProtocolsEquivalent(ProxyProtocolUDP, RunProxyProtocolUnknown))
	assert.False(t, ProtocolsEquivalent(ProxyProtocol("quic"), RunProxyProtocolUDP))
}

func TestUnknownRunProtocolHasNoEquivalent(t *testing.T) {
	_, ok := ProxyProtocolFor(RunProxyProtocolUnknown)
	assert.False(t, ok)
}

func TestIsTLS(t *testing.T) {
	assert.True(t, ProxyProtocolHTTPS.IsTLS())
	assert.True(t, ProxyProtocolTCPTLS.IsTLS())
	assert.False(t, ProxyProtocolHTTP.IsTLS())
	assert.False(t, ProxyProtocolTCP.IsTLS())
	assert.False(t, ProxyProtocolUDP.IsTLS())
}
