package discovery

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTXTRoundTrip(t *testing.T) {
	info := ServerInfo{
		Name:        "beamline-7",
		Port:        8080,
		WSPath:      "/ws",
		Description: "sector 7 dashboard server",
	}

	records := EncodeTXT(info)
	assert.Contains(t, records, "v=1")
	assert.Contains(t, records, "path=/ws")

	decoded, err := DecodeTXT(records)
	require.NoError(t, err)
	assert.Equal(t, "/ws", decoded.WSPath)
	assert.Equal(t, "sector 7 dashboard server", decoded.Description)
}

func TestDecodeTXT(t *testing.T) {
	t.Run("DefaultsPath", func(t *testing.T) {
		info, err := DecodeTXT([]string{"v=1"})
		require.NoError(t, err)
		assert.Equal(t, "/ws", info.WSPath)
	})

	t.Run("IgnoresUnknownKeys", func(t *testing.T) {
		_, err := DecodeTXT([]string{"v=1", "future=stuff"})
		assert.NoError(t, err)
	})

	t.Run("MalformedRecord", func(t *testing.T) {
		_, err := DecodeTXT([]string{"no-equals-sign"})
		assert.ErrorIs(t, err, ErrBadTXT)
	})

	t.Run("BadVersion", func(t *testing.T) {
		_, err := DecodeTXT([]string{"v=banana"})
		assert.ErrorIs(t, err, ErrBadTXT)
	})
}

func TestWSURL(t *testing.T) {
	t.Run("IPv4", func(t *testing.T) {
		svc := &ServerService{
			ServerInfo: ServerInfo{Name: "s", Port: 8080, WSPath: "/ws"},
			Addresses:  []net.IP{net.ParseIP("192.168.1.20")},
		}
		assert.Equal(t, "ws://192.168.1.20:8080/ws", svc.WSURL())
	})

	t.Run("IPv6Bracketed", func(t *testing.T) {
		svc := &ServerService{
			ServerInfo: ServerInfo{Name: "s", Port: 9000},
			Addresses:  []net.IP{net.ParseIP("fe80::1")},
		}
		assert.Equal(t, "ws://[fe80::1]:9000/ws", svc.WSURL())
	})

	t.Run("NoAddresses", func(t *testing.T) {
		svc := &ServerService{ServerInfo: ServerInfo{Name: "s", Port: 8080}}
		assert.Equal(t, "", svc.WSURL())
	})
}

func TestMergeAddresses(t *testing.T) {
	a := []net.IP{net.ParseIP("10.0.0.1")}
	b := []net.IP{net.ParseIP("10.0.0.1"), net.ParseIP("10.0.0.2")}

	merged := mergeAddresses(a, b)
	assert.Len(t, merged, 2)
}

func TestAdvertiseRequiresName(t *testing.T) {
	a := NewAdvertiser(DefaultAdvertiserConfig())
	assert.ErrorIs(t, a.Advertise(ServerInfo{Port: 8080}), ErrMissingName)
}
