package discovery

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Service constants.
const (
	// ServiceType is the mDNS service type for PV stream servers.
	ServiceType = "_eiwyg._tcp"

	// Domain is the mDNS domain.
	Domain = "local."

	// DefaultPort is the server's default listen port.
	DefaultPort = 8080

	// TXTVersion is the advertised protocol version.
	TXTVersion = "1"
)

// Discovery errors.
var (
	ErrMissingName = errors.New("server info has no name")
	ErrBadTXT      = errors.New("malformed txt records")
)

// ServerInfo describes one advertised PV stream server.
type ServerInfo struct {
	// Name is the human-readable instance name, e.g. "beamline-7".
	Name string

	// Port the server listens on.
	Port int

	// WSPath is the websocket endpoint path.
	WSPath string

	// Description is free-form display text.
	Description string
}

// ServerService is a discovered server with its resolved addresses.
type ServerService struct {
	ServerInfo

	// Addresses are the resolved IP addresses.
	Addresses []net.IP
}

// WSURL builds a websocket URL for the first resolved address.
func (s *ServerService) WSURL() string {
	if len(s.Addresses) == 0 {
		return ""
	}
	host := s.Addresses[0].String()
	if s.Addresses[0].To4() == nil {
		host = "[" + host + "]"
	}
	path := s.WSPath
	if path == "" {
		path = "/ws"
	}
	return fmt.Sprintf("ws://%s:%d%s", host, s.Port, path)
}

// EncodeTXT renders server info as mDNS TXT strings.
func EncodeTXT(info ServerInfo) []string {
	records := []string{
		"v=" + TXTVersion,
		"path=" + pathOrDefault(info.WSPath),
	}
	if info.Description != "" {
		records = append(records, "desc="+info.Description)
	}
	return records
}

// DecodeTXT parses TXT strings back into server info. Unknown keys are
// ignored; a record without a '=' is malformed.
func DecodeTXT(records []string) (ServerInfo, error) {
	info := ServerInfo{WSPath: "/ws"}
	for _, rec := range records {
		key, value, ok := strings.Cut(rec, "=")
		if !ok {
			return info, fmt.Errorf("%w: %q", ErrBadTXT, rec)
		}
		switch key {
		case "v":
			if _, err := strconv.Atoi(value); err != nil {
				return info, fmt.Errorf("%w: bad version %q", ErrBadTXT, value)
			}
		case "path":
			if value != "" {
				info.WSPath = value
			}
		case "desc":
			info.Description = value
		}
	}
	return info, nil
}

func pathOrDefault(path string) string {
	if path == "" {
		return "/ws"
	}
	return path
}
