// Package discovery advertises and finds PV stream servers on the
// local network via mDNS. Servers register an _eiwyg._tcp service with
// TXT records describing the endpoint; viewers browse for them instead
// of being configured with a host and port.
package discovery
