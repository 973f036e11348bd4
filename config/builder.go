package config

import (
	"errors"
	"fmt"
	"net/netip"
)

// DefaultBindAddress is used when no bind address is given.
const DefaultBindAddress = "127.0.0.1"

var (
	ErrMissingOrInvalidPort = errors.New("missing or invalid port")
	ErrInvalidBindAddress   = errors.New("invalid bind address")
)

// Builder assembles a listen address. The port is required; the bind
// address defaults to DefaultBindAddress and must be a literal IP.
type Builder struct {
	port        int
	portSet     bool
	bindAddress string
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Port sets the TCP port.
func (b *Builder) Port(port int) *Builder {
	b.port = port
	b.portSet = true
	return b
}

// BindAddress sets the IP to listen on.
func (b *Builder) BindAddress(addr string) *Builder {
	b.bindAddress = addr
	return b
}

// Build validates the settings.
func (b *Builder) Build() (netip.AddrPort, error) {
	if !b.portSet || b.port < 1 || b.port > 65535 {
		return netip.AddrPort{}, ErrMissingOrInvalidPort
	}

	address := b.bindAddress
	if address == "" {
		address = DefaultBindAddress
	}

	ip, err := netip.ParseAddr(address)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("%w: %q", ErrInvalidBindAddress, address)
	}

	return netip.AddrPortFrom(ip, uint16(b.port)), nil
}
