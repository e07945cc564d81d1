package myftp

import (
	"net"

	"github.com/pkg/errors"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// maxDSCP is the largest differentiated services code point: it is a 6-bit field.
const maxDSCP = 63

// setDSCP marks outgoing packets of c with the given code point.
// The code point occupies the upper six bits of the IPv4 TOS / IPv6 traffic class octet.
func setDSCP(c net.Conn, dscp int) error {
	tos := dscp << 2

	addr, ok := c.LocalAddr().(*net.TCPAddr)
	if !ok {
		return errors.Errorf("cannot mark %s connection", c.LocalAddr().Network())
	}

	if addr.IP.To4() != nil {
		return errors.Wrap(ipv4.NewConn(c).SetTOS(tos), "set tos")
	}

	return errors.Wrap(ipv6.NewConn(c).SetTrafficClass(tos), "set traffic class")
}
