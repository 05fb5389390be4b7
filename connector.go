package ftp

import (
	"net"
	"strconv"
	"time"
)

// Connector abstracts the transport used for the control and data
// channels, so the protocol engine never dials a socket directly. This is
// the seam a caller uses to route either channel through TLS, a SOCKS5
// proxy, or an HTTP CONNECT proxy.
type Connector interface {
	// ConnectForCommand opens the control connection.
	ConnectForCommand(host string, port int) (net.Conn, error)

	// ConnectForData opens a data connection (used by the passive-mode
	// producer to dial the server's advertised PASV address).
	ConnectForData(host string, port int) (net.Conn, error)
}

// TCPConnector is the default Connector: a direct, unencrypted TCP dial for
// both channels.
type TCPConnector struct {
	// Timeout bounds the dial itself. Zero means no timeout.
	Timeout time.Duration

	// LocalAddr, if set, is used as the local address for both dials
	// (mirrors net.Dialer.LocalAddr).
	LocalAddr net.Addr
}

func (c *TCPConnector) dialer() *net.Dialer {
	return &net.Dialer{Timeout: c.Timeout, LocalAddr: c.LocalAddr}
}

func (c *TCPConnector) ConnectForCommand(host string, port int) (net.Conn, error) {
	return c.dialer().Dial("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
}

func (c *TCPConnector) ConnectForData(host string, port int) (net.Conn, error) {
	return c.dialer().Dial("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
}
