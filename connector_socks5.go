package ftp

import (
	"net"
	"strconv"

	"golang.org/x/net/proxy"
)

// SOCKS5Connector tunnels both the control and data channels through a
// SOCKS5 proxy using golang.org/x/net/proxy, the ecosystem-standard SOCKS
// dialer. Data channels dialed this way only work in passive mode: a SOCKS
// proxy has no way to forward an inbound PORT connection back to the
// client.
type SOCKS5Connector struct {
	// ProxyAddr is the SOCKS5 proxy's "host:port".
	ProxyAddr string
	Auth      *proxy.Auth
}

func (c *SOCKS5Connector) dialer() (proxy.Dialer, error) {
	return proxy.SOCKS5("tcp", c.ProxyAddr, c.Auth, proxy.Direct)
}

func (c *SOCKS5Connector) ConnectForCommand(host string, port int) (net.Conn, error) {
	d, err := c.dialer()
	if err != nil {
		return nil, err
	}
	return d.Dial("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
}

func (c *SOCKS5Connector) ConnectForData(host string, port int) (net.Conn, error) {
	d, err := c.dialer()
	if err != nil {
		return nil, err
	}
	return d.Dial("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
}
