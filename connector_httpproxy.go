package ftp

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/net/http/httpproxy"
)

// HTTPProxyConnector tunnels the control channel through an HTTP CONNECT
// proxy. The proxy URL is resolved per dial from Config with
// golang.org/x/net/http/httpproxy, treating the target as an https URL, so
// Config.HTTPSProxy and Config.NoProxy decide whether and where to tunnel;
// the process environment is not read. The data channel is dialed directly: most HTTP proxies have no
// notion of a second, server-initiated connection, so PASV data transfers
// through an HTTP proxy are not attempted here.
type HTTPProxyConnector struct {
	Config  httpproxy.Config
	Timeout time.Duration
}

func (c *HTTPProxyConnector) ConnectForCommand(host string, port int) (net.Conn, error) {
	target := &url.URL{Scheme: "https", Host: net.JoinHostPort(host, strconv.Itoa(port))}
	proxyURL, err := c.Config.ProxyFunc()(target)
	if err != nil {
		return nil, err
	}
	if proxyURL == nil {
		dialer := &net.Dialer{Timeout: c.Timeout}
		return dialer.Dial("tcp", target.Host)
	}
	return c.connectThroughProxy(proxyURL, target.Host)
}

func (c *HTTPProxyConnector) connectThroughProxy(proxyURL *url.URL, targetAddr string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: c.Timeout}
	conn, err := dialer.Dial("tcp", proxyURL.Host)
	if err != nil {
		return nil, err
	}

	req := &http.Request{
		Method: http.MethodConnect,
		URL:    &url.URL{Opaque: targetAddr},
		Host:   targetAddr,
		Header: make(http.Header),
	}
	if proxyURL.User != nil {
		req.Header.Set("Proxy-Authorization", basicAuth(proxyURL.User))
	}

	if c.Timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(c.Timeout))
	}
	if err := req.Write(conn); err != nil {
		conn.Close()
		return nil, err
	}

	resp, err := http.ReadResponse(bufio.NewReader(conn), req)
	if err != nil {
		conn.Close()
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		conn.Close()
		return nil, fmt.Errorf("ftp: CONNECT to %s via proxy %s failed: %s", targetAddr, proxyURL.Host, resp.Status)
	}
	if c.Timeout > 0 {
		_ = conn.SetDeadline(time.Time{})
	}
	return conn, nil
}

func basicAuth(u *url.Userinfo) string {
	password, _ := u.Password()
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(u.Username()+":"+password))
}

func (c *HTTPProxyConnector) ConnectForData(host string, port int) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: c.Timeout}
	return dialer.Dial("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
}
