package ftp

import (
	"log/slog"
	"net"
	"regexp"
	"strconv"
	"time"
)

// dataProducer is the one-shot resource returned by the data endpoint
// factory: open may be called exactly once, dispose is always safe and
// idempotent and releases any unused listener.
type dataProducer interface {
	open() (net.Conn, error)
	dispose()
}

var sextupleRe = regexp.MustCompile(`(\d{1,3}),(\d{1,3}),(\d{1,3}),(\d{1,3}),(\d{1,3}),(\d{1,3})`)

// parseSextuple extracts the first "h1,h2,h3,h4,p1,p2" run from an FTP
// reply and returns the dotted-quad host and the combined port.
func parseSextuple(text string) (host string, port int, err error) {
	m := sextupleRe.FindStringSubmatch(text)
	if m == nil {
		return "", 0, &IllegalReplyError{Context: "PASV sextuple", Raw: text}
	}
	nums := make([]int, 6)
	for i := 1; i <= 6; i++ {
		n, convErr := strconv.Atoi(m[i])
		if convErr != nil || n < 0 || n > 255 {
			return "", 0, &IllegalReplyError{Context: "PASV sextuple", Raw: text}
		}
		nums[i-1] = n
	}
	host = strconv.Itoa(nums[0]) + "." + strconv.Itoa(nums[1]) + "." +
		strconv.Itoa(nums[2]) + "." + strconv.Itoa(nums[3])
	return host, nums[4]*256 + nums[5], nil
}

// formatSextuple renders an IPv4 address and port as the
// "h1,h2,h3,h4,p1,p2" form used by PORT.
func formatSextuple(ipv4 net.IP, port int) (string, error) {
	ip4 := ipv4.To4()
	if ip4 == nil {
		return "", &IllegalStateError{Op: "PORT", Reason: "address is not IPv4"}
	}
	p1, p2 := port/256, port%256
	return strconv.Itoa(int(ip4[0])) + "," + strconv.Itoa(int(ip4[1])) + "," +
		strconv.Itoa(int(ip4[2])) + "," + strconv.Itoa(int(ip4[3])) + "," +
		strconv.Itoa(p1) + "," + strconv.Itoa(p2), nil
}

// pasvProducer dials the address the server advertised in a PASV reply.
type pasvProducer struct {
	host      string
	port      int
	connector Connector
}

func (p *pasvProducer) open() (net.Conn, error) {
	return p.connector.ConnectForData(p.host, p.port)
}

func (p *pasvProducer) dispose() {}

// openPassiveEndpoint sends PASV and returns a producer that dials the
// address the server reports. If the server advertises 0.0.0.0 (common
// behind NAT), the control connection's own remote host is substituted.
func openPassiveEndpoint(cc *controlChannel, connector Connector, controlHost string) (dataProducer, error) {
	reply, err := cc.sendReceive("PASV")
	if err != nil {
		return nil, err
	}
	if !reply.Is2xx() {
		return nil, &ServerError{Command: "PASV", Code: reply.Code, Lines: reply.Lines}
	}

	host, port, err := parseSextuple(reply.String())
	if err != nil {
		return nil, err
	}
	if host == "0.0.0.0" {
		host = controlHost
	}

	return &pasvProducer{host: host, port: port, connector: connector}, nil
}

// activeProducer owns an ephemeral listener and accepts exactly one
// connection from the server.
type activeProducer struct {
	listener net.Listener
	timeout  time.Duration
	used     bool
}

func (p *activeProducer) open() (net.Conn, error) {
	p.used = true
	if p.timeout > 0 {
		if tl, ok := p.listener.(*net.TCPListener); ok {
			_ = tl.SetDeadline(time.Now().Add(p.timeout))
		}
	}
	conn, err := p.listener.Accept()
	if err != nil {
		return nil, &IOError{Op: "active mode accept", Err: err}
	}
	return conn, nil
}

func (p *activeProducer) dispose() {
	if p.listener != nil {
		_ = p.listener.Close()
	}
}

// openActiveEndpoint binds an ephemeral local listener, sends PORT with its
// address, and returns a producer that accepts the server's inbound
// connection.
func openActiveEndpoint(cc *controlChannel, cfg *Config, localControlAddr net.Addr, timeout time.Duration, logger *slog.Logger) (dataProducer, error) {
	localHost := localHostFor(cfg, localControlAddr, logger)

	ln, err := net.Listen("tcp", net.JoinHostPort(localHost, "0"))
	if err != nil {
		return nil, &IOError{Op: "active mode listen", Err: err}
	}

	tcpAddr, ok := ln.Addr().(*net.TCPAddr)
	if !ok {
		ln.Close()
		return nil, &IllegalStateError{Op: "PORT", Reason: "listener address is not TCP"}
	}

	sextuple, err := formatSextuple(tcpAddr.IP, tcpAddr.Port)
	if err != nil {
		ln.Close()
		return nil, err
	}

	reply, err := cc.sendReceive("PORT", sextuple)
	if err != nil {
		ln.Close()
		return nil, err
	}
	if !reply.Is2xx() {
		ln.Close()
		return nil, &ServerError{Command: "PORT", Code: reply.Code, Lines: reply.Lines}
	}

	return &activeProducer{listener: ln, timeout: timeout}, nil
}

// localHostFor resolves the address to advertise in PORT: the configured
// override (or its environment fallback), else the control connection's
// local address.
func localHostFor(cfg *Config, localControlAddr net.Addr, logger *slog.Logger) string {
	if cfg != nil {
		if override := cfg.resolvedActiveHostAddress(logger); override != "" {
			return override
		}
	}
	if tcpAddr, ok := localControlAddr.(*net.TCPAddr); ok {
		return tcpAddr.IP.String()
	}
	host, _, err := net.SplitHostPort(localControlAddr.String())
	if err != nil {
		return "127.0.0.1"
	}
	return host
}
