package ftp

import (
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/arlowen/goftp/internal/ratelimit"
)

// Option configures a Client at construction time, following the
// functional-options pattern used throughout the control-channel stack.
type Option func(*Client) error

// WithConnector overrides the default TCPConnector.
func WithConnector(connector Connector) Option {
	return func(c *Client) error {
		c.connector = connector
		return nil
	}
}

// WithConfig supplies process-wide knobs (timeouts, logger, throttling,
// active-mode address override).
func WithConfig(cfg *Config) Option {
	return func(c *Client) error {
		c.cfg = cfg
		return nil
	}
}

// WithPassive sets the initial data-transfer mode. Defaults to true.
func WithPassive(passive bool) Option {
	return func(c *Client) error {
		c.passive = passive
		return nil
	}
}

// WithTransferType sets the default TransferType for transfers that don't
// pick one explicitly.
func WithTransferType(t TransferType) Option {
	return func(c *Client) error {
		c.typ = t
		return nil
	}
}

// WithTextualRecognizer overrides the built-in extension table consulted by
// TypeAuto.
func WithTextualRecognizer(recognizer func(name string) bool) Option {
	return func(c *Client) error {
		c.textualRecognizer = recognizer
		return nil
	}
}

// WithListParsers overrides the default ordered dialect list
// (Unix, DOS, EPLF, NetWare).
func WithListParsers(parsers ...ListParser) Option {
	return func(c *Client) error {
		c.registry = newParserRegistry(parsers)
		return nil
	}
}

// WithCommChannelListener registers a listener for every command sent and
// reply received.
func WithCommChannelListener(l CommChannelListener) Option {
	return func(c *Client) error {
		c.pendingListeners = append(c.pendingListeners, l)
		return nil
	}
}

// Client is a single FTP session: one control connection plus, for the
// duration of a transfer, one data connection. Only one command may be in
// flight at a time; mu is the session lock described in the concurrency
// model.
type Client struct {
	mu sync.Mutex

	cfg       *Config
	connector Connector
	logger    *slog.Logger

	cc        *controlChannel
	engine    *transferEngine
	keepAlive *keepAliveTicker

	pendingListeners []CommChannelListener

	connected     bool
	authenticated bool
	host          string
	port          int

	passive           bool
	typ               TransferType
	textualRecognizer func(name string) bool
	utf8Supported     bool

	registry *parserRegistry
}

// Dial opens a control connection to addr ("host:port") and returns a
// Client ready for Login. The welcome reply is read and must be a positive
// completion, otherwise the connection is closed and the error returned.
func Dial(addr string, opts ...Option) (*Client, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, &IllegalStateError{Op: "Dial", Reason: err.Error()}
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, &IllegalStateError{Op: "Dial", Reason: "invalid port " + portStr}
	}
	return DialHostPort(host, port, opts...)
}

// DialHostPort is Dial with the host and port given separately.
func DialHostPort(host string, port int, opts ...Option) (*Client, error) {
	c := &Client{
		passive:  true,
		typ:      TypeAuto,
		registry: newParserRegistry(defaultListParsers()),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.cfg == nil {
		c.cfg = &Config{}
	}
	c.logger = c.cfg.logger()
	if c.connector == nil {
		c.connector = &TCPConnector{Timeout: c.cfg.Timeout}
	}

	if err := c.connect(host, port); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect(host string, port int) error {
	if c.connected {
		return &IllegalStateError{Op: "Connect", Reason: "already connected"}
	}

	conn, err := c.connector.ConnectForCommand(host, port)
	if err != nil {
		return &IOError{Op: "connect", Err: err}
	}

	cc, err := newControlChannel(conn, c.cfg.Timeout)
	if err != nil {
		conn.Close()
		return err
	}
	for _, l := range c.pendingListeners {
		cc.addListener(l)
	}

	reply, err := cc.receive()
	if err != nil {
		conn.Close()
		return err
	}
	if !reply.Is2xx() {
		conn.Close()
		return &ServerError{Command: "CONNECT", Code: reply.Code, Lines: reply.Lines}
	}

	c.cc = cc
	c.engine = newTransferEngine(cc, c.logger)
	c.host, c.port = host, port
	c.connected = true
	c.registry.reset()

	if err := c.maybeUpgradeExplicitTLS(); err != nil {
		c.cc.close()
		c.connected = false
		return err
	}

	c.keepAlive = newKeepAliveTicker(c.cc, c.engine, c.cfg.resolvedNoopDelay(), c.logger)
	c.keepAlive.start()

	return nil
}

// maybeUpgradeExplicitTLS sends AUTH TLS and rewraps the control channel
// around the upgraded connection when the configured Connector is a
// TLSConnector in explicit mode. A no-op for every other connector.
func (c *Client) maybeUpgradeExplicitTLS() error {
	tc, ok := c.connector.(*TLSConnector)
	if !ok || tc.Mode != TLSExplicit {
		return nil
	}

	reply, err := c.cc.sendReceive("AUTH", "TLS")
	if err != nil {
		return err
	}
	if reply.Code != 234 {
		return &ServerError{Command: "AUTH TLS", Code: reply.Code, Lines: reply.Lines}
	}

	upgraded, err := tc.UpgradeClientConn(c.cc.conn)
	if err != nil {
		return &IOError{Op: "AUTH TLS handshake", Err: err}
	}

	newCC, err := newControlChannel(upgraded, c.cfg.Timeout)
	if err != nil {
		return err
	}
	for _, l := range c.pendingListeners {
		newCC.addListener(l)
	}
	c.cc = newCC
	c.engine = newTransferEngine(newCC, c.logger)
	return nil
}

// Login authenticates with a username and password, without an account
// string. Equivalent to LoginWithAccount(user, password, "").
func (c *Client) Login(user, password string) error {
	return c.LoginWithAccount(user, password, "")
}

// LoginWithAccount runs the full USER/PASS/ACCT state machine per RFC 959
// section 4.1.1: 230 after USER completes login immediately; 331 requires
// PASS; either USER or PASS may return 332 requiring ACCT. Any other reply
// is an authentication failure.
func (c *Client) LoginWithAccount(user, password, account string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return &IllegalStateError{Op: "Login", Reason: "not connected"}
	}

	reply, err := c.cc.sendReceive("USER", user)
	if err != nil {
		return err
	}

	switch reply.Code {
	case 230:
		// logged in on USER alone
	case 332:
		if err := c.sendAccount(account); err != nil {
			return err
		}
	case 331:
		passReply, err := c.cc.sendReceive("PASS", password)
		if err != nil {
			return err
		}
		switch passReply.Code {
		case 230:
		case 332:
			if err := c.sendAccount(account); err != nil {
				return err
			}
		default:
			return &ServerError{Command: "PASS", Code: passReply.Code, Lines: passReply.Lines}
		}
	default:
		return &ServerError{Command: "USER", Code: reply.Code, Lines: reply.Lines}
	}

	c.authenticated = true
	c.postLogin()
	return nil
}

func (c *Client) sendAccount(account string) error {
	if account == "" {
		return &IllegalStateError{Op: "Login", Reason: "server requires an account but none was supplied"}
	}
	reply, err := c.cc.sendReceive("ACCT", account)
	if err != nil {
		return err
	}
	if !reply.Is2xx() {
		return &ServerError{Command: "ACCT", Code: reply.Code, Lines: reply.Lines}
	}
	return nil
}

// postLogin probes FEAT for UTF8 support and, if present, switches the
// control channel's charset and sends OPTS UTF8 ON. Any malformed or
// unexpected reply here is logged and swallowed: the session remains fully
// usable without UTF-8.
func (c *Client) postLogin() {
	reply, err := c.cc.sendReceive("FEAT")
	if err != nil {
		c.logger.Debug("FEAT probe failed", "error", err)
		return
	}
	if reply.Code != 211 || len(reply.Lines) < 2 {
		return
	}

	supportsUTF8 := false
	for _, line := range reply.Lines[1 : len(reply.Lines)-1] {
		if strings.EqualFold(strings.TrimSpace(line), "UTF8") {
			supportsUTF8 = true
			break
		}
	}
	if !supportsUTF8 {
		return
	}

	if err := c.cc.setCharset(utf8CharsetName); err != nil {
		c.logger.Debug("failed to switch control channel to UTF-8", "error", err)
		return
	}
	c.utf8Supported = true

	if _, err := c.cc.sendReceive("OPTS", "UTF8", "ON"); err != nil {
		c.logger.Debug("OPTS UTF8 ON failed", "error", err)
	}
}

// Logout sends REIN, clearing authentication state but leaving the control
// connection open.
func (c *Client) Logout() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return &IllegalStateError{Op: "Logout", Reason: "not connected"}
	}
	reply, err := c.cc.sendReceive("REIN")
	if err != nil {
		return err
	}
	if !reply.Is2xx() {
		return &ServerError{Command: "REIN", Code: reply.Code, Lines: reply.Lines}
	}
	c.authenticated = false
	c.utf8Supported = false
	c.registry.reset()
	return nil
}

// Disconnect closes the control connection. If sendQuit is true, QUIT is
// sent first and a send failure or non-2xx reply is returned as the error:
// the connection is always closed either way.
func (c *Client) Disconnect(sendQuit bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnectLocked(sendQuit)
}

func (c *Client) disconnectLocked(sendQuit bool) error {
	if !c.connected {
		return nil
	}
	if c.keepAlive != nil {
		c.keepAlive.close()
	}
	var quitErr error
	if sendQuit {
		reply, err := c.cc.sendReceive("QUIT")
		if err != nil {
			quitErr = err
		} else if !reply.Is2xx() {
			quitErr = &ServerError{Command: "QUIT", Code: reply.Code, Lines: reply.Lines}
		}
	}
	c.cc.close()
	c.connected = false
	c.authenticated = false
	return quitErr
}

// Quit sends QUIT and closes the control connection.
func (c *Client) Quit() error {
	return c.Disconnect(true)
}

// AbruptlyCloseCommunication is a non-locking emergency shutdown: it closes
// the control socket outright without sending QUIT, for use when the
// session is wedged and a graceful close would block. Subsequent in-flight
// commands observe an IOError.
func (c *Client) AbruptlyCloseCommunication() error {
	if c.cc == nil {
		return nil
	}
	return c.cc.close()
}

// Noop sends NOOP.
func (c *Client) Noop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	reply, err := c.cc.sendReceive("NOOP")
	if err != nil {
		return err
	}
	if !reply.Is2xx() {
		return &ServerError{Command: "NOOP", Code: reply.Code, Lines: reply.Lines}
	}
	return nil
}

// Help sends HELP and returns the reply text.
func (c *Client) Help() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	reply, err := c.cc.sendReceive("HELP")
	if err != nil {
		return "", err
	}
	if !reply.Is2xx() {
		return "", &ServerError{Command: "HELP", Code: reply.Code, Lines: reply.Lines}
	}
	return reply.String(), nil
}

// ServerStatus sends STAT and returns the reply text.
func (c *Client) ServerStatus() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	reply, err := c.cc.sendReceive("STAT")
	if err != nil {
		return "", err
	}
	if !reply.Is2xx() {
		return "", &ServerError{Command: "STAT", Code: reply.Code, Lines: reply.Lines}
	}
	return reply.String(), nil
}

// SendCustom sends an arbitrary command verbatim and returns the reply
// text, surfacing non-2xx replies as a ServerError.
func (c *Client) SendCustom(command string, args ...string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	reply, err := c.cc.sendReceive(command, args...)
	if err != nil {
		return "", err
	}
	if !reply.Is2xx() {
		return "", &ServerError{Command: command, Code: reply.Code, Lines: reply.Lines}
	}
	return reply.String(), nil
}

// SendSite sends SITE <cmd>.
func (c *Client) SendSite(cmd string) (string, error) {
	return c.SendCustom("SITE", cmd)
}

// SetPassive toggles passive (PASV) vs active (PORT) data transfer mode for
// subsequent transfers.
func (c *Client) SetPassive(passive bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.passive = passive
}

// AbortTransfer cancels the in-flight transfer, if any, unblocking the
// goroutine running Store/Retrieve/List/NameList with an *AbortedError.
// Like AbruptlyCloseCommunication, and unlike the other methods, it does
// not take the session lock: it must be callable from a second goroutine
// while the session lock is held by the transfer it's cancelling.
func (c *Client) AbortTransfer() error {
	return c.engine.abortCurrent()
}

func (c *Client) openDataEndpoint() (dataProducer, error) {
	if c.passive {
		controlHost, _, _ := net.SplitHostPort(c.cc.conn.RemoteAddr().String())
		return openPassiveEndpoint(c.cc, c.connector, controlHost)
	}
	return openActiveEndpoint(c.cc, c.cfg, c.cc.conn.LocalAddr(), c.cfg.Timeout, c.logger)
}

func (c *Client) rateLimiter() *ratelimit.Limiter {
	return ratelimit.New(c.cfg.MaxBytesPerSecond)
}

// IsConnected reports whether the control connection is open.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// IsAuthenticated reports whether Login has succeeded since the last
// connect or Logout.
func (c *Client) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authenticated
}

// UTF8Supported reports whether the post-login FEAT probe found UTF8 and
// switched the control channel's charset.
func (c *Client) UTF8Supported() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.utf8Supported
}
