package ftp

import (
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"
)

// envActiveHostAddress is the process-wide override for the address
// advertised in PORT, consulted only when Config.ActiveHostAddress is empty.
const envActiveHostAddress = "ACTIVE_DT_HOST_ADDRESS"

// envNoopDelay is the process-wide keep-alive delay in milliseconds,
// consulted only when Config.NoopDelay is zero.
const envNoopDelay = "DT_AUTO_NOOP_DELAY"

// Config carries the process-wide knobs the session and transfer engine
// need, with the documented environment variables applied as a fallback so
// existing deployments that export them keep working unchanged.
type Config struct {
	// ActiveHostAddress overrides the local IPv4 address advertised in the
	// PORT command. Falls back to ACTIVE_DT_HOST_ADDRESS, then to the
	// control connection's local address.
	ActiveHostAddress string

	// NoopDelay is the interval at which the keep-alive ticker sends NOOP
	// during a transfer. Zero disables it. Falls back to
	// DT_AUTO_NOOP_DELAY (milliseconds).
	NoopDelay time.Duration

	// Timeout sets a deadline on every control-channel read and write, on
	// the active-mode accept, and on the dial of the default TCPConnector.
	// Zero means no deadline. Reads and writes on the data connection are
	// not bounded by it.
	Timeout time.Duration

	// MaxBytesPerSecond throttles the data pump via a token-bucket
	// limiter. Zero disables throttling.
	MaxBytesPerSecond int64

	// Logger receives structured trace events for commands, replies, and
	// transfer lifecycle transitions. Defaults to a disabled logger.
	Logger *slog.Logger
}

// resolvedActiveHostAddress returns the configured override, its
// environment fallback, or "" if neither is set or the value failed
// validation.
func (cfg *Config) resolvedActiveHostAddress(logger *slog.Logger) string {
	addr := cfg.ActiveHostAddress
	if addr == "" {
		addr = os.Getenv(envActiveHostAddress)
	}
	if addr == "" {
		return ""
	}
	if !isValidIPv4DottedQuad(addr) {
		logger.Warn("ignoring invalid active data transfer host override",
			"setting", envActiveHostAddress, "value", addr)
		return ""
	}
	return addr
}

func isValidIPv4DottedQuad(s string) bool {
	ip := net.ParseIP(s)
	if ip == nil {
		return false
	}
	return ip.To4() != nil
}

// resolvedNoopDelay returns the configured keep-alive delay or its
// environment fallback (milliseconds, must be positive to take effect).
func (cfg *Config) resolvedNoopDelay() time.Duration {
	if cfg.NoopDelay > 0 {
		return cfg.NoopDelay
	}
	raw := os.Getenv(envNoopDelay)
	if raw == "" {
		return 0
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

func (cfg *Config) logger() *slog.Logger {
	if cfg.Logger != nil {
		return cfg.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
