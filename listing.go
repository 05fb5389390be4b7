package ftp

import (
	"bytes"
	"io"
	"net"
	"strings"
)

// List runs LIST [spec] in TYPE A, and feeds the resulting lines through
// the parser registry (caching whichever dialect parser succeeds first, per
// the registry's cache-on-first-success behavior).
func (c *Client) List(spec string) ([]RemoteFileEntry, error) {
	lines, err := c.collectListing("LIST", spec)
	if err != nil {
		return nil, err
	}
	return c.registry.parse(lines)
}

// NameList runs NLST [spec] and returns the raw lines, one name per line,
// with no dialect parsing.
func (c *Client) NameList(spec string) ([]string, error) {
	return c.collectListing("NLST", spec)
}

func (c *Client) collectListing(command, spec string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.authenticated {
		return nil, &IllegalStateError{Op: command, Reason: "not authenticated"}
	}

	if err := c.sendTypeCommand(TypeTextual); err != nil {
		return nil, err
	}

	producer, err := c.openDataEndpoint()
	if err != nil {
		return nil, err
	}

	var args []string
	if spec != "" {
		args = []string{spec}
	}

	var buf bytes.Buffer
	pump := func(conn net.Conn) error {
		_, err := io.Copy(&buf, newNVTASCIIReader(conn))
		return err
	}

	if err := c.engine.run(command, args, producer, pump, noopProgressListener{}, 0, 0); err != nil {
		return nil, err
	}

	return splitNonEmptyLines(buf.String()), nil
}

func splitNonEmptyLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimRight(l, "\r")
		if l == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}
