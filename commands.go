package ftp

import (
	"strconv"
	"strings"
	"time"
)

// CurrentDirectory sends PWD and unquotes the RFC 959 257 reply, e.g.
// `257 "/pub/dir" is current directory` → "/pub/dir". A doubled quote
// inside the path (`""`) is unescaped to a single quote.
func (c *Client) CurrentDirectory() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	reply, err := c.cc.sendReceive("PWD")
	if err != nil {
		return "", err
	}
	if reply.Code != 257 {
		return "", &ServerError{Command: "PWD", Code: reply.Code, Lines: reply.Lines}
	}
	return parseQuotedPath(reply.Message())
}

func parseQuotedPath(message string) (string, error) {
	start := strings.IndexByte(message, '"')
	if start < 0 {
		return "", &IllegalReplyError{Context: "PWD", Raw: message}
	}
	var b strings.Builder
	i := start + 1
	for i < len(message) {
		if message[i] == '"' {
			if i+1 < len(message) && message[i+1] == '"' {
				b.WriteByte('"')
				i += 2
				continue
			}
			return b.String(), nil
		}
		b.WriteByte(message[i])
		i++
	}
	return "", &IllegalReplyError{Context: "PWD", Raw: message}
}

// ChangeDirectory sends CWD path.
func (c *Client) ChangeDirectory(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	reply, err := c.cc.sendReceive("CWD", path)
	if err != nil {
		return err
	}
	if !reply.Is2xx() {
		return &ServerError{Command: "CWD", Code: reply.Code, Lines: reply.Lines}
	}
	return nil
}

// ChangeDirectoryUp sends CDUP.
func (c *Client) ChangeDirectoryUp() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	reply, err := c.cc.sendReceive("CDUP")
	if err != nil {
		return err
	}
	if !reply.Is2xx() {
		return &ServerError{Command: "CDUP", Code: reply.Code, Lines: reply.Lines}
	}
	return nil
}

// ModifiedDate sends MDTM path and parses the YYYYMMDDHHMMSS reply as UTC.
func (c *Client) ModifiedDate(path string) (time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	reply, err := c.cc.sendReceive("MDTM", path)
	if err != nil {
		return time.Time{}, err
	}
	if !reply.Is2xx() {
		return time.Time{}, &ServerError{Command: "MDTM", Code: reply.Code, Lines: reply.Lines}
	}
	stamp := strings.TrimSpace(reply.Message())
	t, err := time.Parse("20060102150405", stamp)
	if err != nil {
		return time.Time{}, &IllegalReplyError{Context: "MDTM", Raw: stamp}
	}
	return t.UTC(), nil
}

// FileSize sends SIZE path and parses the reply as an unsigned 64-bit
// integer.
func (c *Client) FileSize(path string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	reply, err := c.cc.sendReceive("SIZE", path)
	if err != nil {
		return 0, err
	}
	if !reply.Is2xx() {
		return 0, &ServerError{Command: "SIZE", Code: reply.Code, Lines: reply.Lines}
	}
	size, err := strconv.ParseUint(strings.TrimSpace(reply.Message()), 10, 64)
	if err != nil {
		return 0, &IllegalReplyError{Context: "SIZE", Raw: reply.Message()}
	}
	return size, nil
}

// Rename moves oldName to newName via RNFR/RNTO.
func (c *Client) Rename(oldName, newName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	reply, err := c.cc.sendReceive("RNFR", oldName)
	if err != nil {
		return err
	}
	if reply.Code != 350 {
		return &ServerError{Command: "RNFR", Code: reply.Code, Lines: reply.Lines}
	}
	reply, err = c.cc.sendReceive("RNTO", newName)
	if err != nil {
		return err
	}
	if !reply.Is2xx() {
		return &ServerError{Command: "RNTO", Code: reply.Code, Lines: reply.Lines}
	}
	return nil
}

// DeleteFile sends DELE path.
func (c *Client) DeleteFile(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	reply, err := c.cc.sendReceive("DELE", path)
	if err != nil {
		return err
	}
	if !reply.Is2xx() {
		return &ServerError{Command: "DELE", Code: reply.Code, Lines: reply.Lines}
	}
	return nil
}

// DeleteDirectory sends RMD path.
func (c *Client) DeleteDirectory(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	reply, err := c.cc.sendReceive("RMD", path)
	if err != nil {
		return err
	}
	if !reply.Is2xx() {
		return &ServerError{Command: "RMD", Code: reply.Code, Lines: reply.Lines}
	}
	return nil
}

// CreateDirectory sends MKD path.
func (c *Client) CreateDirectory(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	reply, err := c.cc.sendReceive("MKD", path)
	if err != nil {
		return err
	}
	if !reply.Is2xx() {
		return &ServerError{Command: "MKD", Code: reply.Code, Lines: reply.Lines}
	}
	return nil
}

// ChangeAccount sends ACCT account.
func (c *Client) ChangeAccount(account string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendAccount(account)
}
