package ftp

import (
	"io"
	"net"
	"strconv"
)

// Store uploads src to remoteName, starting at the beginning of the remote
// file.
func (c *Client) Store(remoteName string, src io.Reader, listener ProgressListener) error {
	return c.store(remoteName, src, 0, listener)
}

// StoreAt uploads src to remoteName, sending REST offset first so the
// transfer resumes (or is rejected with a ServerError if the server
// doesn't support REST).
func (c *Client) StoreAt(remoteName string, src io.Reader, offset int64, listener ProgressListener) error {
	return c.store(remoteName, src, offset, listener)
}

// Retrieve downloads remoteName into dst from the beginning of the file.
func (c *Client) Retrieve(remoteName string, dst io.Writer, listener ProgressListener) error {
	return c.retrieve(remoteName, dst, 0, listener)
}

// RetrieveAt downloads remoteName into dst, sending REST offset first.
func (c *Client) RetrieveAt(remoteName string, dst io.Writer, offset int64, listener ProgressListener) error {
	return c.retrieve(remoteName, dst, offset, listener)
}

func (c *Client) store(remoteName string, src io.Reader, offset int64, listener ProgressListener) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if listener == nil {
		listener = noopProgressListener{}
	}

	if !c.authenticated {
		return &IllegalStateError{Op: "STOR", Reason: "not authenticated"}
	}

	typ := resolveType(c.typ, remoteName, c.textualRecognizer)
	if err := c.sendTypeCommand(typ); err != nil {
		return err
	}
	if err := c.sendRestart(offset); err != nil {
		return err
	}

	producer, err := c.openDataEndpoint()
	if err != nil {
		return err
	}

	limiter := c.rateLimiter()
	textual := typ == TypeTextual
	pump := func(conn net.Conn) error {
		return copyStore(conn, src, textual, limiter, offset, listener)
	}

	return c.engine.run("STOR", []string{remoteName}, producer, pump, listener, 0, offset)
}

func (c *Client) retrieve(remoteName string, dst io.Writer, offset int64, listener ProgressListener) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if listener == nil {
		listener = noopProgressListener{}
	}

	if !c.authenticated {
		return &IllegalStateError{Op: "RETR", Reason: "not authenticated"}
	}

	typ := resolveType(c.typ, remoteName, c.textualRecognizer)
	if err := c.sendTypeCommand(typ); err != nil {
		return err
	}
	if err := c.sendRestart(offset); err != nil {
		return err
	}

	producer, err := c.openDataEndpoint()
	if err != nil {
		return err
	}

	limiter := c.rateLimiter()
	textual := typ == TypeTextual
	pump := func(conn net.Conn) error {
		return copyRetrieve(dst, conn, textual, limiter, offset, listener)
	}

	return c.engine.run("RETR", []string{remoteName}, producer, pump, listener, 0, offset)
}

func (c *Client) sendTypeCommand(typ TransferType) error {
	reply, err := c.cc.sendReceive("TYPE", wireTypeCommand(typ))
	if err != nil {
		return err
	}
	if !reply.Is2xx() {
		return &ServerError{Command: "TYPE", Code: reply.Code, Lines: reply.Lines}
	}
	return nil
}

// sendRestart always sends REST (per the transfer engine's shared
// skeleton), translating a 502 at a non-zero offset into the fixed "resume
// not supported" error.
func (c *Client) sendRestart(offset int64) error {
	reply, err := c.cc.sendReceive("REST", strconv.FormatInt(offset, 10))
	if err != nil {
		return err
	}
	if reply.Code == 350 {
		return nil
	}
	if reply.Code == 502 && offset > 0 {
		return resumeNotSupportedError(502)
	}
	return &ServerError{Command: "REST", Code: reply.Code, Lines: reply.Lines}
}
