// Package ftp implements an FTP client built around RFC 959 and the
// commonly deployed extensions: FEAT, SIZE, MDTM, REST, PASV, the UTF8
// OPTS switch, NLST and LIST.
//
// # Overview
//
// A [Client] owns exactly one control connection and, for the lifetime of a
// single transfer, one data connection. Only one command may be in flight on
// a Client at a time; callers that need concurrent transfers should dial
// multiple clients.
//
// # Basic usage
//
//	c, err := ftp.Dial("ftp.example.com:21")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Quit()
//
//	if err := c.Login("anonymous", "anonymous@example.com"); err != nil {
//	    log.Fatal(err)
//	}
//
//	entries, err := c.List("/pub")
//
// # Transports
//
// The control and data connections are opened through a [Connector], so the
// underlying transport is pluggable. [TCPConnector] is the default; the
// package also ships [TLSConnector] (explicit or implicit AUTH TLS), [SOCKS5Connector]
// and [HTTPProxyConnector].
//
// # Resuming and aborting transfers
//
// [Client.StoreAt] and [Client.RetrieveAt] send REST before the transfer
// command to resume at a byte offset. [Client.AbortTransfer] can be called
// from a second goroutine while [Client.Store] or [Client.Retrieve] is
// blocked in another one; the in-flight call returns an *[AbortedError].
package ftp
