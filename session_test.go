package ftp

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strings"
	"testing"
	"time"
)

// acceptOne listens on an ephemeral local port, accepts exactly one
// connection in the background, and hands it to handler. It returns the
// address to dial.
func acceptOne(t *testing.T, handler func(conn net.Conn)) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() {
		conn, err := ln.Accept()
		ln.Close()
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}()
	return ln.Addr().String()
}

func writeLine(w io.Writer, line string) {
	io.WriteString(w, line+"\r\n")
}

func TestConnectWelcome(t *testing.T) {
	addr := acceptOne(t, func(conn net.Conn) {
		writeLine(conn, "220-hello")
		writeLine(conn, "220 ready")
		bufio.NewReader(conn).ReadString('\n') // QUIT
		writeLine(conn, "221 bye")
	})

	c, err := Dial(addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if !c.IsConnected() {
		t.Fatalf("expected connected")
	}
	c.Quit()
}

func TestLoginWithAccount(t *testing.T) {
	addr := acceptOne(t, func(conn net.Conn) {
		r := bufio.NewReader(conn)
		writeLine(conn, "220 ready")

		line, _ := r.ReadString('\n')
		if !strings.HasPrefix(line, "USER u") {
			t.Errorf("unexpected line %q", line)
		}
		writeLine(conn, "331 need password")

		line, _ = r.ReadString('\n')
		if !strings.HasPrefix(line, "PASS p") {
			t.Errorf("unexpected line %q", line)
		}
		writeLine(conn, "332 need account")

		line, _ = r.ReadString('\n')
		if !strings.HasPrefix(line, "ACCT a") {
			t.Errorf("unexpected line %q", line)
		}
		writeLine(conn, "230 logged in")

		// post-login FEAT probe
		line, _ = r.ReadString('\n')
		if !strings.HasPrefix(line, "FEAT") {
			t.Errorf("unexpected line %q", line)
		}
		writeLine(conn, "502 not implemented")
	})

	c, err := Dial(addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.AbruptlyCloseCommunication()

	if err := c.LoginWithAccount("u", "p", "a"); err != nil {
		t.Fatalf("LoginWithAccount: %v", err)
	}
	if !c.IsAuthenticated() {
		t.Fatalf("expected authenticated")
	}
}

func TestLoginAccountRejected(t *testing.T) {
	addr := acceptOne(t, func(conn net.Conn) {
		r := bufio.NewReader(conn)
		writeLine(conn, "220 ready")
		r.ReadString('\n') // USER
		writeLine(conn, "332 need account")
		r.ReadString('\n') // ACCT
		writeLine(conn, "530 account rejected")
	})

	c, err := Dial(addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.AbruptlyCloseCommunication()

	err = c.LoginWithAccount("u", "p", "a")
	if err == nil {
		t.Fatalf("expected login failure")
	}
	var svrErr *ServerError
	if !asServerError(err, &svrErr) || svrErr.Code != 530 {
		t.Errorf("err = %v, want ServerError{530}", err)
	}
}

func TestPostLoginEnablesUTF8(t *testing.T) {
	addr := acceptOne(t, func(conn net.Conn) {
		r := bufio.NewReader(conn)
		writeLine(conn, "220 ready")
		r.ReadString('\n') // USER
		writeLine(conn, "230 logged in")
		r.ReadString('\n') // FEAT
		writeLine(conn, "211-Features:")
		writeLine(conn, " UTF8")
		writeLine(conn, "211 End")
		r.ReadString('\n') // OPTS UTF8 ON
		writeLine(conn, "200 UTF8 set to on")
	})

	c, err := Dial(addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.AbruptlyCloseCommunication()

	if err := c.Login("anon", ""); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !c.UTF8Supported() {
		t.Fatalf("expected UTF8Supported after FEAT advertised it")
	}
	if c.cc.codec.name != utf8CharsetName {
		t.Errorf("control channel charset = %q, want %q", c.cc.codec.name, utf8CharsetName)
	}
}

func TestResumeNotSupported(t *testing.T) {
	addr := acceptOne(t, func(conn net.Conn) {
		r := bufio.NewReader(conn)
		writeLine(conn, "220 ready")
		r.ReadString('\n') // USER
		writeLine(conn, "230 logged in")
		r.ReadString('\n') // FEAT
		writeLine(conn, "502 not implemented")
		r.ReadString('\n') // TYPE
		writeLine(conn, "200 Type set to I")
		r.ReadString('\n') // REST 100
		writeLine(conn, "502 REST not supported")
	})

	c, err := Dial(addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.AbruptlyCloseCommunication()
	if err := c.Login("anon", ""); err != nil {
		t.Fatalf("Login: %v", err)
	}

	err = c.RetrieveAt("file.bin", io.Discard, 100, nil)
	if err == nil {
		t.Fatalf("expected resume-not-supported error")
	}
	var svrErr *ServerError
	if !asServerError(err, &svrErr) || svrErr.Code != 502 {
		t.Errorf("err = %v, want ServerError{502}", err)
	}
}

func TestListUsesParserRegistryAndCaches(t *testing.T) {
	addr := acceptOne(t, func(conn net.Conn) {
		r := bufio.NewReader(conn)
		writeLine(conn, "220 ready")
		r.ReadString('\n') // USER
		writeLine(conn, "230 logged in")
		r.ReadString('\n') // FEAT
		writeLine(conn, "502 not implemented")

		for i := 0; i < 2; i++ {
			r.ReadString('\n') // TYPE A
			writeLine(conn, "200 Type set to A")

			r.ReadString('\n') // PASV
			dataLn, err := net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				t.Fatalf("data listen: %v", err)
			}
			tcpAddr := dataLn.Addr().(*net.TCPAddr)
			sextuple, _ := formatSextuple(tcpAddr.IP.To4(), tcpAddr.Port)
			writeLine(conn, fmt.Sprintf("227 Entering Passive Mode (%s).", sextuple))

			r.ReadString('\n') // LIST
			writeLine(conn, "150 Here comes the listing")

			dataConn, err := dataLn.Accept()
			dataLn.Close()
			if err != nil {
				t.Fatalf("data accept: %v", err)
			}
			writeLine(dataConn, "10-23-23  01:23PM                 100 a.txt")
			dataConn.Close()

			writeLine(conn, "226 Transfer complete")
		}
	})

	c, err := Dial(addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.AbruptlyCloseCommunication()
	if err := c.Login("anon", ""); err != nil {
		t.Fatalf("Login: %v", err)
	}

	entries, err := c.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "a.txt" {
		t.Fatalf("entries = %+v", entries)
	}
	if c.registry.cached == nil {
		t.Fatalf("expected a cached parser after first List")
	}
	cachedBefore := c.registry.cached

	if _, err := c.List(""); err != nil {
		t.Fatalf("second List: %v", err)
	}
	if c.registry.cached != cachedBefore {
		t.Errorf("cached parser changed between listings")
	}
}

func TestAbortDuringDownload(t *testing.T) {
	started := make(chan struct{})

	addr := acceptOne(t, func(conn net.Conn) {
		r := bufio.NewReader(conn)
		writeLine(conn, "220 ready")
		r.ReadString('\n') // USER
		writeLine(conn, "230 logged in")
		r.ReadString('\n') // FEAT
		writeLine(conn, "502 not implemented")
		r.ReadString('\n') // TYPE I
		writeLine(conn, "200 Type set to I")
		r.ReadString('\n') // REST 0
		writeLine(conn, "350 Restart position accepted")

		r.ReadString('\n') // PASV
		dataLn, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("data listen: %v", err)
		}
		tcpAddr := dataLn.Addr().(*net.TCPAddr)
		sextuple, _ := formatSextuple(tcpAddr.IP.To4(), tcpAddr.Port)
		writeLine(conn, "227 Entering Passive Mode ("+sextuple+").")

		r.ReadString('\n') // RETR
		writeLine(conn, "150 Opening data connection")

		dataConn, err := dataLn.Accept()
		dataLn.Close()
		if err != nil {
			t.Fatalf("data accept: %v", err)
		}

		go func() {
			chunk := make([]byte, 4096)
			close(started)
			for {
				if _, err := dataConn.Write(chunk); err != nil {
					return
				}
				time.Sleep(5 * time.Millisecond)
			}
		}()

		line, _ := r.ReadString('\n') // ABOR
		if !strings.HasPrefix(line, "ABOR") {
			t.Errorf("expected ABOR, got %q", line)
		}
		dataConn.Close()
		writeLine(conn, "426 Connection closed; transfer aborted")

		line, _ = r.ReadString('\n') // NOOP
		if !strings.HasPrefix(line, "NOOP") {
			t.Errorf("expected NOOP, got %q", line)
		}
		writeLine(conn, "200 OK")
	})

	c, err := Dial(addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.AbruptlyCloseCommunication()
	if err := c.Login("anon", ""); err != nil {
		t.Fatalf("Login: %v", err)
	}

	resultCh := make(chan error, 1)
	go func() {
		resultCh <- c.Retrieve("big.bin", io.Discard, nil)
	}()

	<-started
	time.Sleep(20 * time.Millisecond)
	if err := c.AbortTransfer(); err != nil {
		t.Fatalf("AbortTransfer: %v", err)
	}

	select {
	case err := <-resultCh:
		if _, ok := err.(*AbortedError); !ok {
			t.Fatalf("Retrieve returned %v (%T), want *AbortedError", err, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Retrieve did not return within bound after abort")
	}

	if err := c.Noop(); err != nil {
		t.Fatalf("Noop after abort: %v", err)
	}
}

func asServerError(err error, target **ServerError) bool {
	se, ok := err.(*ServerError)
	if !ok {
		return false
	}
	*target = se
	return true
}
