package ftp

import (
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/arlowen/goftp/internal/ratelimit"
)

// transferEngine drives a single data transfer over a control channel. Its
// abortMu is the "abort lock" of the concurrency model: it guards the
// ongoing/aborted flags and the live data connection, and is the only state
// shared between the goroutine running a transfer and a second goroutine
// calling AbortTransfer concurrently.
type transferEngine struct {
	cc     *controlChannel
	logger *slog.Logger

	abortMu  sync.Mutex
	ongoing  bool
	aborted  bool
	dataConn net.Conn
}

func newTransferEngine(cc *controlChannel, logger *slog.Logger) *transferEngine {
	return &transferEngine{cc: cc, logger: logger}
}

// pumpFunc copies bytes between the data connection and the caller's
// io.Reader/io.Writer. A non-nil error is reported as a DataTransferError,
// or as an AbortedError when the transfer was aborted.
type pumpFunc func(conn net.Conn) error

// run sends the already-composed transfer command (STOR/RETR/LIST/NLST and
// its argument), waits for the preliminary 1xx reply, opens the data
// connection via producer, runs pump, and reads the trailing completion
// reply. The wire lock is held only around the two discrete round trips
// (the command's preliminary reply, and the trailing reply after the data
// connection closes) so the keep-alive ticker can still send NOOP while
// pump is running.
func (e *transferEngine) run(command string, args []string, producer dataProducer, pump pumpFunc, listener ProgressListener, totalSize, resumeOffset int64) error {
	if listener == nil {
		listener = noopProgressListener{}
	}

	// Tags this transfer's log lines so they can be picked out of output
	// interleaved with other transfers and sessions.
	id := uuid.NewString()
	e.logger.Debug("transfer starting", "transfer_id", id, "command", command)

	e.abortMu.Lock()
	if e.aborted {
		e.abortMu.Unlock()
		producer.dispose()
		return &AbortedError{}
	}
	e.ongoing = true
	e.abortMu.Unlock()

	defer func() {
		e.abortMu.Lock()
		e.ongoing = false
		e.aborted = false
		e.dataConn = nil
		e.abortMu.Unlock()
	}()

	e.cc.wireMu.Lock()
	sendErr := e.cc.send(command, args...)
	var prelim *Reply
	var err error
	if sendErr == nil {
		prelim, err = e.cc.receive()
	} else {
		err = sendErr
	}
	e.cc.wireMu.Unlock()
	if err != nil {
		producer.dispose()
		listener.Failed(err)
		return err
	}
	if !prelim.Is1xx() {
		producer.dispose()
		err := &ServerError{Command: command, Code: prelim.Code, Lines: prelim.Lines}
		listener.Failed(err)
		return err
	}

	conn, err := producer.open()
	if err != nil {
		listener.Failed(err)
		return err
	}

	e.abortMu.Lock()
	if e.aborted {
		e.abortMu.Unlock()
		conn.Close()
		listener.Aborted()
		return &AbortedError{}
	}
	e.dataConn = conn
	e.abortMu.Unlock()

	listener.Started(totalSize, resumeOffset)

	pumpErr := pump(conn)
	conn.Close()

	e.abortMu.Lock()
	aborted := e.aborted
	e.abortMu.Unlock()

	e.cc.wireMu.Lock()
	trailing, trailErr := e.cc.receive()
	e.cc.wireMu.Unlock()

	if aborted {
		e.logger.Debug("transfer aborted", "transfer_id", id)
		listener.Aborted()
		return &AbortedError{}
	}
	if pumpErr != nil {
		wrapped := &DataTransferError{Err: pumpErr}
		e.logger.Debug("transfer failed", "transfer_id", id, "error", wrapped)
		listener.Failed(wrapped)
		return wrapped
	}
	if trailErr != nil {
		e.logger.Debug("transfer failed reading trailing reply", "transfer_id", id, "error", trailErr)
		listener.Failed(trailErr)
		return trailErr
	}
	if !trailing.Is2xx() {
		svrErr := &ServerError{Command: command, Code: trailing.Code, Lines: trailing.Lines}
		e.logger.Debug("transfer failed", "transfer_id", id, "error", svrErr)
		listener.Failed(svrErr)
		return svrErr
	}
	e.logger.Debug("transfer completed", "transfer_id", id)
	listener.Completed()
	return nil
}

// abortCurrent cancels the in-flight transfer: it marks the engine aborted,
// sends ABOR so the server also gives up the transfer, and then closes the
// live data connection (unblocking whatever read/write pump is stuck on it).
func (e *transferEngine) abortCurrent() error {
	e.abortMu.Lock()
	if !e.ongoing {
		e.abortMu.Unlock()
		return &IllegalStateError{Op: "ABOR", Reason: "no transfer in progress"}
	}
	e.aborted = true
	conn := e.dataConn
	e.abortMu.Unlock()

	e.cc.wireMu.Lock()
	err := e.cc.send("ABOR")
	e.cc.wireMu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	return err
}

// isOngoing reports whether a transfer is currently in flight.
func (e *transferEngine) isOngoing() bool {
	e.abortMu.Lock()
	defer e.abortMu.Unlock()
	return e.ongoing
}

const transferChunkSize = 32 * 1024

// copyRetrieve pumps conn -> dst, converting NVT-ASCII line endings when
// textual is true, rate-limiting via limiter (nil disables it), and
// reporting cumulative bytes (including resumeOffset) to listener.
func copyRetrieve(dst io.Writer, conn net.Conn, textual bool, limiter *ratelimit.Limiter, resumeOffset int64, listener ProgressListener) error {
	var src io.Reader = conn
	if limiter != nil {
		src = ratelimit.NewReader(src, limiter)
	}
	if textual {
		src = newNVTASCIIReader(src)
	}
	return copyWithProgress(dst, src, resumeOffset, listener)
}

// copyStore pumps src -> conn, the upload counterpart of copyRetrieve.
func copyStore(conn net.Conn, src io.Reader, textual bool, limiter *ratelimit.Limiter, resumeOffset int64, listener ProgressListener) error {
	var dst io.Writer = conn
	if limiter != nil {
		dst = ratelimit.NewWriter(dst, limiter)
	}
	if textual {
		dst = newNVTASCIIWriter(dst)
	}
	return copyWithProgress(dst, src, resumeOffset, listener)
}

func copyWithProgress(dst io.Writer, src io.Reader, resumeOffset int64, listener ProgressListener) error {
	buf := make([]byte, transferChunkSize)
	total := resumeOffset
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
			total += int64(n)
			listener.Transferred(total)
		}
		if rerr != nil {
			if rerr == io.EOF {
				return nil
			}
			return rerr
		}
	}
}
