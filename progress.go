package ftp

// ProgressListener observes the lifecycle of a single data transfer. All
// methods are invoked synchronously from the goroutine running the
// transfer and must not block or call back into the Client.
type ProgressListener interface {
	// Started is called once the data connection is open and the transfer
	// command has been acknowledged, with the total size and the byte
	// offset the transfer resumes from. The built-in transfers do not look
	// up the remote size and always pass 0 for totalSize.
	Started(totalSize int64, resumeOffset int64)

	// Transferred is called after each chunk is pumped, with the
	// cumulative byte count transferred so far (including resumeOffset).
	Transferred(bytesSoFar int64)

	// Completed is called once after the data connection closes cleanly
	// and the server's final reply is a positive completion.
	Completed()

	// Aborted is called instead of Completed when the transfer ended
	// because AbortTransfer was called concurrently.
	Aborted()

	// Failed is called instead of Completed when the transfer ended due
	// to any other error.
	Failed(err error)
}

// noopProgressListener is used when a caller doesn't supply one.
type noopProgressListener struct{}

func (noopProgressListener) Started(int64, int64) {}
func (noopProgressListener) Transferred(int64)    {}
func (noopProgressListener) Completed()           {}
func (noopProgressListener) Aborted()             {}
func (noopProgressListener) Failed(error)         {}
