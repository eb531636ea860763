package redline

// Buffer is the editor-owned document store. The engine is never the
// owner of live text; all of its mutations go through Write on a single
// serialized path per URI.
type Buffer interface {
	// Read returns the full current text of the document.
	Read(uri string) (string, error)

	// Write replaces the lines in r with text.
	Write(uri string, r LineRange, text string) error

	// SetWriteSuppressed raises or clears the write-suppression flag.
	// While the flag is set the buffer's change listeners must treat
	// writes as engine-initiated and skip realignment.
	SetWriteSuppressed(uri string, suppressed bool)
}
