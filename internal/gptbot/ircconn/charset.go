package ircconn

import (
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// charsetConn transcodes a connection between the wire charset and UTF-8.
// Characters the charset cannot represent are replaced on the way out.
type charsetConn struct {
	io.Reader
	io.Writer
	closer io.Closer
}

func withCharset(rwc io.ReadWriteCloser, enc encoding.Encoding) io.ReadWriteCloser {
	if enc == nil {
		return rwc
	}
	return &charsetConn{
		Reader: transform.NewReader(rwc, enc.NewDecoder()),
		Writer: transform.NewWriter(rwc, encoding.ReplaceUnsupported(enc.NewEncoder())),
		closer: rwc,
	}
}

func (c *charsetConn) Close() error { return c.closer.Close() }
