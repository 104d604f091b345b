package dsn

import (
	"database/sql/driver"
	"io"
	"net"

	"github.com/pkg/errors"
)

// isConnError reports failures of the connection itself, as opposed to
// statement errors returned by the server.
func isConnError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
