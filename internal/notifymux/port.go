package notifymux

import "io"

// Porter defines the minimal interface needed for a bridge port. Reads carry
// notification lines, writes carry bridge commands.
type Porter interface {
	io.ReadWriter
	io.Closer
}
