package notifymux

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/banshee-data/velocity.trainer/internal/sensors"
)

// ErrMalformedLine is returned by ParseLine for lines that are neither a
// notification, a comment nor blank.
var ErrMalformedLine = errors.New("malformed notification line")

// ParseLine parses a bridge line of the form
//
//	<characteristic uuid16 hex> <payload hex>
//
// e.g. "2a63 0000c800". The payload may be split by spaces. Blank lines and
// lines starting with '#' yield ok=false and no error.
func ParseLine(line string) (n sensors.Notification, ok bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return n, false, nil
	}

	fields := strings.Fields(line)
	id := strings.TrimPrefix(strings.ToLower(fields[0]), "0x")
	c, err := strconv.ParseUint(id, 16, 16)
	if err != nil {
		return n, false, fmt.Errorf("%w %q: bad characteristic: %v", ErrMalformedLine, line, err)
	}

	payload, err := hex.DecodeString(strings.Join(fields[1:], ""))
	if err != nil {
		return n, false, fmt.Errorf("%w %q: bad payload: %v", ErrMalformedLine, line, err)
	}

	return sensors.Notification{Characteristic: sensors.Characteristic(c), Payload: payload}, true, nil
}

// FormatLine renders n in the form accepted by ParseLine, without a trailing
// newline.
func FormatLine(n sensors.Notification) string {
	return fmt.Sprintf("%04x %x", uint16(n.Characteristic), n.Payload)
}
