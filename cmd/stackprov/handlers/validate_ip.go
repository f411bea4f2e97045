package handlers

import (
	"fmt"
	"io"

	"github.com/imamik/stackprov/internal/util/ipv4"
)

// ValidateIP prints whether addr is a valid dotted quad and returns an
// error when it is not.
func ValidateIP(out io.Writer, addr string) error {
	if !ipv4.IsValid(addr) {
		return fmt.Errorf("%q is not a valid IPv4 address: %s", addr, ipv4.FormatHint)
	}
	_, _ = fmt.Fprintf(out, "%s is a valid IPv4 address\n", addr)
	return nil
}
