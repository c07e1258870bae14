package source

import "errors"

// ErrHardwareUnavailable is returned when the GPIO chip or SPI port
// cannot be opened, or when hardware access is requested on a platform
// without it.
var ErrHardwareUnavailable = errors.New("source: hardware unavailable")
