package hal

import "errors"

// ErrOutOfRange is returned by an NVS implementation when a Store or
// Fetch would run past the end of the backing store.
var ErrOutOfRange = errors.New("hal: offset/length out of range")

// ErrSerialBusy is returned by a non-blocking Serial.WriteByte call
// when the transmit path has no room for another byte.
var ErrSerialBusy = errors.New("hal: serial write would block")
