package player

import "errors"

// ErrNotFound is returned when no player exists for the given id.
var ErrNotFound = errors.New("player not found")
