package session

import "errors"

// ErrNotFound is returned by Store.Get when no live session exists for a
// contact: none was ever created, it expired, or it was ended.
var ErrNotFound = errors.New("session not found")
