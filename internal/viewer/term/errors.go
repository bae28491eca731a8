package term

import "errors"

// ErrQuit is returned by Run when the user closes the viewer.
var ErrQuit = errors.New("viewer closed by user")
