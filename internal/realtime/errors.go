package realtime

import "errors"

// ErrListenerClosed signals that the notify channel closed underneath the
// listener, usually a dropped database connection.
var ErrListenerClosed = errors.New("postgres listener channel closed")
