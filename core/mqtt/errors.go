package mqtt

import "errors"

// ErrPublishTimeout is returned when the broker does not confirm a publish in
// time.
var ErrPublishTimeout = errors.New("timeout waiting for publish confirmation")
