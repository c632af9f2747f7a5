package model

import "errors"

// ErrConfiguration marks errors caused by unusable configuration, such as an
// unresolvable repository or an invalid flag value. They abort the whole run.
var ErrConfiguration = errors.New("configuration error")
