package health

import "errors"

var ErrAlreadyRegistered = errors.New("pinger already registered")
