package config

import "errors"

var (
	errRequiredEnvMissing = errors.New("required env var is not set")
	errMalformedOverride  = errors.New("malformed kill-after override")
)
