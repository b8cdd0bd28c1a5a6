package config

import "errors"

// Sentinel error kinds for this package, for errors.Is from callers.
var (
	ErrInvalidParams = errors.New("invalid detection params")
	ErrLoadParams    = errors.New("load detection params failed")
)
