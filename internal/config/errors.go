package config

import "errors"

var (
	ErrMissingField  = errors.New("missing required field")
	ErrInvalidConfig = errors.New("invalid config")
)

func IsErrMissingField(err error) bool  { return errors.Is(err, ErrMissingField) }
func IsErrInvalidConfig(err error) bool { return errors.Is(err, ErrInvalidConfig) }
