package handlers

import "errors"

var ErrSigningUnavailable = errors.New("upload signing unavailable")

func IsErrSigningUnavailable(err error) bool { return errors.Is(err, ErrSigningUnavailable) }
