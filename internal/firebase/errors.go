package firebase

import "errors"

var (
	ErrNotInitialized = errors.New("firebase app not initialized")
	ErrClosed         = errors.New("firebase app is closed")
)

func IsErrNotInitialized(err error) bool { return errors.Is(err, ErrNotInitialized) }
func IsErrClosed(err error) bool         { return errors.Is(err, ErrClosed) }
