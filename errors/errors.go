package errors

import "fmt"

var (
	ErrDuplicateConnection  = fmt.Errorf("connection already registered")
	ErrUnknownSession       = fmt.Errorf("no session for connection")
	ErrIdentityAlreadyBound = fmt.Errorf("session identity already bound")
	ErrUnknownDestination   = fmt.Errorf("no handler for destination")
	ErrSessionClosed        = fmt.Errorf("session is closed")
	ErrEmptySender          = fmt.Errorf("sender must not be empty")
	ErrWorkerPanic          = fmt.Errorf("worker panic")
	ErrEmptyWords           = fmt.Errorf("no words have been found")
)
