package errors

import "fmt"

// The two join errors are part of the wire contract: their texts are written
// verbatim to the client before the connection is closed, so existing clients
// can keep matching on them.
var (
	ErrInvalidNickname   = fmt.Errorf("Nickname can only alphanumerical characters.")
	ErrDuplicateNickname = fmt.Errorf("Nickname already used.")
	ErrSinkFull          = fmt.Errorf("sink buffer full")
	ErrWorkerPanic       = fmt.Errorf("worker panic")
)
