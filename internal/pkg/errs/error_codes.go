/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific business or system errors
both internally within the server and in communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1002
)

// 2xxx: Chat Protocol Business Logic Errors
const (
	// ErrUserExists indicates that the requested username is already registered.
	ErrUserExists = 2001

	// ErrUserNotFound indicates that the queried or targeted username is not registered.
	ErrUserNotFound = 2002

	// ErrInvalidStatus indicates that a status change request carried a value
	// outside the ACTIVE/BUSY/INACTIVE enum or named an unknown user.
	ErrInvalidStatus = 2003

	// ErrAlreadyRegistered indicates that the connection already completed a
	// registration and attempted a second one.
	ErrAlreadyRegistered = 2004
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000
)
