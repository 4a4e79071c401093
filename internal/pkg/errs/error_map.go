/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
HTTP responses and protocol error envelopes. Protocol-facing messages keep the exact
wording the command-line clients already expect.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the user message and HTTP status code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:     {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrRateLimitExceeded: {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Chat Protocol Business Logic Errors
	ErrUserExists:        {Code: ErrUserExists, Message: "El usuario ya existe"},
	ErrUserNotFound:      {Code: ErrUserNotFound, Message: "Usuario no encontrado"},
	ErrInvalidStatus:     {Code: ErrInvalidStatus, Message: "No se pudo cambiar el estado"},
	ErrAlreadyRegistered: {Code: ErrAlreadyRegistered, Message: "El usuario ya está registrado"},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
