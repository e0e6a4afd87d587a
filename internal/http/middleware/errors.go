package middleware

import "errors"

var (
	errMissingToken    = errors.New("Not authenticated")
	errNotAdmin        = errors.New("Unauthorized")
	errAuthUnavailable = errors.New("Could not validate session")
)
