package domain

import "errors"

// Authorization failures.
var (
	ErrUnauthorizedTransition = errors.New("view not reachable for current role")
	ErrNotAuthenticated       = errors.New("no authenticated session")
	ErrUnauthorized           = errors.New("remote rejected credential")
	ErrInvalidCredentials     = errors.New("email and password are required")
)

var ErrInvalidTransition = errors.New("invalid transition")
var ErrInvalidRole = errors.New("invalid role")

// Cart and order failures.
var (
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	ErrLineNotFound    = errors.New("cart line not found")
	ErrInvalidProduct  = errors.New("product id is required")
	ErrOrderNotFound   = errors.New("order not found")
	ErrMutationFailed  = errors.New("mutation failed")
	ErrLoadFailed      = errors.New("load failed")
)

var ErrRemoteRejected = errors.New("remote request failed")
var ErrKeyNotFound = errors.New("key not found")
