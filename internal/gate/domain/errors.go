package domain

import "errors"

// Failure taxonomy shared by the gate, the refresh coordinator and the
// capability facade. Malformed credentials use jwtx.ErrInvalidFormat.
var (
	ErrNoCredential        = errors.New("gate: no credential")
	ErrExpired             = errors.New("gate: credential expired")
	ErrRefreshTransient    = errors.New("gate: refresh failed, retry later")
	ErrRefreshPermanent    = errors.New("gate: refresh credential rejected")
	ErrInsufficientRole    = errors.New("gate: insufficient role")
	ErrManifestUnavailable = errors.New("gate: manifest unavailable")
)
