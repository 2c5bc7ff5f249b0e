package common

import "time"

// TokenCookieName is the HTTP-only cookie carrying the signed bearer token.
const TokenCookieName = "token"

// SessionValidity is the lifetime of a login session and of its bearer token.
const SessionValidity = 7 * 24 * time.Hour

// MaxUploadSize bounds avatar and inline image uploads.
const MaxUploadSize = 5 << 20
