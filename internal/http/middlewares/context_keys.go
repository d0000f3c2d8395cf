package middlewares

import "github.com/geocoder89/authbase/internal/http/respond"

// gin context keys. The authenticated user lives on the request's
// context.Context (see actorctx), not on the gin context.
const CtxRequestID = respond.RequestIDKey
