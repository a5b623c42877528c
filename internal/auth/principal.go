// Package auth carries the acting principal across service boundaries.
//
// Every cross-service request bears a short-lived HS256 token whose payload
// embeds the principal. Handlers decode it once at the edge and pass the
// Principal value explicitly into every service call; domain code never digs
// it out of a context.
package auth

// Principal is the authenticated user on whose behalf a request runs.
type Principal struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Subscriber bool   `json:"subscriber"`
}
