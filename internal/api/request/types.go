package request

import "github.com/davidwalker2235/hcongame/internal/services/storeproxy"

// StoreRequest is the request body of the session store proxy
type StoreRequest = storeproxy.Request

// VerifyUserRequest is the request body for POST /api/verify-user
type VerifyUserRequest struct {
	SessionID string `json:"sessionId"`
}

// RegisterRequest is the request body for registering a player profile
type RegisterRequest struct {
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
}

// CreateUserRequest is the request body for creating a player profile.
// An empty token asks the server to generate one.
type CreateUserRequest struct {
	Token string `json:"token,omitempty"`
}
