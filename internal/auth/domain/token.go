package domain

// TokenPair is what the auth flows return: the short-lived signed session
// token and the opaque refresh token used to mint new ones.
type TokenPair struct {
	SessionToken string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"` // typically "Bearer"
	ExpiresIn    int64  `json:"expires_in"`           // seconds until session token expiry
}
