package auth

import "go.uber.org/fx"

// Module provides token handling and the authenticator to Fx.
var Module = fx.Provide(NewTokens, NewAuthenticator)
