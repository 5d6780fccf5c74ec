package common

// AccessTokenCookieName is the cookie that carries the access token. It takes
// precedence over the Authorization header when both are present.
const AccessTokenCookieName = "access_token"

// AccessTokenMetadataKey is the gRPC metadata key used to carry the access token.
const AccessTokenMetadataKey = "access_token"

// APIPrefix is the versioned path prefix of the public HTTP API.
const APIPrefix = "/appli/v1"
