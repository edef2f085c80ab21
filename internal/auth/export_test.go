package auth

// NewEntraCredentialFrom exposes the internal constructor for black-box tests.
var NewEntraCredentialFrom = newEntraCredentialFrom
