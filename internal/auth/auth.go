// Package auth supplies the authentication header for transcription requests.
//
// Two schemes are supported, chosen per deployment: a Microsoft Entra ID
// bearer token (the default, via DefaultAzureCredential) or a static api-key
// header. Components receive a Credential and never touch credential
// lifecycle beyond applying it to a single request.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// cognitiveScope is the token scope for Azure Cognitive Services.
const cognitiveScope = "https://cognitiveservices.azure.com/.default"

// refreshMargin forces a new token fetch when the cached one is close to expiry.
const refreshMargin = 2 * time.Minute

// Credential applies an authentication header to an outgoing request.
type Credential interface {
	// Apply sets the scheme's header on req.
	Apply(ctx context.Context, req *http.Request) error
	// Name is the human-readable scheme label recorded in run metadata.
	Name() string
}

// Compile-time interface implementation checks.
var (
	_ Credential = (*EntraCredential)(nil)
	_ Credential = (*APIKeyCredential)(nil)
)

// tokenGetter abstracts azcore.TokenCredential for testing.
type tokenGetter interface {
	GetToken(ctx context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error)
}

// EntraCredential authenticates with a Microsoft Entra ID bearer token.
// Tokens are cached until shortly before expiry.
type EntraCredential struct {
	cred tokenGetter

	mu    sync.Mutex
	token azcore.AccessToken
}

// NewEntraCredential builds an EntraCredential using the default Azure
// credential chain (environment, managed identity, CLI login).
func NewEntraCredential() (*EntraCredential, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("build Entra credential: %w", err)
	}
	return &EntraCredential{cred: cred}, nil
}

// newEntraCredentialFrom wires a custom token source (for tests).
func newEntraCredentialFrom(cred tokenGetter) *EntraCredential {
	return &EntraCredential{cred: cred}
}

// Apply sets an Authorization: Bearer header, fetching a token if needed.
func (e *EntraCredential) Apply(ctx context.Context, req *http.Request) error {
	tok, err := e.Bearer(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	return nil
}

// Name returns the metadata label for this scheme.
func (e *EntraCredential) Name() string { return "Microsoft Entra ID" }

// Bearer returns a valid token, reusing the cached one until it nears expiry.
func (e *EntraCredential) Bearer(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.token.Token != "" && time.Until(e.token.ExpiresOn) > refreshMargin {
		return e.token.Token, nil
	}

	tok, err := e.cred.GetToken(ctx, policy.TokenRequestOptions{
		Scopes: []string{cognitiveScope},
	})
	if err != nil {
		return "", fmt.Errorf("acquire Entra token: %w", err)
	}
	e.token = tok
	return tok.Token, nil
}

// APIKeyCredential authenticates with a static api-key header.
type APIKeyCredential struct {
	key string
}

// NewAPIKeyCredential builds an APIKeyCredential.
func NewAPIKeyCredential(key string) (*APIKeyCredential, error) {
	if key == "" {
		return nil, ErrAPIKeyMissing
	}
	return &APIKeyCredential{key: key}, nil
}

// Apply sets the api-key header.
func (a *APIKeyCredential) Apply(_ context.Context, req *http.Request) error {
	req.Header.Set("api-key", a.key)
	return nil
}

// Name returns the metadata label for this scheme.
func (a *APIKeyCredential) Name() string { return "API Key" }
