package foundry

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

const userAgent = "foundry-go/0.1.0"

// tokenRefreshSkew is how long before expiry a cached token is replaced.
const tokenRefreshSkew = 2 * time.Minute

// Auth handles header generation. With an API key it sends the api-key
// header; otherwise it sends a bearer token from the credential, cached
// until shortly before expiry.
type Auth struct {
	apiKey     string
	credential azcore.TokenCredential
	scope      string

	mu    sync.Mutex
	token azcore.AccessToken
	now   func() time.Time
}

func newAuth(cfg Config) (*Auth, error) {
	a := &Auth{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		credential: cfg.Credential,
		scope:      firstNonEmpty(cfg.TokenScope, defaultTokenScope),
		now:        time.Now,
	}
	if a.apiKey != "" || a.credential != nil {
		return a, nil
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, &ConfigError{Field: "credential", Hint: ErrMissingCredential.Hint, Err: err}
	}
	a.credential = cred
	return a, nil
}

// Headers returns default headers including auth.
func (a *Auth) Headers(ctx context.Context) (http.Header, error) {
	h := http.Header{}
	h.Set("User-Agent", userAgent)
	if a.apiKey != "" {
		h.Set("api-key", a.apiKey)
		return h, nil
	}
	token, err := a.Token(ctx)
	if err != nil {
		return nil, err
	}
	h.Set("Authorization", "Bearer "+token)
	return h, nil
}

// Token returns a bearer token for the configured scope.
func (a *Auth) Token(ctx context.Context) (string, error) {
	if a.credential == nil {
		return "", ErrMissingCredential
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.token.Token != "" && a.now().Add(tokenRefreshSkew).Before(a.token.ExpiresOn) {
		return a.token.Token, nil
	}
	tok, err := a.credential.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{a.scope}})
	if err != nil {
		return "", fmt.Errorf("acquire token for %s: %w", a.scope, err)
	}
	a.token = tok
	return tok.Token, nil
}
