// Package auth defines the credential set and the per-venue signing strategy
// contract. Each venue package ships its own Signer; the shared request
// plumbing only ever sees the interface.
package auth

import "errors"

// ErrCredentialsUnset is raised before any network call when an
// authenticated method is invoked without an API key and secret.
var ErrCredentialsUnset = errors.New("api credentials unset")

// Credentials holds the API key pair for one venue account.
type Credentials struct {
	Key    string
	Secret string
}

// IsSet returns whether both the key and secret are populated.
func (c *Credentials) IsSet() bool {
	return c != nil && c.Key != "" && c.Secret != ""
}

// Validate fails fast when either half of the pair is missing.
func (c *Credentials) Validate() error {
	if !c.IsSet() {
		return ErrCredentialsUnset
	}
	return nil
}

// SignRequest carries everything a venue's canonical string is built from.
// Body MUST be the exact bytes that will be transmitted; signers never
// re-serialize, since any byte-level difference between the signed and the
// sent payload invalidates the signature.
type SignRequest struct {
	Method    string
	Path      string
	Query     string
	Body      []byte
	Timestamp string
	Nonce     string
}

// Signer computes the authentication headers for one venue's dialect.
// Implementations are pure: fixed inputs always produce the same header set.
type Signer interface {
	Sign(creds *Credentials, r *SignRequest) (map[string]string, error)
}
