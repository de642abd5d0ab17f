package activitypub

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"code.superseriousbusiness.org/httpsig"
	"github.com/avercourt/windlass/util"
)

// ErrSignature marks verification failures so callers can tell a bad
// signature apart from transport or decoding problems.
var ErrSignature = errors.New("http signature verification failed")

// SignRequest signs an outgoing HTTP request with the given private key.
// keyId format: "https://example.com/api/users/alice#key-<hex>"
// The signed header set is (request-target), host, date, and digest
// when a body is present.
func SignRequest(req *http.Request, body []byte, privateKey *rsa.PrivateKey, keyId string) error {
	headers := []string{httpsig.RequestTarget, "host", "date"}
	if body != nil {
		headers = append(headers, "digest")
	}

	signer, _, err := httpsig.NewSigner(
		[]httpsig.Algorithm{httpsig.RSA_SHA256},
		httpsig.DigestSha256,
		headers,
		httpsig.Signature,
		0,
	)
	if err != nil {
		return fmt.Errorf("failed to create signer: %w", err)
	}

	return signer.SignRequest(privateKey, keyId, req, body)
}

// VerifyRequest verifies the HTTP signature on an incoming request
// against the given public key PEM. Returns the keyId's actor URI on
// success.
func VerifyRequest(req *http.Request, publicKeyPem string) (string, error) {
	verifier, err := httpsig.NewVerifier(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSignature, err)
	}

	pubKey, err := util.ParsePublicKey(publicKeyPem)
	if err != nil {
		return "", fmt.Errorf("failed to parse public key: %w", err)
	}

	if err := verifier.Verify(pubKey, httpsig.RSA_SHA256); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSignature, err)
	}

	// The keyId is "https://example.com/api/users/alice#key-..." and we
	// want the actor URI.
	return strings.Split(verifier.KeyId(), "#")[0], nil
}

// KeyIDFromRequest parses the Signature header far enough to recover
// the keyId without verifying anything.
func KeyIDFromRequest(req *http.Request) (string, error) {
	verifier, err := httpsig.NewVerifier(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSignature, err)
	}
	return verifier.KeyId(), nil
}
