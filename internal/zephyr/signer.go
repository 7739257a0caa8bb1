package zephyr

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/testgenie/testgenie/internal/contracts"
)

// tokenTTL bounds how long one signed request stays valid. Tokens are
// generated per call, so a short window is enough.
const tokenTTL = 60 * time.Second

// Signer produces per-request JWT credentials whose query string hash binds
// the token to one exact method, path, and query.
type Signer struct {
	accessKey string
	secretKey string
	accountID string
	now       func() time.Time
}

func NewSigner(accessKey string, secretKey string, accountID string) (*Signer, error) {
	trimmedAccess := strings.TrimSpace(accessKey)
	if trimmedAccess == "" {
		return nil, &Error{
			Code:       ErrorCodeInvalidInput,
			ReasonCode: contracts.ReasonCodeValidationFailed,
			Message:    "invalid signer options: access key must be set",
		}
	}

	trimmedSecret := strings.TrimSpace(secretKey)
	if trimmedSecret == "" {
		return nil, &Error{
			Code:       ErrorCodeInvalidInput,
			ReasonCode: contracts.ReasonCodeValidationFailed,
			Message:    "invalid signer options: secret key must be set",
		}
	}

	return &Signer{
		accessKey: trimmedAccess,
		secretKey: trimmedSecret,
		accountID: strings.TrimSpace(accountID),
		now:       time.Now,
	}, nil
}

// SignedRequest is one minted credential together with the request identity
// it covers.
type SignedRequest struct {
	Method    string
	Path      string
	IssuedAt  time.Time
	ExpiresAt time.Time
	QueryHash string
	Token     string
}

// Sign mints a token for one request. rawPath is the relative path with an
// optional query string; the signed hash covers exactly that identity, so
// the token works unchanged against any endpoint root.
func (s *Signer) Sign(method string, rawPath string) (SignedRequest, error) {
	if s == nil {
		return SignedRequest{}, &Error{Code: ErrorCodeInvalidInput, Message: "signer is nil"}
	}

	canonicalPath, queryHash, err := canonicalizeRequest(method, rawPath)
	if err != nil {
		return SignedRequest{}, err
	}

	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(tokenTTL)

	subject := s.accountID
	if subject == "" {
		subject = s.accessKey
	}

	claims := jwt.MapClaims{
		"iss": s.accessKey,
		"iat": issuedAt.Unix(),
		"exp": expiresAt.Unix(),
		"qsh": queryHash,
		"sub": subject,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.secretKey))
	if err != nil {
		return SignedRequest{}, &Error{
			Code:    ErrorCodeSignFailed,
			Message: "failed to sign request token",
			Err:     err,
		}
	}

	return SignedRequest{
		Method:    strings.ToUpper(strings.TrimSpace(method)),
		Path:      canonicalPath,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
		QueryHash: queryHash,
		Token:     token,
	}, nil
}

// canonicalizeRequest derives the canonical path and the query string hash
// for one request identity: METHOD&path&canonicalQuery hashed with SHA-256.
func canonicalizeRequest(method string, rawPath string) (string, string, error) {
	canonicalMethod := strings.ToUpper(strings.TrimSpace(method))
	if canonicalMethod == "" {
		return "", "", &Error{
			Code:       ErrorCodeInvalidInput,
			ReasonCode: contracts.ReasonCodeValidationFailed,
			Message:    "invalid sign request: method must be set",
		}
	}

	parsed, err := url.Parse(strings.TrimSpace(rawPath))
	if err != nil {
		return "", "", &Error{
			Code:       ErrorCodeInvalidInput,
			ReasonCode: contracts.ReasonCodeValidationFailed,
			Message:    "invalid sign request: path is malformed",
			Err:        err,
		}
	}

	canonicalPath := parsed.EscapedPath()
	if canonicalPath == "" {
		canonicalPath = "/"
	}
	if !strings.HasPrefix(canonicalPath, "/") {
		canonicalPath = "/" + canonicalPath
	}

	query, err := url.ParseQuery(parsed.RawQuery)
	if err != nil {
		return "", "", &Error{
			Code:       ErrorCodeInvalidInput,
			ReasonCode: contracts.ReasonCodeValidationFailed,
			Message:    "invalid sign request: query string is malformed",
			Err:        err,
		}
	}

	canonical := canonicalMethod + "&" + canonicalPath + "&" + canonicalQuery(query)
	digest := sha256.Sum256([]byte(canonical))
	return canonicalPath, hex.EncodeToString(digest[:]), nil
}

// canonicalQuery renders query parameters in the canonical form the backend
// verifies against: the jwt parameter dropped, entries sorted by key then
// value, each rendered as key=value with strict RFC 3986 escaping.
func canonicalQuery(query url.Values) string {
	type entry struct {
		key   string
		value string
	}

	entries := make([]entry, 0, len(query))
	for key, values := range query {
		if key == "jwt" {
			continue
		}
		encodedKey := percentEncode(key)
		for _, value := range values {
			entries = append(entries, entry{key: encodedKey, value: percentEncode(value)})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].key != entries[j].key {
			return entries[i].key < entries[j].key
		}
		return entries[i].value < entries[j].value
	})

	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, e.key+"="+e.value)
	}
	return strings.Join(parts, "&")
}

// percentEncode escapes everything outside the RFC 3986 unreserved set.
// url.QueryEscape cannot be used here: it leaves sub-delims like '!' and
// '*' bare and encodes spaces as '+', both of which break hash verification
// on the backend.
func percentEncode(value string) string {
	var builder strings.Builder
	builder.Grow(len(value))
	for i := 0; i < len(value); i++ {
		c := value[i]
		if isUnreserved(c) {
			builder.WriteByte(c)
			continue
		}
		builder.WriteString(fmt.Sprintf("%%%02X", c))
	}
	return builder.String()
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '-' || c == '.' || c == '_' || c == '~':
		return true
	default:
		return false
	}
}
