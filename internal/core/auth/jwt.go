package auth

import (
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// FileAudience is the aud claim of signed download links. Tokens carrying it
// never authenticate API requests.
const FileAudience = "file-download"

// Verifier validates HS256 access tokens issued by the hosted auth provider
type Verifier struct {
	secretKey []byte
}

// NewVerifier creates a verifier for the shared signing secret
func NewVerifier(secretKey string) *Verifier {
	return &Verifier{secretKey: []byte(secretKey)}
}

// Verify validates a token and extracts the caller. The role comes from
// app_metadata.role, then the top-level role claim, defaulting to viewer.
func (v *Verifier) Verify(tokenString string) (*Principal, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secretKey, nil
	}, jwt.WithExpirationRequired())

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	aud, err := claims.GetAudience()
	if err != nil {
		return nil, fmt.Errorf("invalid audience claim: %w", err)
	}
	if slices.Contains(aud, FileAudience) {
		return nil, fmt.Errorf("file link token is not an access token")
	}

	userID, _ := claims["sub"].(string)
	if userID == "" {
		userID, _ = claims["user_id"].(string)
	}
	if userID == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	email, _ := claims["email"].(string)

	role := ""
	if meta, ok := claims["app_metadata"].(map[string]interface{}); ok {
		role, _ = meta["role"].(string)
	}
	if role == "" {
		role, _ = claims["role"].(string)
	}

	return &Principal{
		UserID: userID,
		Email:  email,
		Role:   NormalizeRole(role),
	}, nil
}

// Sign issues a token for p; used by tooling and tests
func (v *Verifier) Sign(p Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":          p.UserID,
		"email":        p.Email,
		"app_metadata": map[string]interface{}{"role": p.Role},
		"exp":          now.Add(ttl).Unix(),
		"iat":          now.Unix(),
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}
