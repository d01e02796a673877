package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func signClaims(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestVerifyRoleFromAppMetadata(t *testing.T) {
	token := signClaims(t, jwt.MapClaims{
		"sub":          "user-1",
		"email":        "admin@cards.test",
		"role":         "authenticated",
		"app_metadata": map[string]interface{}{"role": "admin"},
		"exp":          time.Now().Add(time.Minute).Unix(),
	})

	p, err := NewVerifier(secret).Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", p.UserID)
	assert.Equal(t, "admin@cards.test", p.Email)
	assert.Equal(t, RoleAdmin, p.Role)
}

func TestVerifyFallsBackToRoleClaimThenViewer(t *testing.T) {
	v := NewVerifier(secret)

	p, err := v.Verify(signClaims(t, jwt.MapClaims{"user_id": "u", "role": "manager", "exp": time.Now().Add(time.Minute).Unix()}))
	require.NoError(t, err)
	assert.Equal(t, "u", p.UserID)
	assert.Equal(t, RoleManager, p.Role)

	p, err = v.Verify(signClaims(t, jwt.MapClaims{"sub": "u", "role": "authenticated", "exp": time.Now().Add(time.Minute).Unix()}))
	require.NoError(t, err)
	assert.Equal(t, RoleViewer, p.Role)
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	v := NewVerifier(secret)

	_, err := v.Verify(signClaims(t, jwt.MapClaims{"sub": "u", "exp": time.Now().Add(-time.Minute).Unix()}))
	assert.Error(t, err, "expired")

	_, err = v.Verify(signClaims(t, jwt.MapClaims{"sub": "u"}))
	assert.Error(t, err, "no expiry")

	_, err = v.Verify(signClaims(t, jwt.MapClaims{"exp": time.Now().Add(time.Minute).Unix()}))
	assert.Error(t, err, "no subject")

	other, err := NewVerifier("other").Sign(Principal{UserID: "u", Role: RoleAdmin}, time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(other)
	assert.Error(t, err, "wrong secret")

	_, err = v.Verify(signClaims(t, jwt.MapClaims{
		"sub": "company_x/r.pdf",
		"aud": FileAudience,
		"exp": time.Now().Add(time.Minute).Unix(),
	}))
	assert.Error(t, err, "file link token")
}

func newApp(v *Verifier) *fiber.App {
	app := fiber.New()
	app.Use(AuthMiddleware(v))
	app.Get("/read", func(c *fiber.Ctx) error { return c.SendString(CurrentUser(c).UserID) })
	app.Post("/write", RequireRole(RoleAdmin, RoleManager), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	return app
}

func TestMiddlewareAndRoles(t *testing.T) {
	v := NewVerifier(secret)
	app := newApp(v)

	resp, err := app.Test(httptest.NewRequest("GET", "/read", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	viewer, err := v.Sign(Principal{UserID: "v", Role: RoleViewer}, time.Minute)
	require.NoError(t, err)
	manager, err := v.Sign(Principal{UserID: "m", Role: RoleManager}, time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/read", nil)
	req.Header.Set("Authorization", "Bearer "+viewer)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("POST", "/write", nil)
	req.Header.Set("Authorization", "Bearer "+viewer)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest("POST", "/write", nil)
	req.Header.Set("Authorization", "Bearer "+manager)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestAnonymous(t *testing.T) {
	app := fiber.New()
	app.Use(Anonymous(Principal{UserID: "local", Role: RoleAdmin}))
	app.Post("/write", RequireRole(RoleAdmin), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	resp, err := app.Test(httptest.NewRequest("POST", "/write", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}
