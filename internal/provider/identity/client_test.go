package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler func(path string, body map[string]any) (int, string)) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		status, out := handler(r.URL.Path, body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(out))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestSignInReturnsTokens(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, func(path string, body map[string]any) (int, string) {
		if path != "/login" || body["username"] != "sam" || body["password"] != "hunter22" {
			return http.StatusBadRequest, `{"error":"unexpected request"}`
		}
		return http.StatusOK, `{"success":true,"tokens":{"accessToken":"a","refreshToken":"r","idToken":"i"}}`
	})

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	tokens, err := c.SignIn(context.Background(), " sam ", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, Tokens{Access: "a", Refresh: "r", ID: "i"}, tokens)
}

func TestSignInFailureCarriesServerMessage(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, func(string, map[string]any) (int, string) {
		return http.StatusUnauthorized, `{"error":"Incorrect username or password."}`
	})

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	_, err := c.SignIn(context.Background(), "sam", "wrong")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Incorrect username or password.", apiErr.Message)
}

func TestSignUpAndConfirmPostExpectedFields(t *testing.T) {
	t.Parallel()

	seen := map[string]map[string]any{}
	ts := newTestServer(t, func(path string, body map[string]any) (int, string) {
		seen[path] = body
		return http.StatusOK, `{"success":true,"message":"ok"}`
	})

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	require.NoError(t, c.SignUp(context.Background(), SignUpInput{Username: "sam", Password: "pw123456", Email: "Sam@example.com", Name: "Sam"}))
	require.NoError(t, c.ConfirmSignUp(context.Background(), "sam", "123456"))
	require.NoError(t, c.ResendCode(context.Background(), "sam"))
	require.NoError(t, c.ForgotPassword(context.Background(), "sam"))
	require.NoError(t, c.ConfirmForgotPassword(context.Background(), "sam", "654321", "newpass1"))
	require.NoError(t, c.UpdateAttributes(context.Background(), "access", map[string]string{"name": "Samantha"}))

	assert.Equal(t, "Sam@example.com", seen["/register"]["email"])
	assert.Equal(t, "Sam", seen["/register"]["name"])
	assert.Equal(t, "123456", seen["/verify"]["code"])
	assert.Equal(t, "sam", seen["/resend-code"]["username"])
	assert.Equal(t, "sam", seen["/forgot-password"]["username"])
	assert.Equal(t, "newpass1", seen["/confirm-password"]["newPassword"])
	assert.Equal(t, map[string]any{"name": "Samantha"}, seen["/attributes"]["attributes"])
}

func TestRequiredFieldsAreValidatedBeforeRequest(t *testing.T) {
	t.Parallel()

	c := &Client{BaseURL: "http://127.0.0.1:0"}
	require.Error(t, c.SignUp(context.Background(), SignUpInput{Username: "sam", Password: "pw"}))
	require.Error(t, c.ConfirmSignUp(context.Background(), "sam", " "))
	_, err := c.SignIn(context.Background(), "", "pw")
	require.Error(t, err)
	require.Error(t, c.UpdateAttributes(context.Background(), "tok", nil))
	require.Error(t, (&Client{}).ResendCode(context.Background(), "sam"))
}

func TestParseIDToken(t *testing.T) {
	t.Parallel()

	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "user-123",
		"email": "Sam@Example.com",
		"name":  "Sam",
		"exp":   exp.Unix(),
	})
	raw, err := tok.SignedString([]byte("test-key"))
	require.NoError(t, err)

	claims, err := ParseIDToken(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "sam@example.com", claims.Email)
	assert.Equal(t, "Sam", claims.Name)
	assert.True(t, claims.ExpiresAt.Equal(exp))
	assert.False(t, claims.Expired(exp.Add(-time.Minute)))
	assert.True(t, claims.Expired(exp))

	_, err = ParseIDToken("not-a-token")
	require.Error(t, err)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"email": "x@y.z"}).SignedString([]byte("k"))
	require.NoError(t, err)
	_, err = ParseIDToken(noSub)
	require.Error(t, err)
}
