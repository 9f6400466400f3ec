package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 12 * time.Second

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

type SignUpInput struct {
	Username string
	Password string
	Email    string
	Name     string
}

type Tokens struct {
	Access  string `json:"accessToken"`
	Refresh string `json:"refreshToken"`
	ID      string `json:"idToken"`
}

// APIError is a non-2xx response from the identity endpoint.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("identity request failed with status %d", e.Status)
	}
	return fmt.Sprintf("identity request failed with status %d: %s", e.Status, e.Message)
}

type response struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Error   string  `json:"error"`
	Tokens  *Tokens `json:"tokens"`
}

func (c *Client) SignUp(ctx context.Context, in SignUpInput) error {
	if err := required(map[string]string{"username": in.Username, "password": in.Password, "email": in.Email}); err != nil {
		return err
	}
	body := map[string]string{
		"username": strings.TrimSpace(in.Username),
		"password": in.Password,
		"email":    strings.TrimSpace(in.Email),
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		body["name"] = name
	}
	_, err := c.post(ctx, "/register", body)
	return err
}

func (c *Client) ConfirmSignUp(ctx context.Context, username, code string) error {
	if err := required(map[string]string{"username": username, "code": code}); err != nil {
		return err
	}
	_, err := c.post(ctx, "/verify", map[string]string{
		"username": strings.TrimSpace(username),
		"code":     strings.TrimSpace(code),
	})
	return err
}

func (c *Client) SignIn(ctx context.Context, username, password string) (Tokens, error) {
	if err := required(map[string]string{"username": username, "password": password}); err != nil {
		return Tokens{}, err
	}
	resp, err := c.post(ctx, "/login", map[string]string{
		"username": strings.TrimSpace(username),
		"password": password,
	})
	if err != nil {
		return Tokens{}, err
	}
	if resp.Tokens == nil || resp.Tokens.Access == "" {
		return Tokens{}, fmt.Errorf("login response missing tokens")
	}
	return *resp.Tokens, nil
}

func (c *Client) ForgotPassword(ctx context.Context, username string) error {
	if err := required(map[string]string{"username": username}); err != nil {
		return err
	}
	_, err := c.post(ctx, "/forgot-password", map[string]string{"username": strings.TrimSpace(username)})
	return err
}

func (c *Client) ConfirmForgotPassword(ctx context.Context, username, code, newPassword string) error {
	if err := required(map[string]string{"username": username, "code": code, "password": newPassword}); err != nil {
		return err
	}
	_, err := c.post(ctx, "/confirm-password", map[string]string{
		"username":    strings.TrimSpace(username),
		"code":        strings.TrimSpace(code),
		"newPassword": newPassword,
	})
	return err
}

func (c *Client) ResendCode(ctx context.Context, username string) error {
	if err := required(map[string]string{"username": username}); err != nil {
		return err
	}
	_, err := c.post(ctx, "/resend-code", map[string]string{"username": strings.TrimSpace(username)})
	return err
}

func (c *Client) UpdateAttributes(ctx context.Context, accessToken string, attrs map[string]string) error {
	if strings.TrimSpace(accessToken) == "" {
		return fmt.Errorf("access token is required")
	}
	if len(attrs) == 0 {
		return fmt.Errorf("at least one attribute is required")
	}
	_, err := c.post(ctx, "/attributes", map[string]any{
		"accessToken": accessToken,
		"attributes":  attrs,
	})
	return err
}

func (c *Client) post(ctx context.Context, path string, body any) (response, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if baseURL == "" {
		return response{}, fmt.Errorf("identity endpoint is not configured")
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return response{}, fmt.Errorf("marshal identity payload: %w", err)
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return response{}, fmt.Errorf("create identity request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("execute identity request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return response{}, fmt.Errorf("read identity response: %w", err)
	}
	var out response
	decodeErr := json.Unmarshal(raw, &out)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := out.Error
		if msg == "" {
			msg = out.Message
		}
		return response{}, &APIError{Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return response{}, fmt.Errorf("decode identity response: %w", decodeErr)
	}
	return out, nil
}

func required(fields map[string]string) error {
	for _, name := range []string{"username", "password", "email", "code"} {
		v, ok := fields[name]
		if ok && strings.TrimSpace(v) == "" {
			return fmt.Errorf("%s is required", name)
		}
	}
	return nil
}
