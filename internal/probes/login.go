package probes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/su1ph3r/vigil/internal/executor"
	"github.com/su1ph3r/vigil/pkg/types"
)

// ErrLoginFailed is returned when the login request does not yield a token
var ErrLoginFailed = errors.New("login failed")

// Authenticate posts the configured credentials to the login endpoint and
// stores the returned token in session
func Authenticate(ctx context.Context, exec executor.Executor, session *executor.Session, auth types.AuthSettings) error {
	if !auth.HasCredentials() {
		return fmt.Errorf("%w: no credentials configured", ErrLoginFailed)
	}

	emailField := auth.EmailField
	if emailField == "" {
		emailField = "email"
	}
	passwordField := auth.PasswordField
	if passwordField == "" {
		passwordField = "password"
	}
	tokenField := auth.TokenField
	if tokenField == "" {
		tokenField = "token"
	}

	body, err := json.Marshal(map[string]string{
		emailField:    auth.Email,
		passwordField: auth.Password,
	})
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	resp, err := exec.Execute(ctx, executor.Request{
		Method: "POST",
		Path:   auth.LoginEndpoint,
		Body:   body,
	})
	if err != nil {
		return err
	}
	if resp.StatusCode != 200 {
		return fmt.Errorf("%w: %s answered %d", ErrLoginFailed, auth.LoginEndpoint, resp.StatusCode)
	}

	token, err := executor.ExtractToken(resp.Body, tokenField)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}

	session.SetToken(token)
	return nil
}
