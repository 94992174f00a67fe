package acceptance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pressrank/pressrank/internal/dto"
)

func (s *Suite) postJSON(path string, body interface{}) *http.Response {
	raw, err := json.Marshal(body)
	s.Require().NoError(err)

	resp, err := http.Post(s.BaseURL+path, "application/json", bytes.NewBuffer(raw))
	s.Require().NoError(err)
	return resp
}

func (s *Suite) register(email, password string) dto.RegisterResponse {
	resp := s.postJSON("/api/v1/auth/register", dto.RegisterRequest{
		Email:    email,
		Name:     "Test User",
		Password: password,
	})
	defer resp.Body.Close()
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var out dto.RegisterResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// confirmationToken reads the stored confirmation token straight from the
// database, standing in for the email the user would receive.
func (s *Suite) confirmationToken(email string) string {
	var token string
	err := s.Postgres.DB.QueryRow(
		"SELECT confirmation_token FROM users WHERE email = $1", email).Scan(&token)
	s.Require().NoError(err)
	return token
}

func (s *Suite) confirm(email string) {
	token := s.confirmationToken(email)
	resp, err := http.Get(s.BaseURL + "/api/v1/auth/confirm?token=" + token)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)
}

func (s *Suite) login(email, password string) dto.AuthResponse {
	resp := s.postJSON("/api/v1/auth/login", dto.LoginRequest{
		Email:    email,
		Password: password,
	})
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var out dto.AuthResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (s *Suite) TestRegister_Success() {
	out := s.register("new@example.com", "Password123")

	s.Equal("new@example.com", out.User.Email)
	s.Equal("user", out.User.Role)
	s.NotZero(out.User.ID)

	// The account starts inactive with a pending confirmation token.
	var isActive bool
	err := s.Postgres.DB.QueryRow(
		"SELECT is_active FROM users WHERE email = $1", "new@example.com").Scan(&isActive)
	s.Require().NoError(err)
	s.False(isActive)
	s.NotEmpty(s.confirmationToken("new@example.com"))
}

func (s *Suite) TestRegister_DuplicateEmail() {
	s.register("dup@example.com", "Password123")

	resp := s.postJSON("/api/v1/auth/register", dto.RegisterRequest{
		Email:    "dup@example.com",
		Name:     "Other User",
		Password: "Password123",
	})
	defer resp.Body.Close()

	s.Equal(http.StatusConflict, resp.StatusCode)
}

func (s *Suite) TestRegister_InvalidBody() {
	resp := s.postJSON("/api/v1/auth/register", map[string]string{
		"email": "not-an-email", "name": "X", "password": "short",
	})
	defer resp.Body.Close()

	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *Suite) TestLogin_BeforeConfirmation() {
	s.register("pending@example.com", "Password123")

	resp := s.postJSON("/api/v1/auth/login", dto.LoginRequest{
		Email:    "pending@example.com",
		Password: "Password123",
	})
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	var errResp dto.ErrorResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&errResp))
	s.Equal("ACCOUNT_DISABLED", errResp.Error)
}

func (s *Suite) TestLogin_WrongCredentials() {
	s.register("creds@example.com", "Password123")
	s.confirm("creds@example.com")

	unknown := s.postJSON("/api/v1/auth/login", dto.LoginRequest{
		Email: "nobody@example.com", Password: "Password123",
	})
	defer unknown.Body.Close()
	wrongPass := s.postJSON("/api/v1/auth/login", dto.LoginRequest{
		Email: "creds@example.com", Password: "WrongPassword1",
	})
	defer wrongPass.Body.Close()

	s.Equal(http.StatusUnauthorized, unknown.StatusCode)
	s.Equal(http.StatusUnauthorized, wrongPass.StatusCode)

	// Unknown email and wrong password are indistinguishable.
	var e1, e2 dto.ErrorResponse
	s.Require().NoError(json.NewDecoder(unknown.Body).Decode(&e1))
	s.Require().NoError(json.NewDecoder(wrongPass.Body).Decode(&e2))
	s.Equal(e1.Error, e2.Error)
	s.Equal(e1.Message, e2.Message)
}

func (s *Suite) TestAuthLifecycle() {
	s.register("cycle@example.com", "Password123")
	s.confirm("cycle@example.com")

	auth := s.login("cycle@example.com", "Password123")
	s.NotEmpty(auth.AccessToken)
	s.NotEmpty(auth.RefreshToken)
	s.Equal("Bearer", auth.TokenType)
	s.NotZero(auth.ExpiresIn)

	// Access token works.
	req, _ := http.NewRequest(http.MethodGet, s.BaseURL+"/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+auth.AccessToken)
	meResp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer meResp.Body.Close()
	s.Equal(http.StatusOK, meResp.StatusCode)

	var me dto.UserInfo
	s.Require().NoError(json.NewDecoder(meResp.Body).Decode(&me))
	s.Equal("cycle@example.com", me.Email)

	// Refresh rotates: the new pair works, the old refresh token is dead.
	refreshResp := s.postJSON("/api/v1/auth/refresh", dto.RefreshRequest{RefreshToken: auth.RefreshToken})
	defer refreshResp.Body.Close()
	s.Require().Equal(http.StatusOK, refreshResp.StatusCode)

	var refreshed dto.AuthResponse
	s.Require().NoError(json.NewDecoder(refreshResp.Body).Decode(&refreshed))
	s.NotEqual(auth.RefreshToken, refreshed.RefreshToken)

	replay := s.postJSON("/api/v1/auth/refresh", dto.RefreshRequest{RefreshToken: auth.RefreshToken})
	defer replay.Body.Close()
	s.Equal(http.StatusUnauthorized, replay.StatusCode)

	// Logout is idempotent.
	for i := 0; i < 2; i++ {
		logoutResp := s.postJSON("/api/v1/auth/logout", dto.LogoutRequest{RefreshToken: refreshed.RefreshToken})
		logoutResp.Body.Close()
		s.Equal(http.StatusNoContent, logoutResp.StatusCode, fmt.Sprintf("logout attempt %d", i+1))
	}

	dead := s.postJSON("/api/v1/auth/refresh", dto.RefreshRequest{RefreshToken: refreshed.RefreshToken})
	defer dead.Body.Close()
	s.Equal(http.StatusUnauthorized, dead.StatusCode)
}

func (s *Suite) TestPasswordReset() {
	s.register("reset@example.com", "Password123")
	s.confirm("reset@example.com")
	auth := s.login("reset@example.com", "Password123")

	// Request is silent for unknown addresses too.
	unknown := s.postJSON("/api/v1/auth/password-reset/request", dto.PasswordResetRequest{Email: "nobody@example.com"})
	unknown.Body.Close()
	s.Equal(http.StatusOK, unknown.StatusCode)

	reqResp := s.postJSON("/api/v1/auth/password-reset/request", dto.PasswordResetRequest{Email: "reset@example.com"})
	reqResp.Body.Close()
	s.Require().Equal(http.StatusOK, reqResp.StatusCode)

	var resetToken string
	err := s.Postgres.DB.QueryRow(
		"SELECT reset_token FROM users WHERE email = $1", "reset@example.com").Scan(&resetToken)
	s.Require().NoError(err)

	confirmResp := s.postJSON("/api/v1/auth/password-reset/confirm", dto.PasswordResetConfirmRequest{
		Token:    resetToken,
		Password: "NewPassword123",
	})
	confirmResp.Body.Close()
	s.Require().Equal(http.StatusOK, confirmResp.StatusCode)

	// The reset killed every live session.
	replay := s.postJSON("/api/v1/auth/refresh", dto.RefreshRequest{RefreshToken: auth.RefreshToken})
	defer replay.Body.Close()
	s.Equal(http.StatusUnauthorized, replay.StatusCode)

	// Old password is gone, new one works.
	oldLogin := s.postJSON("/api/v1/auth/login", dto.LoginRequest{Email: "reset@example.com", Password: "Password123"})
	oldLogin.Body.Close()
	s.Equal(http.StatusUnauthorized, oldLogin.StatusCode)

	s.login("reset@example.com", "NewPassword123")

	// The token was single use.
	reuse := s.postJSON("/api/v1/auth/password-reset/confirm", dto.PasswordResetConfirmRequest{
		Token:    resetToken,
		Password: "AnotherPassword1",
	})
	defer reuse.Body.Close()
	s.Equal(http.StatusBadRequest, reuse.StatusCode)
}

func (s *Suite) TestConfirm_UnknownToken() {
	resp, err := http.Get(s.BaseURL + "/api/v1/auth/confirm?token=does-not-exist")
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusBadRequest, resp.StatusCode)
}
