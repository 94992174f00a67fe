package acceptance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pressrank/pressrank/internal/domain"
	"github.com/pressrank/pressrank/internal/dto"
)

func (s *Suite) authedJSON(method, path, token string, body interface{}) *http.Response {
	var buf *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		buf = bytes.NewBuffer(raw)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, s.BaseURL+path, buf)
	s.Require().NoError(err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *Suite) activeUser(email string) dto.AuthResponse {
	s.register(email, "Password123")
	s.confirm(email)
	return s.login(email, "Password123")
}

func (s *Suite) TestContentFlow() {
	auth := s.activeUser("writer@example.com")

	// Create an author.
	authorResp := s.authedJSON(http.MethodPost, "/api/v1/authors", auth.AccessToken, dto.CreateAuthorRequest{
		Name: "Jane Journalist",
	})
	defer authorResp.Body.Close()
	s.Require().Equal(http.StatusCreated, authorResp.StatusCode)

	var author domain.Author
	s.Require().NoError(json.NewDecoder(authorResp.Body).Decode(&author))
	s.NotZero(author.ID)

	// Submit an article for that author.
	articleResp := s.authedJSON(http.MethodPost, "/api/v1/articles", auth.AccessToken, dto.CreateArticleRequest{
		Title:    "A Longread Worth Ranking",
		URL:      "https://news.example.com/longread",
		AuthorID: author.ID,
	})
	defer articleResp.Body.Close()
	s.Require().Equal(http.StatusCreated, articleResp.StatusCode)

	var article domain.Article
	s.Require().NoError(json.NewDecoder(articleResp.Body).Decode(&article))

	// Rank it along two dimensions.
	for dim, score := range map[string]int{domain.DimensionInsight: 8, domain.DimensionStyle: 6} {
		rankResp := s.authedJSON(http.MethodPost,
			fmt.Sprintf("/api/v1/articles/%d/rankings", article.ID), auth.AccessToken,
			dto.RankArticleRequest{Dimension: dim, Score: score})
		rankResp.Body.Close()
		s.Require().Equal(http.StatusCreated, rankResp.StatusCode)
	}

	// Aggregates are public.
	scoresResp, err := http.Get(s.BaseURL + fmt.Sprintf("/api/v1/articles/%d/scores", article.ID))
	s.Require().NoError(err)
	defer scoresResp.Body.Close()
	s.Require().Equal(http.StatusOK, scoresResp.StatusCode)

	var scores domain.ArticleScores
	s.Require().NoError(json.NewDecoder(scoresResp.Body).Decode(&scores))
	s.Equal(2, scores.Count)
	s.InDelta(8.0, scores.Averages[domain.DimensionInsight], 0.001)
}

func (s *Suite) TestRankArticle_RequiresAuth() {
	resp := s.postJSON("/api/v1/articles/1/rankings", dto.RankArticleRequest{
		Dimension: domain.DimensionInsight, Score: 5,
	})
	defer resp.Body.Close()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestDeleteArticle_RequiresAdmin() {
	auth := s.activeUser("plain@example.com")

	resp := s.authedJSON(http.MethodDelete, "/api/v1/articles/1", auth.AccessToken, nil)
	defer resp.Body.Close()
	s.Equal(http.StatusForbidden, resp.StatusCode)
}

func (s *Suite) TestAdminUserManagement() {
	admin := s.activeUser("admin@example.com")
	_, err := s.Postgres.DB.Exec("UPDATE users SET role = 'admin' WHERE email = $1", "admin@example.com")
	s.Require().NoError(err)
	// Re-login so the access token carries the admin role.
	admin = s.login("admin@example.com", "Password123")

	target := s.activeUser("target@example.com")

	// Disable the target account.
	resp := s.authedJSON(http.MethodPatch,
		fmt.Sprintf("/api/v1/users/%d/active", target.User.ID), admin.AccessToken,
		map[string]bool{"active": false})
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	// The disabled user can no longer log in, and the error says why.
	login := s.postJSON("/api/v1/auth/login", dto.LoginRequest{
		Email: "target@example.com", Password: "Password123",
	})
	defer login.Body.Close()
	s.Equal(http.StatusUnauthorized, login.StatusCode)

	var errResp dto.ErrorResponse
	s.Require().NoError(json.NewDecoder(login.Body).Decode(&errResp))
	s.Equal("ACCOUNT_DISABLED", errResp.Error)

	// Their live refresh tokens are gone too.
	refresh := s.postJSON("/api/v1/auth/refresh", dto.RefreshRequest{RefreshToken: target.RefreshToken})
	defer refresh.Body.Close()
	s.Equal(http.StatusUnauthorized, refresh.StatusCode)
}
