package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	config "github.com/bloomworks/florapost/configs"
	"github.com/bloomworks/florapost/internal/models"
	"github.com/bloomworks/florapost/internal/repository"
	"github.com/bloomworks/florapost/internal/transfer"
	"github.com/bloomworks/florapost/pkg/utils"
	"golang.org/x/oauth2"
)

var naverEndpoint = oauth2.Endpoint{
	AuthURL:  "https://nid.naver.com/oauth2.0/authorize",
	TokenURL: "https://nid.naver.com/oauth2.0/token",
}

type NaverService interface {
	AuthURL(state string) string
	NaverCallback(ctx context.Context, code, state string) error
	RefreshNaverToken(ctx context.Context, refreshToken string) error
	HandleNaverPost(ctx context.Context, post *models.FlowerPost, account *models.PlatformAccount) (*models.PublishResult, error)
}

type naverService struct {
	cfg config.Config
	ar  repository.AccountRepository
}

func NewNaverService(cfg config.Config, ar repository.AccountRepository) NaverService {
	return &naverService{cfg: cfg, ar: ar}
}

func (s *naverService) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.NaverClientID,
		ClientSecret: s.cfg.NaverClientSecret,
		RedirectURL:  s.cfg.NaverRedirectURI,
		Endpoint:     naverEndpoint,
	}
}

func (s *naverService) AuthURL(state string) string {
	return s.oauthConfig().AuthCodeURL(state)
}

func (s *naverService) NaverCallback(ctx context.Context, code, state string) (err error) {

	if code == "" {
		err = errors.New("code is empty")
		slog.Info(err.Error())
		return err
	}

	oauth2Config := s.oauthConfig()
	if oauth2Config.ClientID == "" || oauth2Config.ClientSecret == "" || oauth2Config.RedirectURL == "" {
		err = errors.New("OAuth2 configuration is incomplete")
		slog.Info(err.Error())
		return err
	}

	token, err := oauth2Config.Exchange(ctx, code, oauth2.SetAuthURLParam("state", state))
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	client := oauth2Config.Client(ctx, token)
	profile, err := getNaverProfile(client)
	if err != nil {
		return err
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(token.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	encryptedRefreshToken, err := utils.Encrypt([]byte(token.RefreshToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	accountName := profile.Response.Nickname
	if accountName == "" {
		accountName = profile.Response.Name
	}

	accountInfo := &models.PlatformAccount{
		Platform:       models.PlatformNaver,
		AccountID:      profile.Response.ID,
		AccountName:    accountName,
		AccessToken:    encryptedAccessToken,
		RefreshToken:   encryptedRefreshToken,
		TokenExpiresAt: token.Expiry,
	}

	_, err = s.ar.Upsert(ctx, accountInfo)
	if err != nil {
		return err
	}

	return nil
}

func (s *naverService) RefreshNaverToken(ctx context.Context, refreshToken string) error {
	decryptedRefreshToken, err := utils.Decrypt(refreshToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	tokenSource := s.oauthConfig().TokenSource(ctx, &oauth2.Token{RefreshToken: decryptedRefreshToken})

	token, err := tokenSource.Token()
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(token.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	account := models.PlatformAccount{
		AccessToken:    encryptedAccessToken,
		TokenExpiresAt: token.Expiry,
	}

	err = s.ar.SetToken(ctx, models.PlatformNaver, &account)
	if err != nil {
		return err
	}

	return nil
}

// HandleNaverPost publishes the generated blog content through the Naver blog
// OpenAPI. The post images are embedded into the contents since the write
// endpoint takes a single HTML body.
func (s *naverService) HandleNaverPost(ctx context.Context, post *models.FlowerPost, account *models.PlatformAccount) (*models.PublishResult, error) {
	if account == nil {
		return nil, fmt.Errorf("%w: naver", models.ErrAccountNotFound)
	}

	decryptedAccessToken, err := utils.Decrypt(account.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return nil, err
	}

	title := naverTitle(post)
	if title == "" {
		return nil, fmt.Errorf("%w: post title is empty", models.ErrPublishing)
	}
	if post.BlogContent == "" {
		return nil, fmt.Errorf("%w: blog content is empty", models.ErrPublishing)
	}

	var contents strings.Builder
	contents.WriteString(post.BlogContent)
	for _, imageURL := range post.ImageURLs {
		contents.WriteString(fmt.Sprintf(`<p><img src="%s"></p>`, imageURL))
	}

	data := url.Values{}
	data.Set("title", title)
	data.Set("contents", contents.String())

	req, err := http.NewRequestWithContext(ctx, "POST",
		"https://openapi.naver.com/blog/writePost.json",
		strings.NewReader(data.Encode()),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+decryptedAccessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("%w: %v", models.ErrPublishing, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code from Naver: %d", models.ErrPublishing, resp.StatusCode)
	}

	var result transfer.NaverPostResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("%w: error parsing response: %v", models.ErrPublishing, err)
	}

	postURL := result.Message.Result.PostURL
	if postURL == "" {
		return nil, fmt.Errorf("%w: no post URL returned from Naver", models.ErrPublishing)
	}

	slog.Info(fmt.Sprintf("naver blog post published: %s", postURL))
	return &models.PublishResult{
		Success:  true,
		Platform: models.PlatformNaver,
		URL:      postURL,
		PostID:   result.Message.Result.LogNo,
	}, nil
}

// naverTitle falls back to "<flower> - <meaning>" when the submitter left the
// title empty.
func naverTitle(post *models.FlowerPost) string {
	if post.Title != "" {
		return post.Title
	}
	if post.FlowerData != nil {
		return fmt.Sprintf("%s - %s", post.FlowerData.FlowerType.Korean, post.FlowerData.Meaning)
	}
	return ""
}

func getNaverProfile(client *http.Client) (*transfer.NaverProfile, error) {
	resp, err := client.Get("https://openapi.naver.com/v1/nid/me")
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("error fetching naver profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Info("Unexpected response status")
		return nil, fmt.Errorf("unexpected response status: %d", resp.StatusCode)
	}

	var profile transfer.NaverProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("error decoding naver profile: %w", err)
	}

	return &profile, nil
}
