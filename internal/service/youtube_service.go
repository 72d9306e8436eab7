package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	config "github.com/bloomworks/florapost/configs"
	"github.com/bloomworks/florapost/internal/models"
	"github.com/bloomworks/florapost/internal/repository"
	"github.com/bloomworks/florapost/internal/transfer"
	"github.com/bloomworks/florapost/pkg/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

type YoutubeService interface {
	AuthURL(state string) string
	YoutubeCallback(ctx context.Context, code string) error
	RefreshYoutubeToken(ctx context.Context, refreshToken string) error
	HandleYoutubePost(ctx context.Context, post *models.FlowerPost, account *models.PlatformAccount) (*models.PublishResult, error)
}

type youtubeService struct {
	cfg config.Config
	ar  repository.AccountRepository
}

func NewYoutubeService(cfg config.Config, ar repository.AccountRepository) YoutubeService {
	return &youtubeService{cfg: cfg, ar: ar}
}

func (s *youtubeService) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.GoogleClientID,
		ClientSecret: s.cfg.GoogleClientSecret,
		RedirectURL:  s.cfg.GoogleRedirectURI,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
			"https://www.googleapis.com/auth/youtube.upload",
		},
		Endpoint: google.Endpoint,
	}
}

func (s *youtubeService) AuthURL(state string) string {
	return s.oauthConfig().AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (s *youtubeService) YoutubeCallback(ctx context.Context, code string) (err error) {

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

	token, err := oauth2Config.Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	if token.RefreshToken == "" {
		err = errors.New("refresh token is empty")
		slog.Info(err.Error())
		return err
	}

	client := oauth2Config.Client(ctx, token)
	userInfo, err := getGoogleUserInfo(client)
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

	accountInfo := &models.PlatformAccount{
		Platform:       models.PlatformYoutube,
		AccountID:      userInfo.ID,
		AccountName:    userInfo.Name,
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

func (s *youtubeService) RefreshYoutubeToken(ctx context.Context, refreshToken string) error {
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

	err = s.ar.SetToken(ctx, models.PlatformYoutube, &account)
	if err != nil {
		return err
	}

	return nil
}

// HandleYoutubePost uploads the rendered shorts video. The video must already
// be in object storage, which is where the renderer leaves it.
func (s *youtubeService) HandleYoutubePost(ctx context.Context, post *models.FlowerPost, account *models.PlatformAccount) (*models.PublishResult, error) {
	if account == nil {
		return nil, fmt.Errorf("%w: youtube", models.ErrAccountNotFound)
	}

	if post.VideoURL == "" {
		return nil, fmt.Errorf("%w: no rendered video for post", models.ErrPublishing)
	}

	decryptedAccessToken, err := utils.Decrypt(account.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return nil, err
	}

	token := &oauth2.Token{AccessToken: decryptedAccessToken}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	service, err := youtube.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("%w: error creating YouTube service: %v", models.ErrPublishing, err)
	}

	tempFile, err := downloadVideo(post.VideoURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrPublishing, err)
	}
	defer os.Remove(tempFile)

	file, err := os.Open(tempFile)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("%w: error opening video file: %v", models.ErrPublishing, err)
	}
	defer file.Close()

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       youtubeTitle(post),
			Description: youtubeDescription(post),
			Tags:        snippetTags(post.InstagramTags),
			CategoryId:  "22",
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: "public",
		},
	}

	call := service.Videos.Insert([]string{"snippet", "status"}, video)
	response, err := call.Media(file).Do()
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("%w: error uploading video: %v", models.ErrPublishing, err)
	}

	videoURL := fmt.Sprintf("https://youtu.be/%s", response.Id)
	slog.Info(fmt.Sprintf("youtube shorts uploaded: %s", videoURL))

	return &models.PublishResult{
		Success:  true,
		Platform: models.PlatformYoutube,
		URL:      videoURL,
		PostID:   response.Id,
	}, nil
}

func youtubeTitle(post *models.FlowerPost) string {
	if post.Title != "" {
		return post.Title
	}
	if post.FlowerData != nil {
		return fmt.Sprintf("%s - %s", post.FlowerData.FlowerType.Korean, post.FlowerData.FlowerType.English)
	}
	return "오늘의 꽃"
}

func youtubeDescription(post *models.FlowerPost) string {
	if post.FlowerData == nil {
		return post.Description
	}
	return fmt.Sprintf("%s (%s) - %s\n\n#꽃 #플라워 #쇼츠",
		post.FlowerData.FlowerType.Korean,
		post.FlowerData.FlowerType.English,
		post.FlowerData.Meaning,
	)
}

// snippetTags turns hashtags into plain keyword tags.
func snippetTags(hashtags []string) []string {
	tags := make([]string, 0, len(hashtags))
	for _, tag := range hashtags {
		tag = strings.TrimPrefix(tag, "#")
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func downloadVideo(videoURL string) (string, error) {
	tempFile, err := os.CreateTemp("", "video-*.mp4")
	if err != nil {
		return "", fmt.Errorf("error creating temporary file: %w", err)
	}
	defer tempFile.Close()

	response, err := http.Get(videoURL)
	if err != nil {
		return "", fmt.Errorf("error downloading video: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected response status: %d", response.StatusCode)
	}

	if _, err = io.Copy(tempFile, response.Body); err != nil {
		return "", fmt.Errorf("error saving video to temporary file: %w", err)
	}

	return tempFile.Name(), nil
}

func getGoogleUserInfo(client *http.Client) (*transfer.GoogleUserInfo, error) {
	userInfoURL := "https://www.googleapis.com/oauth2/v1/userinfo"

	response, err := client.Get(userInfoURL)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("error fetching user info: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		slog.Info("Unexpected response status")
		return nil, fmt.Errorf("unexpected response status: %d", response.StatusCode)
	}

	var userInfo transfer.GoogleUserInfo
	if err := json.NewDecoder(response.Body).Decode(&userInfo); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("error decoding user info: %w", err)
	}

	return &userInfo, nil
}

func revokeGoogleAccess(accessToken string) error {
	revokeURL := "https://oauth2.googleapis.com/revoke"
	payload := []byte("token=" + accessToken)

	req, err := http.NewRequest("POST", revokeURL, strings.NewReader(string(payload)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to revoke token, status code: %d", resp.StatusCode)
	}
	return nil
}
