package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	config "github.com/bloomworks/florapost/configs"
	"github.com/bloomworks/florapost/internal/models"
	"github.com/bloomworks/florapost/internal/repository"
	"github.com/bloomworks/florapost/internal/transfer"
	"github.com/bloomworks/florapost/pkg/utils"
)

const instagramGraphURL = "https://graph.instagram.com/v21.0"

type InstagramService interface {
	AuthURL(state string) string
	InstagramCallback(ctx context.Context, code string) error
	RefreshInstagramToken(ctx context.Context, refreshToken string) error
	HandleInstagramPost(ctx context.Context, post *models.FlowerPost, account *models.PlatformAccount) (*models.PublishResult, error)
}

type instagramService struct {
	cfg config.Config
	ar  repository.AccountRepository
}

func NewInstagramService(cfg config.Config, ar repository.AccountRepository) InstagramService {
	return &instagramService{cfg: cfg, ar: ar}
}

func (ig *instagramService) AuthURL(state string) string {
	params := url.Values{}
	params.Set("client_id", ig.cfg.InstagramClientID)
	params.Set("redirect_uri", ig.cfg.InstagramRedirectURI)
	params.Set("scope", "instagram_business_basic,instagram_business_content_publish")
	params.Set("response_type", "code")
	params.Set("state", state)

	return "https://api.instagram.com/oauth/authorize?" + params.Encode()
}

func (ig *instagramService) InstagramCallback(ctx context.Context, code string) (err error) {

	if code == "" {
		err = errors.New("code is empty")
		slog.Info(err.Error())
		return err
	}

	token, err := ig.exchangeCodeForToken(ctx, code)
	if err != nil {
		return err
	}

	userInfo, err := ig.getInstagramUserInfo(token.LongLivedToken)
	if err != nil {
		return err
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(token.AccessToken), []byte(ig.cfg.SecretKey))
	if err != nil {
		return err
	}

	accountInfo := &models.PlatformAccount{
		Platform:       models.PlatformInstagram,
		AccountID:      userInfo.UserID,
		AccountName:    userInfo.Username,
		AccessToken:    encryptedAccessToken,
		RefreshToken:   encryptedAccessToken,
		TokenExpiresAt: token.ExpiresAt,
	}

	_, err = ig.ar.Upsert(ctx, accountInfo)
	if err != nil {
		return err
	}

	return nil
}

func (ig *instagramService) getShortLivedToken(code string) (*transfer.InstagramToken, error) {
	data := url.Values{}
	data.Set("client_id", ig.cfg.InstagramClientID)
	data.Set("client_secret", ig.cfg.InstagramClientSecret)
	data.Set("grant_type", "authorization_code")
	data.Set("redirect_uri", ig.cfg.InstagramRedirectURI)
	data.Set("code", code)

	resp, err := http.Post(
		"https://api.instagram.com/oauth/access_token",
		"application/x-www-form-urlencoded",
		strings.NewReader(data.Encode()),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to get short-lived token: %v", err)
	}
	defer resp.Body.Close()

	var result struct {
		AccessToken string `json:"access_token"`
		UserID      int    `json:"user_id"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to decode token response: %v", err)
	}

	token := &transfer.InstagramToken{
		UserID:      result.UserID,
		AccessToken: result.AccessToken,
		ExpiresAt:   time.Now().Add(time.Hour),
	}

	return token, nil
}

func (ig *instagramService) getLongLivedToken(shortLivedToken string) (*transfer.InstagramToken, error) {
	reqUrl := fmt.Sprintf(
		"https://graph.instagram.com/access_token?grant_type=ig_exchange_token&client_secret=%s&access_token=%s",
		ig.cfg.InstagramClientSecret,
		shortLivedToken,
	)

	resp, err := http.Get(reqUrl)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to get long-lived token: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("error response from Instagram: %s (status code: %d)", body, resp.StatusCode)
	}

	var result struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to decode long-lived token response: %v", err)
	}

	return &transfer.InstagramToken{
		AccessToken: result.AccessToken,
		ExpiresAt:   GetExpiresAt(int(result.ExpiresIn)),
	}, nil
}

func (ig *instagramService) exchangeCodeForToken(ctx context.Context, code string) (*transfer.InstagramToken, error) {

	shortLivedToken, err := ig.getShortLivedToken(code)
	if err != nil {
		return nil, fmt.Errorf("failed to get short-lived token: %v", err)
	}

	longLivedToken, err := ig.getLongLivedToken(shortLivedToken.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to get long-lived token: %v", err)
	}

	token := &transfer.InstagramToken{
		UserID:         shortLivedToken.UserID,
		AccessToken:    longLivedToken.AccessToken,
		LongLivedToken: longLivedToken.AccessToken,
		ExpiresAt:      longLivedToken.ExpiresAt,
	}

	return token, nil
}

func (ig *instagramService) getInstagramUserInfo(accessToken string) (*transfer.InstagramUserInfo, error) {
	var userInfo transfer.InstagramUserInfo

	reqUrl := fmt.Sprintf(
		"https://graph.instagram.com/me?fields=id,username,name,account_type,profile_picture_url&access_token=%s",
		accessToken,
	)

	resp, err := http.Get(reqUrl)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return &userInfo, nil
}

func (s *instagramService) RefreshInstagramToken(ctx context.Context, refreshToken string) error {

	decryptedRefreshToken, err := utils.Decrypt(refreshToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	reqUrl := fmt.Sprintf(
		"https://graph.instagram.com/refresh_access_token?grant_type=ig_refresh_token&access_token=%s",
		decryptedRefreshToken,
	)

	resp, err := http.Get(reqUrl)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}

	expiresAt := GetExpiresAt(int(result.ExpiresIn))

	encryptedAccessToken, err := utils.Encrypt([]byte(result.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	account := models.PlatformAccount{
		AccessToken:    encryptedAccessToken,
		RefreshToken:   encryptedAccessToken,
		TokenExpiresAt: expiresAt,
	}

	err = s.ar.SetToken(ctx, models.PlatformInstagram, &account)
	if err != nil {
		return err
	}

	return nil
}

// HandleInstagramPost publishes the post images through the Graph API
// container flow. A single image gets its own container, several become a
// carousel. Hashtags ride along at the end of the caption.
func (s *instagramService) HandleInstagramPost(ctx context.Context, post *models.FlowerPost, account *models.PlatformAccount) (*models.PublishResult, error) {
	if account == nil {
		return nil, fmt.Errorf("%w: instagram", models.ErrAccountNotFound)
	}

	decryptedAccessToken, err := utils.Decrypt(account.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return nil, err
	}

	if post.InstagramCaption == "" {
		return nil, fmt.Errorf("%w: instagram caption is empty", models.ErrPublishing)
	}
	if len(post.ImageURLs) == 0 {
		return nil, fmt.Errorf("%w: post has no images", models.ErrPublishing)
	}

	caption := post.InstagramCaption
	if len(post.InstagramTags) > 0 {
		caption += "\n\n" + strings.Join(post.InstagramTags, " ")
	}

	var containerID string
	if len(post.ImageURLs) == 1 {
		containerID, err = s.createContainer(ctx, account.AccountID, map[string]interface{}{
			"image_url":    post.ImageURLs[0],
			"caption":      caption,
			"access_token": decryptedAccessToken,
		})
	} else {
		containerID, err = s.createCarousel(ctx, account.AccountID, caption, post.ImageURLs, decryptedAccessToken)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrPublishing, err)
	}

	mediaID, err := s.publishContainer(ctx, account.AccountID, containerID, decryptedAccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrPublishing, err)
	}

	postURL := fmt.Sprintf("https://www.instagram.com/p/%s", mediaID)
	slog.Info(fmt.Sprintf("instagram post published: %s", postURL))

	return &models.PublishResult{
		Success:  true,
		Platform: models.PlatformInstagram,
		URL:      postURL,
		PostID:   mediaID,
	}, nil
}

func (s *instagramService) createCarousel(ctx context.Context, accountID, caption string, imageURLs []string, accessToken string) (string, error) {
	containerIDs := make([]string, 0, len(imageURLs))

	for _, imageURL := range imageURLs {
		id, err := s.createContainer(ctx, accountID, map[string]interface{}{
			"image_url":        imageURL,
			"is_carousel_item": true,
			"access_token":     accessToken,
		})
		if err != nil {
			return "", err
		}
		containerIDs = append(containerIDs, id)
	}

	return s.createContainer(ctx, accountID, map[string]interface{}{
		"media_type":   "CAROUSEL",
		"caption":      caption,
		"children":     containerIDs,
		"access_token": accessToken,
	})
}

func (s *instagramService) createContainer(ctx context.Context, accountID string, payload map[string]interface{}) (string, error) {
	reqUrl := fmt.Sprintf("%s/%s/media", instagramGraphURL, accountID)
	return s.postMedia(ctx, reqUrl, payload)
}

func (s *instagramService) publishContainer(ctx context.Context, accountID, containerID, accessToken string) (string, error) {
	reqUrl := fmt.Sprintf("%s/%s/media_publish", instagramGraphURL, accountID)
	return s.postMedia(ctx, reqUrl, map[string]interface{}{
		"creation_id":  containerID,
		"access_token": accessToken,
	})
}

func (s *instagramService) postMedia(ctx context.Context, reqUrl string, payload map[string]interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", reqUrl, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request error: %w", err)
	}
	if resp.Body != nil {
		defer resp.Body.Close()
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp transfer.InstagramErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			return "", fmt.Errorf("error response from Instagram: %s (status code: %d)", errResp.Error.Message, resp.StatusCode)
		}
		return "", fmt.Errorf("unexpected status code from Instagram: %d", resp.StatusCode)
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}

	if result.ID == "" {
		return "", fmt.Errorf("no media ID returned from Instagram")
	}

	return result.ID, nil
}
