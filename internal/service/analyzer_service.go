package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/h2non/filetype"

	cfg "github.com/bloomworks/florapost/configs"
	"github.com/bloomworks/florapost/internal/ai"
	"github.com/bloomworks/florapost/internal/models"
)

const flowerAnalysisPrompt = `이 꽃 이미지를 분석해주세요. 다음 정보를 JSON 형식으로 반환해주세요:
1. 꽃의 종류(한국어, 영어, 학명)
2. 꽃의 주요 색상
3. 꽃의 계절적 특성
4. 꽃말
5. 관리 팁
6. 장식/인테리어 제안
7. 적합한 선물 상황

다음 키를 사용해주세요: flower_type{korean, english, scientific}, colors, seasonal, meaning, care_tips, decoration_ideas, gift_occasions
온전히 JSON 형식으로만 응답해주세요.`

type AnalyzerService interface {
	AnalyzeFlowerImage(ctx context.Context, imageURL string) (*models.FlowerData, error)
}

type analyzerService struct {
	config cfg.Config
	claude ai.Client
	hc     *http.Client
}

func NewAnalyzerService(c cfg.Config, claude ai.Client) AnalyzerService {
	return &analyzerService{
		config: c,
		claude: claude,
		hc:     &http.Client{Timeout: 60 * time.Second},
	}
}

// AnalyzeFlowerImage fetches the photograph and asks the vision model to
// identify the flower. The analysis subject is always a single image.
func (s *analyzerService) AnalyzeFlowerImage(ctx context.Context, imageURL string) (*models.FlowerData, error) {
	data, err := s.fetchImage(ctx, imageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrAnalysis, err)
	}

	mimeType := "image/jpeg"
	if kind, err := filetype.Match(data); err == nil && kind.MIME.Value != "" {
		mimeType = kind.MIME.Value
	}

	raw, err := s.claude.AnalyzeImage(ctx, s.config.AnthropicVisionModel, data, mimeType, flowerAnalysisPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrAnalysis, err)
	}

	var flowerData models.FlowerData
	if err := json.Unmarshal(raw, &flowerData); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("%w: %v", models.ErrAnalysis, err)
	}

	slog.Info(fmt.Sprintf("flower image analyzed: %s", flowerData.FlowerType.Korean))
	return &flowerData, nil
}

func (s *analyzerService) fetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	resp, err := s.hc.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching image", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return data, nil
}
