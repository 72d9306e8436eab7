package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	cfg "github.com/bloomworks/florapost/configs"
	"github.com/bloomworks/florapost/internal/ai"
	"github.com/bloomworks/florapost/internal/models"
)

const maxTags = 20

// fallbackTags pad the hashtag list when the model returns too few.
var fallbackTags = []string{
	"#꽃스타그램", "#플라워샵", "#꽃선물", "#꽃집", "#꽃배달",
	"#flowerstagram", "#flowerpower", "#flowerlovers", "#flowermagic", "#floweroftheday",
}

type ContentService interface {
	GenerateBlogPost(ctx context.Context, flowerData *models.FlowerData) (string, error)
	GenerateInstagramCaption(ctx context.Context, flowerData *models.FlowerData) (string, error)
	GenerateTags(ctx context.Context, flowerData *models.FlowerData) ([]string, error)
}

type contentService struct {
	config cfg.Config
	claude ai.Client
}

func NewContentService(c cfg.Config, claude ai.Client) ContentService {
	return &contentService{config: c, claude: claude}
}

func (s *contentService) GenerateBlogPost(ctx context.Context, flowerData *models.FlowerData) (string, error) {
	prompt := fmt.Sprintf(`다음 꽃 정보를 바탕으로 네이버 블로그에 게시할 내용을 작성해주세요:

꽃 종류: %s (%s)
학명: %s
색상: %s
계절적 특성: %s
꽃말: %s
관리 팁: %s
장식/인테리어 제안: %s
선물 상황: %s

블로그 포스트는 다음 구조로 작성해주세요:
1. 매력적인 제목
2. 꽃 소개 (특징, 역사적 배경 포함)
3. 꽃말과 상징성
4. 계절적 특성 및 최적의 감상 시기
5. 관리 방법 및 팁
6. 인테리어/장식 활용법
7. 선물하기 좋은 상황
8. 마무리 문구

네이버 블로그에 적합한 HTML 태그를 포함해주세요. 또한 SEO에 유리한 키워드를 자연스럽게 포함시켜주세요.`,
		flowerData.FlowerType.Korean,
		flowerData.FlowerType.English,
		flowerData.FlowerType.Scientific,
		strings.Join(flowerData.Colors, ", "),
		flowerData.Seasonal,
		flowerData.Meaning,
		flowerData.CareTips,
		flowerData.DecorationIdeas,
		strings.Join(flowerData.GiftOccasions, ", "),
	)

	content, err := s.claude.GenerateText(ctx, s.config.AnthropicTextModel, prompt, 4000)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrGeneration, err)
	}

	slog.Info(fmt.Sprintf("blog post generated: %d chars", len(content)))
	return content, nil
}

func (s *contentService) GenerateInstagramCaption(ctx context.Context, flowerData *models.FlowerData) (string, error) {
	prompt := fmt.Sprintf(`다음 꽃 정보를 바탕으로 인스타그램 게시물에 사용할 짧고 매력적인 캡션을 작성해주세요:

꽃 종류: %s (%s)
색상: %s
계절적 특성: %s
꽃말: %s

캡션은 다음 요소를 포함해야 합니다:
1. 감성적이고 눈길을 끄는 짧은 문구
2. 꽃에 대한 간결한 설명
3. 계절감이나 감정을 표현하는 문장
4. 이모지 2~3개 적절히 사용
5. 호출성 문구(CTA) - 예: "오늘 하루도 행복한 하루 되세요" 등

전체 길이는 300자 내외로 작성해주세요.`,
		flowerData.FlowerType.Korean,
		flowerData.FlowerType.English,
		strings.Join(flowerData.Colors, ", "),
		flowerData.Seasonal,
		flowerData.Meaning,
	)

	caption, err := s.claude.GenerateText(ctx, s.config.AnthropicHaikuModel, prompt, 1000)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrGeneration, err)
	}

	slog.Info(fmt.Sprintf("instagram caption generated: %d chars", len(caption)))
	return caption, nil
}

// GenerateTags asks for hashtags and keeps only the lines that look like one.
// Short lists are padded with the fallback set, long ones cut at twenty.
func (s *contentService) GenerateTags(ctx context.Context, flowerData *models.FlowerData) ([]string, error) {
	prompt := fmt.Sprintf(`다음 꽃 정보를 바탕으로 인스타그램에 사용할 해시태그 목록을 생성해주세요:

꽃 종류: %s (%s)
색상: %s
계절적 특성: %s
꽃말: %s
선물 상황: %s

다음 카테고리의 해시태그를 포함해주세요:
1. 꽃 이름 관련 (한글, 영문)
2. 색상 관련
3. 계절/시기 관련
4. 감성/분위기 관련
5. 인테리어/장식 관련
6. 선물/이벤트 관련
7. 인기 있는 일반 꽃 해시태그

총 15-20개의 해시태그를 한 줄에 하나씩 반환해주세요. 한글과 영어 해시태그를 모두 포함해주세요.`,
		flowerData.FlowerType.Korean,
		flowerData.FlowerType.English,
		strings.Join(flowerData.Colors, ", "),
		flowerData.Seasonal,
		flowerData.Meaning,
		strings.Join(flowerData.GiftOccasions, ", "),
	)

	tagsText, err := s.claude.GenerateText(ctx, s.config.AnthropicHaikuModel, prompt, 1000)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrGeneration, err)
	}

	var hashtags []string
	for _, line := range strings.Split(tagsText, "\n") {
		tag := strings.TrimSpace(line)
		if strings.HasPrefix(tag, "#") {
			hashtags = append(hashtags, tag)
		}
	}

	if len(hashtags) < 10 {
		hashtags = append(hashtags, fallbackTags...)
	}
	if len(hashtags) > maxTags {
		hashtags = hashtags[:maxTags]
	}

	slog.Info(fmt.Sprintf("hashtags generated: %d", len(hashtags)))
	return hashtags, nil
}
