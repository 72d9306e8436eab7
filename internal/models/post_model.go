package models

import "time"

// Platform identifies one of the external publishing targets.
type Platform string

const (
	PlatformNaver     Platform = "naver"
	PlatformInstagram Platform = "instagram"
	PlatformYoutube   Platform = "youtube"
)

// AllPlatforms lists every supported platform identifier.
var AllPlatforms = []Platform{PlatformNaver, PlatformInstagram, PlatformYoutube}

func (p Platform) Valid() bool {
	switch p {
	case PlatformNaver, PlatformInstagram, PlatformYoutube:
		return true
	}
	return false
}

const (
	PostStatusPending    = "pending"
	PostStatusProcessing = "processing"
	PostStatusCompleted  = "completed"
	PostStatusFailed     = "failed"
)

// FlowerType holds the identified species in its three naming forms.
type FlowerType struct {
	Korean     string `json:"korean"`
	English    string `json:"english"`
	Scientific string `json:"scientific"`
}

// FlowerData is the structured result of analyzing a flower photograph.
type FlowerData struct {
	FlowerType      FlowerType `json:"flower_type"`
	Colors          []string   `json:"colors"`
	Seasonal        string     `json:"seasonal"`
	Meaning         string     `json:"meaning"`
	CareTips        string     `json:"care_tips"`
	DecorationIdeas string     `json:"decoration_ideas"`
	GiftOccasions   []string   `json:"gift_occasions"`
}

// PublishResult records the outcome of one publish attempt. PostID is the
// identifier assigned by the external platform, not the FlowerPost id.
type PublishResult struct {
	Success  bool     `json:"success"`
	Platform Platform `json:"platform"`
	URL      string   `json:"url,omitempty"`
	PostID   string   `json:"post_id,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// FlowerPost is the unit of work: one submission of flower photographs plus
// the platforms it should be published to, and everything derived from it.
type FlowerPost struct {
	ID           string     `db:"id" json:"id"`
	Title        string     `db:"title" json:"title"`
	Description  string     `db:"description" json:"description"`
	ImageURLs    []string   `db:"image_urls" json:"image_urls"`
	Platforms    []Platform `db:"platforms" json:"platforms"`
	ScheduleTime time.Time  `db:"schedule_time" json:"schedule_time"`
	Status       string     `db:"status" json:"status"`
	ErrorMessage string     `db:"error_message" json:"error_message,omitempty"`

	FlowerData *FlowerData `db:"flower_data" json:"flower_data,omitempty"`

	BlogContent      string   `db:"blog_content" json:"blog_content,omitempty"`
	InstagramCaption string   `db:"instagram_caption" json:"instagram_caption,omitempty"`
	InstagramTags    []string `db:"instagram_tags" json:"instagram_tags,omitempty"`
	VideoURL         string   `db:"video_url" json:"video_url,omitempty"`

	PublishResults []PublishResult `db:"publish_results" json:"publish_results"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SetStatus moves the post to a new lifecycle status.
func (p *FlowerPost) SetStatus(status string) {
	p.Status = status
	p.UpdatedAt = time.Now()
}

// SetFailed marks the post failed and records the triggering error message.
func (p *FlowerPost) SetFailed(message string) {
	p.Status = PostStatusFailed
	p.ErrorMessage = message
	p.UpdatedAt = time.Now()
}

// AddPublishResult appends one platform outcome. Results are append-only.
func (p *FlowerPost) AddPublishResult(r PublishResult) {
	p.PublishResults = append(p.PublishResults, r)
	p.UpdatedAt = time.Now()
}
