package transfer

// PostCreation is the multipart form body for submitting a flower post.
// Platforms arrives as a JSON array string, e.g. ["naver","instagram"].
type PostCreation struct {
	Title        string `form:"title" json:"title"`
	Description  string `form:"description" json:"description"`
	Platforms    string `form:"platforms" json:"platforms"`
	ScheduleTime string `form:"schedule_time" json:"schedule_time"`
}
