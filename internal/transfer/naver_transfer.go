package transfer

type NaverProfile struct {
	ResultCode string `json:"resultcode"`
	Message    string `json:"message"`
	Response   struct {
		ID       string `json:"id"`
		Nickname string `json:"nickname"`
		Name     string `json:"name"`
		Email    string `json:"email"`
	} `json:"response"`
}

type NaverPostResponse struct {
	Message struct {
		Type    string `json:"@type"`
		Service string `json:"@service"`
		Result  struct {
			BlogID  string `json:"blogId"`
			LogNo   string `json:"logNo"`
			PostURL string `json:"postUrl"`
		} `json:"result"`
	} `json:"message"`
}
