package transport

import "time"

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken  string     `json:"accessToken"`
	Role         string     `json:"role"`
	Username     string     `json:"username"`
	VIPExpiresAt *time.Time `json:"vipExpiresAt"`
}

type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
	Role        string `json:"role"`
}

type MovieRequest struct {
	Title       string  `json:"title"`
	Year        int     `json:"year"`
	Rating      float64 `json:"rating"`
	Description string  `json:"description"`
	Actors      string  `json:"actors"`
	Lessons     string  `json:"lessons"`
	Category    string  `json:"category"`
	YouTubeID   string  `json:"ytId"`
}

type UpdateRoleRequest struct {
	Role string `json:"role"`
}

type AddVIPRequest struct {
	Days int `json:"days"`
}

type FetchMovieDataRequest struct {
	VideoID string `json:"videoId"`
}

type CleanupResponse struct {
	DeletedCount int64 `json:"deletedCount"`
}
