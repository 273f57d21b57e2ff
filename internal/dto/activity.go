package dto

import "github.com/noah-isme/journey-analytics-api/internal/models"

// ActivityFeedRequest carries raw feed query parameters. Nil Limit and Offset select the defaults.
type ActivityFeedRequest struct {
	UserID     string `form:"user_id" validate:"required,uuid"`
	EventTypes string `form:"event_types"`
	Limit      *int   `form:"limit"`
	Offset     *int   `form:"offset"`
}

// FeedMeta describes the returned page.
type FeedMeta struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	Total   int  `json:"total"`
	HasMore bool `json:"has_more"`
}

// ActivityFeedResponse lists events newest first.
type ActivityFeedResponse struct {
	Events []models.ActivityEvent `json:"events"`
	Meta   FeedMeta               `json:"meta"`
}
