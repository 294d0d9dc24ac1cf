package stackexchange

import "net/url"

// ShallowUser is the owner of a post or comment
type ShallowUser struct {
	AccountID   *int64  `json:"account_id,omitempty"`
	UserID      *int64  `json:"user_id,omitempty"`
	DisplayName string  `json:"display_name,omitempty"`
	Link        string  `json:"link,omitempty"`
	Reputation  *int    `json:"reputation,omitempty"`
	UserType    *string `json:"user_type,omitempty"`
}

// Comment on a question or answer
type Comment struct {
	CommentID    int64        `json:"comment_id,omitempty"`
	PostID       int64        `json:"post_id,omitempty"`
	Owner        *ShallowUser `json:"owner,omitempty"`
	CreationDate int64        `json:"creation_date,omitempty"`
	Score        int          `json:"score"`
	Body         string       `json:"body,omitempty"`
	BodyMarkdown string       `json:"body_markdown,omitempty"`
}

// Answer to a question
type Answer struct {
	AnswerID      int64        `json:"answer_id,omitempty"`
	QuestionID    int64        `json:"question_id,omitempty"`
	Owner         *ShallowUser `json:"owner,omitempty"`
	CreationDate  int64        `json:"creation_date,omitempty"`
	IsAccepted    bool         `json:"is_accepted"`
	UpVoteCount   int          `json:"up_vote_count"`
	DownVoteCount int          `json:"down_vote_count"`
	Score         int          `json:"score"`
	BodyMarkdown  string       `json:"body_markdown,omitempty"`
	Comments      []Comment    `json:"comments,omitempty"`
}

// Question with its answers and comments, as far as the filter includes them
type Question struct {
	QuestionID    int64        `json:"question_id"`
	Title         string       `json:"title,omitempty"`
	Link          string       `json:"link,omitempty"`
	Owner         *ShallowUser `json:"owner,omitempty"`
	CreationDate  int64        `json:"creation_date,omitempty"`
	UpVoteCount   int          `json:"up_vote_count"`
	DownVoteCount int          `json:"down_vote_count"`
	Score         int          `json:"score"`
	BodyMarkdown  string       `json:"body_markdown,omitempty"`
	Tags          []string     `json:"tags,omitempty"`
	Answers       []Answer     `json:"answers,omitempty"`
	Comments      []Comment    `json:"comments,omitempty"`
}

// NetworkUser is one of an account's per-site users
type NetworkUser struct {
	AccountID *int64 `json:"account_id,omitempty"`
	UserID    *int64 `json:"user_id,omitempty"`
	SiteName  string `json:"site_name,omitempty"`
	SiteURL   string `json:"site_url,omitempty"`
	UserType  string `json:"user_type,omitempty"`
}

// RelatedSite links a site to its meta or chat companion
type RelatedSite struct {
	Name             string `json:"name,omitempty"`
	SiteURL          string `json:"site_url,omitempty"`
	Relation         string `json:"relation,omitempty"`
	APISiteParameter string `json:"api_site_parameter,omitempty"`
}

// Site in the Stack Exchange network
type Site struct {
	Name             string        `json:"name,omitempty"`
	SiteURL          string        `json:"site_url,omitempty"`
	SiteType         string        `json:"site_type,omitempty"`
	APISiteParameter string        `json:"api_site_parameter,omitempty"`
	RelatedSites     []RelatedSite `json:"related_sites,omitempty"`
}

// Filter describes the fields a filter includes and whether it is safe
type Filter struct {
	Filter         string   `json:"filter"`
	FilterType     string   `json:"filter_type,omitempty"`
	IncludedFields []string `json:"included_fields,omitempty"`
}

// Error describes one of the errors the API can return
type Error struct {
	ErrorID     int    `json:"error_id"`
	ErrorName   string `json:"error_name"`
	Description string `json:"description"`
}

const (
	SiteTypeMain = "main_site"
	SiteTypeMeta = "meta_site"

	RelationMeta = "meta"
)

// Host returns the host part of a site URL, or "" if it has none
func Host(siteURL string) string {
	if siteURL == "" {
		return ""
	}
	u, err := url.Parse(siteURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
