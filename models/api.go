package models

// Caller is whoever an API request was authenticated as.
type Caller struct {
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Method string `json:"method"`
}

const (
	AuthMethodNone     = "none"
	AuthMethodAPIKey   = "api_key"
	AuthMethodKeycloak = "keycloak"
)

type GetPostsResponse struct {
	Target   string `json:"target"`
	Category string `json:"category"`
	Posts    []Post `json:"posts"`
}

type GetUserItemsResponse struct {
	Username string     `json:"username"`
	Items    []UserItem `json:"items"`
}

type SearchResponse struct {
	Query     string         `json:"query"`
	Subreddit string         `json:"subreddit,omitempty"`
	Results   []SearchResult `json:"results"`
}

type HealthResponse struct {
	Status  string                `json:"status"`
	Storage bool                  `json:"storage"`
	Proxies map[string]ProxyStats `json:"proxies,omitempty"`
}

type ProxyStats struct {
	Successes int `json:"successes"`
	Failures  int `json:"failures"`
}
