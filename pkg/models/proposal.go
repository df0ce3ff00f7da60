package models

import "time"

// Social platforms recognised from profile URLs.
const (
	PlatformLinkedIn  = "linkedin"
	PlatformTwitter   = "twitter"
	PlatformFacebook  = "facebook"
	PlatformInstagram = "instagram"
	PlatformYouTube   = "youtube"
	PlatformOther     = "other"
)

// ScrapedPage is the cleaned text content of one fetched URL.
type ScrapedPage struct {
	URL      string `json:"url"`
	Platform string `json:"platform,omitempty"`
	Content  string `json:"content"`
	OK       bool   `json:"ok"`
}

// ClientProfile is the structured reading of a client's web presence.
type ClientProfile struct {
	CompanyDescription string            `json:"company_description"`
	Services           []string          `json:"services"`
	TechStack          []string          `json:"tech_stack"`
	CompanySize        string            `json:"company_size"`
	Industry           string            `json:"industry"`
	RecentNews         []string          `json:"recent_news"`
	SocialPresence     map[string]string `json:"social_presence"`
	ConfidenceScore    float64           `json:"confidence_score"`
}

// ProposalSection is one "#"-headed block of a generated proposal.
type ProposalSection struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Proposal is a generated client proposal document.
type Proposal struct {
	ClientName      string            `json:"client_name"`
	Profile         ClientProfile     `json:"client_profile"`
	SimilarProjects []SimilarProject  `json:"similar_projects"`
	Content         string            `json:"proposal"`
	Sections        []ProposalSection `json:"sections"`
	WordCount       int               `json:"word_count"`
	Source          string            `json:"source"`
	GeneratedAt     time.Time         `json:"generated_at"`
}
