package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ArticleType distinguishes where an article was ingested from
type ArticleType string

const (
	ArticleTypeNews  ArticleType = "news"
	ArticleTypeForum ArticleType = "forum"
)

// Role of a dashboard user
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Plan is the subscription tier of a dashboard user
type Plan string

const (
	PlanSimple  Plan = "simple"
	PlanPremium Plan = "premium"
)

// Article is a single ingested news or forum item. Owned by the upstream.
type Article struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Content      string       `json:"content,omitempty"`
	Summary      string       `json:"summary,omitempty"`
	URL          string       `json:"url,omitempty"`
	Source       string       `json:"source"`
	PublishedAt  *time.Time   `json:"publishedAt,omitempty"`
	Severity     string       `json:"severity,omitempty"`
	ThreatLevel  string       `json:"threatLevel,omitempty"`
	ThreatType   string       `json:"threatType,omitempty"`
	Type         ArticleType  `json:"type,omitempty"`
	Industries   []string     `json:"industries"`
	Read         bool         `json:"read"`
	Saved        bool         `json:"saved"`
	IsSpam       bool         `json:"isSpam"`
	AlertMatches []AlertMatch `json:"alertMatches"`
	ViewedAt     *time.Time   `json:"viewedAt,omitempty"`
}

// Timestamp returns the publish time, or the Unix epoch when the upstream sent none
func (a Article) Timestamp() time.Time {
	if a.PublishedAt == nil {
		return time.Unix(0, 0).UTC()
	}
	return *a.PublishedAt
}

// AlertMatch is a keyword hit recorded against an article
type AlertMatch struct {
	KeywordID string `json:"keywordId"`
	Name      string `json:"name,omitempty"`
}

// UnmarshalJSON accepts the object form as well as a legacy bare keyword id
func (m *AlertMatch) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*m = AlertMatch{KeywordID: id}
		return nil
	}

	var obj struct {
		KeywordID string `json:"keywordId"`
		ID        string `json:"id"`
		Name      string `json:"name"`
		Keyword   string `json:"keyword"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("alert match: %w", err)
	}
	m.KeywordID = obj.KeywordID
	if m.KeywordID == "" {
		m.KeywordID = obj.ID
	}
	m.Name = obj.Name
	if m.Name == "" {
		m.Name = obj.Keyword
	}
	return nil
}

// Keyword is a watch term that produces alert matches
type Keyword struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
}

// Source is an RSS or forum feed the upstream polls
type Source struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	URL       string      `json:"url"`
	Category  string      `json:"category,omitempty"`
	Type      ArticleType `json:"type"`
	IsActive  bool        `json:"isActive"`
	LastFetch *time.Time  `json:"lastFetch,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// User is a dashboard account
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
	Plan  Plan   `json:"plan,omitempty"`
}

// IsAdmin reports whether the user has the admin role
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Prompt is an analysis prompt template managed by admins
type Prompt struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Content     string `json:"content"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
}

// Statistics is passed through from the upstream untouched
type Statistics = json.RawMessage

// Locally owned records

// ArticleState holds one user's read/saved/viewed markers for one article.
// A nil Read or Saved means the user never set that flag and the upstream
// value stands.
type ArticleState struct {
	UserID      string     `gorm:"type:varchar(100);primaryKey;column:user_id" json:"userId"`
	ArticleID   string     `gorm:"type:varchar(100);primaryKey;column:article_id" json:"articleId"`
	Read        *bool      `gorm:"column:read" json:"read,omitempty"`
	Saved       *bool      `gorm:"column:saved" json:"saved,omitempty"`
	ViewedAt    *time.Time `gorm:"column:viewed_at;index" json:"viewedAt,omitempty"`
	MirrorError string     `gorm:"type:text;column:mirror_error" json:"mirrorError,omitempty"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updatedAt"`
}

func (ArticleState) TableName() string {
	return "article_states"
}

// IsRead reports whether the user marked the article read locally
func (s ArticleState) IsRead() bool {
	return s.Read != nil && *s.Read
}

// IsSaved reports whether the user saved the article locally
func (s ArticleState) IsSaved() bool {
	return s.Saved != nil && *s.Saved
}

// Preference holds dashboard defaults for a user
type Preference struct {
	UserID        string    `gorm:"type:varchar(100);primaryKey;column:user_id" json:"userId"`
	DarkMode      bool      `gorm:"not null;column:dark_mode" json:"darkMode"`
	DefaultSort   string    `gorm:"type:varchar(20);not null;column:default_sort" json:"defaultSort"`
	DefaultWindow string    `gorm:"type:varchar(20);not null;column:default_window" json:"defaultWindow"`
	HideRead      bool      `gorm:"not null;column:hide_read" json:"hideRead"`
	UpdatedAt     time.Time `gorm:"not null" json:"updatedAt"`
}

func (Preference) TableName() string {
	return "preferences"
}

// Export records an article list written to storage
type Export struct {
	ID           uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID       string    `gorm:"type:varchar(100);not null;index;column:user_id" json:"userId"`
	StoragePath  string    `gorm:"type:varchar(500);not null;column:storage_path" json:"-"`
	ContentType  string    `gorm:"type:varchar(100);not null;column:content_type" json:"contentType"`
	ArticleCount int       `gorm:"not null;column:article_count" json:"articleCount"`
	SizeBytes    int64     `gorm:"not null;column:size_bytes" json:"sizeBytes"`
	CreatedAt    time.Time `gorm:"not null" json:"createdAt"`
}

func (Export) TableName() string {
	return "exports"
}
