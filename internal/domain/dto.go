package domain

import (
	"time"

	"github.com/google/uuid"
)

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// APIResponse is the generic success envelope
type APIResponse struct {
	Data    interface{} `json:"data,omitempty"`
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
}

// ArticleListResponse is returned by the article and alert list endpoints
type ArticleListResponse struct {
	Articles []Article `json:"articles"`
	Total    int       `json:"total"`
}

// SourceListResponse is returned by the source list endpoint
type SourceListResponse struct {
	Sources []Source `json:"sources"`
	Total   int      `json:"total"`
}

// UserStateDTO exposes the per-user state containers
type UserStateDTO struct {
	Read   map[string]bool      `json:"read"`
	Saved  map[string]bool      `json:"saved"`
	Viewed map[string]time.Time `json:"viewed"`
}

// ArticleStateDTO is returned after a toggle. Read and Saved are only
// present when the user has set them locally.
type ArticleStateDTO struct {
	ArticleID   string `json:"articleId"`
	Read        *bool  `json:"read,omitempty"`
	Saved       *bool  `json:"saved,omitempty"`
	Spam        *bool  `json:"spam,omitempty"`
	Mirrored    bool   `json:"mirrored"`
	MirrorError string `json:"mirrorError,omitempty"`
}

// ExportDTO describes a stored article export
type ExportDTO struct {
	ID           uuid.UUID `json:"id"`
	ContentType  string    `json:"contentType"`
	ArticleCount int       `json:"articleCount"`
	SizeBytes    int64     `json:"sizeBytes"`
	CreatedAt    string    `json:"createdAt"` // ISO 8601
}

// FeedPreviewDTO summarises a parsed RSS/Atom feed
type FeedPreviewDTO struct {
	Title     string        `json:"title"`
	Link      string        `json:"link,omitempty"`
	FeedType  string        `json:"feedType"`
	ItemCount int           `json:"itemCount"`
	Items     []FeedItemDTO `json:"items"`
}

// FeedItemDTO is one entry of a feed preview
type FeedItemDTO struct {
	Title     string     `json:"title"`
	Link      string     `json:"link,omitempty"`
	Published *time.Time `json:"published,omitempty"`
}

// Request DTOs

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SetFlagRequest sets a read/saved/spam flag. A missing value toggles.
type SetFlagRequest struct {
	Value *bool `json:"value"`
}

type SetActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type KeywordRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	DisplayName string `json:"displayName,omitempty" validate:"max=200"`
	Description string `json:"description,omitempty" validate:"max=1000"`
	Active      *bool  `json:"active,omitempty"`
}

type SourceRequest struct {
	Name     string      `json:"name" validate:"required,max=200"`
	URL      string      `json:"url" validate:"required,url"`
	Category string      `json:"category,omitempty" validate:"max=100"`
	Type     ArticleType `json:"type" validate:"required,oneof=news forum"`
	IsActive *bool       `json:"isActive,omitempty"`
}

type PromptRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Content     string `json:"content" validate:"required"`
	Description string `json:"description,omitempty" validate:"max=1000"`
	Active      *bool  `json:"active,omitempty"`
}

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     Role   `json:"role" validate:"required,oneof=admin user"`
	Plan     Plan   `json:"plan,omitempty" validate:"omitempty,oneof=simple premium"`
}

type UpdateUserRequest struct {
	Role Role `json:"role,omitempty" validate:"omitempty,oneof=admin user"`
	Plan Plan `json:"plan,omitempty" validate:"omitempty,oneof=simple premium"`
}

type PreferenceRequest struct {
	DarkMode      *bool  `json:"darkMode,omitempty"`
	DefaultSort   string `json:"defaultSort,omitempty" validate:"omitempty,oneof=newest oldest title-asc title-desc"`
	DefaultWindow string `json:"defaultWindow,omitempty" validate:"max=20"`
	HideRead      *bool  `json:"hideRead,omitempty"`
}

type FeedPreviewRequest struct {
	URL string `json:"url" validate:"required,http_url"`
}
