package models

import "time"

// PhotoKind distinguishes composited photos from plain uploads
type PhotoKind string

const (
	PhotoKindGenerated PhotoKind = "generated"
	PhotoKindOriginal  PhotoKind = "original"
)

// MediaCategory groups prompts for the roulette
type MediaCategory string

const (
	CategoryAnime    MediaCategory = "anime"
	CategoryMovies   MediaCategory = "movies"
	CategorySeries   MediaCategory = "series"
	CategoryGames    MediaCategory = "games"
	CategoryComics   MediaCategory = "comics"
	CategoryCartoons MediaCategory = "cartoons"
	CategoryBooks    MediaCategory = "books"
	CategoryOther    MediaCategory = "other"
)

// MediaCategoryLabels maps categories to their display labels
var MediaCategoryLabels = map[MediaCategory]string{
	CategoryAnime:    "Anime",
	CategoryMovies:   "Filmes",
	CategorySeries:   "Séries",
	CategoryGames:    "Jogos",
	CategoryComics:   "Quadrinhos",
	CategoryCartoons: "Desenhos Animados",
	CategoryBooks:    "Livros",
	CategoryOther:    "Outros",
}

// IsValid reports whether c is a known media category
func (c MediaCategory) IsValid() bool {
	_, ok := MediaCategoryLabels[c]
	return ok
}

// Photo represents a stored photo row. Path holds the object-store key,
// not a fetchable URL.
type Photo struct {
	ID        int64     `json:"id"`
	Path      string    `json:"path"`
	Likes     int       `json:"likes"`
	Kind      PhotoKind `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	PromptID  *int64    `json:"prompt_id,omitempty"`
}

// Prompt represents a generation prompt
type Prompt struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	Prompt      string         `json:"prompt"`
	PersonCount int            `json:"person_count"`
	Category    *MediaCategory `json:"category"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// RouletteResult records a category spin; at most one row is active
type RouletteResult struct {
	ID               int64         `json:"id"`
	SelectedCategory MediaCategory `json:"selectedCategory"`
	CategoryLabel    string        `json:"categoryLabel"`
	IsActive         bool          `json:"isActive"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// RouletteCategory is a category together with its display label
type RouletteCategory struct {
	Category MediaCategory `json:"category"`
	Label    string        `json:"label"`
}

// FeedPrompt is the prompt subset embedded in feed records
type FeedPrompt struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Prompt string `json:"prompt"`
}

// FeedPhoto is the fully resolved photo record handed to feed viewers.
// Path is a time-limited presigned URL, so clients can render it directly.
type FeedPhoto struct {
	ID        int64       `json:"id"`
	Path      string      `json:"path"`
	Likes     int         `json:"likes"`
	Kind      PhotoKind   `json:"type"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
	Prompt    *FeedPrompt `json:"prompt"`
}
