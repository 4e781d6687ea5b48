package domain

import (
	"strconv"
	"time"
)

const (
	GenreAction   = "Action"
	GenreNetflix  = "Netflix"
	GenreTVSeries = "TV Series"
	GenreHorror   = "Horror"
	GenreComedy   = "Comedy"
	GenreRomance  = "Romance"

	DefaultGenre    = GenreAction
	DefaultLanguage = "English"
	DefaultQuality  = "HD"

	MovieIDPrefix = "movie-"
)

// Genres lists the closed genre set in the order the filter UI presents it.
var Genres = []string{
	GenreAction,
	GenreComedy,
	GenreHorror,
	GenreRomance,
	GenreNetflix,
	GenreTVSeries,
}

// Movie is built once per feed row and never mutated afterwards.
type Movie struct {
	ID          string   `json:"id"`
	DownloadURL string   `json:"downloadUrl"`
	ImageURL    string   `json:"imageUrl"`
	ReleaseDate string   `json:"releaseDate"`
	Title       string   `json:"title"`
	Year        *int     `json:"year,omitempty"`
	Genre       string   `json:"genre"`
	Rating      float64  `json:"rating"`
	Language    string   `json:"language"`
	Quality     []string `json:"quality"`
}

func MovieID(index int) string {
	return MovieIDPrefix + strconv.Itoa(index)
}

// YearString returns the decimal year or "" when the title carried none.
func (m Movie) YearString() string {
	if m.Year == nil {
		return ""
	}
	return strconv.Itoa(*m.Year)
}

// MovieFilters is the filter selection owned by the presentation layer.
// An empty field means no constraint.
type MovieFilters struct {
	Search   string `json:"search"`
	Genre    string `json:"genre"`
	Year     string `json:"year"`
	Language string `json:"language"`
	Quality  string `json:"quality"`
	Rating   string `json:"rating"`
}

func (f MovieFilters) IsEmpty() bool {
	return f == MovieFilters{}
}

// Heading mirrors the list caption shown above the grid.
func (f MovieFilters) Heading() string {
	switch {
	case f.Search != "":
		return `Search results for "` + f.Search + `"`
	case f.Genre != "":
		return f.Genre + " Movies"
	default:
		return "Latest Movies"
	}
}

type CatalogState struct {
	Loading     bool       `json:"loading"`
	Error       string     `json:"error,omitempty"`
	Total       int        `json:"total"`
	Generation  uint64     `json:"generation"`
	RefreshedAt *time.Time `json:"refreshedAt,omitempty"`
}

type MovieListResponse struct {
	Heading string  `json:"heading"`
	Items   []Movie `json:"items"`
	Total   int     `json:"total"`
	Loading bool    `json:"loading"`
	Error   string  `json:"error,omitempty"`
}

type FacetValue struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

type CatalogFacets struct {
	Genres    []FacetValue `json:"genres"`
	Years     []FacetValue `json:"years"`
	Languages []FacetValue `json:"languages"`
	Qualities []FacetValue `json:"qualities"`
	Ratings   []FacetValue `json:"ratings"`
}
