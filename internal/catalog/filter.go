package catalog

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"movieshub/catalogservice/internal/domain"
)

// Predicate reports whether a movie passes one filter dimension.
type Predicate func(movie domain.Movie, filters domain.MovieFilters) bool

type namedPredicate struct {
	name string
	fn   Predicate
}

// predicates are AND-ed in order. Each one returns early on an empty filter value.
var predicates = []namedPredicate{
	{name: "search", fn: matchSearch},
	{name: "genre", fn: matchGenre},
	{name: "year", fn: matchYear},
	{name: "language", fn: matchLanguage},
	{name: "quality", fn: matchQuality},
	{name: "rating", fn: matchRating},
}

// PredicateNames lists the filter dimensions in evaluation order.
func PredicateNames() []string {
	names := make([]string, 0, len(predicates))
	for _, p := range predicates {
		names = append(names, p.name)
	}
	return names
}

// FilterMovies returns the movies passing every predicate, in input order.
// Empty filters return the input slice itself.
func FilterMovies(movies []domain.Movie, filters domain.MovieFilters) []domain.Movie {
	if filters.IsEmpty() {
		return movies
	}
	out := make([]domain.Movie, 0, len(movies))
	for _, movie := range movies {
		if Matches(movie, filters) {
			out = append(out, movie)
		}
	}
	return out
}

func Matches(movie domain.Movie, filters domain.MovieFilters) bool {
	for _, p := range predicates {
		if !p.fn(movie, filters) {
			return false
		}
	}
	return true
}

func matchSearch(movie domain.Movie, filters domain.MovieFilters) bool {
	if filters.Search == "" {
		return true
	}
	return containsFold(movie.Title, filters.Search)
}

func matchGenre(movie domain.Movie, filters domain.MovieFilters) bool {
	if filters.Genre == "" {
		return true
	}
	return strings.EqualFold(movie.Genre, filters.Genre)
}

func matchYear(movie domain.Movie, filters domain.MovieFilters) bool {
	if filters.Year == "" {
		return true
	}
	return movie.Year != nil && movie.YearString() == filters.Year
}

func matchLanguage(movie domain.Movie, filters domain.MovieFilters) bool {
	if filters.Language == "" {
		return true
	}
	return containsFold(movie.Language, filters.Language)
}

func matchQuality(movie domain.Movie, filters domain.MovieFilters) bool {
	if filters.Quality == "" {
		return true
	}
	for _, q := range movie.Quality {
		if containsFold(q, filters.Quality) {
			return true
		}
	}
	return false
}

func matchRating(movie domain.Movie, filters domain.MovieFilters) bool {
	if filters.Rating == "" {
		return true
	}
	if movie.Rating == 0 {
		return false
	}
	threshold, ok := ParseRatingThreshold(filters.Rating)
	if !ok {
		return false
	}
	return movie.Rating >= threshold
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

var leadingNumberPattern = regexp.MustCompile(`^[+-]?(?:Infinity|(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)`)

// ParseRatingThreshold reads the longest numeric prefix of value after leading whitespace,
// so "7+" reads as 7 and "abc" is rejected.
func ParseRatingThreshold(value string) (float64, bool) {
	match := leadingNumberPattern.FindString(strings.TrimLeft(value, " \t\n\r\v\f"))
	if match == "" {
		return 0, false
	}
	switch strings.TrimLeft(match, "+") {
	case "Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}
	threshold, err := strconv.ParseFloat(match, 64)
	if err != nil {
		// Exponent overflow still parses to ±Inf with a range error.
		if numErr, ok := err.(*strconv.NumError); ok && numErr.Err == strconv.ErrRange {
			return threshold, true
		}
		return 0, false
	}
	return threshold, true
}
