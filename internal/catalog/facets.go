package catalog

import (
	"sort"
	"strconv"
	"strings"

	"movieshub/catalogservice/internal/domain"
)

// RatingThresholds are the minimum-rating choices offered by the filter UI.
var RatingThresholds = []int{8, 7, 6}

// BuildFacets derives filter option lists from the current record set. Genres always list the
// closed set in UI order; the remaining facets list only values that occur.
func BuildFacets(movies []domain.Movie) domain.CatalogFacets {
	genreCounts := make(map[string]int, len(domain.Genres))
	yearCounts := make(map[int]int)
	languageCounts := make(map[string]int)
	languageLabels := make(map[string]string)
	qualityCounts := make(map[string]int)

	for _, movie := range movies {
		genreCounts[movie.Genre]++
		if movie.Year != nil {
			yearCounts[*movie.Year]++
		}

		langKey := strings.ToLower(movie.Language)
		if _, ok := languageLabels[langKey]; !ok {
			languageLabels[langKey] = movie.Language
		}
		languageCounts[langKey]++

		seen := make(map[string]struct{}, len(movie.Quality))
		for _, q := range movie.Quality {
			key := strings.ToLower(q)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			qualityCounts[key]++
		}
	}

	facets := domain.CatalogFacets{
		Genres:    make([]domain.FacetValue, 0, len(domain.Genres)),
		Years:     make([]domain.FacetValue, 0, len(yearCounts)),
		Languages: make([]domain.FacetValue, 0, len(languageCounts)),
		Qualities: make([]domain.FacetValue, 0, len(qualityCounts)),
		Ratings:   make([]domain.FacetValue, 0, len(RatingThresholds)),
	}

	for _, genre := range domain.Genres {
		facets.Genres = append(facets.Genres, domain.FacetValue{Value: genre, Label: genre, Count: genreCounts[genre]})
	}

	years := make([]int, 0, len(yearCounts))
	for year := range yearCounts {
		years = append(years, year)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	for _, year := range years {
		value := strconv.Itoa(year)
		facets.Years = append(facets.Years, domain.FacetValue{Value: value, Label: value, Count: yearCounts[year]})
	}

	for _, key := range sortedByCount(languageCounts) {
		facets.Languages = append(facets.Languages, domain.FacetValue{Value: key, Label: languageLabels[key], Count: languageCounts[key]})
	}
	for _, key := range sortedByCount(qualityCounts) {
		facets.Qualities = append(facets.Qualities, domain.FacetValue{Value: key, Label: key, Count: qualityCounts[key]})
	}

	for _, threshold := range RatingThresholds {
		minRating := float64(threshold)
		count := 0
		for _, movie := range movies {
			if movie.Rating > 0 && movie.Rating >= minRating {
				count++
			}
		}
		value := strconv.Itoa(threshold)
		facets.Ratings = append(facets.Ratings, domain.FacetValue{Value: value, Label: value + "+ Rating", Count: count})
	}

	return facets
}

func sortedByCount(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
