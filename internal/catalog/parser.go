package catalog

import (
	"strings"

	"movieshub/catalogservice/internal/domain"
)

// MinColumns is the number of leading columns a row needs to become a movie:
// download URL, image URL, release date, title.
const MinColumns = 4

// ParseResult is the outcome of one feed parse.
type ParseResult struct {
	Movies  []domain.Movie
	Skipped int
}

// ParseRow maps one data line to a movie. The second return value is false when the line has
// fewer than MinColumns fields; such rows are skipped, not reported as errors. index is the
// line's position after the header, so ids of rows following a skipped line keep their gap.
func ParseRow(line string, index int, ratings RatingSource) (domain.Movie, bool) {
	columns := SplitCSVLine(line)
	if len(columns) < MinColumns {
		return domain.Movie{}, false
	}

	info := ExtractMovieInfo(columns[3])
	return domain.Movie{
		ID:          domain.MovieID(index),
		DownloadURL: strings.TrimSpace(columns[0]),
		ImageURL:    strings.TrimSpace(columns[1]),
		ReleaseDate: strings.TrimSpace(columns[2]),
		Title:       info.Title,
		Year:        info.Year,
		Genre:       info.Genre,
		Rating:      ratings.Rating(),
		Language:    info.Language,
		Quality:     info.Quality,
	}, true
}

// ParseCSV turns a whole feed body into movies. The first line is always dropped as the
// header, even when it holds data. Row indexes count every line after the header.
func ParseCSV(text string, ratings RatingSource) ParseResult {
	if ratings == nil {
		ratings = NewRandomRating(0)
	}

	body := strings.TrimSpace(strings.TrimPrefix(text, "\ufeff"))
	lines := strings.Split(body, "\n")
	dataLines := lines[1:]

	result := ParseResult{Movies: make([]domain.Movie, 0, len(dataLines))}
	for index, line := range dataLines {
		movie, ok := ParseRow(line, index, ratings)
		if !ok {
			result.Skipped++
			continue
		}
		result.Movies = append(result.Movies, movie)
	}
	return result
}
