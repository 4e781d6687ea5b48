package catalog

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"movieshub/catalogservice/internal/domain"
)

var (
	yearPattern     = regexp.MustCompile(`\((\d{4})\)`)
	languagePattern = regexp.MustCompile(`\{([^}]+)\}`)
	qualityPattern  = regexp.MustCompile(`\d{3,4}p`)

	parenGroupPattern = regexp.MustCompile(`\([^)]*\)`)
	braceGroupPattern = regexp.MustCompile(`\{[^}]*\}`)
	seasonPattern     = regexp.MustCompile(`(?i)Season \d+`)
	completePattern   = regexp.MustCompile(`(?i)Complete`)
	dualAudioPattern  = regexp.MustCompile(`(?i)Dual Audio`)
)

// misencodedDash is an en dash whose UTF-8 bytes were read back as Windows-1252.
var misencodedDash = mustDecodeWindows1252("\u2013")

func mustDecodeWindows1252(raw string) string {
	decoded, err := charmap.Windows1252.NewDecoder().String(raw)
	if err != nil {
		panic(err)
	}
	return decoded
}

type genreRule struct {
	needle string
	label  string
}

// genreRules is evaluated top to bottom against the lowercased raw title; first hit wins.
var genreRules = []genreRule{
	{needle: "netflix", label: domain.GenreNetflix},
	{needle: "season", label: domain.GenreTVSeries},
	{needle: "horror", label: domain.GenreHorror},
	{needle: "comedy", label: domain.GenreComedy},
	{needle: "romance", label: domain.GenreRomance},
}

// MovieInfo holds the fields derived from a raw spreadsheet title.
type MovieInfo struct {
	Title    string
	Year     *int
	Genre    string
	Language string
	Quality  []string
}

func ExtractMovieInfo(rawTitle string) MovieInfo {
	return MovieInfo{
		Title:    CleanTitle(rawTitle),
		Year:     extractYear(rawTitle),
		Genre:    ClassifyGenre(rawTitle),
		Language: extractLanguage(rawTitle),
		Quality:  extractQuality(rawTitle),
	}
}

func extractYear(rawTitle string) *int {
	match := yearPattern.FindStringSubmatch(rawTitle)
	if len(match) < 2 {
		return nil
	}
	year, err := strconv.Atoi(match[1])
	if err != nil {
		return nil
	}
	return &year
}

func extractLanguage(rawTitle string) string {
	match := languagePattern.FindStringSubmatch(rawTitle)
	if len(match) < 2 {
		return domain.DefaultLanguage
	}
	return match[1]
}

func extractQuality(rawTitle string) []string {
	matches := qualityPattern.FindAllString(rawTitle, -1)
	if len(matches) == 0 {
		return []string{domain.DefaultQuality}
	}
	return matches
}

func ClassifyGenre(rawTitle string) string {
	lower := strings.ToLower(rawTitle)
	for _, rule := range genreRules {
		if strings.Contains(lower, rule.needle) {
			return rule.label
		}
	}
	return domain.DefaultGenre
}

// CleanTitle strips release markers from a raw title. Applying it to its own output is a no-op
// as long as the removals did not splice a new marker together.
func CleanTitle(rawTitle string) string {
	title := parenGroupPattern.ReplaceAllString(rawTitle, "")
	title = braceGroupPattern.ReplaceAllString(title, "")
	title = qualityPattern.ReplaceAllString(title, "")
	title = strings.ReplaceAll(title, "|", "")
	title = strings.ReplaceAll(title, misencodedDash, "-")
	title = seasonPattern.ReplaceAllString(title, "")
	title = completePattern.ReplaceAllString(title, "")
	title = dualAudioPattern.ReplaceAllString(title, "")
	return strings.TrimSpace(title)
}
