package steam

import (
	"strings"

	"steamreviews/pkg/models"
)

// ReviewsResponse is the top-level appreviews payload
type ReviewsResponse struct {
	Success      int           `json:"success"`
	QuerySummary *QuerySummary `json:"query_summary"`
}

// QuerySummary holds cumulative review statistics
type QuerySummary struct {
	NumReviews      int    `json:"num_reviews"`
	ReviewScore     int    `json:"review_score"`
	ReviewScoreDesc string `json:"review_score_desc"`
	TotalPositive   int    `json:"total_positive"`
	TotalNegative   int    `json:"total_negative"`
	TotalReviews    int    `json:"total_reviews"`
}

// Snapshot converts the summary into the four persisted statistics
func (q *QuerySummary) Snapshot() models.Snapshot {
	return models.Snapshot{
		TotalReviews:  q.TotalReviews,
		TotalPositive: q.TotalPositive,
		TotalNegative: q.TotalNegative,
		ReviewScore:   q.ReviewScore,
	}
}

// AppDetailsEntry is one app's entry of the appdetails payload, which is
// keyed by the app id as a string.
type AppDetailsEntry struct {
	Success bool        `json:"success"`
	Data    *AppDetails `json:"data"`
}

// AppDetails holds the store fields the release lookup reads
type AppDetails struct {
	Type        string       `json:"type"`
	Name        string       `json:"name"`
	SteamAppID  uint32       `json:"steam_appid"`
	ReleaseDate *ReleaseDate `json:"release_date"`
}

// ReleaseDate is the store's free-form release date
type ReleaseDate struct {
	ComingSoon bool   `json:"coming_soon"`
	Date       string `json:"date"`
}

// Year returns the last space separated token of the date text, which is
// the year for every format the store uses ("21 Aug, 2012", "Q3 2024").
func (r *ReleaseDate) Year() string {
	fields := strings.Fields(r.Date)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
