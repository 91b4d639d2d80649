package models

import "time"

// DateLayout is the calendar date format used for start dates and CSV rows.
const DateLayout = "2006-01-02"

type Task struct {
	AppID     uint32
	StartDate string
	Threshold int
}

// Snapshot holds cumulative review statistics as of one instant.
type Snapshot struct {
	TotalReviews  int `json:"total_reviews"`
	TotalPositive int `json:"total_positive"`
	TotalNegative int `json:"total_negative"`
	ReviewScore   int `json:"review_score"`
}

type Point struct {
	Date     time.Time
	Snapshot Snapshot
}

// Series is the crawl result for one app. Points are kept in insertion
// order, which is newest to oldest.
type Series struct {
	AppID  uint32
	Points []Point
}

func NewSeries(appID uint32) *Series {
	return &Series{AppID: appID}
}

func (s *Series) Add(date time.Time, snap Snapshot) {
	s.Points = append(s.Points, Point{Date: date, Snapshot: snap})
}

func (s *Series) Len() int {
	return len(s.Points)
}

// Dates returns the recorded dates formatted with DateLayout.
func (s *Series) Dates() []string {
	dates := make([]string, len(s.Points))
	for i, p := range s.Points {
		dates[i] = p.Date.Format(DateLayout)
	}
	return dates
}

// Get looks up the snapshot recorded for date.
func (s *Series) Get(date string) (Snapshot, bool) {
	for _, p := range s.Points {
		if p.Date.Format(DateLayout) == date {
			return p.Snapshot, true
		}
	}
	return Snapshot{}, false
}

// ReleaseInfo is the release year lookup result for one app.
type ReleaseInfo struct {
	AppID      uint32
	Year       string
	ComingSoon bool
}
