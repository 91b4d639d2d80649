package steam

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// BaseURL is the base URL of the Steam store
	BaseURL = "https://store.steampowered.com"

	// ReviewsEndpoint is the path prefix of the per-app review summary
	ReviewsEndpoint = "/appreviews/"

	// AppDetailsEndpoint is the path of the store app details API
	AppDetailsEndpoint = "/api/appdetails"

	// epochStart is the smallest start_date that still enables date filtering
	epochStart = "1"
)

// ReviewSummaryParams builds the query of a summary-only review request
// covering everything up to asOf.
func ReviewSummaryParams(asOf time.Time) url.Values {
	params := url.Values{}
	params.Set("json", "1")
	params.Set("num_per_page", "0")
	params.Set("language", "all")
	params.Set("purchase_type", "all")
	params.Set("filter_offtopic_activity", "0")
	params.Set("start_date", epochStart)
	params.Set("end_date", strconv.FormatInt(asOf.Unix(), 10))
	params.Set("date_range_type", "include")
	return params
}

// GetReviewsURL constructs the review summary URL for appID as of asOf
func GetReviewsURL(baseURL string, appID uint32, asOf time.Time) string {
	return fmt.Sprintf("%s%s%d?%s", trimBase(baseURL), ReviewsEndpoint, appID, ReviewSummaryParams(asOf).Encode())
}

// GetAppDetailsURL constructs the app details URL for appID
func GetAppDetailsURL(baseURL string, appID uint32) string {
	params := url.Values{}
	params.Set("appids", strconv.FormatUint(uint64(appID), 10))
	return fmt.Sprintf("%s%s?%s", trimBase(baseURL), AppDetailsEndpoint, params.Encode())
}

// GetStorePageURL returns the public store page of appID
func GetStorePageURL(appID uint32) string {
	return fmt.Sprintf("%s/app/%d/", BaseURL, appID)
}

func trimBase(baseURL string) string {
	if baseURL == "" {
		return BaseURL
	}
	return strings.TrimRight(baseURL, "/")
}
