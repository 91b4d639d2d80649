// Package steam implements the Steam store client used by the crawler.
//
// Two endpoints are used:
//   - /appreviews/{id}: summary-only review statistics as of an instant
//   - /api/appdetails: store details, read for the release date
//
// Every failure is returned as an *errors.Error whose Type tells transport,
// status and decoding problems apart. Non-2xx statuses, undecodable bodies,
// a success flag other than 1 and a missing query_summary all fail.
package steam
