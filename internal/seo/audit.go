// Package seo evaluates a listing's meta fields against search-engine
// display limits. The audit is a pure function over listing data: it never
// touches storage and never blocks creation or moderation. Results are
// advisory and surface on the admin SEO report only.
package seo

import "unicode/utf8"

// Issue is a single advisory finding on a listing's meta fields.
type Issue string

// Audit findings. A listing can trigger any subset; an empty result means
// the listing is optimal.
const (
	IssueTitleTooShort       Issue = "title too short"
	IssueTitleTooLong        Issue = "title too long"
	IssueDescriptionTooShort Issue = "description too short"
	IssueDescriptionTooLong  Issue = "description too long"
)

// Display-limit bounds, in runes. Titles render well between 30 and 60
// characters, descriptions between 120 and 160.
const (
	minTitleLen = 30
	maxTitleLen = 60
	minDescLen  = 120
	maxDescLen  = 160
)

// Audit applies every rule independently to the given meta fields and
// returns the triggered issues. Lengths are measured in runes so that
// non-Latin titles are judged by character count, not byte count.
func Audit(metaTitle, metaDescription string) []Issue {
	issues := []Issue{}

	titleLen := utf8.RuneCountInString(metaTitle)
	if titleLen < minTitleLen {
		issues = append(issues, IssueTitleTooShort)
	}
	if titleLen > maxTitleLen {
		issues = append(issues, IssueTitleTooLong)
	}

	descLen := utf8.RuneCountInString(metaDescription)
	if descLen < minDescLen {
		issues = append(issues, IssueDescriptionTooShort)
	}
	if descLen > maxDescLen {
		issues = append(issues, IssueDescriptionTooLong)
	}

	return issues
}

// Optimal reports whether the meta fields trigger no issues.
func Optimal(metaTitle, metaDescription string) bool {
	return len(Audit(metaTitle, metaDescription)) == 0
}
