// Package fetch - platform.go provides search URL generation and content
// selectors for the learning platforms and job boards the pipeline crawls.
package fetch

import (
	"net/url"
	"strings"
)

// Platform identifies a known course or job site.
type Platform string

const (
	// PlatformCoursera is the Coursera course catalog.
	PlatformCoursera Platform = "coursera"
	// PlatformUdemy is the Udemy course catalog.
	PlatformUdemy Platform = "udemy"
	// PlatformEdx is the edX course catalog.
	PlatformEdx Platform = "edx"
	// PlatformIndeed is the Indeed job board.
	PlatformIndeed Platform = "indeed"
	// PlatformLinkedIn is the LinkedIn jobs board.
	PlatformLinkedIn Platform = "linkedin"
	// PlatformUnknown is an unrecognized site.
	PlatformUnknown Platform = "unknown"
)

// CourseSearchURLs returns search result URLs for a skill, most relevant
// platform first.
func CourseSearchURLs(skill string) []string {
	q := url.QueryEscape(skill)
	return []string{
		"https://www.coursera.org/search?query=" + q,
		"https://www.udemy.com/courses/search/?q=" + q,
		"https://www.edx.org/search?q=" + q,
	}
}

// JobSearchURLs returns job board search URLs for a career goal.
func JobSearchURLs(goal string) []string {
	q := url.QueryEscape(goal)
	return []string{
		"https://www.indeed.com/jobs?q=" + q,
		"https://www.linkedin.com/jobs/search/?keywords=" + q,
	}
}

// DetectPlatform identifies the site behind a URL.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}

	host := strings.ToLower(parsed.Host)
	switch {
	case strings.Contains(host, "coursera.org"):
		return PlatformCoursera
	case strings.Contains(host, "udemy.com"):
		return PlatformUdemy
	case strings.Contains(host, "edx.org"):
		return PlatformEdx
	case strings.Contains(host, "indeed.com"):
		return PlatformIndeed
	case strings.Contains(host, "linkedin.com"):
		return PlatformLinkedIn
	default:
		return PlatformUnknown
	}
}

// DisplayName returns the platform name as shown in course records.
func (p Platform) DisplayName() string {
	switch p {
	case PlatformCoursera:
		return "Coursera"
	case PlatformUdemy:
		return "Udemy"
	case PlatformEdx:
		return "edX"
	case PlatformIndeed:
		return "Indeed"
	case PlatformLinkedIn:
		return "LinkedIn"
	default:
		return ""
	}
}

// PlatformContentSelectors returns content selectors optimized for a
// specific platform's search result pages.
func PlatformContentSelectors(platform Platform) []string {
	switch platform {
	case PlatformCoursera:
		return []string{
			"[data-testid='search-results']",
			".cds-ProductCard-base",
			"main",
			"#main",
		}
	case PlatformUdemy:
		return []string{
			".course-list--container",
			"[data-testid='course-card']",
			"main",
			".main-content",
		}
	case PlatformEdx:
		return []string{
			".search-results",
			".course-card",
			"main",
			"#content",
		}
	case PlatformIndeed, PlatformLinkedIn:
		return []string{
			".jobsearch-ResultsList",
			".jobs-search-results-list",
			".job-card-container",
			"main",
			"#content",
		}
	default:
		return []string{
			"main",
			"article",
			".content",
			"#content",
			".main-content",
		}
	}
}
