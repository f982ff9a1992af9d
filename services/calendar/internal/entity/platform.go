package entity

import "strings"

// Platform is the canonical identifier of a social network. Twitter is always "x".
type Platform string

const (
	PlatformLinkedIn  Platform = "linkedin"
	PlatformX         Platform = "x"
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
)

// DefaultPlatform is the display platform of a post with no platforms.
const DefaultPlatform = PlatformLinkedIn

// NormalizePlatform maps any spelling seen at the boundary to its canonical id.
// Unknown names are lowercased and passed through with ok=false.
func NormalizePlatform(raw string) (Platform, bool) {
	name := strings.ToLower(strings.TrimSpace(raw))
	switch name {
	case "linkedin":
		return PlatformLinkedIn, true
	case "x", "twitter":
		return PlatformX, true
	case "facebook":
		return PlatformFacebook, true
	case "instagram":
		return PlatformInstagram, true
	default:
		return Platform(name), false
	}
}

// NormalizePlatforms canonicalizes a list, dropping blanks and duplicates while keeping order.
func NormalizePlatforms(raw []string) []Platform {
	out := make([]Platform, 0, len(raw))
	seen := make(map[Platform]bool, len(raw))
	for _, r := range raw {
		p, _ := NormalizePlatform(r)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// Retryable reports whether a single-platform retry is supported. Only platforms
// with a tracked URL can be derived as failed.
func (p Platform) Retryable() bool {
	switch p {
	case PlatformLinkedIn, PlatformX, PlatformFacebook:
		return true
	}
	return false
}

func PlatformStrings(platforms []Platform) []string {
	out := make([]string, len(platforms))
	for i, p := range platforms {
		out[i] = string(p)
	}
	return out
}
