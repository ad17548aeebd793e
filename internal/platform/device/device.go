// Package device turns raw User-Agent headers into the short summaries and
// stable fingerprints recorded on visibility audit events. A person reviewing
// "who changed my visibility" sees "Chrome on Mac OS X", not a UA string.
package device

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/mssola/useragent"
)

// ParseUserAgent produces a human-readable device summary such as
// "Chrome on Mac OS X" or "Safari on iPhone". Unknown input still yields a
// non-empty summary.
func ParseUserAgent(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "Unknown Device"
	}
	ua := useragent.New(raw)
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}
	os := ua.OSInfo().Name
	if ua.Mobile() && ua.Platform() != "" {
		os = ua.Platform()
	}
	if os == "" {
		os = "Unknown OS"
	}
	return strings.TrimSpace(browser + " on " + os)
}

// Service computes device fingerprints for audit trails. Fingerprinting can
// be disabled entirely by configuration, in which case every fingerprint is
// the empty string.
type Service struct {
	enabled bool
}

// NewService constructs a fingerprint service.
func NewService(enabled bool) *Service {
	return &Service{enabled: enabled}
}

// ComputeFingerprint hashes the stable parts of a User-Agent into a SHA-256
// hex digest. Minor browser version bumps do not change the fingerprint;
// major version or OS changes do.
func (s *Service) ComputeFingerprint(rawUA string) string {
	if !s.enabled {
		return ""
	}
	ua := useragent.New(rawUA)
	browser, version := ua.Browser()
	canonical := strings.Join([]string{
		browser,
		majorVersion(version),
		ua.OSInfo().FullName,
		ua.Platform(),
	}, "|")
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// CompareFingerprints reports whether a presented fingerprint matches the
// stored one, and whether a mismatch counts as drift worth flagging.
func (s *Service) CompareFingerprints(stored, presented string) (matched bool, drift bool) {
	if stored == "" || presented == "" {
		return false, false
	}
	if stored == presented {
		return true, false
	}
	return false, true
}

// majorVersion keeps only the leading version segment ("120.0.6099.109"
// becomes "120") so patch releases do not rotate fingerprints.
func majorVersion(version string) string {
	if idx := strings.Index(version, "."); idx != -1 {
		return version[:idx]
	}
	return version
}
