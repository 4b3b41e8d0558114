package changelog

import (
	"fmt"
	"strings"
)

// VersionNotFoundError is returned when a requested version doesn't exist.
type VersionNotFoundError struct {
	Version           string
	AvailableVersions []string
}

func (e *VersionNotFoundError) Error() string {
	return fmt.Sprintf("version %q not found (available: %s)",
		e.Version, strings.Join(e.AvailableVersions, ", "))
}

// NormalizeVersion lowercases a version label and strips a "v" prefix,
// so "v0.6.0" and "0.6.0" compare equal.
func NormalizeVersion(version string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(version)), "v")
}

// isPendingAlias reports whether version names the pending section.
func isPendingAlias(version string) bool {
	switch strings.ToLower(strings.TrimSpace(version)) {
	case "next", "next version", "pending", "unreleased":
		return true
	}
	return false
}

// GetVersion retrieves a section by name. An exact match wins; otherwise
// names are compared with NormalizeVersion. "next", "pending" and
// "unreleased" select the pending section.
func (c *Changelog) GetVersion(version string) (*Record, error) {
	if isPendingAlias(version) && c.Pending != nil {
		return c.Pending, nil
	}

	for i := range c.Records {
		if c.Records[i].Name == version {
			return &c.Records[i], nil
		}
	}

	normalized := NormalizeVersion(version)
	for i := range c.Records {
		if NormalizeVersion(c.Records[i].Name) == normalized {
			return &c.Records[i], nil
		}
	}

	return nil, &VersionNotFoundError{
		Version:           version,
		AvailableVersions: c.ListVersions(),
	}
}

// ListVersions returns the section names in file order, the pending
// section first.
func (c *Changelog) ListVersions() []string {
	all := c.All()
	versions := make([]string, len(all))
	for i, r := range all {
		versions[i] = r.Name
	}
	return versions
}

// GetLatestRelease returns the first tagged section. Returns nil if there
// are no tagged sections.
func (c *Changelog) GetLatestRelease() *Record {
	if len(c.Records) == 0 {
		return nil
	}
	return &c.Records[0]
}

// GetVersionCount returns the number of sections, pending included.
func (c *Changelog) GetVersionCount() int {
	return len(c.All())
}

// GetLineCount returns the number of formatted lines across all sections.
func (c *Changelog) GetLineCount() int {
	count := 0
	for _, r := range c.All() {
		count += len(Format(r.Body, nil))
	}
	return count
}
