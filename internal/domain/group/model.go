package group

import (
	"errors"
	"strings"
	"time"
)

// Category constants. A group is either a competitive team or a class.
const (
	CategoryTeam  = "team"
	CategoryClass = "class"
)

// ValidCategories contains all valid category values.
var ValidCategories = []string{CategoryTeam, CategoryClass}

// Domain errors
var (
	ErrEmptyGroupName  = errors.New("group name cannot be empty")
	ErrEmptyBusinessID = errors.New("group must belong to a business")
	ErrInvalidCategory = errors.New("category must be team or class")
)

// AthleteGroup is a named roster within a business. Athletes are
// many-to-many with groups; attendance is always evaluated per
// (group, athlete) pair.
type AthleteGroup struct {
	ID         string
	BusinessID string
	Name       string
	Category   string // team or class
	CreatedAt  time.Time
}

// Validate checks if the AthleteGroup has valid data.
// PRE: AthleteGroup struct is populated
// POST: Returns nil if valid, error otherwise
func (g *AthleteGroup) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyGroupName
	}
	if g.BusinessID == "" {
		return ErrEmptyBusinessID
	}
	if !isValidCategory(g.Category) {
		return ErrInvalidCategory
	}
	return nil
}

// SelectOldestOfCategory is the named selection strategy for
// category-based report requests: of all groups in the category, only
// the earliest-created one is evaluated. Returns false when the
// category has no groups.
func SelectOldestOfCategory(groups []AthleteGroup, category string) (AthleteGroup, bool) {
	var oldest AthleteGroup
	found := false
	for _, g := range groups {
		if g.Category != category {
			continue
		}
		if !found || g.CreatedAt.Before(oldest.CreatedAt) {
			oldest = g
			found = true
		}
	}
	return oldest, found
}

func isValidCategory(category string) bool {
	for _, c := range ValidCategories {
		if c == category {
			return true
		}
	}
	return false
}
