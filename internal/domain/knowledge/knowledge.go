// Package knowledge names the two searchable knowledge bases and the escalation order between them.
package knowledge

import (
	"fmt"

	"github.com/kailas-cloud/supportrag/internal/domain"
)

// Base identifies a knowledge base.
type Base string

// Knowledge bases in escalation order.
const (
	Changelog   Base = "changelog"
	UserReviews Base = "user-reviews"
)

// All lists every knowledge base.
func All() []Base { return []Base{Changelog, UserReviews} }

// ForIteration returns the base searched at the given iteration:
// changelog first, user reviews from iteration 1 on.
func ForIteration(iteration int) Base {
	if iteration <= 0 {
		return Changelog
	}
	return UserReviews
}

// Parse validates a knowledge base name.
func Parse(s string) (Base, error) {
	switch Base(s) {
	case Changelog, UserReviews:
		return Base(s), nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownKnowledgeBase, s)
	}
}

func (b Base) String() string { return string(b) }

// IndexName is the search index for the base.
func (b Base) IndexName() string { return domain.KeyPrefix + string(b) + ":idx" }

// KeyPrefix is the hash key prefix covered by the base's index.
func (b Base) KeyPrefix() string { return domain.KeyPrefix + string(b) + ":" }

// Key is the storage key of one chunk in the base.
func (b Base) Key(chunkID string) string { return b.KeyPrefix() + chunkID }
