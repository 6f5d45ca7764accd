package indexer

import "github.com/hyperjump/billsync/internal/models"

// IsBillIndexable reports whether a bill belongs in the search index: it must exist and its base
// version must be published.
func IsBillIndexable(b *models.Bill) bool {
	return b != nil && b.IsBaseVersionPublished()
}
