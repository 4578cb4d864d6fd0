package videopulse

import (
	"fmt"
	"log"

	"pulse-stack/shared/storage"
)

// checkEligibility re-reads the persisted record for id and decides keep vs.
// discard. Thresholds are inclusive and unknown metrics compare as zero. An
// ineligible record is deleted from the store (the tentative write-through
// copy has no downstream value); an unreadable record is left in place and
// reported as an error so the caller can skip the candidate.
func checkEligibility(store *storage.RecordStore, id string, minLikes, minFollowers int64) (bool, error) {
	record, err := store.Get(id)
	if err != nil {
		return false, fmt.Errorf("could not evaluate record %s: %w", id, err)
	}

	likes := record.LikesOrZero()
	subscribers := record.SubscribersOrZero()

	if likes >= minLikes && subscribers >= minFollowers {
		log.Printf("Keeping %s: likes (%d), subscribers (%d) meet criteria", id, likes, subscribers)
		return true, nil
	}

	log.Printf("Deleting %s: likes (%d) or subscribers (%d) below minimum", id, likes, subscribers)
	if err := store.Delete(id); err != nil {
		return false, fmt.Errorf("failed to delete ineligible record %s: %w", id, err)
	}
	return false, nil
}
