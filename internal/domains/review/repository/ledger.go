package repository

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v3"

	productmodel "zkreview-backend/internal/domains/product/model"
	"zkreview-backend/internal/domains/review/model"
	"zkreview-backend/internal/infrastructure/ledger"
)

// =====================================================
// LEDGER SUBMISSION STORE
// =====================================================

// ledgerSubmissionStore implements the submission semantics on the badger
// ledger. One serialized Commit covers the whole acceptance unit, so the
// existence check on the nullifier key inside the transaction is
// authoritative: no concurrent writer can slip in between check and set.
type ledgerSubmissionStore struct {
	store *ledger.Store
}

func NewLedgerSubmissionStore(store *ledger.Store) SubmissionStore {
	return &ledgerSubmissionStore{store: store}
}

// =====================================================
// JSON HELPERS
// =====================================================

func getJSON(txn *badger.Txn, key []byte, dest interface{}) (bool, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ledger get %q: %w", key, err)
	}

	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, dest)
	})
	if err != nil {
		return false, fmt.Errorf("ledger decode %q: %w", key, err)
	}
	return true, nil
}

func setJSON(txn *badger.Txn, key []byte, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("ledger encode %q: %w", key, err)
	}
	if err := txn.Set(key, data); err != nil {
		return fmt.Errorf("ledger set %q: %w", key, err)
	}
	return nil
}

// =====================================================
// NULLIFIER FAST PATH
// =====================================================

func (r *ledgerSubmissionStore) IsNullifierUsed(ctx context.Context, nullifier string) (bool, error) {
	var used bool
	err := r.store.View(func(txn *badger.Txn) error {
		_, err := txn.Get(ledger.NullifierKey(nullifier))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		used = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to check nullifier: %w", err)
	}
	return used, nil
}

// =====================================================
// ATOMIC SUBMISSION UNIT
// =====================================================

func (r *ledgerSubmissionStore) Submit(ctx context.Context, sub *model.Submission) (*SubmissionResult, error) {
	var result *SubmissionResult

	err := r.store.Commit(func(txn *badger.Txn) error {
		// Step 1: reserve the nullifier. Key existence inside the
		// serialized transaction is the exactly-once gate.
		nullKey := ledger.NullifierKey(sub.Nullifier)
		_, err := txn.Get(nullKey)
		if err == nil {
			return model.ErrDuplicateNullifier
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check nullifier: %w", err)
		}
		if err := txn.Set(nullKey, []byte{1}); err != nil {
			return fmt.Errorf("failed to reserve nullifier: %w", err)
		}

		// Step 2: assign the next sequential id.
		id, err := r.nextReviewID(txn)
		if err != nil {
			return err
		}

		// Step 3: assign a monotonic timestamp. The ledger clamps to the
		// last committed timestamp so wall-clock regressions never produce
		// out-of-order rows.
		ts, err := r.nextTimestamp(txn)
		if err != nil {
			return err
		}

		review := &model.Review{
			ID:               id,
			ProductID:        sub.ProductID,
			ReviewerIdentity: sub.ReviewerIdentity,
			Content:          sub.Content,
			Rating:           sub.Rating,
			Nullifier:        sub.Nullifier,
			ServiceName:      sub.ServiceName,
			Verified:         true,
			CreatedAt:        ts,
		}
		if err := setJSON(txn, ledger.ReviewKey(id), review); err != nil {
			return err
		}
		if err := txn.Set(ledger.ProductReviewKey(sub.ProductID, id), encodeID(id)); err != nil {
			return fmt.Errorf("failed to index review: %w", err)
		}

		// Step 4: apply the product aggregate.
		product, err := r.applyProductAggregate(txn, sub, ts)
		if err != nil {
			return err
		}

		// Step 5: apply the reviewer aggregate.
		reviewer, err := r.applyReviewerAggregate(txn, sub.ReviewerIdentity, ts)
		if err != nil {
			return err
		}

		result = &SubmissionResult{Review: review, Product: product, Reviewer: reviewer}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return result, nil
}

func encodeID(id int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(id))
	return buf
}

func decodeID(buf []byte) int64 {
	return int64(binary.BigEndian.Uint64(buf))
}

func (r *ledgerSubmissionStore) nextReviewID(txn *badger.Txn) (int64, error) {
	var last int64
	item, err := txn.Get(ledger.SeqReviewKey())
	if err == nil {
		if err := item.Value(func(val []byte) error {
			last = decodeID(val)
			return nil
		}); err != nil {
			return 0, fmt.Errorf("failed to read review sequence: %w", err)
		}
	} else if !errors.Is(err, badger.ErrKeyNotFound) {
		return 0, fmt.Errorf("failed to read review sequence: %w", err)
	}

	next := last + 1
	if err := txn.Set(ledger.SeqReviewKey(), encodeID(next)); err != nil {
		return 0, fmt.Errorf("failed to advance review sequence: %w", err)
	}
	return next, nil
}

func (r *ledgerSubmissionStore) nextTimestamp(txn *badger.Txn) (time.Time, error) {
	now := time.Now().UTC()

	var lastNanos int64
	item, err := txn.Get(ledger.LastTimestampKey())
	if err == nil {
		if err := item.Value(func(val []byte) error {
			lastNanos = decodeID(val)
			return nil
		}); err != nil {
			return time.Time{}, fmt.Errorf("failed to read timestamp floor: %w", err)
		}
	} else if !errors.Is(err, badger.ErrKeyNotFound) {
		return time.Time{}, fmt.Errorf("failed to read timestamp floor: %w", err)
	}

	if last := time.Unix(0, lastNanos).UTC(); now.Before(last) {
		now = last
	}

	if err := txn.Set(ledger.LastTimestampKey(), encodeID(now.UnixNano())); err != nil {
		return time.Time{}, fmt.Errorf("failed to advance timestamp floor: %w", err)
	}
	return now, nil
}

func (r *ledgerSubmissionStore) applyProductAggregate(txn *badger.Txn, sub *model.Submission, ts time.Time) (*productmodel.Product, error) {
	product := &productmodel.Product{}
	found, err := getJSON(txn, ledger.ProductKey(sub.ProductID), product)
	if err != nil {
		return nil, err
	}

	if !found {
		name := sub.SubjectName
		if name == "" {
			name = productmodel.PlaceholderName
		}
		product = &productmodel.Product{
			ID:           sub.ProductID,
			Name:         name,
			Manufacturer: productmodel.PlaceholderManufacturer,
			CreatedAt:    ts,
		}
	}

	product.TotalRating += int64(sub.Rating)
	product.ReviewCount++

	if err := setJSON(txn, ledger.ProductKey(sub.ProductID), product); err != nil {
		return nil, err
	}
	return product, nil
}

func (r *ledgerSubmissionStore) applyReviewerAggregate(txn *badger.Txn, identity string, ts time.Time) (*model.Reviewer, error) {
	reviewer := &model.Reviewer{}
	found, err := getJSON(txn, ledger.ReviewerKey(identity), reviewer)
	if err != nil {
		return nil, err
	}

	if !found {
		reviewer = &model.Reviewer{Identity: identity, CreatedAt: ts}
	}

	reviewer.Reputation++
	reviewer.ReviewCount++

	if err := setJSON(txn, ledger.ReviewerKey(identity), reviewer); err != nil {
		return nil, err
	}
	return reviewer, nil
}

// =====================================================
// READS
// =====================================================

func (r *ledgerSubmissionStore) GetReview(ctx context.Context, id int64) (*model.ReviewWithSubject, error) {
	var rws *model.ReviewWithSubject
	err := r.store.View(func(txn *badger.Txn) error {
		review := &model.Review{}
		found, err := getJSON(txn, ledger.ReviewKey(id), review)
		if err != nil {
			return err
		}
		if !found {
			return model.ErrReviewNotFound
		}

		rws = &model.ReviewWithSubject{Review: *review}
		rws.SubjectName = r.subjectName(txn, review.ProductID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rws, nil
}

// subjectName resolves the product name for a review, falling back to the
// product id when the product record is unreadable.
func (r *ledgerSubmissionStore) subjectName(txn *badger.Txn, productID string) string {
	product := &productmodel.Product{}
	found, err := getJSON(txn, ledger.ProductKey(productID), product)
	if err != nil || !found {
		return productID
	}
	return product.Name
}

func (r *ledgerSubmissionStore) ListRecent(ctx context.Context, limit int) ([]model.ReviewWithSubject, error) {
	if limit <= 0 {
		return []model.ReviewWithSubject{}, nil
	}

	reviews := make([]model.ReviewWithSubject, 0, limit)

	err := r.store.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = ledger.ReviewPrefix()
		it := txn.NewIterator(opts)
		defer it.Close()

		// Review keys are ordered by id, ids are assigned in commit order,
		// and timestamps never decrease with id, so reverse iteration
		// yields non-increasing timestamps. The page cannot be cut at
		// limit directly: equal timestamps rank by ascending id, so a tie
		// group straddling the limit must be collected whole before
		// sorting decides which of its rows make the page.
		seek := append(append([]byte{}, ledger.ReviewPrefix()...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(ledger.ReviewPrefix()); it.Next() {
			review := model.Review{}
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &review)
			}); err != nil {
				return fmt.Errorf("failed to decode review: %w", err)
			}

			if len(reviews) >= limit && review.CreatedAt.Before(reviews[limit-1].CreatedAt) {
				break
			}

			rws := model.ReviewWithSubject{Review: review}
			rws.SubjectName = r.subjectName(txn, review.ProductID)
			reviews = append(reviews, rws)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Newest first; equal timestamps in ascending id order.
	sort.SliceStable(reviews, func(i, j int) bool {
		if !reviews[i].CreatedAt.Equal(reviews[j].CreatedAt) {
			return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
		}
		return reviews[i].ID < reviews[j].ID
	})

	if len(reviews) > limit {
		reviews = reviews[:limit]
	}
	return reviews, nil
}

func (r *ledgerSubmissionStore) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]model.ReviewWithSubject, error) {
	if limit <= 0 {
		return []model.ReviewWithSubject{}, nil
	}

	// Offsets walk the same total order as ListRecent, so the window plus
	// any tie group at its boundary must be collected before sorting; an
	// in-iteration skip would drop the wrong rows under equal timestamps.
	need := offset + limit
	reviews := make([]model.ReviewWithSubject, 0, need)

	err := r.store.View(func(txn *badger.Txn) error {
		prefix := ledger.ProductReviewPrefix(productID)
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			var id int64
			if err := it.Item().Value(func(val []byte) error {
				id = decodeID(val)
				return nil
			}); err != nil {
				return fmt.Errorf("failed to decode review index: %w", err)
			}

			review := &model.Review{}
			found, err := getJSON(txn, ledger.ReviewKey(id), review)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("indexed review %d missing", id)
			}

			if len(reviews) >= need && review.CreatedAt.Before(reviews[need-1].CreatedAt) {
				break
			}

			rws := model.ReviewWithSubject{Review: *review}
			rws.SubjectName = r.subjectName(txn, review.ProductID)
			reviews = append(reviews, rws)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(reviews, func(i, j int) bool {
		if !reviews[i].CreatedAt.Equal(reviews[j].CreatedAt) {
			return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
		}
		return reviews[i].ID < reviews[j].ID
	})

	if offset >= len(reviews) {
		return []model.ReviewWithSubject{}, nil
	}
	end := offset + limit
	if end > len(reviews) {
		end = len(reviews)
	}
	return reviews[offset:end], nil
}

func (r *ledgerSubmissionStore) GetReviewer(ctx context.Context, identity string) (*model.Reviewer, error) {
	reviewer := &model.Reviewer{}
	var found bool
	err := r.store.View(func(txn *badger.Txn) error {
		var err error
		found, err = getJSON(txn, ledger.ReviewerKey(identity), reviewer)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, model.ErrReviewerNotFound
	}
	return reviewer, nil
}
