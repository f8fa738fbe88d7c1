package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v3"

	"zkreview-backend/internal/domains/product/model"
	"zkreview-backend/internal/infrastructure/ledger"
)

// =====================================================
// LEDGER PRODUCT REPOSITORY
// =====================================================

type ledgerProductRepository struct {
	store *ledger.Store
}

func NewLedgerProductRepository(store *ledger.Store) ProductRepository {
	return &ledgerProductRepository{store: store}
}

func (r *ledgerProductRepository) Create(ctx context.Context, product *model.Product) error {
	return r.store.Commit(func(txn *badger.Txn) error {
		key := ledger.ProductKey(product.ID)

		_, err := txn.Get(key)
		if err == nil {
			return model.ErrProductExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check product: %w", err)
		}

		product.CreatedAt = time.Now().UTC()
		data, err := json.Marshal(product)
		if err != nil {
			return fmt.Errorf("failed to encode product: %w", err)
		}
		if err := txn.Set(key, data); err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}
		return nil
	})
}

func (r *ledgerProductRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	product := &model.Product{}
	err := r.store.View(func(txn *badger.Txn) error {
		item, err := txn.Get(ledger.ProductKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return model.ErrProductNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get product: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, product)
		})
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (r *ledgerProductRepository) List(ctx context.Context, limit, offset int) ([]model.Product, int, error) {
	all := make([]model.Product, 0)

	err := r.store.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = ledger.ProductPrefix()
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(ledger.ProductPrefix()); it.ValidForPrefix(ledger.ProductPrefix()); it.Next() {
			var p model.Product
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &p)
			}); err != nil {
				return fmt.Errorf("failed to decode product: %w", err)
			}
			all = append(all, p)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	// Product keys are ordered by hashed id, so sort for a stable
	// newest-first listing.
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	total := len(all)
	if offset >= total {
		return []model.Product{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}
