package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/veridict/caselaw/core"
	"github.com/veridict/caselaw/storage"
)

// CaseRepository implements storage.CaseRepository for BadgerDB.
type CaseRepository struct {
	backend *Backend
}

var _ storage.CaseRepository = (*CaseRepository)(nil)

// NewCaseRepository creates a new CaseRepository.
func NewCaseRepository(backend *Backend) (*CaseRepository, error) {
	return &CaseRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *CaseRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *CaseRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddCases adds one or more cases to storage.
func (r *CaseRepository) AddCases(ctx context.Context, cases ...*core.Case) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, c := range cases {
			if err := core.ValidateCase(c); err != nil {
				return err
			}
			if c.Status == 0 {
				c.Status = core.StatusUnanalyzed
			}
			if c.InsertedAt.IsZero() {
				c.InsertedAt = now
			}
			c.UpdatedAt = now

			if err := tx.Set(makeCaseKey(c.ID), storage.MarshalCase(c)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetCase retrieves a single case by ID.
func (r *CaseRepository) GetCase(ctx context.Context, id core.CaseID) (*core.Case, error) {
	var result *core.Case
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readCase(tx, makeCaseKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetCases retrieves multiple cases by their IDs. Missing IDs are skipped.
func (r *CaseRepository) GetCases(ctx context.Context, ids ...core.CaseID) ([]*core.Case, error) {
	var result []*core.Case
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			c, err := readCase(tx, makeCaseKey(id))
			if err != nil {
				return err
			}
			if c != nil {
				result = append(result, c)
			}
		}
		return nil
	}, false)
	return result, err
}

// PutAnalysis stores the extracted factors and holding for a case and marks
// it analyzed. Any previous analysis for the case is replaced.
func (r *CaseRepository) PutAnalysis(ctx context.Context, id core.CaseID, factors []core.Factor, holding *core.Holding) error {
	for i := range factors {
		if err := core.ValidateFactor(&factors[i]); err != nil {
			return err
		}
	}
	if holding != nil {
		if err := core.ValidateHolding(holding); err != nil {
			return err
		}
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		c, err := readCase(tx, makeCaseKey(id))
		if err != nil {
			return err
		}
		if c == nil {
			return storage.ErrNotFound
		}

		if err := tx.Set(makeFactorsKey(id), storage.MarshalFactors(factors)); err != nil {
			return err
		}

		holdingKey := makeHoldingKey(id)
		if holding != nil {
			if err := tx.Set(holdingKey, storage.MarshalHolding(holding)); err != nil {
				return err
			}
		} else if err := tx.Delete(holdingKey); err != nil {
			return err
		}

		c.Status = core.StatusAnalyzed
		c.UpdatedAt = time.Now().UTC()
		if err := tx.Set(makeCaseKey(id), storage.MarshalCase(c)); err != nil {
			return err
		}

		if err := tx.Set(makeAnalyzedKey(id), nil); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// MarkAnalysisError flips a case's status to error.
func (r *CaseRepository) MarkAnalysisError(ctx context.Context, id core.CaseID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		c, err := readCase(tx, makeCaseKey(id))
		if err != nil {
			return err
		}
		if c == nil {
			return storage.ErrNotFound
		}
		c.Status = core.StatusError
		c.UpdatedAt = time.Now().UTC()
		if err := tx.Set(makeCaseKey(id), storage.MarshalCase(c)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetFactors retrieves the factors of one case.
func (r *CaseRepository) GetFactors(ctx context.Context, id core.CaseID) ([]core.Factor, error) {
	var result []core.Factor
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readFactors(tx, id)
		return err
	}, false)
	return result, err
}

// GetHolding retrieves the holding of one case.
func (r *CaseRepository) GetHolding(ctx context.Context, id core.CaseID) (*core.Holding, error) {
	var result *core.Holding
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeHoldingKey(id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = storage.UnmarshalHolding(val)
			return unmarshalErr
		})
	}, false)
	return result, err
}

// CountAnalyzed returns the number of cases with extracted factors.
func (r *CaseRepository) CountAnalyzed(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		prefix := []byte(caseAnalyzedPrefix + ":")
		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// ForEachFactorSet streams the factor sets of all analyzed cases in chunks,
// ordered by case ID ascending.
func (r *CaseRepository) ForEachFactorSet(ctx context.Context, chunkSize int, fn func(sets []core.FactorSet) error) error {
	if chunkSize <= 0 {
		return storage.ErrInvalidQuery
	}

	after := core.CaseID("")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		ids, err := r.AnalyzedCaseIDs(ctx, after, chunkSize)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		sets := make([]core.FactorSet, 0, len(ids))
		err = r.backend.WithTx(func(tx *badger.Txn) error {
			for _, id := range ids {
				factors, err := readFactors(tx, id)
				if err != nil {
					return err
				}
				sets = append(sets, core.FactorSet{CaseID: id, Factors: factors})
			}
			return nil
		}, false)
		if err != nil {
			return err
		}

		if err := fn(sets); err != nil {
			return err
		}

		if len(ids) < chunkSize {
			return nil
		}
		after = ids[len(ids)-1]
	}
}

// GetFactorVectors retrieves the stored embedding vectors for a case's factors.
func (r *CaseRepository) GetFactorVectors(ctx context.Context, id core.CaseID) ([][]float32, error) {
	var result [][]float32
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeVectorsKey(id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = storage.UnmarshalVectors(val)
			return unmarshalErr
		})
	}, false)
	return result, err
}

// PutFactorVectors stores the embedding vectors for a case's factors.
func (r *CaseRepository) PutFactorVectors(ctx context.Context, id core.CaseID, vectors [][]float32) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeVectorsKey(id), storage.MarshalVectors(vectors)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// AnalyzedCaseIDs returns up to limit analyzed case IDs, ascending, starting
// after the given ID.
func (r *CaseRepository) AnalyzedCaseIDs(ctx context.Context, after core.CaseID, limit int) ([]core.CaseID, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	var ids []core.CaseID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		prefix := []byte(caseAnalyzedPrefix + ":")
		startKey := prefix
		if after != "" {
			// Seek one byte past the previous page's last key so the
			// scan resumes strictly after it.
			startKey = append(makeAnalyzedKey(after), 0x00)
		}

		for iter.Seek(startKey); iter.ValidForPrefix(prefix) && len(ids) < limit; iter.Next() {
			key := iter.Item().Key()
			ids = append(ids, core.CaseID(slices.Clone(key[len(prefix):])))
		}
		return nil
	}, false)
	return ids, err
}

// Helper functions

// readCase reads a case record from the transaction.
func readCase(tx *badger.Txn, key []byte) (*core.Case, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var c *core.Case
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		c, unmarshalErr = storage.UnmarshalCase(val)
		return unmarshalErr
	})
	return c, err
}

// readFactors reads a case's factor list. Missing keys yield an empty slice.
func readFactors(tx *badger.Txn, id core.CaseID) ([]core.Factor, error) {
	item, err := tx.Get(makeFactorsKey(id))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var factors []core.Factor
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		factors, unmarshalErr = storage.UnmarshalFactors(val)
		return unmarshalErr
	})
	return factors, err
}
