package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/veridict/caselaw/core"
	"github.com/veridict/caselaw/storage"
)

// CitationRepository implements storage.CitationRepository for BadgerDB.
//
// Each edge is written under an outgoing index keyed by the citing case.
// Edges with a resolvable cited case are additionally written under an
// incoming index keyed by the cited case, which is what the enrichment
// stage scans. Dangling edges only ever appear in the outgoing index.
type CitationRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.CitationRepository = (*CitationRepository)(nil)

// NewCitationRepository creates a new CitationRepository.
func NewCitationRepository(backend *Backend) (*CitationRepository, error) {
	idSeq, err := backend.GetSequence(citationIDSeq)
	if err != nil {
		return nil, err
	}

	return &CitationRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the edge ID sequence.
func (r *CitationRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *CitationRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddCitations adds directed citation edges.
func (r *CitationRepository) AddCitations(ctx context.Context, citations ...*core.Citation) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, c := range citations {
			if err := core.ValidateCitation(c); err != nil {
				return err
			}

			seq, err := r.idSeq.Next()
			if err != nil {
				return err
			}

			value := storage.MarshalCitation(c)
			if err := tx.Set(makeCitationOutKey(c.CitingCaseID, seq), value); err != nil {
				return err
			}
			if c.CitedCaseID != "" {
				if err := tx.Set(makeCitationInKey(c.CitedCaseID, seq), value); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)
}

// GetCitations retrieves the outgoing citations of one case.
func (r *CitationRepository) GetCitations(ctx context.Context, citingID core.CaseID) ([]core.Citation, error) {
	return r.scanEdges(makePartialCitationOutKey(citingID))
}

// GetCitingCases retrieves citations where the given case is the cited case.
func (r *CitationRepository) GetCitingCases(ctx context.Context, citedID core.CaseID) ([]core.Citation, error) {
	return r.scanEdges(makePartialCitationInKey(citedID))
}

// scanEdges collects all citation edges under one index prefix.
func (r *CitationRepository) scanEdges(prefix []byte) ([]core.Citation, error) {
	var results []core.Citation
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			var citation *core.Citation
			if err := iter.Item().Value(func(val []byte) error {
				var unmarshalErr error
				citation, unmarshalErr = storage.UnmarshalCitation(val)
				return unmarshalErr
			}); err != nil {
				return err
			}
			results = append(results, *citation)
		}
		return nil
	}, false)
	return results, err
}
