package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/veridict/caselaw/core"
)

// Key prefixes for different data types
const (
	caseRecordPrefix   = "casrec"
	caseFactorsPrefix  = "casfac"
	caseHoldingPrefix  = "cashold"
	caseVectorsPrefix  = "casvec"
	caseAnalyzedPrefix = "casanl"
	citationOutPrefix  = "citout"
	citationInPrefix   = "citin"
	citationIDSeq      = "citrecseq"
)

// makeCaseKey generates a key for a case record by ID.
func makeCaseKey(id core.CaseID) []byte {
	return []byte(fmt.Sprintf("%s:%s", caseRecordPrefix, id))
}

// makeFactorsKey generates a key for a case's factor list.
func makeFactorsKey(id core.CaseID) []byte {
	return []byte(fmt.Sprintf("%s:%s", caseFactorsPrefix, id))
}

// makeHoldingKey generates a key for a case's holding.
func makeHoldingKey(id core.CaseID) []byte {
	return []byte(fmt.Sprintf("%s:%s", caseHoldingPrefix, id))
}

// makeVectorsKey generates a key for a case's factor vectors.
func makeVectorsKey(id core.CaseID) []byte {
	return []byte(fmt.Sprintf("%s:%s", caseVectorsPrefix, id))
}

// makeAnalyzedKey generates an index key marking a case as analyzed.
// Index keys sort lexicographically by case ID, which gives scans over
// the analyzed corpus a stable ascending order.
func makeAnalyzedKey(id core.CaseID) []byte {
	return []byte(fmt.Sprintf("%s:%s", caseAnalyzedPrefix, id))
}

// makeCitationOutKey generates a composite key for the outgoing citation index.
// Format: prefix:citingID:seq
func makeCitationOutKey(citingID core.CaseID, seq uint64) []byte {
	return makeCitationEdgeKey(citationOutPrefix, citingID, seq)
}

// makeCitationInKey generates a composite key for the incoming citation index.
// Format: prefix:citedID:seq
func makeCitationInKey(citedID core.CaseID, seq uint64) []byte {
	return makeCitationEdgeKey(citationInPrefix, citedID, seq)
}

func makeCitationEdgeKey(prefix string, id core.CaseID, seq uint64) []byte {
	head := []byte(fmt.Sprintf("%s:%s:", prefix, id))
	buf := make([]byte, len(head)+8)
	offset := copy(buf, head)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

// makePartialCitationOutKey generates a partial key for scanning one case's
// outgoing citations.
func makePartialCitationOutKey(citingID core.CaseID) []byte {
	return []byte(fmt.Sprintf("%s:%s:", citationOutPrefix, citingID))
}

// makePartialCitationInKey generates a partial key for scanning citations
// pointing at one case.
func makePartialCitationInKey(citedID core.CaseID) []byte {
	return []byte(fmt.Sprintf("%s:%s:", citationInPrefix, citedID))
}
