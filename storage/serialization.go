// Copyright 2026 Veridict Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"

	"github.com/veridict/caselaw/core"
)

// Hand-written MUS serializers for the domain types. Fields are encoded in
// declaration order; times as UnixMicro. Changing field order is a storage
// format break.

// MarshalCase serializes a Case to bytes.
func MarshalCase(c *core.Case) []byte {
	n := ord.String.Size(string(c.ID)) +
		ord.String.Size(c.Name) +
		ord.String.Size(c.Citation) +
		ord.String.Size(c.CourtName) +
		varint.Int64.Size(c.DecisionDate.UnixMicro()) +
		ord.String.Size(c.OpinionText) +
		varint.Int.Size(int(c.Status)) +
		varint.Int64.Size(c.InsertedAt.UnixMicro()) +
		varint.Int64.Size(c.UpdatedAt.UnixMicro())
	bs := make([]byte, n)

	off := ord.String.Marshal(string(c.ID), bs)
	off += ord.String.Marshal(c.Name, bs[off:])
	off += ord.String.Marshal(c.Citation, bs[off:])
	off += ord.String.Marshal(c.CourtName, bs[off:])
	off += varint.Int64.Marshal(c.DecisionDate.UnixMicro(), bs[off:])
	off += ord.String.Marshal(c.OpinionText, bs[off:])
	off += varint.Int.Marshal(int(c.Status), bs[off:])
	off += varint.Int64.Marshal(c.InsertedAt.UnixMicro(), bs[off:])
	varint.Int64.Marshal(c.UpdatedAt.UnixMicro(), bs[off:])
	return bs
}

// UnmarshalCase deserializes a Case from bytes.
func UnmarshalCase(bs []byte) (*core.Case, error) {
	var c core.Case
	var off int

	id, n, err := ord.String.Unmarshal(bs)
	if err != nil {
		return nil, err
	}
	c.ID = core.CaseID(id)
	off += n

	if c.Name, n, err = ord.String.Unmarshal(bs[off:]); err != nil {
		return nil, err
	}
	off += n
	if c.Citation, n, err = ord.String.Unmarshal(bs[off:]); err != nil {
		return nil, err
	}
	off += n
	if c.CourtName, n, err = ord.String.Unmarshal(bs[off:]); err != nil {
		return nil, err
	}
	off += n

	decided, n, err := varint.Int64.Unmarshal(bs[off:])
	if err != nil {
		return nil, err
	}
	c.DecisionDate = time.UnixMicro(decided).UTC()
	off += n

	if c.OpinionText, n, err = ord.String.Unmarshal(bs[off:]); err != nil {
		return nil, err
	}
	off += n

	status, n, err := varint.Int.Unmarshal(bs[off:])
	if err != nil {
		return nil, err
	}
	c.Status = core.AnalysisStatus(status)
	off += n

	inserted, n, err := varint.Int64.Unmarshal(bs[off:])
	if err != nil {
		return nil, err
	}
	c.InsertedAt = time.UnixMicro(inserted).UTC()
	off += n

	updated, _, err := varint.Int64.Unmarshal(bs[off:])
	if err != nil {
		return nil, err
	}
	c.UpdatedAt = time.UnixMicro(updated).UTC()

	return &c, nil
}

func sizeFactor(f *core.Factor) int {
	return ord.String.Size(string(f.CaseID)) +
		ord.String.Size(f.Text) +
		ord.String.Size(string(f.Type)) +
		varint.Float32.Size(f.WeightToHolding) +
		ord.String.Size(string(f.CourtPosition))
}

func marshalFactor(f *core.Factor, bs []byte) int {
	off := ord.String.Marshal(string(f.CaseID), bs)
	off += ord.String.Marshal(f.Text, bs[off:])
	off += ord.String.Marshal(string(f.Type), bs[off:])
	off += varint.Float32.Marshal(f.WeightToHolding, bs[off:])
	off += ord.String.Marshal(string(f.CourtPosition), bs[off:])
	return off
}

func unmarshalFactor(bs []byte) (core.Factor, int, error) {
	var f core.Factor
	var off int

	caseID, n, err := ord.String.Unmarshal(bs)
	if err != nil {
		return f, 0, err
	}
	f.CaseID = core.CaseID(caseID)
	off += n

	if f.Text, n, err = ord.String.Unmarshal(bs[off:]); err != nil {
		return f, 0, err
	}
	off += n

	typ, n, err := ord.String.Unmarshal(bs[off:])
	if err != nil {
		return f, 0, err
	}
	f.Type = core.FactorType(typ)
	off += n

	if f.WeightToHolding, n, err = varint.Float32.Unmarshal(bs[off:]); err != nil {
		return f, 0, err
	}
	off += n

	pos, n, err := ord.String.Unmarshal(bs[off:])
	if err != nil {
		return f, 0, err
	}
	f.CourtPosition = core.CourtPosition(pos)
	off += n

	return f, off, nil
}

// MarshalFactors serializes a case's factor list to bytes.
func MarshalFactors(factors []core.Factor) []byte {
	n := varint.Int.Size(len(factors))
	for i := range factors {
		n += sizeFactor(&factors[i])
	}
	bs := make([]byte, n)

	off := varint.Int.Marshal(len(factors), bs)
	for i := range factors {
		off += marshalFactor(&factors[i], bs[off:])
	}
	return bs
}

// UnmarshalFactors deserializes a factor list from bytes.
func UnmarshalFactors(bs []byte) ([]core.Factor, error) {
	count, off, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, err
	}

	factors := make([]core.Factor, 0, count)
	for i := 0; i < count; i++ {
		f, n, err := unmarshalFactor(bs[off:])
		if err != nil {
			return nil, err
		}
		factors = append(factors, f)
		off += n
	}
	return factors, nil
}

// MarshalHolding serializes a Holding to bytes.
func MarshalHolding(h *core.Holding) []byte {
	n := ord.String.Size(string(h.CaseID)) +
		ord.String.Size(h.Text) +
		ord.String.Size(string(h.Direction)) +
		varint.Float32.Size(h.Confidence)
	bs := make([]byte, n)

	off := ord.String.Marshal(string(h.CaseID), bs)
	off += ord.String.Marshal(h.Text, bs[off:])
	off += ord.String.Marshal(string(h.Direction), bs[off:])
	varint.Float32.Marshal(h.Confidence, bs[off:])
	return bs
}

// UnmarshalHolding deserializes a Holding from bytes.
func UnmarshalHolding(bs []byte) (*core.Holding, error) {
	var h core.Holding
	var off int

	caseID, n, err := ord.String.Unmarshal(bs)
	if err != nil {
		return nil, err
	}
	h.CaseID = core.CaseID(caseID)
	off += n

	if h.Text, n, err = ord.String.Unmarshal(bs[off:]); err != nil {
		return nil, err
	}
	off += n

	dir, n, err := ord.String.Unmarshal(bs[off:])
	if err != nil {
		return nil, err
	}
	h.Direction = core.Direction(dir)
	off += n

	if h.Confidence, _, err = varint.Float32.Unmarshal(bs[off:]); err != nil {
		return nil, err
	}

	return &h, nil
}

// MarshalCitation serializes a Citation to bytes.
func MarshalCitation(c *core.Citation) []byte {
	n := ord.String.Size(string(c.CitingCaseID)) +
		ord.String.Size(string(c.CitedCaseID)) +
		ord.String.Size(c.Text) +
		ord.String.Size(c.Context)
	bs := make([]byte, n)

	off := ord.String.Marshal(string(c.CitingCaseID), bs)
	off += ord.String.Marshal(string(c.CitedCaseID), bs[off:])
	off += ord.String.Marshal(c.Text, bs[off:])
	ord.String.Marshal(c.Context, bs[off:])
	return bs
}

// UnmarshalCitation deserializes a Citation from bytes.
func UnmarshalCitation(bs []byte) (*core.Citation, error) {
	var c core.Citation
	var off int

	citing, n, err := ord.String.Unmarshal(bs)
	if err != nil {
		return nil, err
	}
	c.CitingCaseID = core.CaseID(citing)
	off += n

	cited, n, err := ord.String.Unmarshal(bs[off:])
	if err != nil {
		return nil, err
	}
	c.CitedCaseID = core.CaseID(cited)
	off += n

	if c.Text, n, err = ord.String.Unmarshal(bs[off:]); err != nil {
		return nil, err
	}
	off += n

	if c.Context, _, err = ord.String.Unmarshal(bs[off:]); err != nil {
		return nil, err
	}

	return &c, nil
}

// MarshalVectors serializes a case's factor vectors to bytes.
func MarshalVectors(vectors [][]float32) []byte {
	n := varint.Int.Size(len(vectors))
	for _, v := range vectors {
		n += varint.Int.Size(len(v))
		for _, x := range v {
			n += varint.Float32.Size(x)
		}
	}
	bs := make([]byte, n)

	off := varint.Int.Marshal(len(vectors), bs)
	for _, v := range vectors {
		off += varint.Int.Marshal(len(v), bs[off:])
		for _, x := range v {
			off += varint.Float32.Marshal(x, bs[off:])
		}
	}
	return bs
}

// UnmarshalVectors deserializes a case's factor vectors from bytes.
func UnmarshalVectors(bs []byte) ([][]float32, error) {
	count, off, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, err
	}

	vectors := make([][]float32, 0, count)
	for i := 0; i < count; i++ {
		dim, n, err := varint.Int.Unmarshal(bs[off:])
		if err != nil {
			return nil, err
		}
		off += n

		v := make([]float32, dim)
		for j := 0; j < dim; j++ {
			x, n, err := varint.Float32.Unmarshal(bs[off:])
			if err != nil {
				return nil, err
			}
			v[j] = x
			off += n
		}
		vectors = append(vectors, v)
	}
	return vectors, nil
}
