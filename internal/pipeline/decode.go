package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"portal/internal"
)

var (
	errEmptyRow  = errors.New("empty row")
	errNotRecord = errors.New("row does not decode to a record")
)

type DecodeResult struct {
	Rows   []internal.NormalizedRow
	Failed int
}

// DecodeRows decodes every raw order row. A row that cannot be decoded is
// dropped and counted; the batch always runs to the end, so
// len(Rows)+Failed equals len(raw).
func DecodeRows(raw []json.RawMessage) DecodeResult {
	out := DecodeResult{Rows: make([]internal.NormalizedRow, 0, len(raw))}
	for _, item := range raw {
		row, err := DecodeRow(item)
		if err != nil {
			out.Failed++
			continue
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// DecodeRow accepts the three upstream shapes: a JSON string holding a
// record, a record whose "data" field is such a string, or a plain record.
func DecodeRow(raw json.RawMessage) (internal.NormalizedRow, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errEmptyRow
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, err
		}
		return decodeRecord([]byte(s))
	case '{':
		rec, err := decodeRecord(trimmed)
		if err != nil {
			return nil, err
		}
		data, ok := rec["data"]
		if !ok {
			return rec, nil
		}
		s, ok := data.(string)
		if !ok {
			return nil, fmt.Errorf("row field data is %T, want string", data)
		}
		return decodeRecord([]byte(s))
	default:
		return nil, errNotRecord
	}
}

func decodeRecord(blob []byte) (internal.NormalizedRow, error) {
	dec := json.NewDecoder(bytes.NewReader(blob))
	dec.UseNumber()

	var rec map[string]any
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errNotRecord
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after record")
	}
	return internal.NormalizedRow(rec), nil
}
