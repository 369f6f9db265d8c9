package perflog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownEntryType is returned when a payload's entryType is not one of
// EntryTypes.
var ErrUnknownEntryType = errors.New("perflog: unknown entry type")

// DecodeEntry decodes one JSON entry, choosing the variant by its entryType
// field.
func DecodeEntry(data []byte) (Entry, error) {
	var probe struct {
		Type EntryType `json:"entryType"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("perflog: decode entry: %w", err)
	}
	var (
		entry Entry
		err   error
	)
	switch probe.Type {
	case EntryNavigation:
		entry, err = decodeAs[NavigationTiming](data)
	case EntryPaint:
		entry, err = decodeAs[PaintTiming](data)
	case EntryFirstInput:
		entry, err = decodeAs[FirstInputTiming](data)
	case EntryLargestContentfulPaint:
		entry, err = decodeAs[LargestContentfulPaint](data)
	case EntryLayoutShift:
		entry, err = decodeAs[LayoutShift](data)
	case EntryLongTask:
		entry, err = decodeAs[LongTask](data)
	case EntryResource:
		entry, err = decodeAs[ResourceTiming](data)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownEntryType, probe.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("perflog: decode %s entry: %w", probe.Type, err)
	}
	return entry, nil
}

func decodeAs[T Entry](data []byte) (Entry, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// DecodeEntries decodes a JSON array of entries. Elements that fail to decode
// are skipped and reported through the joined error; the decoded entries are
// returned either way.
func DecodeEntries(data []byte) (Batch, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("perflog: decode entries: %w", err)
	}
	batch := make(Batch, 0, len(raw))
	var errs []error
	for i, item := range raw {
		entry, err := DecodeEntry(item)
		if err != nil {
			errs = append(errs, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		batch = append(batch, entry)
	}
	return batch, errors.Join(errs...)
}

// MarshalEntry encodes e as compact JSON with its entryType set.
func MarshalEntry(e Entry) ([]byte, error) {
	if e == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalize(e)); err != nil {
		return nil, fmt.Errorf("perflog: encode entry: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
