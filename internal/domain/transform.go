package domain

import (
	"encoding/json"
	"fmt"
)

// ParseMessage decodes a streamed raw message into a SeismicEvent. The
// payload is a JSON object with the same field names as the CSV columns.
func ParseMessage(raw RawMessage) (SeismicEvent, error) {
	var rec RawRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return SeismicEvent{}, fmt.Errorf("unmarshal raw record: %w", err)
	}
	return ParseRecord(rec)
}
