package observer

import "github.com/flaptastic/flaptastic-go/model"

// Buffer accumulates records in completion order until the next delivery.
type Buffer struct {
	records []model.ResultRecord
}

func (b *Buffer) Append(r model.ResultRecord) {
	b.records = append(b.records, r)
}

func (b *Buffer) Len() int {
	return len(b.records)
}

// Records returns a copy of the buffered records.
func (b *Buffer) Records() []model.ResultRecord {
	out := make([]model.ResultRecord, len(b.records))
	copy(out, b.records)
	return out
}

// Reset empties the buffer while keeping its backing storage.
func (b *Buffer) Reset() {
	clear(b.records)
	b.records = b.records[:0]
}
