package membership

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBorrowingBlocks(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	p := &Patron{Blocks: []Block{
		{Desc: "open ended", Borrowing: true},
		{Desc: "expired", Borrowing: true, ExpirationDate: now.Add(-time.Hour)},
		{Desc: "future", Borrowing: true, ExpirationDate: now.Add(time.Hour)},
		{Desc: "requests only", Requests: true},
	}}

	blocks := p.BorrowingBlocks(now)
	var descs []string
	for _, b := range blocks {
		descs = append(descs, b.Desc)
	}
	assert.Equal(t, []string{"open ended", "future"}, descs)
	assert.Empty(t, (&Patron{}).BorrowingBlocks(now))
}
