package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLsnCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b Lsn
		want int
	}{
		{"equal", Lsn{File: 2, Offset: 100}, Lsn{File: 2, Offset: 100}, 0},
		{"earlier offset", Lsn{File: 2, Offset: 50}, Lsn{File: 2, Offset: 100}, -1},
		{"later offset", Lsn{File: 2, Offset: 200}, Lsn{File: 2, Offset: 100}, 1},
		{"earlier file wins over offset", Lsn{File: 1, Offset: 9999}, Lsn{File: 2, Offset: 0}, -1},
		{"later file wins over offset", Lsn{File: 3, Offset: 0}, Lsn{File: 2, Offset: 9999}, 1},
		{"zero values", Lsn{}, Lsn{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Compare(tt.b))
		})
	}
}

func TestLsnString(t *testing.T) {
	assert.Equal(t, "3/4096", Lsn{File: 3, Offset: 4096}.String())
	assert.Equal(t, "0/0", Lsn{}.String())
}
