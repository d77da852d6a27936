package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"formatted with country code", "+1 (801) 555-0100", "8015550100"},
		{"seven digits untouched", "5550100", "5550100"},
		{"empty", "", ""},
		{"ten digits untouched", "8015550100", "8015550100"},
		{"eleven digits leading one stripped", "18015550100", "8015550100"},
		{"eleven digits not starting with one kept", "28015550100", "28015550100"},
		{"letters and punctuation dropped", "801.555.ABCD", "801555"},
		{"whitespace only", "   ", ""},
		{"twelve digits untouched", "118015550100", "118015550100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}
