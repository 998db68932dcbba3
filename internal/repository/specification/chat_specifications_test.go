package specification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLikePatternEscapesMetacharacters(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected string
	}{
		{name: "plain text", query: "Kyoto", expected: "%kyoto%"},
		{name: "percent is literal", query: "100%", expected: `%100\%%`},
		{name: "underscore is literal", query: "a_b", expected: `%a\_b%`},
		{name: "backslash is literal", query: `c:\tmp`, expected: `%c:\\tmp%`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, likePattern(tt.query))
		})
	}
}
