package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{input: "Yield (Mbases)", expected: "yield(mbases)"},
		{input: " % of the\n lane ", expected: "%ofthelane"},
		{input: "Gadget", expected: "gadget"},
		{input: "", expected: ""},
	}
	for _, test := range testCases {
		require.Equal(t, test.expected, NormalizeName(test.input))
	}
}

func TestStripThousands(t *testing.T) {
	require.Equal(t, "1234", StripThousands("1,234"))
	require.Equal(t, "1000000", StripThousands("1,000,000"))
	require.Equal(t, "NA", StripThousands("NA"))
}
