package wire

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestFieldError_Path(t *testing.T) {
	tests := []struct {
		name       string
		buildError func() error
		wantMsg    string
	}{
		{
			name: "single field",
			buildError: func() error {
				return wrapWithField(ErrInvalidUTF8, 9)
			},
			wantMsg: "at field 9: invalid utf-8 in string field",
		},
		{
			name: "nested fields prepend outer numbers",
			buildError: func() error {
				err := wrapWithField(ErrInvalidUTF8, 2)
				return wrapWithField(err, 9)
			},
			wantMsg: "at field 9 -> 2: invalid utf-8 in string field",
		},
		{
			name: "deep nesting keeps one path",
			buildError: func() error {
				err := wrapWithField(ErrTruncatedInput, 4)
				err = wrapWithField(err, 3)
				err = wrapWithField(err, 2)
				return wrapWithField(err, 1)
			},
			wantMsg: "at field 1 -> 2 -> 3 -> 4: truncated input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.buildError()
			require.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestFieldError_Unwrap(t *testing.T) {
	wrapped := errors.Wrap(ErrVarintOutOfRange, "uint32 payload")
	err := wrapWithField(wrapped, 3)

	require.ErrorIs(t, err, ErrVarintOutOfRange)

	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, []FieldNumber{3}, fe.FieldPath)
}

func TestFieldError_NilPassthrough(t *testing.T) {
	require.NoError(t, wrapWithField(nil, 1))
}

func TestSentinels_Distinct(t *testing.T) {
	sentinels := []error{
		ErrInvalidFieldNumber, ErrInvalidWireType, ErrTruncatedInput,
		ErrVarintTooLong, ErrVarintOutOfRange, ErrInvalidUTF8, ErrInvalidBool,
		ErrSchemaMismatch, ErrInvalidMapEntry, ErrMergeTypeConflict,
		ErrHeterogeneousRepeated, ErrWireValueMismatch, ErrDepthExceeded,
		ErrLengthExceeded,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			require.NotErrorIs(t, a, b)
		}
	}
}
