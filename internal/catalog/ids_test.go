package catalog

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var urlSafe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func TestNewIDGenerator(t *testing.T) {
	tests := []struct {
		scheme  string
		wantLen int
		wantErr bool
	}{
		{scheme: "", wantLen: nanoIDLength},
		{scheme: IDSchemeNanoID, wantLen: nanoIDLength},
		{scheme: IDSchemeUUID, wantLen: 36},
		{scheme: "sequential", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.scheme, func(t *testing.T) {
			gen, err := NewIDGenerator(tt.scheme)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			id := gen()
			assert.Len(t, id, tt.wantLen)
			assert.Regexp(t, urlSafe, id)
		})
	}
}

func TestNanoIDGenerator_Uniqueness(t *testing.T) {
	gen, err := NewNanoIDGenerator()
	require.NoError(t, err)

	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		id := gen()
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}
