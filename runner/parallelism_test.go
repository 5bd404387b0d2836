package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParallelism(t *testing.T) {
	tests := []struct {
		input   string
		want    Parallelism
		wantErr bool
	}{
		{input: "", want: Parallelism{Mode: ParallelismDefault}},
		{input: "default", want: Parallelism{Mode: ParallelismDefault}},
		{input: "unlimited", want: Parallelism{Mode: ParallelismUnlimited}},
		{input: "0", want: Parallelism{Mode: ParallelismUnlimited}},
		{input: "1", want: Parallelism{Mode: ParallelismFixed, N: 1}},
		{input: "16", want: Parallelism{Mode: ParallelismFixed, N: 16}},
		{input: "-1", wantErr: true},
		{input: "bogus", wantErr: true},
		{input: "1.5", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseParallelism(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParallelismThreads(t *testing.T) {
	assert.Nil(t, Parallelism{Mode: ParallelismDefault}.Threads())

	unlimited := Parallelism{Mode: ParallelismUnlimited}.Threads()
	require.NotNil(t, unlimited)
	assert.Equal(t, 0, *unlimited)

	fixed := Parallelism{Mode: ParallelismFixed, N: 4}.Threads()
	require.NotNil(t, fixed)
	assert.Equal(t, 4, *fixed)
}

func TestParallelismString(t *testing.T) {
	assert.Equal(t, "default", Parallelism{}.String())
	assert.Equal(t, "unlimited", Parallelism{Mode: ParallelismUnlimited}.String())
	assert.Equal(t, "8", Parallelism{Mode: ParallelismFixed, N: 8}.String())
}
