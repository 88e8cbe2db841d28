package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/korosuke613/ghasweep/github"
	"github.com/korosuke613/ghasweep/prune"
)

func TestQueryOptions_Criterion(t *testing.T) {
	tests := []struct {
		name    string
		opts    QueryOptions
		want    prune.Criterion
		wantErr bool
	}{
		{
			name: "conclusion",
			opts: QueryOptions{Conclusion: "failure"},
			want: prune.ByConclusion(github.ConclusionFailure),
		},
		{
			name: "actor",
			opts: QueryOptions{Actor: "alice"},
			want: prune.ByActor("alice"),
		},
		{
			name: "older than days",
			opts: QueryOptions{OlderThanDays: 30},
			want: prune.ByOlderThan(30),
		},
		{
			name:    "no criterion",
			opts:    QueryOptions{},
			wantErr: true,
		},
		{
			name:    "invalid conclusion",
			opts:    QueryOptions{Conclusion: "exploded"},
			wantErr: true,
		},
		{
			name:    "negative days",
			opts:    QueryOptions{OlderThanDays: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.opts.Criterion()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunIDString(t *testing.T) {
	id := int64(12345)
	assert.Equal(t, "12345", runIDString(prune.RunResult{RunID: &id}))
	assert.Equal(t, "-", runIDString(prune.RunResult{}))
}
