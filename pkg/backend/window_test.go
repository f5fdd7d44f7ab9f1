package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgaunet/s2console/pkg/dto"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   dto.PageRequest
		want dto.PageRequest
	}{
		{"Unchanged", dto.PageRequest{Limit: 25, Offset: 50}, dto.PageRequest{Limit: 25, Offset: 50}},
		{"Negative offset", dto.PageRequest{Limit: 25, Offset: -1}, dto.PageRequest{Limit: 25, Offset: 0}},
		{"Zero limit", dto.PageRequest{Limit: 0}, dto.PageRequest{Limit: DefaultLimit}},
		{"Negative limit", dto.PageRequest{Limit: -3}, dto.PageRequest{Limit: DefaultLimit}},
		{"Limit above max", dto.PageRequest{Limit: MaxLimit + 1}, dto.PageRequest{Limit: MaxLimit}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize(tt.in))
		})
	}
}

func TestBucketPattern(t *testing.T) {
	tests := []struct {
		pattern string
		name    string
		want    bool
	}{
		{"*", "anything", true},
		{"", "anything", true},
		{"log", "app-logs", true},
		{"log", "metrics", false},
		{"a*z", "xxabczyy", true},
		{"foo*", "my-foo", true},
		{"*", "nested/dir", false},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.name, func(t *testing.T) {
			glob, err := bucketPattern(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, match(glob, tt.name))
		})
	}

	_, err := bucketPattern("[")
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestFilePattern(t *testing.T) {
	glob, err := filePattern("")
	require.NoError(t, err)
	assert.Equal(t, "*", glob)

	glob, err = filePattern("*.log")
	require.NoError(t, err)
	assert.True(t, match(glob, "app.log"))
	assert.False(t, match(glob, "app.txt"))

	_, err = filePattern("dir/*.log")
	assert.ErrorIs(t, err, ErrNestedPattern)

	_, err = filePattern("/top.log")
	assert.NoError(t, err)
}

func TestCollapseStars(t *testing.T) {
	assert.Equal(t, "*", collapseStars("***"))
	assert.Equal(t, "*a*", collapseStars("**a**"))
	assert.Equal(t, `*\**`, collapseStars(`*\**`))
}
