package utils

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCode(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"wang", "wang"},
		{"WANG", "wang"},
		{"Lǚ", "lu"},
		{"ｚｈｉ", "zhi"},
		{"ni hao", "nihao"},
		{"a1-b2", "a1b2"},
		{"王", ""},
		{"", ""},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeCode(tc.in))
		})
	}
}

func TestIsValidCode(t *testing.T) {
	assert.True(t, IsValidCode("zhi"))
	assert.True(t, IsValidCode("a1"))
	assert.False(t, IsValidCode(""))
	assert.False(t, IsValidCode("Zhi"))
	assert.False(t, IsValidCode("zh i"))
}

func TestSeenFilter(t *testing.T) {
	f := NewSeenFilter(2)
	assert.True(t, f.ShouldInclude("王"))
	assert.True(t, f.ShouldInclude("汪"))
	assert.False(t, f.ShouldInclude("王"))
}

func TestFormatWithCommas(t *testing.T) {
	assert.Equal(t, "999", FormatWithCommas(999))
	assert.Equal(t, "1,000", FormatWithCommas(1000))
	assert.Equal(t, "1,234,567", FormatWithCommas(1234567))
	assert.Equal(t, "-12,345", FormatWithCommas(-12345))
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "state.bin")

	require.NoError(t, WriteFileAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "first")
		return err
	}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))

	boom := errors.New("boom")
	err = WriteFileAtomic(path, func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return boom
	})
	require.ErrorIs(t, err, boom)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data), "failed write must leave old content")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be removed")
}

func TestIsValidDataDir(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, IsValidDataDir(dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wubi.dic"), []byte("a 工\n"), 0644))
	assert.True(t, IsValidDataDir(dir))
	assert.False(t, IsValidDataDir(filepath.Join(dir, "missing")))
}

func TestExtractStringGroups(t *testing.T) {
	data := map[string]any{
		"rules": []any{
			[]any{"z", "zh"},
			[]any{"l", 3, "n"},
			"bad",
		},
	}
	groups, ok := ExtractStringGroups(data, "rules")
	require.True(t, ok)
	assert.Equal(t, [][]string{{"z", "zh"}, {"l", "n"}}, groups)

	_, ok = ExtractStringGroups(data, "missing")
	assert.False(t, ok)
}
