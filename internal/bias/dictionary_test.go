package bias

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDictionaryOrder(t *testing.T) {
	dict := DefaultDictionary()

	require.Len(t, dict, 3)
	assert.Equal(t, "Gender", dict[0].Name)
	assert.Equal(t, "Religion", dict[1].Name)
	assert.Equal(t, "Absolute", dict[2].Name)
	assert.Equal(t, []string{"male", "female", "man", "woman"}, dict[0].Words)
	assert.NoError(t, dict.Validate())
}

func TestDictionaryValidate(t *testing.T) {
	tests := []struct {
		name string
		dict Dictionary
	}{
		{name: "empty", dict: Dictionary{}},
		{name: "unnamed category", dict: Dictionary{{Name: " ", Words: []string{"x"}}}},
		{name: "duplicate category", dict: Dictionary{{Name: "A", Words: []string{"x"}}, {Name: "A", Words: []string{"y"}}}},
		{name: "no words", dict: Dictionary{{Name: "A"}}},
		{name: "blank word", dict: Dictionary{{Name: "A", Words: []string{""}}}},
		{name: "uppercase word", dict: Dictionary{{Name: "A", Words: []string{"Word"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.dict.Validate())
		})
	}
}

func TestDictionaryFilter(t *testing.T) {
	dict := DefaultDictionary()

	t.Run("all keeps everything", func(t *testing.T) {
		got, err := dict.Filter([]string{"all"})
		require.NoError(t, err)
		assert.Equal(t, dict, got)
	})

	t.Run("empty keeps everything", func(t *testing.T) {
		got, err := dict.Filter(nil)
		require.NoError(t, err)
		assert.Equal(t, dict, got)
	})

	t.Run("subset keeps declaration order", func(t *testing.T) {
		got, err := dict.Filter([]string{"Absolute", "Gender"})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Gender", got[0].Name)
		assert.Equal(t, "Absolute", got[1].Name)
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := dict.Filter([]string{"Gender", "Age"})
		assert.ErrorContains(t, err, "Age")
	})

	t.Run("result is a copy", func(t *testing.T) {
		got, err := dict.Filter([]string{"Gender"})
		require.NoError(t, err)
		got[0].Words[0] = "changed"
		assert.Equal(t, "male", dict[0].Words[0])
	})
}

func TestDictionaryFingerprint(t *testing.T) {
	a := DefaultDictionary()
	b := DefaultDictionary()
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	b[2].Words = append(b[2].Words, "every")
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "empty", text: "", want: []string{}},
		{name: "no terminator", text: "just some words here", want: []string{"just some words here"}},
		{
			name: "mixed terminators and whitespace runs",
			text: "First sentence here!  Second sentence here?\n\tThird one here.",
			want: []string{"First sentence here!", "Second sentence here?", "Third one here."},
		},
		{name: "decimal point does not split", text: "Version 1.5 is out now.", want: []string{"Version 1.5 is out now."}},
		{name: "short pieces dropped", text: "Hi. Ok! Yes? Hello there.", want: []string{"Hello there."}},
		{name: "exactly five runes dropped", text: "Four. Longer piece.", want: []string{"Longer piece."}},
		{name: "six runes kept", text: "Three. Four.", want: []string{"Three."}},
		{name: "runes not bytes", text: "éééé. Fine words here.", want: []string{"Fine words here."}},
		{name: "trailing whitespace", text: "  Leading and trailing.   ", want: []string{"Leading and trailing."}},
		{name: "newline without terminator", text: "line one\nline two", want: []string{"line one\nline two"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitSentences(tt.text))
		})
	}
}
