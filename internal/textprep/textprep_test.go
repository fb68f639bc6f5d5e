package textprep

import (
	"strings"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"lowercase", "MANTAP BANGET", "mantap banget"},
		{"url", "cek https://gojek.com/promo sekarang", "cek sekarang"},
		{"www", "buka www.gojek.com ya", "buka ya"},
		{"email", "hubungi cs@gojek.com segera", "hubungi segera"},
		{"mention and hashtag", "@gojekindonesia tolong #kecewa banget", "tolong banget"},
		{"accented mention", "@andré makasih #mantäp", "makasih"},
		{"standalone numbers", "nunggu 30 menit dari jam 7", "nunggu menit dari jam"},
		{"numbers inside words", "go2 gofood5x", "go2 gofood5x"},
		{"numbers between accented letters", "é5é", "é5é"},
		{"number next to symbol", "harga 50rb turun 20%", "harga 50rb turun"},
		{"non ascii digits", "kasih ٣ bintang", "kasih bintang"},
		{"punctuation", "Aplikasi jelek, tidak recommended!!!", "aplikasi jelek tidak recommended"},
		{"whitespace", "  banyak\t\tspasi \n di sini  ", "banyak spasi di sini"},
		{"emoji", "keren 👍👍 mantap", "keren mantap"},
		{"accents kept", "Café enak", "café enak"},
		{"underscore kept", "snake_case", "snake_case"},
		{"only noise", "!!! 123 @a #b http://x", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.input))
		})
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	crafted := []string{
		"hthttp://xtp://y",
		"a@http://x",
		"a.5.b x-12 é5é ½ ٣",
		"İstanbul ÇAĞRI",
		"é combining",
		"www wwwx xwww",
		"@ # @@ ##",
		"http http. https",
		"a b c",
		"_5_ 5_ _5",
	}
	for _, s := range crafted {
		once := Clean(s)
		assert.Equal(t, once, Clean(once), "input %q", s)
	}

	f := func(s string) bool {
		once := Clean(s)
		return Clean(once) == once
	}
	if err := quick.Check(f, &quick.Config{MaxCount: 2000}); err != nil {
		t.Error(err)
	}
}

type suffixStemmer struct{}

// Stem strips a couple of Indonesian suffixes, enough to observe the step
func (suffixStemmer) Stem(word string) string {
	for _, suffix := range []string{"nya", "kan"} {
		if strings.HasSuffix(word, suffix) && len(word) > len(suffix)+2 {
			return strings.TrimSuffix(word, suffix)
		}
	}
	return word
}

func TestPipeline(t *testing.T) {
	p := New(NewWordSet("yang", "dan", "sangat"), suffixStemmer{})

	assert.Equal(t, "driver ramah antarkan", p.RemoveStopwords("driver yang ramah dan antarkan"))
	assert.Equal(t, "driver ramah antar", p.Stem("driver ramah antarkan"))
	assert.Equal(t, "aplikasi bantu driver ramah", p.Preprocess("Aplikasinya SANGAT bantu, driver yang ramah!"))
	assert.Equal(t, "", p.Preprocess("yang dan 123"))
}

func TestPipelineSkipsNilSteps(t *testing.T) {
	p := New(nil, nil)
	assert.Equal(t, "yang ramah", p.Preprocess("Yang ramah!"))
}

func TestIndonesianStopwords(t *testing.T) {
	s := IndonesianStopwords()
	for _, w := range []string{"yang", "dan", "tidak", "saja", "nggak"} {
		assert.True(t, s.Contains(w), w)
	}
	assert.False(t, s.Contains("jelek"))
	assert.False(t, s.Contains(""))
}

func TestNewIndonesian(t *testing.T) {
	p := NewIndonesian()
	out := p.Preprocess("Aplikasi jelek, tidak recommended")
	assert.NotContains(t, strings.Fields(out), "tidak")
	assert.Contains(t, out, "jelek")
}
