package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"hindi", "मुझे गेहूं बेचना है, दस क्विंटल", "hi"},
		{"tamil", "எனக்கு கோதுமை விற்க வேண்டும்", "ta"},
		{"telugu", "నాకు గోధుమలు అమ్మాలి", "te"},
		{"bengali", "আমি গম বিক্রি করতে চাই", "bn"},
		{"gujarati", "મારે ઘઉં વેચવા છે", "gu"},
		{"english", "I want to sell ten quintals of wheat", "en"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			code, conf := Detect(tt.text)
			assert.Equal(t, tt.want, code)
			assert.Greater(t, conf, 0.5)
		})
	}
}

func TestDetect_NoLetters(t *testing.T) {
	t.Parallel()

	code, conf := Detect("2000 @ 25.50!")
	assert.Empty(t, code)
	assert.Zero(t, conf)
}

func TestDetect_MixedScriptMajorityWins(t *testing.T) {
	t.Parallel()

	// Mostly Devanagari with a Latin loanword.
	code, conf := Detect("गेहूं का रेट kg में बताओ भाई जल्दी")
	assert.Equal(t, "hi", code)
	assert.Greater(t, conf, 0.5)
}

func TestDetectWithFallback(t *testing.T) {
	t.Parallel()

	code, _, fallback := DetectWithFallback("दस क्विंटल गेहूं")
	assert.Equal(t, "hi", code)
	assert.False(t, fallback)

	// Unintelligible input falls back to the default language.
	code, conf, fallback := DetectWithFallback("12345 !!")
	assert.Equal(t, DefaultLanguage, code)
	assert.True(t, fallback)
	assert.Less(t, conf, ConfidenceThreshold)
}

func TestSupported(t *testing.T) {
	t.Parallel()

	for _, code := range []string{"hi", "ta", "te", "bn", "mr", "gu", "en"} {
		assert.True(t, Supported(code), code)
	}
	assert.False(t, Supported("fr"))
	assert.False(t, Supported("not-a-tag"))
}
