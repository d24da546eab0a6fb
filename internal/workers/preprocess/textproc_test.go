package preprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/transfero/internal/models"
)

func TestFixTypos(t *testing.T) {
	assert.Equal(t, "hello world", FixTypos("  hello    world  "))
	assert.Equal(t, "", FixTypos("   "))
}

func TestExpandAbbreviations(t *testing.T) {
	assert.Equal(t, "하이 world", ExpandAbbreviations("ㅎㅇ world"))
	assert.Equal(t, "good game everyone", ExpandAbbreviations("gg everyone"))
	assert.Equal(t, "thanks", ExpandAbbreviations("THX"))
	assert.Equal(t, "nothing here", ExpandAbbreviations("nothing here"))
}

func TestNormalizeRepeats(t *testing.T) {
	assert.Equal(t, "good", NormalizeRepeats("goooood"))
	assert.Equal(t, "ㅋㅋ", NormalizeRepeats("ㅋㅋㅋㅋㅋㅋ"))
	assert.Equal(t, "hello!!", NormalizeRepeats("hello!!!!!"))
	assert.Equal(t, "abc", NormalizeRepeats("abc"))
}

func TestRemoveEmoticons(t *testing.T) {
	assert.Equal(t, "hello", RemoveEmoticons("hello 😀🎉"))
	assert.Equal(t, "", RemoveEmoticons("😀😀😀"))
	assert.Equal(t, "plain text", RemoveEmoticons("plain text"))
}

func TestContainsProfanity(t *testing.T) {
	assert.True(t, ContainsProfanity("well damn that hurt"))
	assert.True(t, ContainsProfanity("DAMN!"))
	assert.True(t, ContainsProfanity("아 시발"))
	assert.False(t, ContainsProfanity("perfectly polite sentence"))
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"hello there", "en"},
		{"안녕하세요 반갑습니다", "ko"},
		{"こんにちは", "ja"},
		{"你好世界", "zh"},
		{"สวัสดีครับ", "th"},
		{"привет мир", "ru"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectLanguage(tt.text), "text: %s", tt.text)
	}
}

func TestPreprocess_FullPipeline(t *testing.T) {
	outcome := Preprocess("  ㅎㅇ   everyoneeeee 😀 ", models.PreprocessOptions{
		ExpandAbbreviations: true,
		NormalizeRepeats:    true,
		RemoveEmoticons:     true,
		FixTypos:            true,
	})

	assert.False(t, outcome.Filtered)
	assert.Equal(t, "  ㅎㅇ   everyoneeeee 😀 ", outcome.OriginalText)
	assert.Equal(t, "하이 everyonee", outcome.PreprocessedText)
	assert.NotEmpty(t, outcome.DetectedLanguage)
}

func TestPreprocess_ProfanityFiltered(t *testing.T) {
	outcome := Preprocess("damn", models.PreprocessOptions{FilterProfanity: true})

	assert.True(t, outcome.Filtered)
	assert.Equal(t, "profanity", outcome.FilterReason)
	assert.Empty(t, outcome.PreprocessedText)
}

func TestPreprocess_EmptyAfterCleanup(t *testing.T) {
	outcome := Preprocess("😀🎉", models.PreprocessOptions{
		RemoveEmoticons: true,
		FixTypos:        true,
	})

	assert.True(t, outcome.Filtered)
	assert.Equal(t, "empty_after_preprocessing", outcome.FilterReason)
}

func TestPreprocess_OptionsDisabled(t *testing.T) {
	text := "goooood 😀"
	outcome := Preprocess(text, models.PreprocessOptions{})

	assert.False(t, outcome.Filtered)
	assert.Equal(t, text, outcome.PreprocessedText)
}
