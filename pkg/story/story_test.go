package story

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"i2cgo/pkg/catalog"
	"i2cgo/pkg/config"
	"i2cgo/pkg/llm"
	"i2cgo/pkg/llm/prompts"
	"i2cgo/pkg/model"
	"i2cgo/pkg/tracker"
)

type call struct {
	name   string
	prompt string
	opts   llm.Options
}

type fakeProvider struct {
	responses map[string]string
	errs      map[string]error
	calls     []call
}

func (f *fakeProvider) GenerateText(ctx context.Context, name, prompt string, opts llm.Options) (string, error) {
	f.calls = append(f.calls, call{name: name, prompt: prompt, opts: opts})
	if err := f.errs[name]; err != nil {
		return "", err
	}
	return f.responses[name], nil
}

func (f *fakeProvider) GenerateImageText(ctx context.Context, name, prompt string, img llm.Image, opts llm.Options) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeProvider) ValidateModels(ctx context.Context) error { return nil }
func (f *fakeProvider) HasProfile(name string) bool            { return true }

func newGenerator(t *testing.T, p llm.Provider, tr *tracker.Tracker) *Generator {
	t.Helper()
	pm, err := prompts.NewManager("")
	require.NoError(t, err)
	cfg := config.DefaultConfig().Narrative
	return NewGenerator(p, pm, catalog.Default(), cfg, tr)
}

func twoRecords() []model.PhotoRecord {
	later := record("저녁 노을이 지는 바다", "2023:05:02 18:30:00")
	later.Metadata.Location = model.Location{FullAddress: "해운대해수욕장, 부산", Country: "대한민국", City: "부산광역시"}
	earlier := record("아침 시장의 생선 가게", "2023:05:01 07:15:00")
	return []model.PhotoRecord{later, earlier}
}

func TestCreateStory_PromptScenario(t *testing.T) {
	fp := &fakeProvider{responses: map[string]string{config.ProfileStory: "오늘은 바다에 갔다."}}
	g := newGenerator(t, fp, tracker.New())

	friendly, ok := catalog.Default().Tone("friendly")
	require.True(t, ok)

	text, tone, err := g.CreateStory(context.Background(), Request{
		Records:     twoRecords(),
		Style:       "일기",
		Length:      300,
		Temperature: 0.5,
		Persona: model.Persona{
			Age:                    "28",
			Gender:                 "여성",
			WritingTone:            "friendly",
			WritingToneDescription: friendly.Description,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "오늘은 바다에 갔다.", text)
	assert.Equal(t, "friendly", tone)

	require.Len(t, fp.calls, 1)
	c := fp.calls[0]
	assert.Equal(t, config.ProfileStory, c.name)
	assert.Equal(t, SystemPrompt, c.opts.System)
	assert.Equal(t, 300, c.opts.MaxTokens)
	require.NotNil(t, c.opts.Temperature)
	assert.InDelta(t, 0.5, *c.opts.Temperature, 1e-6)

	p := c.prompt
	assert.Contains(t, p, "저는 28세 여성입니다.")
	assert.Contains(t, p, "1. ["+friendly.ShortName+"] 문체를 사용하세요.")
	assert.Contains(t, p, "3. 문체 특징: "+friendly.Description)
	assert.Contains(t, p, "정확히 300자 (±10자 오차 허용)")

	first := strings.Index(p, "아침 시장의 생선 가게")
	second := strings.Index(p, "저녁 노을이 지는 바다")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	assert.Less(t, first, second)
	assert.Contains(t, p, "이미지 1:\n캡션: 아침 시장의 생선 가게")
	assert.Contains(t, p, "- 날짜/시간: 2023-05-02 18:30:00\n- 위치: 해운대해수욕장, 부산")

	diary, _ := catalog.Default().Style("일기")
	assert.Contains(t, p, diary.Instructions)
	assert.Less(t, second, strings.Index(p, diary.Instructions))
}

func TestCreateStory_Errors(t *testing.T) {
	t.Run("unknown style", func(t *testing.T) {
		fp := &fakeProvider{}
		g := newGenerator(t, fp, nil)
		_, _, err := g.CreateStory(context.Background(), Request{Style: "소설", Length: 100})
		assert.ErrorIs(t, err, ErrUnknownStyle)
		assert.Empty(t, fp.calls)
	})

	t.Run("bad length", func(t *testing.T) {
		g := newGenerator(t, &fakeProvider{}, nil)
		_, _, err := g.CreateStory(context.Background(), Request{Style: "일기"})
		assert.ErrorIs(t, err, ErrInvalidLength)
	})

	t.Run("provider failure propagates", func(t *testing.T) {
		boom := errors.New("boom")
		g := newGenerator(t, &fakeProvider{errs: map[string]error{config.ProfileStory: boom}}, nil)
		_, _, err := g.CreateStory(context.Background(), Request{Style: "일기", Length: 100})
		assert.ErrorIs(t, err, boom)
	})
}

func TestCreateStory_DefaultTone(t *testing.T) {
	g := newGenerator(t, &fakeProvider{responses: map[string]string{config.ProfileStory: "글"}}, nil)
	_, tone, err := g.CreateStory(context.Background(), Request{Style: "여행기", Length: 50})
	require.NoError(t, err)
	assert.Equal(t, DefaultTone, tone)
}

func TestCreateHashtags(t *testing.T) {
	story := strings.Repeat("가", 150)
	fp := &fakeProvider{responses: map[string]string{config.ProfileHashtags: "#바다, #여행, #부산, #노을, #일기"}}
	g := newGenerator(t, fp, tracker.New())

	got := g.CreateHashtags(context.Background(), story)
	assert.Equal(t, "#바다, #여행, #부산, #노을, #일기", got)

	require.Len(t, fp.calls, 1)
	c := fp.calls[0]
	assert.Equal(t, config.ProfileHashtags, c.name)
	assert.Equal(t, 100, c.opts.MaxTokens)
	require.NotNil(t, c.opts.Temperature)
	assert.InDelta(t, 0.2, *c.opts.Temperature, 1e-6)
	assert.Contains(t, c.prompt, "다음 150자 길이의 글")
	assert.Contains(t, c.prompt, strings.Repeat("가", 100)+"...")
	assert.NotContains(t, c.prompt, strings.Repeat("가", 101))
}

func TestCreateHashtags_Fallback(t *testing.T) {
	tr := tracker.New()
	g := newGenerator(t, &fakeProvider{errs: map[string]error{config.ProfileHashtags: errors.New("rate limited")}}, tr)

	assert.Equal(t, HashtagFallback, g.CreateHashtags(context.Background(), "짧은 글"))
	assert.Equal(t, int64(1), tr.Snapshot()[HashtagTrackerLabel].Fallbacks)
}
