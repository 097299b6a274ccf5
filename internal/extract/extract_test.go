package extract

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/hotradar/hotradar/internal/brain"
	"github.com/hotradar/hotradar/internal/model"
)

func TestHashtags(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			"mixed cjk and latin",
			"今天#测试 的#Test_1 video",
			[]string{"#测试", "#Test_1"},
		},
		{
			"case-insensitive dedup keeps first spelling",
			"#Sale big #SALE today #sale",
			[]string{"#Sale"},
		},
		{"no tags", "plain text", nil},
		{"bare hash ignored", "price # 100", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Hashtags(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Hashtags(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestMergeTags(t *testing.T) {
	got := MergeTags([]string{"#冬装", "#Coat"}, []string{"#coat", "#新品", ""})
	want := []string{"#冬装", "#Coat", "#新品"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MergeTags = %v, want %v", got, want)
	}
}

func TestSupplement(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		page       string
		wantMarker bool
	}{
		{"appends behind marker", "short talk", "long page body", true},
		{"empty page leaves transcript", "short talk", "", false},
		{"duplicate text suppressed", "the page body appears here already", "page body appears", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := supplement(tt.transcript, tt.page)
			if strings.Contains(got, WebSupplementMarker) != tt.wantMarker {
				t.Errorf("supplement(%q, %q) = %q, marker presence want %v", tt.transcript, tt.page, got, tt.wantMarker)
			}
		})
	}

	if got := supplement("", "only page"); got != "only page" {
		t.Errorf("empty transcript should take page text directly, got %q", got)
	}
}

type stubAnalyzer struct {
	structure model.ContentStructure
	err       error
}

func (s stubAnalyzer) Analyze(ctx context.Context, contentURL string) (model.ContentStructure, error) {
	return s.structure, s.err
}

type stubWeb struct {
	page WebPage
	err  error
}

func (s stubWeb) Extract(ctx context.Context, pageURL string) (WebPage, error) {
	return s.page, s.err
}

type stubProvider struct {
	content string
	err     error
}

func (s stubProvider) Name() string    { return "stub" }
func (s stubProvider) Available() bool { return true }
func (s stubProvider) Generate(ctx context.Context, req brain.Request) (brain.Response, error) {
	if s.err != nil {
		return brain.Response{}, s.err
	}
	return brain.Response{Content: s.content}, nil
}

func TestStageRunHappyPath(t *testing.T) {
	stage := NewStage(
		stubAnalyzer{structure: model.ContentStructure{
			DurationSeconds: 42,
			Transcript:      strings.Repeat("很长的口播内容", 20),
			Scenes:          []model.Scene{{EndTime: 42, Description: "opening"}},
			KeyFrames:       []model.KeyFrame{{Time: 3, Description: "hook"}},
			Tags:            []string{"#穿搭"},
		}},
		stubWeb{page: WebPage{Text: "页面上的补充描述"}},
		nil, 0,
	)

	structure, partial := stage.Run(context.Background(), model.RawItem{
		Title: "冬季大衣 #穿搭 #OOTD", URL: "https://example.com/v",
	})
	if partial {
		t.Fatal("expected complete extraction")
	}
	// Page text lands behind the marker even when the analyzer already
	// produced a long transcript.
	idx := strings.Index(structure.Transcript, WebSupplementMarker)
	if idx < 0 {
		t.Fatalf("no web supplement in transcript %q", structure.Transcript)
	}
	if !strings.Contains(structure.Transcript[idx:], "页面上的补充描述") {
		t.Errorf("page text missing after marker: %q", structure.Transcript)
	}
	if !strings.HasPrefix(structure.Transcript, strings.Repeat("很长的口播内容", 20)) {
		t.Errorf("analyzer transcript not kept first: %q", structure.Transcript)
	}
	// Title hashtags merge in without duplicating analyzer tags.
	want := []string{"#穿搭", "#OOTD"}
	if !reflect.DeepEqual(structure.Tags, want) {
		t.Errorf("tags = %v, want %v", structure.Tags, want)
	}
}

func TestStageRunAnalyzerDownDegrades(t *testing.T) {
	stage := NewStage(
		stubAnalyzer{err: errors.New("analyzer offline")},
		stubWeb{page: WebPage{Text: "article body recovered from page"}},
		stubProvider{content: `{"tags":["#家电"],"scenes":[{"start_time":0,"end_time":10,"description":"intro"}]}`},
		0,
	)

	structure, partial := stage.Run(context.Background(), model.RawItem{
		Title: "新款冰箱评测", URL: "https://example.com/a",
	})
	if !partial {
		t.Fatal("expected partial flag when analyzer fails")
	}
	if structure.Transcript != "article body recovered from page" {
		t.Errorf("transcript = %q", structure.Transcript)
	}
	if len(structure.Scenes) != 1 {
		t.Errorf("gap-fill scenes = %v", structure.Scenes)
	}
	if len(structure.Tags) == 0 || structure.Tags[len(structure.Tags)-1] != "#家电" {
		t.Errorf("tags = %v, want gap-fill tag appended", structure.Tags)
	}
}

func TestStageRunEverythingDownStillReturns(t *testing.T) {
	stage := NewStage(
		stubAnalyzer{err: errors.New("down")},
		stubWeb{err: errors.New("down")},
		stubProvider{err: errors.New("down")},
		0,
	)

	structure, partial := stage.Run(context.Background(), model.RawItem{
		Title: "纯标题 #话题", URL: "https://example.com/x",
	})
	if !partial {
		t.Fatal("expected partial flag")
	}
	// Hashtag scan still works off the title alone.
	if !reflect.DeepEqual(structure.Tags, []string{"#话题"}) {
		t.Errorf("tags = %v", structure.Tags)
	}
}

func TestStageRunExtractedFieldsWinOverInference(t *testing.T) {
	stage := NewStage(
		stubAnalyzer{structure: model.ContentStructure{
			Transcript: strings.Repeat("transcript ", 20),
			Scenes:     []model.Scene{{Description: "real scene"}},
		}},
		nil,
		stubProvider{content: `{"scenes":[{"description":"invented"}],"key_frames":[{"time":1,"description":"kf"}]}`},
		0,
	)

	structure, _ := stage.Run(context.Background(), model.RawItem{Title: "t", URL: "u"})
	if structure.Scenes[0].Description != "real scene" {
		t.Errorf("extracted scene overwritten: %v", structure.Scenes)
	}
	if len(structure.KeyFrames) != 1 {
		t.Errorf("inferred key frames not filled: %v", structure.KeyFrames)
	}
}
