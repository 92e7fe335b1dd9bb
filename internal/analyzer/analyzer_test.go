package analyzer

import (
	"reflect"
	"testing"
)

func TestStripMarkup(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"<p>hello</p>", "hello"},
		{"<h1>Title</h1><p>body   text</p>", "Title body text"},
		{"plain", "plain"},
		{"", ""},
		{"<p></p>", ""},
		{"a<br/>b", "a b"},
	}
	for _, c := range cases {
		if got := StripMarkup(c.in); got != c.want {
			t.Errorf("StripMarkup(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestWordCount(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"   ", 0},
		{"one", 1},
		{"Meeting with #work team #urgent tomorrow", 6},
		{"  spaced   out  ", 2},
	}
	for _, c := range cases {
		if got := WordCount(c.in); got != c.want {
			t.Errorf("WordCount(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestReadingTime(t *testing.T) {
	cases := []struct {
		wc   int
		want int
	}{
		{0, 0},
		{1, 1},
		{200, 1},
		{201, 2},
		{1000, 5},
	}
	for _, c := range cases {
		if got := ReadingTime(c.wc); got != c.want {
			t.Errorf("ReadingTime(%d) = %d, want %d", c.wc, got, c.want)
		}
	}
}

func TestExtractTags(t *testing.T) {
	got := ExtractTags("<p>Meeting #Work then #urgent and #work again</p>")
	want := []string{"work", "urgent"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractTags = %v, want %v", got, want)
	}
}

func TestExtractTagsNone(t *testing.T) {
	if got := ExtractTags("<p>no tags here</p>"); got != nil {
		t.Errorf("ExtractTags = %v, want nil", got)
	}
}

func TestCategorize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"<p>Meeting with the team</p>", "work"},
		{"<p>Dinner with family</p>", "personal"},
		{"<p>Reading a research paper</p>", "study"},
		{"<p>A creative concept</p>", "ideas"},
		{"<p>Nothing matches here</p>", CategoryGeneral},
		{"", CategoryGeneral},
		// Declaration order wins: "work" beats "personal".
		{"<p>work life balance</p>", "work"},
	}
	for _, c := range cases {
		if got := Categorize(c.in); got != c.want {
			t.Errorf("Categorize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestAnalyzeEndToEnd(t *testing.T) {
	res := Analyze("<p>Meeting with #work team #urgent tomorrow</p>")

	if res.WordCount != 6 {
		t.Errorf("WordCount = %d, want 6", res.WordCount)
	}
	if res.ReadingTime != 1 {
		t.Errorf("ReadingTime = %d, want 1", res.ReadingTime)
	}
	if res.Category != "work" {
		t.Errorf("Category = %q, want work", res.Category)
	}
	want := []string{"work", "urgent"}
	if !reflect.DeepEqual(res.Tags, want) {
		t.Errorf("Tags = %v, want %v", res.Tags, want)
	}
}
