package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeReviews(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestLoadFixture(t *testing.T) {
	root := filepath.Join(t.TempDir(), "train")
	writeReviews(t, root, map[string]string{
		"pos/a.txt": "great movie",
		"pos/b.txt": "i loved it",
		"neg/c.txt": "terrible film",
		"neg/d.txt": "i hated it",
	})

	ds := Load(root)
	if ds.Len() != 4 {
		t.Fatalf("Len = %d, want 4", ds.Len())
	}
	wantLabels := []Sentiment{Positive, Positive, Negative, Negative}
	if got := ds.Labels(); !reflect.DeepEqual(got, wantLabels) {
		t.Errorf("Labels = %v, want %v", got, wantLabels)
	}
	wantTexts := []string{"great movie", "i loved it", "terrible film", "i hated it"}
	if got := ds.Texts(); !reflect.DeepEqual(got, wantTexts) {
		t.Errorf("Texts = %v, want %v", got, wantTexts)
	}
	if ds.Name != "train" {
		t.Errorf("Name = %q", ds.Name)
	}
	if ds.Frame.Nrow() != 4 || !reflect.DeepEqual(ds.Frame.Names(), []string{ColumnReview, ColumnSentiment}) {
		t.Errorf("frame = %d rows, columns %v", ds.Frame.Nrow(), ds.Frame.Names())
	}
	ints, err := ds.Frame.Col(ColumnSentiment).Int()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ints, []int{1, 1, 0, 0}) {
		t.Errorf("sentiment column = %v", ints)
	}
	if ds.Count(Positive) != 2 || ds.Count(Negative) != 2 {
		t.Errorf("counts = %d/%d", ds.Count(Positive), ds.Count(Negative))
	}
}

func TestLoadMissingSubdirectory(t *testing.T) {
	root := t.TempDir()
	writeReviews(t, root, map[string]string{
		"neg/1.txt": "dull",
		"neg/2.txt": "boring",
	})

	ds := Load(root)
	if ds.Len() != 2 {
		t.Fatalf("Len = %d, want 2", ds.Len())
	}
	for _, label := range ds.Labels() {
		if label != Negative {
			t.Errorf("unexpected label %v", label)
		}
	}
	if !reflect.DeepEqual(ds.Stats.MissingLabels, []Sentiment{Positive}) {
		t.Errorf("MissingLabels = %v", ds.Stats.MissingLabels)
	}
}

func TestLoadMissingRoot(t *testing.T) {
	ds := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	if ds.Len() != 0 {
		t.Fatalf("Len = %d, want 0", ds.Len())
	}
	if len(ds.Stats.MissingLabels) != 2 {
		t.Errorf("MissingLabels = %v", ds.Stats.MissingLabels)
	}
}

func TestLoadSkipsUndecodableFile(t *testing.T) {
	root := t.TempDir()
	writeReviews(t, root, map[string]string{
		"pos/good1.txt": "wonderful",
		"pos/bad.txt":   "caf\xe9 latte \xff\xfe",
		"pos/good2.txt": "superb",
	})

	ds := Load(root)
	if ds.Len() != 2 {
		t.Fatalf("Len = %d, want 2", ds.Len())
	}
	for _, text := range ds.Texts() {
		if strings.Contains(text, "latte") {
			t.Errorf("undecodable review was loaded: %q", text)
		}
	}
	if ds.Stats.DecodeSkipped != 1 {
		t.Errorf("DecodeSkipped = %d, want 1", ds.Stats.DecodeSkipped)
	}
}

func TestLoadIgnoresNestedDirectories(t *testing.T) {
	root := t.TempDir()
	writeReviews(t, root, map[string]string{
		"pos/1.txt":        "fine",
		"pos/nested/2.txt": "ignored",
	})
	if ds := Load(root); ds.Len() != 1 {
		t.Fatalf("Len = %d, want 1", ds.Len())
	}
}

func TestSentimentString(t *testing.T) {
	if Positive.String() != "positive" || Negative.String() != "negative" {
		t.Errorf("got %q / %q", Positive, Negative)
	}
	if int(Positive) != 1 || int(Negative) != 0 {
		t.Error("label encoding changed")
	}
}

func TestSummary(t *testing.T) {
	ds := New("test", []Review{
		{Text: "a film that " + strings.Repeat("drags ", 30), Label: Negative},
		{Text: "lovely", Label: Positive},
	})
	var buf bytes.Buffer
	ds.Summary(&buf, 5)
	out := buf.String()
	for _, want := range []string{"test: 2 rows x 2 columns", "review", "sentiment", "positive=1 negative=1", "..."} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestSentimentText(t *testing.T) {
	for _, s := range []Sentiment{Positive, Negative} {
		text, err := s.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d): %v", s, err)
		}
		var back Sentiment
		if err := back.UnmarshalText(text); err != nil || back != s {
			t.Errorf("UnmarshalText(%q) = %v, %v", text, back, err)
		}
	}
	if _, err := Sentiment(7).MarshalText(); err == nil {
		t.Error("expected error for unknown sentiment")
	}
	var s Sentiment
	if err := s.UnmarshalText([]byte("meh")); err == nil {
		t.Error("expected error for unknown name")
	}
}

func TestLoadSkipsUnreadableFile(t *testing.T) {
	root := t.TempDir()
	writeReviews(t, root, map[string]string{
		"pos/a.txt": "great movie",
		"neg/b.txt": "terrible film",
	})
	if err := os.Symlink(filepath.Join(root, "missing.txt"), filepath.Join(root, "pos", "dangling.txt")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	ds := Load(root)
	if ds.Len() != 2 {
		t.Fatalf("Len = %d, want 2", ds.Len())
	}
	if ds.Stats.ReadSkipped != 1 || ds.Stats.DecodeSkipped != 0 {
		t.Errorf("skipped read=%d decode=%d, want 1/0", ds.Stats.ReadSkipped, ds.Stats.DecodeSkipped)
	}
	if got, want := ds.Texts(), []string{"great movie", "terrible film"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Texts = %v, want %v", got, want)
	}
	if got, want := ds.Labels(), []Sentiment{Positive, Negative}; !reflect.DeepEqual(got, want) {
		t.Errorf("Labels = %v, want %v", got, want)
	}
}
