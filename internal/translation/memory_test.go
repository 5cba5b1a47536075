package translation

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"yatranslator/internal/resource"
	"yatranslator/internal/texture"
)

func newTestMemory(t *testing.T, opts Options) (*Memory, string) {
	t.Helper()
	root := t.TempDir()
	opts.Root = root
	if opts.Load == resource.None {
		opts.Load = resource.All
	}
	return NewMemory(opts), root
}

func stringsDir(root string) string { return filepath.Join(root, stringsFolder) }

func TestParseLevels(t *testing.T) {
	cases := []struct {
		stem string
		want []int
	}{
		{"greetings", nil},
		{"greetings.3", []int{3}},
		{"greetings.3-5-9", []int{3, 5, 9}},
		{"greetings.2-x-2-4", []int{2, 4}},
		{"greetings.abc", nil},
		{"greetings.7.extra", []int{7}},
	}
	for _, c := range cases {
		if got := ParseLevels(c.stem); !reflect.DeepEqual(got, c.want) {
			t.Errorf("ParseLevels(%q) = %v, want %v", c.stem, got, c.want)
		}
	}
}

func TestLoadTranslationsCreatesDirectories(t *testing.T) {
	m, root := newTestMemory(t, Options{})
	m.LoadTranslations()

	for _, dir := range []string{assetsFolder, stringsFolder, texturesFolder} {
		if info, err := os.Stat(filepath.Join(root, dir)); err != nil || !info.IsDir() {
			t.Errorf("%s not created: %v", dir, err)
		}
	}
	if _, ok := m.Translate("anything"); ok {
		t.Fatal("empty directories produced a translation")
	}
}

func TestSetTranslationsRoot(t *testing.T) {
	m, old := newTestMemory(t, Options{})
	writeTable(t, stringsDir(old), "ui.txt", "A\tOld\n")
	m.LoadTranslations()

	root := filepath.Join(t.TempDir(), "Other")
	m.SetTranslationsRoot(root)
	if got := m.TranslationsRoot(); got != root {
		t.Fatalf("TranslationsRoot = %q", got)
	}
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Fatalf("re-rooting touched the filesystem: %v", err)
	}

	writeTable(t, stringsDir(root), "ui.txt", "A\tB\n")
	m.LoadTranslations()
	m.ActivateLevelTranslations(0, true)

	for _, dir := range []string{assetsFolder, stringsFolder, texturesFolder} {
		if info, err := os.Stat(filepath.Join(root, dir)); err != nil || !info.IsDir() {
			t.Errorf("%s not created under new root: %v", dir, err)
		}
	}
	if got, ok := m.Translate("A"); !ok || got != "B" {
		t.Fatalf("Translate(A) = %q, %v", got, ok)
	}
}

func TestGlobalFallback(t *testing.T) {
	m, root := newTestMemory(t, Options{})
	writeTable(t, stringsDir(root), "global.txt", "Foo\tBar\n")
	writeTable(t, stringsDir(root), "scene.1.txt", "Other\tThing\n")
	m.LoadTranslations()
	m.ActivateLevelTranslations(1, true)

	if got, ok := m.Translate("Foo"); !ok || got != "Bar" {
		t.Fatalf("Translate(Foo) = %q, %v", got, ok)
	}
	if got, ok := m.Translate("Other"); !ok || got != "Thing" {
		t.Fatalf("Translate(Other) = %q, %v", got, ok)
	}
}

func TestLevelScopeBeatsGlobal(t *testing.T) {
	m, root := newTestMemory(t, Options{})
	writeTable(t, stringsDir(root), "global.txt", "Foo\tGlobal\n")
	writeTable(t, stringsDir(root), "scene.4.txt", "Foo\tLevel\n")
	m.LoadTranslations()

	m.ActivateLevelTranslations(4, true)
	if got, _ := m.Translate("Foo"); got != "Level" {
		t.Fatalf("level 4 Translate(Foo) = %q", got)
	}

	m.ActivateLevelTranslations(5, true)
	if got, _ := m.Translate("Foo"); got != "Global" {
		t.Fatalf("level 5 Translate(Foo) = %q", got)
	}
}

func TestLevelFileTargeting(t *testing.T) {
	m, root := newTestMemory(t, Options{})
	writeTable(t, stringsDir(root), "greetings.2-4.txt", "Morning\tAsa\n")
	m.LoadTranslations()

	for _, level := range []int{2, 4} {
		m.ActivateLevelTranslations(level, true)
		if got, ok := m.Translate("Morning"); !ok || got != "Asa" {
			t.Fatalf("level %d Translate = %q, %v", level, got, ok)
		}
	}

	m.ActivateLevelTranslations(3, true)
	res := m.GetTextTranslation("Morning")
	if res.Result != ResultNotFound || res.Text != "Morning" {
		t.Fatalf("level 3 result = %+v", res)
	}
}

func TestIdempotenceAndReverseLookup(t *testing.T) {
	m, root := newTestMemory(t, Options{})
	writeTable(t, stringsDir(root), "ui.txt", "X\tY\nY\tZ\n")
	m.LoadTranslations()
	m.ActivateLevelTranslations(0, true)

	if got, ok := m.Translate("X"); !ok || got != "Y" {
		t.Fatalf("Translate(X) = %q, %v", got, ok)
	}

	res := m.GetTextTranslation("Y")
	if res.Result != ResultTranslated || res.Found() {
		t.Fatalf("second pass result = %+v, want already translated", res)
	}

	if orig, ok := m.TryGetOriginal("Y"); !ok || orig != "X" {
		t.Fatalf("TryGetOriginal(Y) = %q, %v", orig, ok)
	}
	if !m.WasTranslated("Y") || m.WasTranslated("X") {
		t.Fatal("WasTranslated mismatch")
	}
}

func TestActivateClearsRegistry(t *testing.T) {
	m, root := newTestMemory(t, Options{})
	writeTable(t, stringsDir(root), "ui.txt", "X\tY\n")
	m.LoadTranslations()
	m.ActivateLevelTranslations(0, true)
	m.Translate("X")

	m.ActivateLevelTranslations(1, false)
	if !m.WasTranslated("Y") {
		t.Fatal("registry cleared without clearCache")
	}

	m.ActivateLevelTranslations(1, true)
	if m.WasTranslated("Y") {
		t.Fatal("registry kept after clearCache")
	}
}

func TestRetranslateUsesSource(t *testing.T) {
	m, root := newTestMemory(t, Options{Retranslate: true})
	table := writeTable(t, stringsDir(root), "ui.txt", "X\tY\n")
	m.LoadTranslations()
	m.ActivateLevelTranslations(0, true)

	if got, _ := m.Translate("X"); got != "Y" {
		t.Fatalf("Translate(X) = %q", got)
	}

	if err := os.WriteFile(table, []byte("X\tW\n"), 0644); err != nil {
		t.Fatal(err)
	}
	m.LoadTranslations()

	// The displayed "Y" is resolved again from its source "X".
	if got, ok := m.Translate("Y"); !ok || got != "W" {
		t.Fatalf("Translate(Y) after reload = %q, %v", got, ok)
	}
	if orig, _ := m.TryGetOriginal("W"); orig != "X" {
		t.Fatalf("TryGetOriginal(W) = %q", orig)
	}
}

func TestNormalizesInput(t *testing.T) {
	m, root := newTestMemory(t, Options{})
	writeTable(t, stringsDir(root), "ui.txt", "Hello World\tHi\n")
	m.LoadTranslations()

	if got, ok := m.Translate("  Hello\n World  "); !ok || got != "Hi" {
		t.Fatalf("Translate = %q, %v", got, ok)
	}
	if res := m.GetTextTranslation(" \n "); res.Result != ResultNotFound {
		t.Fatalf("blank result = %+v", res)
	}
}

func TestLoadOnTranslateQueriesGlobalFirst(t *testing.T) {
	m, root := newTestMemory(t, Options{Optimizations: OptAggressive})
	writeTable(t, stringsDir(root), "global.txt", "Foo\tGlobal\n")
	writeTable(t, stringsDir(root), "scene.1.txt", "Foo\tLevel\nBar\tLevelBar\n")
	m.LoadTranslations()
	m.ActivateLevelTranslations(1, true)

	if st := m.Stats(1); st.LevelLoaded || st.LevelStrings != 0 {
		t.Fatalf("level loaded eagerly: %+v", st)
	}

	// Global answers first while the level is unloaded.
	if got, _ := m.Translate("Foo"); got != "Global" {
		t.Fatalf("Translate(Foo) = %q, want Global", got)
	}
	if m.Stats(1).LevelLoaded {
		t.Fatal("level loaded although global answered")
	}

	// A global miss loads the level; from then on it is queried first.
	if got, _ := m.Translate("Bar"); got != "LevelBar" {
		t.Fatalf("Translate(Bar) = %q", got)
	}
	if !m.Stats(1).LevelLoaded {
		t.Fatal("level not loaded after a miss")
	}
	if got, _ := m.Translate("Foo"); got != "Level" {
		t.Fatalf("Translate(Foo) after load = %q, want Level", got)
	}
}

func TestUnloadOnLevelChange(t *testing.T) {
	m, root := newTestMemory(t, Options{Optimizations: OptSimple})
	writeTable(t, stringsDir(root), "a.1.txt", "A\tOne\n")
	writeTable(t, stringsDir(root), "b.2.txt", "B\tTwo\n")
	m.LoadTranslations()

	m.ActivateLevelTranslations(1, true)
	st := m.Stats(1)
	if !st.LevelLoaded || st.LevelStrings != 1 {
		t.Fatalf("level 1 not loaded on change: %+v", st)
	}

	m.ActivateLevelTranslations(2, true)
	if st := m.Stats(1); st.LevelLoaded || st.LevelStrings != 0 || st.LevelFiles != 1 {
		t.Fatalf("level 1 after switch: %+v", st)
	}
	if !m.Stats(2).LevelLoaded {
		t.Fatal("level 2 not loaded")
	}

	// Returning re-parses from the kept file association.
	m.ActivateLevelTranslations(1, true)
	if got, _ := m.Translate("A"); got != "One" {
		t.Fatalf("Translate(A) = %q", got)
	}
}

func TestNoOptimizationsLoadsEverythingUpFront(t *testing.T) {
	m, root := newTestMemory(t, Options{})
	writeTable(t, stringsDir(root), "a.1-2.txt", "A\tOne\n")
	m.LoadTranslations()

	for _, level := range []int{1, 2} {
		if st := m.Stats(level); !st.LevelLoaded || st.LevelStrings != 1 {
			t.Fatalf("level %d: %+v", level, st)
		}
	}
}

func TestReloadRebuildsScopes(t *testing.T) {
	m, root := newTestMemory(t, Options{})
	first := writeTable(t, stringsDir(root), "a.1.txt", "A\tOne\n")
	m.LoadTranslations()

	if err := os.Remove(first); err != nil {
		t.Fatal(err)
	}
	writeTable(t, stringsDir(root), "b.1.txt", "B\tTwo\n")
	m.LoadTranslations()
	m.ActivateLevelTranslations(1, true)

	if _, ok := m.Translate("A"); ok {
		t.Fatal("stale rule survived reload")
	}
	if got, _ := m.Translate("B"); got != "Two" {
		t.Fatalf("Translate(B) = %q", got)
	}
}

func TestStringsDisabled(t *testing.T) {
	m, root := newTestMemory(t, Options{Load: resource.Textures})
	writeTable(t, stringsDir(root), "ui.txt", "A\tB\n")
	m.LoadTranslations()
	m.ActivateLevelTranslations(0, true)

	if _, ok := m.Translate("A"); ok {
		t.Fatal("strings loaded although disabled")
	}
}

func TestAssetAndTexturePaths(t *testing.T) {
	m, root := newTestMemory(t, Options{})
	assets := filepath.Join(root, assetsFolder)
	textures := filepath.Join(root, texturesFolder)
	fooPath := writeTable(t, assets, "Foo.png", "")
	writeTable(t, assets, "notes.txt", "")
	writeTable(t, textures, "body.tex", "")
	writeTable(t, textures, "sub/body.png", "")
	writeTable(t, textures, "Face.PNG", "")
	writeTable(t, textures, "readme.md", "")
	m.LoadTranslations()

	a, okA := m.GetAssetPath("Foo")
	b, okB := m.GetAssetPath("foo")
	if !okA || !okB || a != b || a != fooPath {
		t.Fatalf("GetAssetPath = %q/%v, %q/%v", a, okA, b, okB)
	}
	if _, ok := m.GetAssetPath("notes"); ok {
		t.Fatal("non-png asset cached")
	}

	if r := m.GetTexture("BODY"); r.Type != texture.TypeTEX {
		t.Fatalf("GetTexture(BODY) = %+v, want the first (tex) entry", r)
	}
	if r := m.GetTexture("face"); r.Type != texture.TypePNG {
		t.Fatalf("GetTexture(face) = %+v", r)
	}
	if !m.GetTexture("readme").None() {
		t.Fatal("unknown extension cached as texture")
	}
	if _, ok := m.GetTexturePath("missing"); ok {
		t.Fatal("GetTexturePath(missing) found a path")
	}
	if st := m.Stats(0); st.Textures != 2 || st.Assets != 1 {
		t.Fatalf("stats = %+v", st)
	}
}
