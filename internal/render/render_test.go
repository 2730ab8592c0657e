package render

import (
	"strings"
	"sync"
	"testing"

	"github.com/saithsab877/hivechat/internal/config"
)

func TestDefaultOptions(t *testing.T) {
	t.Setenv("GLAMOUR_STYLE", "")
	opts := DefaultOptions()

	if opts.Width != 80 || opts.Style != "dark" {
		t.Errorf("DefaultOptions() = %+v", opts)
	}
	if !opts.EnableEmoji || !opts.PreserveNewLines || !opts.TableWrap || opts.InlineTableLinks {
		t.Errorf("DefaultOptions() flags = %+v", opts)
	}
}

func TestFromConfig(t *testing.T) {
	t.Setenv("GLAMOUR_STYLE", "")

	opts := FromConfig(config.MarkdownConfig{Style: "light", TableWrap: false})
	if opts.Style != "light" || opts.TableWrap || opts.EnableEmoji {
		t.Errorf("FromConfig() = %+v", opts)
	}

	if got := FromConfig(config.MarkdownConfig{}).Style; got != "dark" {
		t.Errorf("empty style should fall back to dark, got %q", got)
	}

	t.Setenv("GLAMOUR_STYLE", "notty")
	if got := FromConfig(config.MarkdownConfig{Style: "light"}).Style; got != "notty" {
		t.Errorf("GLAMOUR_STYLE should win, got %q", got)
	}
}

func TestMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		width    int
		contains string
	}{
		{"heading", "# Deploy plan", 80, "Deploy"},
		{"bold", "run **tests** first", 80, "tests"},
		{"code", "```go\nfmt.Println(\"hive\")\n```", 80, "Println"},
		{"narrow", "# A long heading that wraps", 30, "heading"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Markdown(tt.input, DefaultOptions().WithStyle("dark").WithWidth(tt.width))
			if err != nil {
				t.Fatalf("Markdown() returned error: %v", err)
			}
			if !strings.Contains(out, tt.contains) {
				t.Errorf("output should contain %q, got %q", tt.contains, out)
			}
		})
	}
}

func TestMarkdownEmoji(t *testing.T) {
	opts := DefaultOptions().WithStyle("notty")

	out, err := Markdown("ship it :rocket:", opts)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, ":rocket:") {
		t.Errorf("emoji should be converted, got %q", out)
	}

	out, err = Markdown("ship it :rocket:", opts.WithEmoji(false))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, ":rocket:") {
		t.Errorf("emoji should be kept, got %q", out)
	}
}

func TestMarkdownInvalidStyle(t *testing.T) {
	if _, err := Markdown("# x", DefaultOptions().WithStyle("/no/such/style.json")); err == nil {
		t.Error("expected error for a missing style file")
	}
}

func TestMessageFallsBackToPlain(t *testing.T) {
	got := Message("  plain body  ", DefaultOptions().WithStyle("/no/such/style.json"))
	if got != "plain body" {
		t.Errorf("Message() = %q", got)
	}

	got = Message("hello", DefaultOptions().WithStyle("notty"))
	if strings.HasPrefix(got, "\n") || strings.HasSuffix(got, "\n") || !strings.Contains(got, "hello") {
		t.Errorf("Message() = %q", got)
	}
}

func TestPoolReuse(t *testing.T) {
	ClearCache()
	defer ClearCache()

	opts := DefaultOptions().WithStyle("notty")
	r, err := globalPool.get(opts)
	if err != nil || r == nil {
		t.Fatalf("get() = %v, %v", r, err)
	}
	globalPool.put(opts, r)
	globalPool.put(opts, nil)

	if _, err := globalPool.get(opts.WithWidth(40)); err != nil {
		t.Fatal(err)
	}
	if CacheSize() != 2 {
		t.Errorf("CacheSize() = %d, want 2", CacheSize())
	}
}

func TestMarkdownConcurrent(t *testing.T) {
	opts := DefaultOptions().WithStyle("notty")

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := Markdown("**concurrent** render", opts); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent render failed: %v", err)
	}
}

func TestThemes(t *testing.T) {
	names := ThemeNames()
	if len(names) != 4 {
		t.Fatalf("ThemeNames() = %v", names)
	}
	for _, n := range names {
		th, ok := ThemeByName(n)
		if !ok || th.Name != n {
			t.Errorf("ThemeByName(%q) = %+v, %v", n, th, ok)
		}
		if th.Primary == "" || th.Text == "" || th.Error == "" || th.Border == "" {
			t.Errorf("theme %q has empty colours", n)
		}
	}

	if _, ok := ThemeByName("solarized"); ok {
		t.Error("unknown theme should not be found")
	}
	if ThemeOrDefault("solarized").Name != DefaultTheme {
		t.Error("ThemeOrDefault() should fall back to the default theme")
	}
}
