package sources

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/jask/shortcutquiz/internal/shortcuts"
)

// ExtensionSource scans an extensions directory where every subdirectory
// holds a package.json manifest, and collects contributes.keybindings.
type ExtensionSource struct {
	Dir string
	// Platform selects the per-platform key override: "mac", "linux" or "win".
	// Empty means the platform this binary runs on.
	Platform string
}

func (s ExtensionSource) Name() string { return "extensions" }

func (s ExtensionSource) Load(ctx context.Context) (Result, error) {
	var res Result
	if s.Dir == "" {
		return res, nil
	}
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return res, nil
		}
		res.Warnings = append(res.Warnings, fmt.Errorf("%w: extensions dir %s: %v", ErrSourceUnavailable, s.Dir, err))
		return res, nil
	}
	platform := s.Platform
	if platform == "" {
		platform = hostPlatform()
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		dir := filepath.Join(s.Dir, e.Name())
		manifest, err := os.ReadFile(filepath.Join(dir, "package.json"))
		if err != nil {
			continue
		}
		recs, err := ParseManifest(manifest, readNLS(dir), platform)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Errorf("extension %s: %w", e.Name(), err))
			continue
		}
		res.Records = append(res.Records, recs...)
	}
	return res, nil
}

func hostPlatform() string {
	switch runtime.GOOS {
	case "darwin":
		return "mac"
	case "windows":
		return "win"
	default:
		return "linux"
	}
}

func readNLS(dir string) map[string]gjson.Result {
	b, err := os.ReadFile(filepath.Join(dir, "package.nls.json"))
	if err != nil || !gjson.ValidBytes(b) {
		return nil
	}
	return gjson.ParseBytes(b).Map()
}

// ParseManifest extracts the keybindings an extension manifest contributes.
// Records are tagged with the extension id (publisher.name) and carry the
// title of the matching contributes.commands entry, with %placeholders%
// resolved through nls.
func ParseManifest(manifest []byte, nls map[string]gjson.Result, platform string) ([]shortcuts.ImportRecord, error) {
	if !gjson.ValidBytes(manifest) {
		return nil, fmt.Errorf("%w: package.json is not valid JSON", ErrMalformedSource)
	}
	pkg := gjson.ParseBytes(manifest)
	kbs := pkg.Get("contributes.keybindings")
	if !kbs.Exists() {
		return nil, nil
	}
	origin := pkg.Get("name").String()
	if pub := pkg.Get("publisher").String(); pub != "" {
		origin = pub + "." + origin
	}

	titles := map[string]string{}
	pkg.Get("contributes.commands").ForEach(func(_, c gjson.Result) bool {
		cmd := c.Get("command").String()
		title := c.Get("title")
		if title.IsObject() {
			title = title.Get("value")
		}
		if cmd != "" && title.String() != "" {
			titles[cmd] = localize(title.String(), nls)
		}
		return true
	})

	var out []shortcuts.ImportRecord
	add := func(kb gjson.Result) {
		key := kb.Get(platform).String()
		if key == "" {
			key = kb.Get("key").String()
		}
		cmd := kb.Get("command").String()
		if key == "" || cmd == "" {
			return
		}
		out = append(out, shortcuts.ImportRecord{
			Command: cmd,
			Key:     key,
			When:    kb.Get("when").String(),
			Title:   titles[cmd],
			Origin:  origin,
		})
	}
	switch {
	case kbs.IsArray():
		kbs.ForEach(func(_, kb gjson.Result) bool {
			if kb.IsObject() {
				add(kb)
			}
			return true
		})
	case kbs.IsObject():
		add(kbs)
	default:
		return nil, fmt.Errorf("%w: contributes.keybindings is %s", ErrMalformedSource, kbs.Type)
	}
	return out, nil
}

func localize(s string, nls map[string]gjson.Result) string {
	if len(s) < 3 || !strings.HasPrefix(s, "%") || !strings.HasSuffix(s, "%") {
		return s
	}
	v, ok := nls[strings.Trim(s, "%")]
	if !ok {
		return s
	}
	if v.IsObject() {
		v = v.Get("message")
	}
	if v.String() == "" {
		return s
	}
	return v.String()
}
