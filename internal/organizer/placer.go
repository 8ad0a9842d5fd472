// Package organizer renders naming templates and places video files
// into the destination library.
package organizer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"mdc/internal/avid"
	"mdc/internal/config"
	"mdc/internal/datatype"
	apperrors "mdc/internal/errors"
)

var (
	// reTemplateVar matches the substitutable names of naming templates.
	reTemplateVar = regexp.MustCompile(`number|title|actor|studio|director|series|year|label`)
	reIllegal     = regexp.MustCompile(`[<>:"/\\|?*]`)
	reDiscInStem  = regexp.MustCompile(`(?i)[-_](?:cd|dvd|disc|disk|part|pt)[-_]?(\d{1,2})$`)
)

// Render substitutes template variables with metadata values. Arrays
// render as their first element; `+`, quotes and surrounding spaces
// are stripped after substitution. Segments that render empty are
// dropped; only when the whole result comes out empty does the number
// stand in.
func Render(rule string, meta *datatype.Metadata) string {
	return render(rule, meta, 0)
}

// render is Render with an optional title length cap in runes.
func render(rule string, meta *datatype.Metadata, maxTitle int) string {
	title := meta.Title
	if r := []rune(title); maxTitle > 0 && len(r) > maxTitle {
		title = string(r[:maxTitle])
	}
	values := map[string]string{
		"number":   meta.Number,
		"title":    title,
		"actor":    meta.FirstActor(),
		"studio":   meta.Studio,
		"director": meta.Director,
		"series":   meta.Series,
		"year":     meta.Year,
		"label":    meta.Label,
	}

	var parts []string
	for _, segment := range strings.Split(rule, "/") {
		if rendered := substitute(segment, values); rendered != "" {
			parts = append(parts, rendered)
		}
	}
	out := strings.Join(parts, "/")
	if out == "" {
		return meta.Number
	}
	return out
}

// substitute renders a single template segment, "" when its variables
// all resolve empty.
func substitute(segment string, values map[string]string) string {
	out := reTemplateVar.ReplaceAllStringFunc(segment, func(v string) string {
		return values[v]
	})
	out = strings.ReplaceAll(out, "+", "")
	out = strings.ReplaceAll(out, `"`, "")
	out = strings.ReplaceAll(out, "'", "")
	return strings.TrimSpace(out)
}

// Sanitize makes a rendered segment safe as a single path component.
func Sanitize(s string) string {
	s = reIllegal.ReplaceAllString(s, "_")
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, ".")
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > 200 {
		s = string(r[:200])
	}
	return s
}

// PartFromStem extracts a disc number from a filename stem, e.g.
// "MOVIE-001-CD2" yields 2. Zero means single-part.
func PartFromStem(stem string) int {
	m := reDiscInStem.FindStringSubmatch(stem)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// Placement describes where one source file goes.
type Placement struct {
	Dir  string
	Base string
}

// Path returns the full destination path with the source's extension.
func (p Placement) Path(ext string) string {
	return filepath.Join(p.Dir, p.Base+ext)
}

// Placer builds destination paths and executes link-mode operations.
type Placer struct {
	cfg *config.Config
}

// NewPlacer creates a placer bound to the runtime configuration.
func NewPlacer(cfg *config.Config) *Placer {
	return &Placer{cfg: cfg}
}

// Plan computes the destination for one source file. The disc suffix
// comes from the parsed part number when set, else from a disc marker
// in the source stem.
func (p *Placer) Plan(sourcePath string, id *avid.ParsedID, meta *datatype.Metadata) Placement {
	dir := p.cfg.Common.SuccessOutputFolder
	location := render(p.cfg.NameRule.LocationRule, meta, p.cfg.NameRule.MaxTitleLen)
	for _, segment := range strings.Split(location, "/") {
		if cleaned := Sanitize(segment); cleaned != "" {
			dir = filepath.Join(dir, cleaned)
		}
	}
	return Placement{Dir: dir, Base: p.BaseName(sourcePath, id, meta)}
}

// BaseName renders the naming rule and applies attribute and disc
// suffixes.
func (p *Placer) BaseName(sourcePath string, id *avid.ParsedID, meta *datatype.Metadata) string {
	base := render(p.cfg.NameRule.NamingRule, meta, p.cfg.NameRule.MaxTitleLen)
	switch {
	case id.Attrs.Uncensored && id.Attrs.CNSub:
		base += "-UC"
	case id.Attrs.Uncensored:
		base += "-U"
	case id.Attrs.CNSub:
		base += "-C"
	}
	if part := p.partOf(sourcePath, id); part > 0 {
		base += fmt.Sprintf("-CD%d", part)
	}
	return Sanitize(base)
}

func (p *Placer) partOf(sourcePath string, id *avid.ParsedID) int {
	if id.PartNumber > 0 {
		return id.PartNumber
	}
	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	return PartFromStem(stem)
}

// Place executes the configured link-mode operation for the source
// file and co-places its subtitles. It returns the destination path
// and whether placement was skipped because the destination already
// existed.
func (p *Placer) Place(sourcePath string, id *avid.ParsedID, meta *datatype.Metadata) (string, bool, error) {
	plan := p.Plan(sourcePath, id, meta)
	dest := plan.Path(strings.ToLower(filepath.Ext(sourcePath)))

	if err := os.MkdirAll(plan.Dir, 0o755); err != nil {
		return "", false, apperrors.NewFilesystem("creating destination folder", err)
	}

	skipped, err := p.clearExisting(dest)
	if err != nil || skipped {
		return dest, skipped, err
	}

	if err := p.link(sourcePath, dest); err != nil {
		return "", false, err
	}
	logrus.WithField("dest", dest).Debug("video placed")

	if p.cfg.Common.MoveSubtitles {
		if err := p.placeSubtitles(sourcePath, plan); err != nil {
			logrus.Warnf("subtitle placement failed: %v", err)
		}
	}
	return dest, false, nil
}

// clearExisting applies the skip-existing policy to one destination.
func (p *Placer) clearExisting(dest string) (skipped bool, err error) {
	if _, statErr := os.Lstat(dest); statErr != nil {
		return false, nil
	}
	if p.cfg.Common.SkipExisting {
		logrus.WithField("dest", dest).Info("destination exists, skipping")
		return true, nil
	}
	if err := os.Remove(dest); err != nil {
		return false, apperrors.NewFilesystem("removing existing destination", err)
	}
	return false, nil
}

// link applies the configured link mode.
func (p *Placer) link(source, dest string) error {
	switch p.cfg.Common.LinkMode {
	case config.LinkSoft:
		return p.softLink(source, dest)
	case config.LinkHard:
		if err := os.Link(source, dest); err != nil {
			logrus.Debugf("hard link failed, falling back to symlink: %v", err)
			return p.softLink(source, dest)
		}
		return nil
	default:
		return p.move(source, dest)
	}
}

func (p *Placer) move(source, dest string) error {
	if err := os.Rename(source, dest); err == nil {
		return nil
	}
	// Cross-device rename fails; fall back to copy-then-delete.
	if err := copyFile(source, dest); err != nil {
		return apperrors.NewFilesystem("copying to destination", err)
	}
	if err := os.Remove(source); err != nil {
		return apperrors.NewFilesystem("removing source after copy", err)
	}
	return nil
}

func (p *Placer) softLink(source, dest string) error {
	abs, err := filepath.Abs(source)
	if err != nil {
		return apperrors.NewFilesystem("resolving source path", err)
	}
	if err := os.Symlink(abs, dest); err != nil {
		return apperrors.NewFilesystem("creating symlink (insufficient privilege?)", err)
	}
	return nil
}

// placeSubtitles applies the link operation to sibling subtitle files
// sharing the source's stem.
func (p *Placer) placeSubtitles(sourcePath string, plan Placement) error {
	dir := filepath.Dir(sourcePath)
	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	subExts := make(map[string]bool)
	for _, e := range p.cfg.Media.SubExtensions() {
		subExts[e] = true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), stem) {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !subExts[ext] {
			continue
		}
		src := filepath.Join(dir, entry.Name())
		dest := plan.Path(ext)
		if skipped, err := p.clearExisting(dest); err != nil || skipped {
			if err != nil {
				return err
			}
			continue
		}
		if err := p.link(src, dest); err != nil {
			return err
		}
		logrus.WithField("dest", dest).Debug("subtitle placed")
	}
	return nil
}

func copyFile(source, dest string) error {
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
