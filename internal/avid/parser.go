package avid

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	apperrors "mdc/internal/errors"
)

// Native-site tags carried on a parsed identifier. Scrapers keyed to a
// single site check these instead of re-deriving the prefix.
const (
	SiteTokyoHot  = "tokyo-hot"
	SiteCarib     = "carib"
	SiteCaribPR   = "caribpr"
	Site1Pondo    = "1pondo"
	Site10Musume  = "10musume"
	SiteXArt      = "x-art"
	SiteXXXAV     = "xxx-av"
	SiteHeydouga  = "heydouga"
	SiteHeyzo     = "heyzo"
	SiteMDBK      = "mdbk"
	SiteMDTM      = "mdtm"
)

// Attributes are flags recovered from the filename alongside the
// identifier itself.
type Attributes struct {
	CNSub       bool   `json:"cn_sub"`
	Uncensored  bool   `json:"uncensored"`
	SpecialSite string `json:"special_site,omitempty"`
}

// ParsedID is the result of identifier extraction for one file.
type ParsedID struct {
	DisplayID  string     `json:"display_id"`
	ContentID  string     `json:"content_id"`
	PartNumber int        `json:"part_number,omitempty"`
	Attrs      Attributes `json:"attrs"`
}

// Rule is a user-supplied extraction pattern tried before the built-in
// pipeline.
type Rule struct {
	// Pattern is the regular expression matched against the filename.
	Pattern string
	// IDGroup is the capture group holding the ID; 0 takes the whole match.
	IDGroup int
	// PartGroup optionally names a capture group holding the part number.
	PartGroup int
}

type compiledRule struct {
	re        *regexp.Regexp
	idGroup   int
	partGroup int
}

// Parser extracts movie identifiers from file names.
type Parser struct {
	ignored []string
	custom  []compiledRule
	strict  bool
}

// Options configures a Parser.
type Options struct {
	// IgnoredStrings are removed verbatim from filenames before parsing.
	IgnoredStrings []string
	// CustomRules are tried before the built-in pipeline, in order.
	CustomRules []Rule
	// Strict rejects any result that does not match a known ID shape.
	// Strict validation also activates on its own for filenames that
	// carry no obvious code-shaped run.
	Strict bool
}

// NewParser creates a parser. Invalid custom patterns are skipped.
func NewParser(opts Options) *Parser {
	p := &Parser{
		ignored: opts.IgnoredStrings,
		strict:  opts.Strict,
	}
	for _, rule := range opts.CustomRules {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			continue
		}
		p.custom = append(p.custom, compiledRule{re, rule.IDGroup, rule.PartGroup})
	}
	return p
}

var defaultParser = NewParser(Options{})

// Parse extracts an identifier using the default parser.
func Parse(path string) (*ParsedID, error) {
	return defaultParser.Parse(path)
}

// Parse extracts the movie identifier from a file path. Only the base
// name is considered.
func (p *Parser) Parse(path string) (*ParsedID, error) {
	name := filepath.Base(path)
	if name == "" || name == "." {
		return nil, apperrors.NewInvalidIdentifier(path)
	}

	for _, cr := range p.custom {
		m := cr.re.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		id := captureGroup(m, cr.idGroup)
		if id == "" {
			continue
		}
		part := 0
		if cr.partGroup > 0 {
			part, _ = strconv.Atoi(captureGroup(m, cr.partGroup))
		}
		return p.finish(name, strings.ToUpper(id), Attributes{}, part, p.strict)
	}

	stem := stripExtension(name)
	cleaned := p.clean(stem)

	// Native-site identifiers bypass generic extraction entirely.
	for _, rule := range specialRules {
		if !rule.trigger.MatchString(name) {
			continue
		}
		id := rule.apply(cleaned)
		if id == "" {
			id = rule.apply(name)
		}
		if id == "" {
			continue
		}
		attrs := Attributes{SpecialSite: rule.site}
		if rule.site != SiteTokyoHot {
			id = strings.ToUpper(id)
		}
		return p.finish(name, id, attrs, 0, false)
	}

	strict := p.strict || !reCodeSep.MatchString(cleaned)

	residue := extract(cleaned)
	residue, attrs, part := analyzeSuffix(residue)
	return p.finish(name, residue, attrs, part, strict)
}

// apply runs the rule's extraction against one candidate string and
// returns the canonical form, or "" when nothing matched.
func (r specialRule) apply(s string) string {
	m := r.extract.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	if r.rewrite != nil {
		return r.rewrite(m[0])
	}
	switch r.site {
	case SiteXXXAV:
		return "xxx-av-" + m[1]
	case SiteHeydouga:
		return "heydouga-" + m[1] + "-" + m[2]
	case SiteHeyzo:
		return "heyzo-" + m[1]
	}
	return m[0]
}

// clean strips watermarks, quality tags and other junk that surrounds
// the identifier in release filenames.
func (p *Parser) clean(name string) string {
	s := name
	for _, ig := range p.ignored {
		if ig != "" {
			s = removeInsensitive(s, ig)
		}
	}
	s = reBrackets.ReplaceAllString(s, "")
	s = reWatermark.ReplaceAllString(s, "")
	s = reDatePrefix.ReplaceAllString(s, "")
	s = reTokyoPrefix.ReplaceAllString(s, "")
	s = reParenQuality.ReplaceAllString(s, "")
	s = reT28.ReplaceAllString(s, "T28-$1")
	s = reR18.ReplaceAllString(s, "R18-$1")
	for {
		t := reQualityMid.ReplaceAllString(s, "$2")
		if t == s {
			break
		}
		s = t
	}
	if m := reQualityLead.FindString(s); m != "" {
		// A leading quality tag is junk only when a code survives it;
		// "HD-123" on its own stays intact.
		if rest := s[len(m):]; reCodeShape.MatchString(rest) {
			s = rest
		}
	}
	s = reDiscMarker.ReplaceAllString(s, "")
	if loc := reTrailCounter.FindStringIndex(s); loc != nil && reCodeShape.MatchString(s[:loc[0]]) {
		s = s[:loc[0]]
	}
	s = reTrailCJK.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// extract pulls the identifier-shaped token out of a cleaned name.
func extract(s string) string {
	if strings.ContainsAny(s, "-_") {
		s = reBracketDate.ReplaceAllString(s, "")
		if upper := strings.ToUpper(s); strings.Contains(upper, "FC2") {
			norm := strings.ReplaceAll(upper, "--", "-")
			norm = strings.ReplaceAll(norm, "_", "-")
			if m := reFC2.FindStringSubmatch(norm); m != nil {
				return "FC2-" + m[1]
			}
		}
		s = reCDSuffix.ReplaceAllString(s, "")
		if i := strings.IndexByte(s, '.'); i >= 0 {
			s = s[:i]
		}
		return reFirstToken.FindString(s)
	}
	if m := reWestern.FindString(s); m != "" {
		return m
	}
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	return strings.ReplaceAll(s, "_", "-")
}

// analyzeSuffix peels subtitle/uncensored markers and a disc letter off
// the residue. Disc letters A-Y map to parts 1-25; C, U and Z are never
// disc letters.
func analyzeSuffix(s string) (string, Attributes, int) {
	var attrs Attributes
	if reSuffixUC.MatchString(s) {
		attrs.CNSub = true
		attrs.Uncensored = true
		s = reSuffixUC.ReplaceAllString(s, "")
	} else {
		if reSuffixC.MatchString(s) {
			attrs.CNSub = true
			s = reSuffixC.ReplaceAllString(s, "")
		}
		if reSuffixU.MatchString(s) {
			attrs.Uncensored = true
			s = reSuffixU.ReplaceAllString(s, "")
		}
	}

	part := 0
	if m := reDiscLetter.FindStringSubmatch(s); m != nil {
		part = int(m[2][0]-'A') + 1
		s = reDiscLetter.ReplaceAllString(s, "$1")
	}

	if m := reCoreTrailing.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	return s, attrs, part
}

// finish normalizes the final shape, validates it, and derives the
// content ID.
func (p *Parser) finish(origin, id string, attrs Attributes, part int, strict bool) (*ParsedID, error) {
	if attrs.SpecialSite == SiteTokyoHot || isTokyoCode(id) {
		id = strings.ToLower(id)
		if attrs.SpecialSite == "" {
			attrs.SpecialSite = SiteTokyoHot
		}
	} else if attrs.SpecialSite == "" || attrs.SpecialSite == SiteMDBK || attrs.SpecialSite == SiteMDTM {
		if m := reJoined.FindStringSubmatch(id); m != nil {
			id = m[1] + "-" + m[2]
		}
		id = strings.ToUpper(id)
	}

	if id == "" || !strings.ContainsAny(id, "0123456789") {
		return nil, apperrors.NewInvalidIdentifier(origin)
	}
	if strict && !strictMatch(id) {
		return nil, apperrors.NewInvalidIdentifier(origin)
	}

	return &ParsedID{
		DisplayID:  id,
		ContentID:  ToContent(id),
		PartNumber: part,
		Attrs:      attrs,
	}, nil
}

func strictMatch(id string) bool {
	for _, re := range strictShapes {
		if re.MatchString(id) {
			return true
		}
	}
	return false
}

// isTokyoCode reports whether an identifier on its own looks like a
// Tokyo-Hot short code. Single-letter prefixes need all four digits to
// keep ordinary truncated IDs out.
func isTokyoCode(s string) bool {
	s = strings.ToLower(s)
	if m := reTokyoSolo.FindStringSubmatch(s); m != nil {
		prefix := m[1]
		if len(prefix) > 1 {
			return true
		}
		return len(s) == len(prefix)+4
	}
	return false
}

var (
	reContentStd = regexp.MustCompile(`^([a-z]{1,6})-?(\d{2,9})([a-z]?)$`)
	reDigits     = regexp.MustCompile(`\d+`)
)

// ToContent converts a display ID to its content-ID form: lowercase,
// hyphen removed, digits zero-padded to five for standard codes. FC2
// and Tokyo-Hot codes keep their digit runs untouched.
func ToContent(display string) string {
	s := strings.ToLower(display)
	switch {
	case strings.HasPrefix(s, "fc2"):
		return "fc2" + reDigits.FindString(s)
	case strings.HasPrefix(s, "t28-"), strings.HasPrefix(s, "r18-"):
		return s[:3] + pad5(s[4:])
	case strings.HasPrefix(s, "heyzo-"):
		return "heyzo" + pad5(s[6:])
	case isTokyoCode(s):
		return s
	}
	if m := reContentStd.FindStringSubmatch(s); m != nil {
		return m[1] + pad5(m[2]) + m[3]
	}
	return s
}

var reContentSplit = regexp.MustCompile(`^([a-z]{1,6})(\d{2,9})([a-z]?)$`)

// ToDisplay is the inverse of ToContent for standard-shaped codes:
// uppercase with a hyphen, left-pad zeros removed.
func ToDisplay(content string) string {
	s := strings.ToLower(content)
	switch {
	case strings.HasPrefix(s, "fc2"):
		return "FC2-" + reDigits.FindString(s)
	case strings.HasPrefix(s, "t28"), strings.HasPrefix(s, "r18"):
		return strings.ToUpper(s[:3]) + "-" + trimZeros(reDigits.FindString(s[3:]))
	case strings.HasPrefix(s, "heyzo"):
		return "HEYZO-" + trimZeros(reDigits.FindString(s[5:]))
	case isTokyoCode(s):
		return s
	}
	if m := reContentSplit.FindStringSubmatch(s); m != nil {
		return strings.ToUpper(m[1]) + "-" + trimZeros(m[2]) + strings.ToUpper(m[3])
	}
	return strings.ToUpper(content)
}

func captureGroup(m []string, idx int) string {
	if idx < 0 || idx >= len(m) {
		return ""
	}
	return m[idx]
}

func pad5(digits string) string {
	for len(digits) < 5 {
		digits = "0" + digits
	}
	return digits
}

func trimZeros(digits string) string {
	t := strings.TrimLeft(digits, "0")
	if t == "" {
		return "0"
	}
	return t
}

func replaceSep(s, sep string) string {
	s = strings.ReplaceAll(s, "-", sep)
	return strings.ReplaceAll(s, "_", sep)
}

// stripExtension drops a trailing file extension, keeping numeric dotted
// tails like x-art.20.01.01 intact.
func stripExtension(name string) string {
	ext := filepath.Ext(name)
	if len(ext) < 3 || len(ext) > 6 {
		return name
	}
	if reDigits.FindString(ext) == ext[1:] {
		return name
	}
	return strings.TrimSuffix(name, ext)
}

// removeInsensitive removes every case-insensitive occurrence of sub.
func removeInsensitive(s, sub string) string {
	lower := strings.ToLower(s)
	target := strings.ToLower(sub)
	var b strings.Builder
	for {
		i := strings.Index(lower, target)
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i])
		s = s[i+len(sub):]
		lower = lower[i+len(target):]
	}
}
