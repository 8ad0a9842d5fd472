package avid

import "regexp"

// Cleaning patterns applied to the filename before extraction.
var (
	// Bracketed release-group or site tags: [javdb], 【桃乃木かな】.
	reBrackets = regexp.MustCompile(`\[[^]]*]|【[^】]*】`)

	// Leading site watermark: hhd800.com@, jav.guru_, sbw99.cc:.
	reWatermark = regexp.MustCompile(`(?i)^\w{2,12}\.(com|net|me|cc|club|jp|tv|xyz|biz|wiki|info|tw|us|org|de|app)[@_\-:]`)

	// Leading numeric date prefix: 20201231-, 1012_.
	reDatePrefix = regexp.MustCompile(`^\d{4,8}[-_]`)

	// Leading Tokyo-Hot watermark; the short code that follows stands alone.
	reTokyoPrefix = regexp.MustCompile(`(?i)^tokyo[-_]?hot[-_]`)

	// Leading parenthesized quality tag: (FHD), (1080P).
	reParenQuality = regexp.MustCompile(`(?i)^\((?:HD|FHD|FULLHD|4K|UHD|1080P|720P|480P)\)\s*`)

	// T28/R18 label variants normalized to the hyphenated form.
	reT28 = regexp.MustCompile(`(?i)\bT[-_]?28[-_]?(\d{2,5})`)
	reR18 = regexp.MustCompile(`(?i)\bR[-_]?18[-_]?(\d{2,5})`)

	// Quality markers separated from the code by - or _, or trailing.
	reQualityMid  = regexp.MustCompile(`(?i)[-_](FULLHD|FHD|HD|HQ|4K|UHD|1080P|720P|480P|H264|H265|X264|X265|HEVC|AVC)([-_.]|$)`)
	reQualityLead = regexp.MustCompile(`(?i)^(FULLHD|FHD|HD|HQ|SD|4K|UHD|1080P|720P|480P)[-_]`)

	// Numeric disc markers: -CD1, _disk2, -part03.
	reDiscMarker = regexp.MustCompile(`(?i)[-_](?:cd|dvd|part|pt|disk|disc)[-_]?\d{1,3}`)

	// Bare trailing part counter: -1, _02. Stripped only when an
	// identifier-shaped run survives without it.
	reTrailCounter = regexp.MustCompile(`[-_]\d{1,2}$`)

	// Trailing CJK title text after whitespace.
	reTrailCJK = regexp.MustCompile(`\s+[\p{Han}\p{Hiragana}\p{Katakana}].*$`)

	// Shape of a plausible identifier, used to gate destructive cleaning
	// steps and to auto-enable strict validation.
	reCodeShape = regexp.MustCompile(`(?i)[A-Z]{2,5}[-_]?\d{2,5}`)
	reCodeSep   = regexp.MustCompile(`(?i)[A-Z]{2,5}[-_]\d{2,5}`)
)

// Extraction patterns.
var (
	reBracketDate = regexp.MustCompile(`\[\d{4}-\d{1,2}-\d{1,2}] - `)
	reFC2         = regexp.MustCompile(`FC2[-_]?(?:PPV[-_]?)?(\d{5,9})`)
	reCDSuffix    = regexp.MustCompile(`(?i)-CD\d{1,2}`)
	reFirstToken  = regexp.MustCompile(`[\w\-_]+`)
	reWestern     = regexp.MustCompile(`(?i)^([a-z]+)\.(\d{2})\.(\d{2})\.(\d{2})`)

	// Suffix analysis. Disc letters run A-Y with C, U and Z excluded;
	// C and U are claimed by the subtitle/uncensored markers.
	reSuffixUC   = regexp.MustCompile(`(?i)[-_]UC$`)
	reSuffixC    = regexp.MustCompile(`(?i)[-_](C|ch)$`)
	reSuffixU    = regexp.MustCompile(`(?i)[-_]U$`)
	reDiscLetter = regexp.MustCompile(`(\d)[-_]?([ABD-TV-Y])$`)

	// Residues like "ABC-123出会い" or "ssni888title": truncate to the core.
	reCoreTrailing = regexp.MustCompile(`^([A-Za-z]{2,5}-\d{2,5})(?:[\p{Han}\p{Hiragana}\p{Katakana}].*|[a-z]{2,})$`)

	// Final-shape patterns.
	reJoined    = regexp.MustCompile(`^([A-Za-z]+)(\d+)$`)
	reTokyoSolo = regexp.MustCompile(`(?i)^(cz|gedo|k|n|red|se)\d{2,4}$`)
)

// Strict-mode acceptance patterns. Anything else is rejected outright.
var strictShapes = []*regexp.Regexp{
	regexp.MustCompile(`^[A-Z]{2,5}-?\d{2,5}[A-Z]?$`),
	regexp.MustCompile(`^(T28|R18)-\d{2,5}$`),
	regexp.MustCompile(`^FC2-\d{5,9}$`),
	regexp.MustCompile(`(?i)^(cz|gedo|k|n|red|se)\d{2,4}$`),
	regexp.MustCompile(`^\d{5,}$`),
	regexp.MustCompile(`^\d{6}[-_]\d{2,3}$`),
	regexp.MustCompile(`(?i)^heydouga-\d{4}-\d{3,4}$`),
	regexp.MustCompile(`(?i)^heyzo-\d{4}$`),
	regexp.MustCompile(`(?i)^[a-z-]+\.\d{2}\.\d{2}\.\d{2}$`),
	regexp.MustCompile(`(?i)^xxx-av-\d{3,5}$`),
	regexp.MustCompile(`(?i)^mdbk-\d{4}$`),
	regexp.MustCompile(`(?i)^mdtm-\d{4}$`),
}

// specialRule recognizes an identifier that native-site scrapers key on.
// Rules are tried in order against the cleaned filename; the first match
// returns early, bypassing generic extraction.
type specialRule struct {
	site    string
	trigger *regexp.Regexp
	extract *regexp.Regexp
	rewrite func(string) string
}

var specialRules = []specialRule{
	{
		site:    SiteTokyoHot,
		trigger: regexp.MustCompile(`(?i)tokyo.?hot`),
		extract: regexp.MustCompile(`(?i)(cz|gedo|k|n|red|se)\d{2,4}`),
		rewrite: func(s string) string { return s },
	},
	{
		site:    SiteCaribPR,
		trigger: regexp.MustCompile(`(?i)caribpr`),
		extract: regexp.MustCompile(`\d{6}[-_]\d{3}`),
		rewrite: func(s string) string { return replaceSep(s, "-") },
	},
	{
		site:    SiteCarib,
		trigger: regexp.MustCompile(`(?i)carib`),
		extract: regexp.MustCompile(`\d{6}[-_]\d{3}`),
		rewrite: func(s string) string { return replaceSep(s, "-") },
	},
	{
		site:    Site1Pondo,
		trigger: regexp.MustCompile(`(?i)1pon|mura|paco`),
		extract: regexp.MustCompile(`\d{6}[-_]\d{3}`),
		rewrite: func(s string) string { return replaceSep(s, "_") },
	},
	{
		site:    Site10Musume,
		trigger: regexp.MustCompile(`(?i)10mu`),
		extract: regexp.MustCompile(`\d{6}[-_]\d{2}`),
		rewrite: func(s string) string { return replaceSep(s, "_") },
	},
	{
		site:    SiteXArt,
		trigger: regexp.MustCompile(`(?i)x-art`),
		extract: regexp.MustCompile(`(?i)x-art\.\d{2}\.\d{2}\.\d{2}`),
		rewrite: func(s string) string { return s },
	},
	{
		site:    SiteXXXAV,
		trigger: regexp.MustCompile(`(?i)xxx-av`),
		extract: regexp.MustCompile(`(?i)xxx-av[^\d]*(\d{3,5})`),
		rewrite: nil, // handled via capture group
	},
	{
		site:    SiteHeydouga,
		trigger: regexp.MustCompile(`(?i)heydouga`),
		extract: regexp.MustCompile(`(?i)(\d{4})[-_](\d{3,4})`),
		rewrite: nil,
	},
	{
		site:    SiteHeyzo,
		trigger: regexp.MustCompile(`(?i)heyzo`),
		extract: regexp.MustCompile(`(?i)heyzo[^\d]*(\d{4})`),
		rewrite: nil,
	},
	{
		site:    SiteMDBK,
		trigger: regexp.MustCompile(`(?i)mdbk`),
		extract: regexp.MustCompile(`(?i)mdbk[-_]\d{4}`),
		rewrite: func(s string) string { return replaceSep(s, "-") },
	},
	{
		site:    SiteMDTM,
		trigger: regexp.MustCompile(`(?i)mdtm`),
		extract: regexp.MustCompile(`(?i)mdtm[-_]\d{4}`),
		rewrite: func(s string) string { return replaceSep(s, "-") },
	},
}
