package config

import (
	"fmt"
	"regexp"
	"strings"
)

// Main modes.
const (
	ModeScraping   = 1
	ModeOrganizing = 2
	ModeAnalysis   = 3
)

// Link modes.
const (
	LinkMove = 0
	LinkSoft = 1
	LinkHard = 2
)

// Config is the full runtime configuration, mirroring the INI sections.
type Config struct {
	Common    Common            `mapstructure:"common" json:"common"`
	DebugMode Debug             `mapstructure:"debug_mode" json:"debug_mode"`
	Proxy     Proxy             `mapstructure:"proxy" json:"proxy"`
	Priority  Priority          `mapstructure:"priority" json:"priority"`
	NameRule  NameRule          `mapstructure:"name_rule" json:"name_rule"`
	Escape    Escape            `mapstructure:"escape" json:"escape"`
	Media     Media             `mapstructure:"media" json:"media"`
	Cookies   map[string]string `mapstructure:"cookies" json:"cookies"`
	Server    Server            `mapstructure:"server" json:"server"`
}

// Common is the [common] section.
type Common struct {
	MainMode            int    `mapstructure:"main_mode" json:"main_mode"`
	SourceFolder        string `mapstructure:"source_folder" json:"source_folder"`
	FailedOutputFolder  string `mapstructure:"failed_output_folder" json:"failed_output_folder"`
	SuccessOutputFolder string `mapstructure:"success_output_folder" json:"success_output_folder"`
	LinkMode            int    `mapstructure:"link_mode" json:"link_mode"`
	ScanHardlink        bool   `mapstructure:"scan_hardlink" json:"scan_hardlink"`
	FailedMove          bool   `mapstructure:"failed_move" json:"failed_move"`
	AutoExit            bool   `mapstructure:"auto_exit" json:"auto_exit"`
	NFOSkipDays         int    `mapstructure:"nfo_skip_days" json:"nfo_skip_days"`
	IgnoreFailedList    bool   `mapstructure:"ignore_failed_list" json:"ignore_failed_list"`
	MultiThreading      int    `mapstructure:"multi_threading" json:"multi_threading"`
	SkipExisting        bool   `mapstructure:"skip_existing" json:"skip_existing"`
	EmitNFO             bool   `mapstructure:"emit_nfo" json:"emit_nfo"`
	EmitPoster          bool   `mapstructure:"emit_poster" json:"emit_poster"`
	MoveSubtitles       bool   `mapstructure:"move_subtitles" json:"move_subtitles"`
}

// Debug is the [debug_mode] section.
type Debug struct {
	Switch bool `mapstructure:"switch" json:"switch"`
}

// Proxy is the [proxy] section.
type Proxy struct {
	Switch  bool   `mapstructure:"switch" json:"switch"`
	Proxy   string `mapstructure:"proxy" json:"proxy"`
	Timeout int    `mapstructure:"timeout" json:"timeout"`
	Retry   int    `mapstructure:"retry" json:"retry"`
	Type    string `mapstructure:"type" json:"type"`
}

// Priority is the [priority] section.
type Priority struct {
	Website string `mapstructure:"website" json:"website"`
}

// Sources returns the ranked source names.
func (p Priority) Sources() []string {
	return splitList(p.Website)
}

// NameRule is the [name_rule] section.
type NameRule struct {
	LocationRule string `mapstructure:"location_rule" json:"location_rule"`
	NamingRule   string `mapstructure:"naming_rule" json:"naming_rule"`
	MaxTitleLen  int    `mapstructure:"max_title_len" json:"max_title_len"`
	// NumberRegexs holds semicolon-separated patterns tried before the
	// built-in ID pipeline. Group 1 (when present) selects the ID and
	// group 2 the part number.
	NumberRegexs string `mapstructure:"number_regexs" json:"number_regexs"`
}

// Patterns returns the compiled-checkable custom ID patterns in order.
func (n NameRule) Patterns() []string {
	var out []string
	for _, p := range strings.Split(n.NumberRegexs, ";") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Escape is the [escape] section.
type Escape struct {
	Folders string `mapstructure:"folders" json:"folders"`
	String  string `mapstructure:"string" json:"string"`
	Filter  string `mapstructure:"filter" json:"filter"`
}

// FolderSet returns the escape folder names.
func (e Escape) FolderSet() map[string]bool {
	set := make(map[string]bool)
	for _, f := range splitList(e.Folders) {
		set[f] = true
	}
	return set
}

// Literals returns the removal strings applied before ID parsing.
func (e Escape) Literals() []string {
	return splitList(e.String)
}

// Media is the [media] section.
type Media struct {
	MediaType string `mapstructure:"media_type" json:"media_type"`
	SubType   string `mapstructure:"sub_type" json:"sub_type"`
}

// Extensions returns the accepted video extensions, lowercased and
// dot-prefixed.
func (m Media) Extensions() []string {
	return normalizeExts(m.MediaType)
}

// SubExtensions returns the accepted subtitle extensions.
func (m Media) SubExtensions() []string {
	return normalizeExts(m.SubType)
}

// Server is the [server] section for the collaborator HTTP surface.
type Server struct {
	Host string `mapstructure:"host" json:"host"`
	Port int    `mapstructure:"port" json:"port"`
}

// Addr returns the listen address.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CookieHeader builds a Cookie header value for a domain from the
// [cookies] section, or "" when none is configured.
func (c *Config) CookieHeader(domain string) string {
	if c.Cookies == nil {
		return ""
	}
	pairs, ok := c.Cookies[domain]
	if !ok {
		// Try a suffix match so "javbus.com" covers "www.javbus.com".
		for d, v := range c.Cookies {
			if strings.HasSuffix(domain, d) {
				pairs = v
				ok = true
				break
			}
		}
	}
	if !ok {
		return ""
	}
	return strings.Join(splitList(pairs), "; ")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Common: Common{
			MainMode:       ModeScraping,
			SourceFolder:   ".",
			LinkMode:       LinkMove,
			FailedMove:     true,
			NFOSkipDays:    30,
			MultiThreading: 4,
			SkipExisting:   true,
			EmitNFO:        true,
			EmitPoster:     true,
			MoveSubtitles:  true,
		},
		Proxy: Proxy{
			Timeout: 10,
			Retry:   3,
			Type:    "http",
		},
		Priority: Priority{
			Website: "javlibrary,javbus,avmoo,fc2,tokyohot",
		},
		NameRule: NameRule{
			LocationRule: "actor/number",
			NamingRule:   "number",
			MaxTitleLen:  50,
		},
		Escape: Escape{
			Folders: "failed,JAV_output",
		},
		Media: Media{
			MediaType: ".mp4,.avi,.rmvb,.wmv,.mov,.mkv,.flv,.ts,.webm,.iso,.mpg,.m4v",
			SubType:   ".smi,.srt,.idx,.sub,.sup,.psb,.ssa,.ass,.usf,.xss,.ssf,.rt,.lrc,.sbv,.vtt,.ttml",
		},
		Server: Server{
			Host: "127.0.0.1",
			Port: 8097,
		},
	}
}

// Validate checks value ranges that the pipeline depends on.
func (c *Config) Validate() error {
	if c.Common.MainMode < ModeScraping || c.Common.MainMode > ModeAnalysis {
		return fmt.Errorf("common.main_mode must be 1, 2 or 3, got %d", c.Common.MainMode)
	}
	if c.Common.LinkMode < LinkMove || c.Common.LinkMode > LinkHard {
		return fmt.Errorf("common.link_mode must be 0, 1 or 2, got %d", c.Common.LinkMode)
	}
	if c.Common.MultiThreading <= 0 {
		return fmt.Errorf("common.multi_threading must be positive, got %d", c.Common.MultiThreading)
	}
	if len(c.Media.Extensions()) == 0 {
		return fmt.Errorf("media.media_type cannot be empty")
	}
	if c.Escape.Filter != "" {
		if _, err := regexp.Compile(c.Escape.Filter); err != nil {
			return fmt.Errorf("escape.filter is not a valid regex: %w", err)
		}
	}
	for _, p := range c.NameRule.Patterns() {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("name_rule.number_regexs entry %q: %w", p, err)
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func normalizeExts(s string) []string {
	var out []string
	for _, ext := range splitList(s) {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}
