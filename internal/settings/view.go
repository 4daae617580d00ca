package settings

import (
	"strconv"
	"strings"
)

// DefaultTimeout is used when GRUB_TIMEOUT is absent or not an integer.
const DefaultTimeout = 10

// Managed key names. The view owns these wholesale: on merge each one is
// removed from the base map and re-added only if its presence rule says so.
const (
	KeyTimeout         = "GRUB_TIMEOUT"
	KeyDefault         = "GRUB_DEFAULT"
	KeySaveDefault     = "GRUB_SAVEDEFAULT"
	KeyTimeoutStyle    = "GRUB_TIMEOUT_STYLE"
	KeyDisableRecovery = "GRUB_DISABLE_RECOVERY"
	KeyDisableOSProber = "GRUB_DISABLE_OS_PROBER"
	KeyColorNormal     = "GRUB_COLOR_NORMAL"
	KeyColorHighlight  = "GRUB_COLOR_HIGHLIGHT"
	KeyGfxMode         = "GRUB_GFXMODE"
	KeyTheme           = "GRUB_THEME"
	KeyCmdline         = "GRUB_CMDLINE_LINUX_DEFAULT"
)

// lookupRule pairs a managed key with the legacy lower-case spelling some
// older files carry, and the default used when neither is set.
type lookupRule struct {
	key    string
	legacy string
	defval string
}

// lookupRules is the full managed-key set, in file order. Reads consult
// primary then legacy then default; writes always use the primary spelling.
var lookupRules = []lookupRule{
	{KeyDefault, "grub_default", "0"},
	{KeySaveDefault, "grub_savedefault", ""},
	{KeyTimeout, "grub_timeout", strconv.Itoa(DefaultTimeout)},
	{KeyTimeoutStyle, "grub_timeout_style", ""},
	{KeyDisableRecovery, "grub_disable_recovery", ""},
	{KeyDisableOSProber, "grub_disable_os_prober", ""},
	{KeyColorNormal, "grub_color_normal", ""},
	{KeyColorHighlight, "grub_color_highlight", ""},
	{KeyGfxMode, "grub_gfxmode", ""},
	{KeyTheme, "grub_theme", ""},
	{KeyCmdline, "grub_cmdline_linux_default", ""},
}

// lookup returns the value for the managed key named by primary, falling back
// to its legacy spelling and then its default.
func lookup(m *Map, primary string) string {
	for _, rule := range lookupRules {
		if rule.key != primary {
			continue
		}
		if v, ok := m.Get(rule.key); ok {
			return v
		}
		if v, ok := m.Get(rule.legacy); ok {
			return v
		}
		return rule.defval
	}
	return ""
}

func isManaged(key string) bool {
	for _, rule := range lookupRules {
		if key == rule.key || key == rule.legacy {
			return true
		}
	}
	return false
}

// ColorPair is a foreground/background color setting. A source value with no
// '/' is foreground-only.
type ColorPair struct {
	Foreground string
	Background string
}

func parseColorPair(v string) ColorPair {
	fg, bg, found := strings.Cut(v, "/")
	if !found {
		return ColorPair{Foreground: strings.TrimSpace(v)}
	}
	return ColorPair{Foreground: strings.TrimSpace(fg), Background: strings.TrimSpace(bg)}
}

// String renders the pair in the file's fg/bg form.
func (c ColorPair) String() string {
	if c.Background == "" {
		return c.Foreground
	}
	return c.Foreground + "/" + c.Background
}

// View is the simplified, UI-facing projection of the managed settings keys.
type View struct {
	Timeout         int
	DefaultEntry    string
	SaveDefault     bool
	HiddenMenu      bool
	DisableRecovery bool
	DisableOSProber bool
	NormalColor     ColorPair
	HighlightColor  ColorPair
	GfxMode         string
	Theme           string
	Cmdline         string
	Quiet           bool
	Splash          bool
}

// ToTypedView projects m onto a View. It is total: absent or unparsable
// values fall back to per-field defaults instead of failing.
func ToTypedView(m *Map) View {
	cmdline := lookup(m, KeyCmdline)
	return View{
		Timeout:         parseIntOr(lookup(m, KeyTimeout), DefaultTimeout),
		DefaultEntry:    lookup(m, KeyDefault),
		SaveDefault:     parseBool(lookup(m, KeySaveDefault)),
		HiddenMenu:      lookup(m, KeyTimeoutStyle) == "hidden",
		DisableRecovery: parseBool(lookup(m, KeyDisableRecovery)),
		DisableOSProber: parseBool(lookup(m, KeyDisableOSProber)),
		NormalColor:     parseColorPair(lookup(m, KeyColorNormal)),
		HighlightColor:  parseColorPair(lookup(m, KeyColorHighlight)),
		GfxMode:         lookup(m, KeyGfxMode),
		Theme:           lookup(m, KeyTheme),
		Cmdline:         cmdline,
		Quiet:           strings.Contains(cmdline, "quiet"),
		Splash:          strings.Contains(cmdline, "splash"),
	}
}

// ToSettingsMap folds v back into a copy of base. Keys outside the managed
// set pass through untouched, in their original order. Every managed key is
// replaced wholesale: dropped from the copy, then re-added only if its
// presence rule fires. Omission is the bootloader's own convention for a
// disabled boolean; GRUB_DISABLE_OS_PROBER is the exception and is always
// written, because only an explicit "false" overrides a distro default of
// true.
func ToSettingsMap(base *Map, v View) *Map {
	out := NewMap()
	for pair := base.Oldest(); pair != nil; pair = pair.Next() {
		if isManaged(pair.Key) {
			continue
		}
		out.Set(pair.Key, pair.Value)
	}

	if v.DefaultEntry != "" {
		out.Set(KeyDefault, v.DefaultEntry)
	}
	if v.SaveDefault {
		out.Set(KeySaveDefault, "true")
	}
	out.Set(KeyTimeout, strconv.Itoa(v.Timeout))
	if v.HiddenMenu {
		out.Set(KeyTimeoutStyle, "hidden")
	}
	if v.DisableRecovery {
		out.Set(KeyDisableRecovery, "true")
	}
	out.Set(KeyDisableOSProber, strconv.FormatBool(v.DisableOSProber))
	if v.NormalColor.Foreground != "" {
		out.Set(KeyColorNormal, v.NormalColor.String())
	}
	if v.HighlightColor.Foreground != "" {
		out.Set(KeyColorHighlight, v.HighlightColor.String())
	}
	if v.GfxMode != "" {
		out.Set(KeyGfxMode, v.GfxMode)
	}
	if v.Theme != "" {
		out.Set(KeyTheme, v.Theme)
	}
	if cmdline := v.cmdlineValue(); cmdline != "" {
		out.Set(KeyCmdline, cmdline)
	}
	return out
}

// cmdlineValue reconciles the Quiet/Splash toggles with the raw cmdline
// string the view was built from.
func (v View) cmdlineValue() string {
	cmd := setFlag(v.Cmdline, "quiet", v.Quiet)
	cmd = setFlag(cmd, "splash", v.Splash)
	return strings.TrimSpace(cmd)
}

// setFlag adds or removes a flag by substring membership, mirroring how the
// toggles are derived on read.
func setFlag(cmd, flag string, want bool) string {
	has := strings.Contains(cmd, flag)
	switch {
	case want && !has:
		return strings.TrimSpace(cmd + " " + flag)
	case !want && has:
		return strings.Join(strings.Fields(strings.ReplaceAll(cmd, flag, "")), " ")
	default:
		return cmd
	}
}

func parseIntOr(v string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return n
}

// parseBool is deliberately tolerant: true/1/yes in any case are true,
// everything else is false.
func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}
