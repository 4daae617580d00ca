package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToTypedView_Defaults(t *testing.T) {
	v := ToTypedView(NewMap())
	assert.Equal(t, DefaultTimeout, v.Timeout)
	assert.Equal(t, "0", v.DefaultEntry)
	assert.False(t, v.SaveDefault)
	assert.False(t, v.HiddenMenu)
	assert.False(t, v.DisableRecovery)
	assert.False(t, v.DisableOSProber)
	assert.Empty(t, v.GfxMode)
	assert.Empty(t, v.Theme)
	assert.Empty(t, v.Cmdline)
}

func TestToTypedView_BadTimeoutFallsBack(t *testing.T) {
	m := NewMap()
	m.Set(KeyTimeout, "not-a-number")
	assert.Equal(t, DefaultTimeout, ToTypedView(m).Timeout)
}

func TestToTypedView_Fields(t *testing.T) {
	m := Parse(`GRUB_DEFAULT=2>1
GRUB_TIMEOUT=30
GRUB_TIMEOUT_STYLE=hidden
GRUB_SAVEDEFAULT=true
GRUB_DISABLE_RECOVERY=true
GRUB_COLOR_NORMAL=white/black
GRUB_COLOR_HIGHLIGHT=yellow
GRUB_GFXMODE=1024x768
GRUB_THEME=/boot/grub/themes/starfield/theme.txt
GRUB_CMDLINE_LINUX_DEFAULT="quiet splash"
`)
	v := ToTypedView(m)
	assert.Equal(t, "2>1", v.DefaultEntry)
	assert.Equal(t, 30, v.Timeout)
	assert.True(t, v.HiddenMenu)
	assert.True(t, v.SaveDefault)
	assert.True(t, v.DisableRecovery)
	assert.Equal(t, ColorPair{Foreground: "white", Background: "black"}, v.NormalColor)
	// A pair with no '/' is foreground-only.
	assert.Equal(t, ColorPair{Foreground: "yellow"}, v.HighlightColor)
	assert.Equal(t, "1024x768", v.GfxMode)
	assert.Equal(t, "quiet splash", v.Cmdline)
	assert.True(t, v.Quiet)
	assert.True(t, v.Splash)
}

func TestToTypedView_LegacyAliases(t *testing.T) {
	m := NewMap()
	m.Set("grub_timeout", "7")
	m.Set("grub_gfxmode", "800x600")
	v := ToTypedView(m)
	assert.Equal(t, 7, v.Timeout)
	assert.Equal(t, "800x600", v.GfxMode)
}

func TestToTypedView_PrimaryWinsOverLegacy(t *testing.T) {
	m := NewMap()
	m.Set(KeyTimeout, "3")
	m.Set("grub_timeout", "7")
	assert.Equal(t, 3, ToTypedView(m).Timeout)
}

func TestToTypedView_TolerantBooleans(t *testing.T) {
	for _, truthy := range []string{"true", "TRUE", "1", "yes"} {
		m := NewMap()
		m.Set(KeySaveDefault, truthy)
		assert.True(t, ToTypedView(m).SaveDefault, truthy)
	}
	for _, falsy := range []string{"false", "0", "no", "", "banana"} {
		m := NewMap()
		m.Set(KeySaveDefault, falsy)
		assert.False(t, ToTypedView(m).SaveDefault, falsy)
	}
}

func TestToSettingsMap_PreservesUnknownKeys(t *testing.T) {
	m := Parse(`GRUB_TIMEOUT=5
GRUB_TERMINAL=console
GRUB_ENABLE_CRYPTODISK=y
SOME_FUTURE_KEY="spaced value"
`)
	out := ToSettingsMap(m, ToTypedView(m))

	for _, key := range []string{"GRUB_TERMINAL", "GRUB_ENABLE_CRYPTODISK", "SOME_FUTURE_KEY"} {
		want, _ := m.Get(key)
		got, ok := out.Get(key)
		require.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}
}

func TestToSettingsMap_OmitsFalseBooleans(t *testing.T) {
	out := ToSettingsMap(NewMap(), View{Timeout: 5, DefaultEntry: "0"})

	for _, key := range []string{KeySaveDefault, KeyTimeoutStyle, KeyDisableRecovery} {
		_, ok := out.Get(key)
		assert.False(t, ok, key)
	}
}

func TestToSettingsMap_WritesTrueBooleans(t *testing.T) {
	out := ToSettingsMap(NewMap(), View{
		Timeout:         5,
		DefaultEntry:    "0",
		SaveDefault:     true,
		HiddenMenu:      true,
		DisableRecovery: true,
	})

	v, _ := out.Get(KeySaveDefault)
	assert.Equal(t, "true", v)
	v, _ = out.Get(KeyTimeoutStyle)
	assert.Equal(t, "hidden", v)
	v, _ = out.Get(KeyDisableRecovery)
	assert.Equal(t, "true", v)
}

func TestToSettingsMap_OSProberAlwaysExplicit(t *testing.T) {
	// Unlike the other toggles, absence does not mean disabled here: only
	// an explicit "false" overrides a distro default of true.
	out := ToSettingsMap(NewMap(), View{Timeout: 5})
	v, ok := out.Get(KeyDisableOSProber)
	require.True(t, ok)
	assert.Equal(t, "false", v)

	out = ToSettingsMap(NewMap(), View{Timeout: 5, DisableOSProber: true})
	v, _ = out.Get(KeyDisableOSProber)
	assert.Equal(t, "true", v)
}

func TestToSettingsMap_ReplacesLegacySpelling(t *testing.T) {
	m := NewMap()
	m.Set("grub_gfxmode", "800x600")
	m.Set("UNRELATED", "x")

	out := ToSettingsMap(m, ToTypedView(m))

	_, ok := out.Get("grub_gfxmode")
	assert.False(t, ok)
	v, ok := out.Get(KeyGfxMode)
	require.True(t, ok)
	assert.Equal(t, "800x600", v)
}

func TestToSettingsMap_CmdlineToggles(t *testing.T) {
	v := View{Timeout: 5, Cmdline: "quiet splash resume=/dev/sda2", Quiet: true, Splash: false}
	out := ToSettingsMap(NewMap(), v)
	got, _ := out.Get(KeyCmdline)
	assert.Equal(t, "quiet resume=/dev/sda2", got)

	v = View{Timeout: 5, Cmdline: "resume=/dev/sda2", Quiet: true, Splash: true}
	out = ToSettingsMap(NewMap(), v)
	got, _ = out.Get(KeyCmdline)
	assert.Equal(t, "resume=/dev/sda2 quiet splash", got)
}

func TestToSettingsMap_EmptyCmdlineOmitted(t *testing.T) {
	out := ToSettingsMap(NewMap(), View{Timeout: 5})
	_, ok := out.Get(KeyCmdline)
	assert.False(t, ok)
}

func TestRoundTrip_ManagedKeysStable(t *testing.T) {
	m := Parse(`GRUB_DEFAULT=0
GRUB_TIMEOUT=5
GRUB_DISABLE_OS_PROBER=false
GRUB_CMDLINE_LINUX_DEFAULT="quiet splash"
GRUB_TERMINAL=console
`)
	out := ToSettingsMap(m, ToTypedView(m))

	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		got, ok := out.Get(pair.Key)
		require.True(t, ok, pair.Key)
		assert.Equal(t, pair.Value, got, pair.Key)
	}
}

func TestColorPair_String(t *testing.T) {
	assert.Equal(t, "white/black", ColorPair{Foreground: "white", Background: "black"}.String())
	assert.Equal(t, "white", ColorPair{Foreground: "white"}.String())
}
