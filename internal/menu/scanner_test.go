package menu

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanText_FlatEntries(t *testing.T) {
	choices := ScanText(`menuentry 'Ubuntu' {
	linux /vmlinuz
}
menuentry 'Memory test' {
}
menuentry 'Firmware setup' {
}
`)
	require.Len(t, choices, 3)
	assert.Equal(t, "0", choices[0].ID)
	assert.Equal(t, "1", choices[1].ID)
	assert.Equal(t, "2", choices[2].ID)
	assert.Equal(t, "Ubuntu", choices[0].Title)
	assert.Equal(t, "Memory test", choices[1].Title)
}

func TestScanText_Submenu(t *testing.T) {
	choices := ScanText(`submenu 'Advanced options' {
	menuentry 'Kernel A' {
	}
	menuentry 'Kernel B' {
	}
}
menuentry 'Recovery' {
}
`)
	require.Len(t, choices, 3)
	assert.Equal(t, "0>0", choices[0].ID)
	assert.Equal(t, "0>1", choices[1].ID)
	assert.Equal(t, "1", choices[2].ID)
	assert.Equal(t, "Advanced options > Kernel A", choices[0].Title)
	assert.Equal(t, "Advanced options > Kernel B", choices[1].Title)
	assert.Equal(t, "Recovery", choices[2].Title)
}

func TestScanText_DeepNesting(t *testing.T) {
	choices := ScanText(`submenu 'One' {
	submenu 'Two' {
		submenu 'Three' {
			menuentry 'Deep' {
			}
		}
	}
}
menuentry 'Top' {
}
`)
	require.Len(t, choices, 2)
	assert.Equal(t, "0>0>0>0", choices[0].ID)
	assert.Equal(t, "One > Two > Three > Deep", choices[0].Title)
	assert.Equal(t, "1", choices[1].ID)

	// Two submenu levels give an id with exactly two separators.
	two := ScanText(`submenu 'A' {
	submenu 'B' {
		menuentry 'X' {
		}
	}
}
`)
	require.Len(t, two, 1)
	assert.Equal(t, "0>0>0", two[0].ID)
}

func TestScanText_EmptySubmenu(t *testing.T) {
	choices := ScanText(`submenu 'Empty' {
}
menuentry 'After' {
}
`)
	require.Len(t, choices, 1)
	// The empty submenu still consumed sibling index 0 at the top level.
	assert.Equal(t, "1", choices[0].ID)
	assert.Equal(t, "After", choices[0].Title)
}

func TestScanText_SectionAttribution(t *testing.T) {
	choices := ScanText(`menuentry 'Before any section' {
}
### BEGIN /etc/grub.d/10_linux ###
menuentry 'Linux' {
}
### END /etc/grub.d/10_linux ###
### BEGIN /etc/grub.d/30_os-prober ###
menuentry 'Other OS' {
}
`)
	require.Len(t, choices, 3)
	assert.Equal(t, "unknown", choices[0].Source)
	assert.Equal(t, "/etc/grub.d/10_linux", choices[1].Source)
	assert.Equal(t, "/etc/grub.d/30_os-prober", choices[2].Source)
}

func TestScanText_DeclaredIDs(t *testing.T) {
	choices := ScanText(`menuentry 'Flag' --class os --id gnulinux-simple {
}
menuentry 'FlagEquals' --id=custom-id {
}
menuentry 'FlagQuoted' --id 'quoted-id' {
}
menuentry 'Dynamic' $menuentry_id_option 'gnulinux-advanced-uuid' {
}
menuentry 'Both' --id explicit $menuentry_id_option 'dynamic' {
}
menuentry 'None' {
}
`)
	require.Len(t, choices, 6)
	assert.Equal(t, "gnulinux-simple", choices[0].EntryID)
	assert.Equal(t, "custom-id", choices[1].EntryID)
	assert.Equal(t, "quoted-id", choices[2].EntryID)
	assert.Equal(t, "gnulinux-advanced-uuid", choices[3].EntryID)
	// The explicit flag wins over the substitution pattern.
	assert.Equal(t, "explicit", choices[4].EntryID)
	assert.Empty(t, choices[5].EntryID)
}

func TestScanText_IDFlagInTitleIgnored(t *testing.T) {
	choices := ScanText(`menuentry 'Notes on --id foo usage' {
}
menuentry 'About --id bar' --id real-id {
}
`)
	require.Len(t, choices, 2)
	assert.Equal(t, "Notes on --id foo usage", choices[0].Title)
	assert.Empty(t, choices[0].EntryID)
	// Only flags after the title count.
	assert.Equal(t, "real-id", choices[1].EntryID)
}

func TestScanText_DoubleQuotedTitles(t *testing.T) {
	choices := ScanText(`menuentry "Double quoted" {
}
submenu "Sub" {
	menuentry "Inner" {
	}
}
`)
	require.Len(t, choices, 2)
	assert.Equal(t, "Double quoted", choices[0].Title)
	assert.Equal(t, "Sub > Inner", choices[1].Title)
}

func TestScanText_BraceOnFollowingLine(t *testing.T) {
	// Declarations without a brace on their own line must not crash; the
	// scope simply closes when a later line's braces bring the depth down.
	choices := ScanText(`menuentry 'No brace here'
{
	linux /vmlinuz
}
menuentry 'Next' {
}
`)
	require.Len(t, choices, 2)
	assert.Equal(t, "0", choices[0].ID)
	assert.Equal(t, "1", choices[1].ID)
}

func TestScanText_UnrelatedBracesCounted(t *testing.T) {
	choices := ScanText(`if [ "${grub_platform}" = "efi" ]; then
	fwsetup
fi
function gfx_setup {
	set gfxpayload=keep
}
submenu 'Advanced' {
	menuentry 'A' {
	}
}
menuentry 'B' {
}
`)
	require.Len(t, choices, 2)
	assert.Equal(t, "0>0", choices[0].ID)
	assert.Equal(t, "Advanced > A", choices[0].Title)
	assert.Equal(t, "B", choices[1].Title)
	assert.Equal(t, "1", choices[1].ID)
}

func TestScanText_LeadingWhitespaceTolerated(t *testing.T) {
	choices := ScanText("   menuentry 'Indented' {\n}\n")
	require.Len(t, choices, 1)
	assert.Equal(t, "Indented", choices[0].Title)
}

func TestScanText_Empty(t *testing.T) {
	assert.Empty(t, ScanText(""))
	assert.Empty(t, ScanText("# just a comment\nset default=0\n"))
}

func TestScan_FirstCandidateWithEntries(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.cfg")
	full := filepath.Join(dir, "full.cfg")
	require.NoError(t, os.WriteFile(empty, []byte("set default=0\n"), 0o644))
	require.NoError(t, os.WriteFile(full, []byte("menuentry 'X' {\n}\n"), 0o644))

	choices, used := Scan([]string{filepath.Join(dir, "missing.cfg"), empty, full})
	require.Len(t, choices, 1)
	assert.Equal(t, full, used)
}

func TestScan_ReadableButEmpty(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.cfg")
	require.NoError(t, os.WriteFile(empty, []byte("set default=0\n"), 0o644))

	choices, used := Scan([]string{empty, filepath.Join(dir, "missing.cfg")})
	assert.Empty(t, choices)
	// The first readable candidate is reported even when it held nothing.
	assert.Equal(t, empty, used)
}

func TestScan_NothingReadable(t *testing.T) {
	dir := t.TempDir()
	choices, used := Scan([]string{filepath.Join(dir, "a.cfg"), filepath.Join(dir, "b.cfg")})
	assert.Empty(t, choices)
	assert.Empty(t, used)
}

func TestScan_DuplicateCandidatesTriedOnce(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "grub.cfg")
	require.NoError(t, os.WriteFile(cfg, []byte("menuentry 'X' {\n}\n"), 0o644))

	choices, used := Scan([]string{cfg, cfg, cfg})
	require.Len(t, choices, 1)
	assert.Equal(t, cfg, used)
}
