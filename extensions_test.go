package realvk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtensionSetResolve(t *testing.T) {
	set := ExtensionSet{
		Required:  []string{"VK_KHR_surface", "VK_KHR_xcb_surface"},
		Wanted:    []string{"VK_EXT_debug_report", "VK_KHR_wayland_surface"},
		Available: []string{"VK_KHR_surface\x00", "VK_KHR_xcb_surface\x00", "VK_EXT_debug_report\x00"},
	}
	assert.Empty(t, set.Missing())
	names, err := set.Resolve()
	require.NoError(t, err)
	assert.Equal(t, []string{"VK_KHR_surface\x00", "VK_KHR_xcb_surface\x00", "VK_EXT_debug_report\x00"}, names)
}

func TestExtensionSetMissingRequired(t *testing.T) {
	set := deviceExtensionSet([]string{"VK_KHR_maintenance1"})
	assert.Equal(t, []string{swapchainExtension}, set.Missing())
	_, err := set.Resolve()
	assert.Error(t, err)
}

func TestInstanceExtensionSet(t *testing.T) {
	set := instanceExtensionSet([]string{"VK_KHR_surface", "VK_KHR_win32_surface"}, true, nil)
	assert.Equal(t, []string{surfaceExtension, "VK_KHR_win32_surface"}, set.Required)
	assert.Contains(t, set.Wanted, debugReportExtension)

	set = instanceExtensionSet(nil, false, nil)
	assert.NotContains(t, set.Wanted, debugReportExtension)
}
