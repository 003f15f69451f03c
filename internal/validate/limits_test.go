package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lueurxax/netdisk-aggregator/internal/links/classify"
)

func TestLimitForMatchesClassifierTags(t *testing.T) {
	urls := map[string]string{
		"https://pan.quark.cn/s/abc":      "夸克网盘",
		"https://www.aliyundrive.com/s/x": "阿里云盘",
		"https://pan.baidu.com/s/xyz":     "百度网盘",
		"https://115.com/s/x":             "115网盘",
		"https://cloud.189.cn/t/x":        "天翼云盘",
		"https://www.123pan.com/s/x":      "123云盘",
		"https://drive.uc.cn/s/x":         "UC网盘",
		"https://pan.xunlei.com/s/x":      "迅雷",
		"https://example.com/s/x":         "unknown",
	}

	for u, wantTag := range urls {
		tag := classify.Classify(u)
		require.Equal(t, wantTag, tag, "classify(%s)", u)

		// Every classifier tag must have its own entry in the limits table;
		// only "unknown" is allowed to fall back to the unknown entry.
		_, explicit := limits[tag]
		require.True(t, explicit, "provider %q has no explicit limits entry and would silently fall back to unknown", tag)
	}

	xunlei := limitFor("迅雷")
	require.Equal(t, 3, xunlei.MaxConcurrent)
	require.Equal(t, 1000*time.Millisecond, xunlei.DelayMin)
	require.Equal(t, 2000*time.Millisecond, xunlei.DelayMax)
}

func TestLimitForFallsBackToUnknown(t *testing.T) {
	got := limitFor("not-a-real-provider")
	require.Equal(t, limits["unknown"], got)
}

func TestEffectiveConcurrency(t *testing.T) {
	// Task-requested cap below the provider cap wins.
	require.Equal(t, 2, effectiveConcurrency("夸克网盘", 2, false))

	// No task cap: provider cap wins.
	require.Equal(t, 5, effectiveConcurrency("夸克网盘", 0, false))

	// Full-history additionally caps every provider at 3.
	require.Equal(t, 3, effectiveConcurrency("夸克网盘", 0, true))
	require.Equal(t, 2, effectiveConcurrency("115网盘", 0, true))
}

func TestCheckSafetyLimits(t *testing.T) {
	require.True(t, CheckSafetyLimits(1000, 10))
	require.False(t, CheckSafetyLimits(1001, 10), "url count above 1000 must be rejected")
	require.False(t, CheckSafetyLimits(100, 11), "concurrency above 10 must be rejected")
}
