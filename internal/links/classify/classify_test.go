package classify

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://pan.quark.cn/s/abc", "夸克网盘"},
		{"https://www.aliyundrive.com/s/abc", "阿里云盘"},
		{"https://pan.baidu.com/s/xyz?pwd=0000", "百度网盘"},
		{"https://115.com/s/abc", "115网盘"},
		{"https://cloud.189.cn/t/abc", "天翼云盘"},
		{"https://www.123pan.com/s/abc", "123云盘"},
		{"https://drive.uc.cn/s/abc", "UC网盘"},
		{"https://pan.xunlei.com/s/abc", "迅雷"},
		{"https://example.com/s/abc", Unknown},
		{"not a url at all", Unknown},
	}

	for _, c := range cases {
		if got := Classify(c.url); got != c.want {
			t.Errorf("Classify(%q) = %q, want %q", c.url, got, c.want)
		}
	}
}

func TestClassifyFirstRowWins(t *testing.T) {
	// "123" is a substring of many unrelated hosts; table order must be
	// preserved so entries earlier in the table win when both match.
	if got := Classify("https://quark123.example.com"); got != "夸克网盘" {
		t.Errorf("expected first matching row to win, got %q", got)
	}
}
