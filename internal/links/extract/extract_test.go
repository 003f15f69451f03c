package extract

import (
	"reflect"
	"testing"
)

func TestExtractOrderAndDedup(t *testing.T) {
	meta := Metadata{
		Entities: []TextEntity{
			{URL: "https://pan.quark.cn/s/abc"},
			{IsBareURL: true, Substring: "https://pan.quark.cn/s/abc"},
		},
		ButtonRows: [][]Button{{{URL: "https://pan.baidu.com/s/xyz"}}},
		PreviewURL: "https://example.com/preview",
	}
	text := "主链：https://pan.quark.cn/s/abc\n备用 pan.baidu.com/s/xyz"

	got := Extract(text, meta)
	want := []string{
		"https://pan.quark.cn/s/abc",
		"https://pan.baidu.com/s/xyz",
		"https://example.com/preview",
		"pan.baidu.com/s/xyz",
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract() = %#v, want %#v", got, want)
	}
}

func TestExtractPercentDecodeOnce(t *testing.T) {
	got := Extract("https://pan.quark.cn/s/abc%20def", Metadata{})
	if len(got) != 1 || got[0] != "https://pan.quark.cn/s/abc def" {
		t.Errorf("Extract() = %#v, want single decoded URL", got)
	}
}
