package parser

import (
	"testing"

	"github.com/lueurxax/netdisk-aggregator/internal/links/extract"
)

func TestParseTitleAndLabeledLinks(t *testing.T) {
	text := "名称：示例剧\n主链：https://pan.quark.cn/s/abc\n备用：https://pan.baidu.com/s/xyz?pwd=0000\n#示例 #剧"

	r := Parse(text, extract.Metadata{})

	if r.Title != "示例剧" {
		t.Errorf("Title = %q, want 示例剧", r.Title)
	}

	wantTags := map[string]bool{"示例": true, "剧": true}
	if len(r.Tags) != 2 || !wantTags[r.Tags[0]] || !wantTags[r.Tags[1]] {
		t.Errorf("Tags = %v, want set {示例,剧}", r.Tags)
	}

	quark := r.Links["夸克网盘"]
	if len(quark) != 1 || quark[0].Label != "主链" || quark[0].URL != "https://pan.quark.cn/s/abc" {
		t.Errorf("夸克网盘 links = %+v", quark)
	}

	baidu := r.Links["百度网盘"]
	if len(baidu) != 1 || baidu[0].Label != "备用" || baidu[0].URL != "https://pan.baidu.com/s/xyz?pwd=0000" {
		t.Errorf("百度网盘 links = %+v", baidu)
	}

	types := r.NetdiskTypes()
	if len(types) != 2 {
		t.Fatalf("NetdiskTypes() = %v, want 2 entries", types)
	}
}

func TestParseNoClassifiedLinkYieldsEmptyLinks(t *testing.T) {
	r := Parse("just some text with https://example.com/a link", extract.Metadata{})
	if len(r.Links) != 0 {
		t.Errorf("Links = %v, want empty (unknown provider excluded)", r.Links)
	}
}

func TestParseFirstNonEmptyLineIsTitleWithoutMarker(t *testing.T) {
	r := Parse("Some Title Line\n主链：https://pan.quark.cn/s/abc", extract.Metadata{})
	if r.Title != "Some Title Line" {
		t.Errorf("Title = %q, want first non-empty line", r.Title)
	}
}
