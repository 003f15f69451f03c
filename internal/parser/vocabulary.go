package parser

// labelVocabulary is the controlled set of quality/variant labels that may be
// attached to a link (spec.md §4.3). It is data, not code (spec.md §9), kept
// as an explicit table so tests can assert against it directly. Ported
// verbatim from original_source/app/core/monitor.py's valid_labels set.
var labelVocabulary = []string{
	"普码", "高码", "主链", "备用", "4K", "HDR", "SDR", "1080P",
	"4K 120FPS", "4K HDR", "4K HQ", "4K EDR", "4K DV", "4K SDR", "4K 60FPS",
	"4K HQ 高码率", "前 42 集", "ATVP", "1080P 5.96G", "4K HDR 60FPS",
	"4K 5.96G", "4K 14.9GB", "4K 8.5GB", "4K 24.1GB", "4K HDR&DV",
	"大包", "大包2", "大包3", "大包4", "大包5",
	"1号文件夹", "2号文件夹", "3号文件夹", "4号文件夹", "5号文件夹",
	"备用链", "备用链接", "普码版", "高码版", "标准版", "高清版",
	"4K版", "1080P版", "HDR版", "杜比版", "完整版", "精简版",
	"导演版", "加长版", "国语版", "粤语版", "英语版", "多语版",
	"无删减", "剧场版", "特别版", "典藏版", "豪华版",
}

// netdiskShortNames is the stripping list used to purify the final
// description of bare provider short-names (spec.md §4.3 Finalization).
var netdiskShortNames = []string{"夸克", "迅雷", "百度", "UC", "阿里", "天翼", "115", "123云盘"}
