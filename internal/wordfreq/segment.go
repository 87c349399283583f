package wordfreq

// StopWords are common function words excluded from the report.
var StopWords = map[string]bool{}

func init() {
	for _, w := range []string{
		"的", "了", "在", "是", "我", "有", "和", "就", "不", "人", "都", "一", "一个",
		"上", "也", "很", "到", "说", "要", "去", "你", "会", "着", "没有", "看", "好",
		"自己", "这", "那", "里", "后", "什么", "这个", "怎么", "可以", "没", "能",
		"而且", "但是", "因为", "所以", "如果", "虽然", "然后", "或者", "比较", "非常",
		"已经", "还是", "应该", "可能", "需要", "通过", "进行", "实现", "提供", "使用",
		"包括", "主要", "基本", "一般", "特别", "尤其", "例如", "比如", "这样", "那样",
	} {
		StopWords[w] = true
	}
}

// isHan reports whether r is in the CJK Unified Ideographs block.
func isHan(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FFF
}

// Segment splits text into overlapping two-character terms drawn from runs
// of Han characters. Everything else separates runs. Stop words are
// dropped.
func Segment(text string) []string {
	words := []string{}
	var run []rune
	flush := func() {
		for i := 0; i+1 < len(run); i++ {
			w := string(run[i : i+2])
			if !StopWords[w] {
				words = append(words, w)
			}
		}
		run = run[:0]
	}
	for _, r := range text {
		if isHan(r) {
			run = append(run, r)
			continue
		}
		flush()
	}
	flush()
	return words
}
