package mood

import "strings"

// Label 表示用于调整回复幽默风格的情绪标签。
type Label string

const (
	Neutral Label = "neutral"
	Happy   Label = "happy"
	Sad     Label = "sad"
)

// rule 将一组关键词映射到情绪标签。
type rule struct {
	label    Label
	keywords []string
}

// rules 按优先级排列，第一条命中的规则生效。sad 必须排在 happy 之前。
var rules = []rule{
	{label: Sad, keywords: []string{"sad", "tired", "stress"}},
	{label: Happy, keywords: []string{"happy", "great", "excited"}},
}

var humorByLabel = map[Label]string{
	Happy:   "light jokes",
	Sad:     "encouragement",
	Neutral: "normal advice",
}

// Classify 根据关键词推断文本情绪，未命中任何关键词时返回 Neutral。
// strings.ToLower 按 Unicode 简单映射小写，"İ" 会变成 "i"，因此 "TİRED" 也会命中 sad。
func Classify(text string) Label {
	normalized := strings.ToLower(text)
	if normalized == "" {
		return Neutral
	}

	for _, r := range rules {
		for _, word := range r.keywords {
			if strings.Contains(normalized, word) {
				return r.label
			}
		}
	}
	return Neutral
}

// Parse 解析外部返回的标签字符串。
func Parse(raw string) (Label, bool) {
	switch Label(strings.ToLower(strings.TrimSpace(raw))) {
	case Happy:
		return Happy, true
	case Sad:
		return Sad, true
	case Neutral:
		return Neutral, true
	default:
		return "", false
	}
}

// Humor 返回该情绪对应的幽默语气，用于拼接提示词。
func (l Label) Humor() string {
	if humor, ok := humorByLabel[l]; ok {
		return humor
	}
	return humorByLabel[Neutral]
}

// Keywords 返回某个标签的关键词副本，标签没有关键词时返回 nil。
func Keywords(l Label) []string {
	for _, r := range rules {
		if r.label == l {
			return append([]string(nil), r.keywords...)
		}
	}
	return nil
}
