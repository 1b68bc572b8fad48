package models

import (
	"regexp"
	"strings"
)

const maxHashtagLength = 100

var hashtagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

// ExtractHashtags 从文案中提取话题标签：转小写、去重，保持首次出现的顺序
func ExtractHashtags(caption string) []string {
	matches := hashtagPattern.FindAllStringSubmatch(caption, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tag := strings.ToLower(m[1])
		if len([]rune(tag)) > maxHashtagLength {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// NormalizeHashtag 处理查询参数中的标签，允许带#前缀
func NormalizeHashtag(tag string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
}
