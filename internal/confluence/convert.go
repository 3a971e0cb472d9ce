package confluence

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"k8s.io/klog/v2"
)

var (
	fencedCodePattern = regexp.MustCompile(`(?s)<pre><code class="language-(\w+)">(.+?)</code></pre>`)
	plainCodePattern  = regexp.MustCompile(`(?s)<pre><code>(.+?)</code></pre>`)
	relativeImgPattern = regexp.MustCompile(`<img src="([^h][^"]*)" alt="([^"]*)"`)
)

// Section 页面中的一个段落，标题加已转换的正文
type Section struct {
	Title   string
	Content string
}

// Converter 把 Markdown 转成 Confluence storage 格式
type Converter struct {
	md goldmark.Markdown
}

func NewConverter() *Converter {
	return &Converter{
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Convert Markdown 先转 HTML，再替换成 Confluence 宏
func (c *Converter) Convert(markdown string) string {
	var buf bytes.Buffer
	if err := c.md.Convert([]byte(markdown), &buf); err != nil {
		klog.Errorf("Markdown 转换失败: %v", err)
		return fmt.Sprintf("<p>Error converting markdown: %s</p>", html.EscapeString(err.Error()))
	}
	return c.adjustForStorageFormat(buf.String())
}

// 代码块换成 code 宏，相对路径图片换成附件引用
func (c *Converter) adjustForStorageFormat(htmlContent string) string {
	htmlContent = fencedCodePattern.ReplaceAllStringFunc(htmlContent, func(match string) string {
		m := fencedCodePattern.FindStringSubmatch(match)
		return fmt.Sprintf(`<ac:structured-macro ac:name="code"><ac:parameter ac:name="language">%s</ac:parameter><ac:plain-text-body><![CDATA[%s]]></ac:plain-text-body></ac:structured-macro>`,
			m[1], cdataBody(m[2]))
	})
	htmlContent = plainCodePattern.ReplaceAllStringFunc(htmlContent, func(match string) string {
		m := plainCodePattern.FindStringSubmatch(match)
		return fmt.Sprintf(`<ac:structured-macro ac:name="code"><ac:plain-text-body><![CDATA[%s]]></ac:plain-text-body></ac:structured-macro>`,
			cdataBody(m[1]))
	})
	htmlContent = relativeImgPattern.ReplaceAllString(htmlContent,
		`<ac:image><ri:attachment ri:filename="${1}" /><ac:alt-text>${2}</ac:alt-text></ac:image>`)
	return htmlContent
}

// goldmark 输出的代码块内容是 HTML 转义过的，进 CDATA 前要还原，
// 且 CDATA 正文不能出现 ]]> 终结符
func cdataBody(escaped string) string {
	code := html.UnescapeString(escaped)
	return strings.ReplaceAll(code, "]]>", "]]]]><![CDATA[>")
}

// PageWithTOC 组装带目录宏的完整页面
func (c *Converter) PageWithTOC(title string, sections []Section) string {
	parts := []string{
		fmt.Sprintf("<h1>%s</h1>", html.EscapeString(title)),
		`<ac:structured-macro ac:name="toc" />`,
	}

	for _, section := range sections {
		parts = append(parts, fmt.Sprintf("<h2>%s</h2>", html.EscapeString(section.Title)))
		content := strings.TrimSpace(section.Content)
		if strings.HasPrefix(content, "<") {
			parts = append(parts, section.Content)
		} else {
			parts = append(parts, c.Convert(section.Content))
		}
	}

	return strings.Join(parts, "\n")
}
