package compose

import (
	"bytes"
	"fmt"
	"text/template"
)

// DefaultPrompt asks for a structured, natural blog post of 1000-1500
// characters. The template receives .Title.
const DefaultPrompt = `다음 제목으로 블로그 포스트의 본문을 작성해주세요.

제목: {{.Title}}

요구사항:
1. 서론-본론-결론 구조로 작성
2. 독자에게 유용한 정보 제공
3. 자연스럽고 읽기 쉬운 문체 사용
4. 적절한 길이 (1000-1500자 정도)
5. 실용적이고 구체적인 내용 포함

블로그 본문만 작성해주세요:`

// Prompt renders the generation prompt for a title.
type Prompt struct {
	tmpl *template.Template
}

// NewPrompt parses a prompt template. An empty text uses DefaultPrompt.
func NewPrompt(text string) (*Prompt, error) {
	if text == "" {
		text = DefaultPrompt
	}
	t, err := template.New("prompt").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("compose: parse prompt: %w", err)
	}
	return &Prompt{tmpl: t}, nil
}

// Render returns the prompt for title.
func (p *Prompt) Render(title string) (string, error) {
	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, struct{ Title string }{title}); err != nil {
		return "", fmt.Errorf("compose: render prompt: %w", err)
	}
	return buf.String(), nil
}
