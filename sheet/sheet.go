// Package sheet reads and writes the posting workbook: column A holds
// titles, column B bodies, and an optional first row labels the columns.
package sheet

import (
	"errors"
	"fmt"
	"strings"

	"baliance.com/gooxml/spreadsheet"
)

// Column letters of the posting layout.
const (
	TitleColumn = "A"
	BodyColumn  = "B"
)

// ErrNoRow is returned for a row number outside the posting rows.
var ErrNoRow = errors.New("sheet: no such row")

// Options names the header labels.
type Options struct {
	HeaderTitle string // default: 제목
	HeaderBody  string // default: 본문
}

func (o *Options) defaults() {
	if o.HeaderTitle == "" {
		o.HeaderTitle = "제목"
	}
	if o.HeaderBody == "" {
		o.HeaderBody = "본문"
	}
}

// Post is one posting row. Number is the 1-based spreadsheet row.
type Post struct {
	Number int    `json:"row"`
	Title  string `json:"title"`
	Body   string `json:"body,omitempty"`
}

// Book is an open posting workbook.
type Book struct {
	wb     *spreadsheet.Workbook
	sheet  spreadsheet.Sheet
	posts  []Post
	header bool
}

// Read opens the workbook at path and loads the posts of its first sheet.
// A first row whose title cell equals the header label is skipped, as are
// rows with a blank title.
func Read(path string, opts Options) (*Book, error) {
	opts.defaults()

	wb, err := spreadsheet.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sheet: open %s: %w", path, err)
	}
	sheets := wb.Sheets()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("sheet: %s has no sheets", path)
	}

	b := &Book{wb: wb, sheet: sheets[0]}
	for i, row := range b.sheet.Rows() {
		title := strings.TrimSpace(row.Cell(TitleColumn).GetString())
		if i == 0 && title == opts.HeaderTitle {
			b.header = true
			continue
		}
		if title == "" {
			continue
		}
		b.posts = append(b.posts, Post{
			Number: int(row.RowNumber()),
			Title:  title,
			Body:   strings.TrimSpace(row.Cell(BodyColumn).GetString()),
		})
	}
	return b, nil
}

// Posts returns every posting row in sheet order.
func (b *Book) Posts() []Post {
	out := make([]Post, len(b.posts))
	copy(out, b.posts)
	return out
}

// Pending returns the rows that have a title and no body yet.
func (b *Book) Pending() []Post {
	var out []Post
	for _, p := range b.posts {
		if p.Body == "" {
			out = append(out, p)
		}
	}
	return out
}

// Post returns the row numbered n.
func (b *Book) Post(n int) (Post, error) {
	for _, p := range b.posts {
		if p.Number == n {
			return p, nil
		}
	}
	return Post{}, fmt.Errorf("%w: %d", ErrNoRow, n)
}

// HasHeader reports whether the first row was a header.
func (b *Book) HasHeader() bool { return b.header }

// SetBody writes body into row n.
func (b *Book) SetBody(n int, body string) error {
	for i := range b.posts {
		if b.posts[i].Number != n {
			continue
		}
		b.sheet.Row(uint32(n)).Cell(BodyColumn).SetString(body)
		b.posts[i].Body = body
		return nil
	}
	return fmt.Errorf("%w: %d", ErrNoRow, n)
}

// Save writes the workbook to path.
func (b *Book) Save(path string) error {
	if err := b.wb.SaveToFile(path); err != nil {
		return fmt.Errorf("sheet: save %s: %w", path, err)
	}
	return nil
}

// SampleTitles are the titles Seed writes when none are given.
var SampleTitles = []string{
	"2024년 최신 부업 추천 - 집에서 월 100만원 벌기",
	"다이어트 성공 후기 - 3개월 만에 10kg 감량한 비법",
	"ChatGPT 활용법 완벽 가이드 - 업무 효율 200% 향상",
	"부동산 투자 초보자를 위한 완벽 가이드",
	"코딩 독학 로드맵 - 6개월 만에 개발자 되기",
}

// Seed creates a posting workbook at path with a header row and one row
// per title, bodies left empty.
func Seed(path string, titles []string, opts Options) error {
	opts.defaults()
	if len(titles) == 0 {
		titles = SampleTitles
	}

	wb := spreadsheet.New()
	s := wb.AddSheet()
	s.SetName("posting")

	header := s.AddRow()
	header.AddCell().SetString(opts.HeaderTitle)
	header.AddCell().SetString(opts.HeaderBody)

	for _, t := range titles {
		row := s.AddRow()
		row.AddCell().SetString(t)
		row.AddCell().SetString("")
	}

	if err := wb.Validate(); err != nil {
		return fmt.Errorf("sheet: seed: %w", err)
	}
	if err := wb.SaveToFile(path); err != nil {
		return fmt.Errorf("sheet: save %s: %w", path, err)
	}
	return nil
}
