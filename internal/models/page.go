package models

// Page link window used by IterPages.
const (
	leftEdge     = 1
	leftCurrent  = 1
	rightCurrent = 2
	rightEdge    = 1
)

// Page is one 1-indexed slice of posts ordered newest first.
type Page struct {
	Items   []Post `json:"items"`
	Number  int    `json:"page"`
	PerPage int    `json:"per_page"`
	Total   int    `json:"total"`
}

// Pages is the number of pages needed to hold Total items.
func (p *Page) Pages() int {
	if p.PerPage < 1 || p.Total == 0 {
		return 0
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

func (p *Page) HasPrev() bool { return p.Number > 1 }
func (p *Page) HasNext() bool { return p.Number < p.Pages() }
func (p *Page) PrevNum() int  { return p.Number - 1 }
func (p *Page) NextNum() int  { return p.Number + 1 }

// IterPages returns the page numbers to link to. A zero marks a gap that
// the template renders as an ellipsis.
func (p *Page) IterPages() []int {
	pages := p.Pages()
	var out []int
	last := 0
	for num := 1; num <= pages; num++ {
		if num <= leftEdge ||
			(num > p.Number-leftCurrent-1 && num < p.Number+rightCurrent) ||
			num > pages-rightEdge {
			if last+1 != num {
				out = append(out, 0)
			}
			out = append(out, num)
			last = num
		}
	}
	return out
}
