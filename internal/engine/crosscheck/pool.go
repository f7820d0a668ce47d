// # internal/engine/crosscheck/pool.go
package crosscheck

import (
	"sync"
	"sync/atomic"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// parserPool recycles tree-sitter parsers for one grammar.
//
//	sp := pool.get()
//	defer pool.put(sp)
//	tree := sp.Parse(source, nil)
//
// Safe for use by multiple goroutines.
type parserPool struct {
	lang   *sitter.Language
	pool   sync.Pool
	leased atomic.Int64
}

func newParserPool(lang *sitter.Language) *parserPool {
	p := &parserPool{lang: lang}
	p.pool = sync.Pool{
		New: func() any {
			sp := sitter.NewParser()
			sp.SetLanguage(lang)
			return sp
		},
	}
	return p
}

func (p *parserPool) get() *sitter.Parser {
	sp := p.pool.Get().(*sitter.Parser)
	sp.SetLanguage(p.lang)
	p.leased.Add(1)
	return sp
}

// put resets sp so that it keeps no reference to the previous tree.
func (p *parserPool) put(sp *sitter.Parser) {
	if sp == nil {
		return
	}
	p.leased.Add(-1)
	sp.Reset()
	p.pool.Put(sp)
}

// active returns the number of parsers currently leased.
func (p *parserPool) active() int {
	return int(p.leased.Load())
}
