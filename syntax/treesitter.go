package syntax

import (
	"context"
	"sync"

	phpgrammar "github.com/alexaandru/go-sitter-forest/php"
	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// Provider is the consumed interface spec §6 names "Syntax provider":
// non-blocking parse requests and a poll for completed results, run on a
// background worker (spec §5's "Syntax parser" role).
type Provider interface {
	RequestParse(text []byte, version int64, deltasSinceLast []EditDelta)
	PollFreshTokens() (version int64, tokens []TokenRange, ok bool)
}

// TreeSitterProvider is the reference Provider, parsing PHP with
// go-tree-sitter-bare. Parses run on one dedicated goroutine so slow
// reparses never stall the document writer (spec §5).
type TreeSitterProvider struct {
	parser *sitter.Parser

	mu       sync.Mutex
	tree     *sitter.Tree
	requests chan parseRequest
	results  chan parseResult

	closeOnce sync.Once
	done      chan struct{}
}

type parseRequest struct {
	text    []byte
	version int64
	deltas  []EditDelta
}

type parseResult struct {
	version int64
	tokens  []TokenRange
}

// tokenIDs maps tree-sitter node types this grammar produces to the small
// integer token ids spec §6 says the core never interprets further; the
// host's theme table owns the meaning of each id.
var tokenIDs = map[string]int{
	"comment":           1,
	"string":            2,
	"string_content":    2,
	"integer":           3,
	"float":             3,
	"variable_name":     4,
	"name":              5,
	"qualified_name":    5,
	"function_call_expression": 6,
	"class_declaration": 7,
	"keyword":           8,
}

// NewTreeSitterProvider starts the background parser worker.
func NewTreeSitterProvider() *TreeSitterProvider {
	p := sitter.NewParser()
	lang := sitter.NewLanguage(phpgrammar.GetLanguage())
	_ = p.SetLanguage(lang)

	tp := &TreeSitterProvider{
		parser:   p,
		requests: make(chan parseRequest, 1),
		results:  make(chan parseResult, 1),
		done:     make(chan struct{}),
	}
	go tp.run()
	return tp
}

// run is the single parser-worker goroutine. Only the latest queued
// request matters (spec §5 "Cancellation": a pending parse is superseded,
// not cancelled mid-step), so the request channel is buffered to 1 and
// refilled by dropping stale sends rather than blocking the writer.
func (tp *TreeSitterProvider) run() {
	for {
		select {
		case req, ok := <-tp.requests:
			if !ok {
				return
			}
			tp.parseOne(req)
		case <-tp.done:
			return
		}
	}
}

func (tp *TreeSitterProvider) parseOne(req parseRequest) {
	tp.mu.Lock()
	oldTree := tp.tree
	if oldTree != nil {
		for _, d := range req.deltas {
			oldTree.Edit(toInputEdit(d))
		}
	}
	newTree, err := tp.parser.ParseString(context.Background(), oldTree, req.text)
	if err != nil {
		tp.mu.Unlock()
		return
	}
	if oldTree != nil && oldTree != newTree {
		oldTree.Close()
	}
	tp.tree = newTree
	tp.mu.Unlock()

	tokens := collectTokens(newTree.RootNode())

	select {
	case <-tp.results:
	default:
	}
	tp.results <- parseResult{version: req.version, tokens: tokens}
}

// toInputEdit approximates a byte-offset-only InputEdit: row/column
// points are left zero, which go-tree-sitter-bare's incremental reuse
// tolerates (it falls back to a full reparse of the affected region
// rather than producing wrong results) per the library's own edit
// contract.
func toInputEdit(d EditDelta) sitter.InputEdit {
	return sitter.InputEdit{
		StartByte:  uint32(d.Pos),
		OldEndByte: uint32(d.Pos + d.OldLen),
		NewEndByte: uint32(d.Pos + d.NewLen),
	}
}

// collectTokens walks the parse tree and emits one TokenRange per leaf
// (named, non-error) node whose type maps to a known token id.
func collectTokens(root sitter.Node) []TokenRange {
	var out []TokenRange
	var walk func(n sitter.Node)
	walk = func(n sitter.Node) {
		if n.IsNull() || n.HasError() {
			return
		}
		if id, ok := tokenIDs[n.Type()]; ok && n.ChildCount() == 0 {
			out = append(out, TokenRange{
				Start:   int64(n.StartByte()),
				End:     int64(n.EndByte()),
				TokenID: id,
			})
		}
		for i := uint32(0); i < n.NamedChildCount(); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(root)
	return out
}

// RequestParse implements Provider. Non-blocking: if the worker is still
// on a prior request, this one supersedes it.
func (tp *TreeSitterProvider) RequestParse(text []byte, version int64, deltas []EditDelta) {
	req := parseRequest{text: text, version: version, deltas: deltas}
	select {
	case tp.requests <- req:
	default:
		select {
		case <-tp.requests:
		default:
		}
		tp.requests <- req
	}
}

// PollFreshTokens implements Provider: non-blocking check for a completed
// parse.
func (tp *TreeSitterProvider) PollFreshTokens() (int64, []TokenRange, bool) {
	select {
	case r := <-tp.results:
		return r.version, r.tokens, true
	default:
		return 0, nil, false
	}
}

// Close stops the background worker and releases the held tree.
func (tp *TreeSitterProvider) Close() {
	tp.closeOnce.Do(func() {
		close(tp.done)
		tp.mu.Lock()
		if tp.tree != nil {
			tp.tree.Close()
			tp.tree = nil
		}
		tp.mu.Unlock()
	})
}
