// doctree-bench is a throughput and latency benchmark for the document
// core: edit, search, and undo/redo operations against a large document.
package main

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"runtime"
	"time"

	"github.com/alecthomas/kong"

	"github.com/foldspan/doctree"
)

var cli struct {
	Size        int `help:"Document size in megabytes." default:"64" short:"s"`
	SmallEdits  int `help:"Number of small (100 byte) inserts to benchmark." default:"1000"`
	MediumEdits int `help:"Number of medium (10KB) inserts to benchmark." default:"100"`
	LargeEdits  int `help:"Number of large (1MB) inserts to benchmark." default:"10"`
	HistoryCap  int `help:"Undo history capacity." default:"1000"`
}

type benchResult struct {
	Name     string
	Duration time.Duration
	Ops      int
}

func (r benchResult) String() string {
	if r.Ops > 0 {
		opsPerSec := float64(r.Ops) / r.Duration.Seconds()
		return fmt.Sprintf("%-40s %12v  (%d ops, %.2f ops/sec)", r.Name, r.Duration.Round(time.Millisecond), r.Ops, opsPerSec)
	}
	return fmt.Sprintf("%-40s %12v", r.Name, r.Duration.Round(time.Millisecond))
}

func main() {
	kong.Parse(&cli, kong.Description("Benchmark and stress test for the doctree document core."))

	fmt.Println("doctree Benchmark and Stress Test")
	fmt.Println("==================================")
	fmt.Printf("Document size: %d MB\n", cli.Size)
	fmt.Printf("Go version: %s\n", runtime.Version())
	fmt.Printf("GOMAXPROCS: %d\n", runtime.GOMAXPROCS(0))
	fmt.Println()

	var results []benchResult
	run := func(name string, fn func() benchResult) {
		fmt.Printf("  %-40s ", name+"...")
		r := fn()
		fmt.Printf("%v\n", r.Duration.Round(time.Millisecond))
		results = append(results, r)
	}

	fmt.Println("Building document...")
	start := time.Now()
	text := generateText(cli.Size * 1024 * 1024)
	doc := doctree.NewDocFromText(cli.HistoryCap, string(text))
	buildResult := benchResult{Name: "Build document", Duration: time.Since(start)}
	results = append(results, buildResult)
	fmt.Println(buildResult)
	fmt.Printf("Document ready: %d bytes, %d lines\n\n", doc.Read().ByteCount(), doc.Read().LineCount()+1)

	fmt.Println("Edit operations:")
	run("Small inserts", func() benchResult { return benchInserts(doc, cli.SmallEdits, 100) })
	run("Medium inserts", func() benchResult { return benchInserts(doc, cli.MediumEdits, 10*1024) })
	run("Large inserts", func() benchResult { return benchInserts(doc, cli.LargeEdits, 1024*1024) })

	fmt.Println("\nSearch operations:")
	run("Search (find first)", func() benchResult { return benchSearch(doc) })
	run("Search all occurrences", func() benchResult { return benchSearchAll(doc) })

	fmt.Println("\nUndo/redo operations:")
	run("Undo/redo cycles", func() benchResult { return benchUndoRedo(doc) })

	fmt.Println("\nReplace operations:")
	run("ReplaceAll", func() benchResult { return benchReplaceAll(doc) })

	fmt.Println()
	fmt.Println("Summary:")
	fmt.Println("--------")
	for _, r := range results {
		fmt.Println(r)
	}
}

func generateText(n int) []byte {
	const lineLen = 79
	buf := make([]byte, 0, n)
	line := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 2)[:lineLen]
	for len(buf) < n {
		buf = append(buf, line...)
		buf = append(buf, '\n')
	}
	return buf[:n]
}

func randomPos(max int64) int64 {
	if max <= 0 {
		return 0
	}
	n, _ := rand.Int(rand.Reader, big.NewInt(max))
	return n.Int64()
}

func benchInserts(doc *doctree.Doc, count, size int) benchResult {
	payload := bytes.Repeat([]byte("x"), size)
	start := time.Now()
	for i := 0; i < count; i++ {
		pos := randomPos(doc.Read().ByteCount())
		if _, err := doc.Edit([]doctree.Edit{doctree.InsertText(pos, payload)}, nil); err != nil {
			fmt.Fprintf(os.Stderr, "insert error: %v\n", err)
			break
		}
	}
	return benchResult{Name: fmt.Sprintf("Inserts (%dB x %d)", size, count), Duration: time.Since(start), Ops: count}
}

func benchSearch(doc *doctree.Doc) benchResult {
	start := time.Now()
	const iterations = 50
	for i := 0; i < iterations; i++ {
		_, _, err := doc.Read().Search("fox", 0, doctree.SearchOptions{CaseSensitive: true})
		if err != nil {
			fmt.Fprintf(os.Stderr, "search error: %v\n", err)
			break
		}
	}
	return benchResult{Name: "Search first match", Duration: time.Since(start), Ops: iterations}
}

func benchSearchAll(doc *doctree.Doc) benchResult {
	start := time.Now()
	matches, err := doc.Read().SearchAll("fox", doctree.SearchOptions{CaseSensitive: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "searchAll error: %v\n", err)
		return benchResult{Name: "SearchAll", Duration: time.Since(start)}
	}
	return benchResult{Name: "SearchAll", Duration: time.Since(start), Ops: len(matches)}
}

func benchReplaceAll(doc *doctree.Doc) benchResult {
	start := time.Now()
	edits, err := doc.Read().ReplaceAll("dog", "cat", doctree.SearchOptions{CaseSensitive: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "replaceAll error: %v\n", err)
		return benchResult{Name: "ReplaceAll", Duration: time.Since(start)}
	}
	if len(edits) > 0 {
		if _, err := doc.Edit(edits, nil); err != nil {
			fmt.Fprintf(os.Stderr, "replaceAll apply error: %v\n", err)
		}
	}
	return benchResult{Name: "ReplaceAll", Duration: time.Since(start), Ops: len(edits)}
}

func benchUndoRedo(doc *doctree.Doc) benchResult {
	const cycles = 50
	start := time.Now()
	for i := 0; i < cycles; i++ {
		pos := randomPos(doc.Read().ByteCount())
		if _, err := doc.Edit([]doctree.Edit{doctree.InsertText(pos, []byte("z"))}, nil); err != nil {
			fmt.Fprintf(os.Stderr, "edit error: %v\n", err)
			break
		}
		if _, err := doc.Undo(); err != nil {
			fmt.Fprintf(os.Stderr, "undo error: %v\n", err)
			break
		}
		if _, err := doc.Redo(); err != nil {
			fmt.Fprintf(os.Stderr, "redo error: %v\n", err)
			break
		}
		if _, err := doc.Undo(); err != nil {
			fmt.Fprintf(os.Stderr, "undo error: %v\n", err)
			break
		}
	}
	return benchResult{Name: "Undo/redo cycles", Duration: time.Since(start), Ops: cycles}
}
