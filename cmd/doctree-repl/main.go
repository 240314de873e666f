// doctree-repl is an interactive shell for exercising a Doc directly:
// edits, search/replace, and undo/redo, with a single caret tracked by the
// shell itself (the core treats caret state as opaque caller data).
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/foldspan/doctree"
)

// REPL holds the state of the interactive session.
type REPL struct {
	doc    *doctree.Doc
	caret  int64
	reader *bufio.Reader
}

func main() {
	fmt.Println("doctree REPL - Interactive Document Core Demo")
	fmt.Println("Type 'help' for available commands, 'quit' to exit")
	fmt.Println()

	repl := &REPL{
		doc:    doctree.NewDoc(0),
		reader: bufio.NewReader(os.Stdin),
	}

	for {
		fmt.Print("doctree> ")
		input, err := repl.reader.ReadString('\n')
		if err != nil {
			fmt.Println("\nGoodbye!")
			break
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if !repl.handleCommand(input) {
			break
		}
	}
}

func (r *REPL) handleCommand(input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help":
		r.printHelp()
	case "quit", "exit":
		fmt.Println("Goodbye!")
		return false
	case "new":
		r.cmdNew(args)
	case "status":
		r.cmdStatus()
	case "seek":
		r.cmdSeek(args)
	case "dump":
		r.cmdDump()
	case "insert":
		r.cmdInsert(args)
	case "delete":
		r.cmdDelete(args)
	case "replace":
		r.cmdReplaceRange(args)
	case "find":
		r.cmdFind(args)
	case "findall":
		r.cmdFindAll(args)
	case "replaceall":
		r.cmdReplaceAll(args)
	case "undo":
		r.cmdUndo()
	case "redo":
		r.cmdRedo()
	case "line":
		r.cmdLine(args)
	case "column":
		r.cmdColumn(args)
	default:
		fmt.Printf("Unknown command: %s. Type 'help' for available commands.\n", cmd)
	}

	return true
}

func (r *REPL) printHelp() {
	help := `
Available Commands:
-------------------
  new <text>                 Start a fresh document with the given text
  status                     Show byte/line/char counts and caret position
  seek <byte>                Move the caret to a byte offset
  line <byte>                Show the line index containing a byte offset
  column <byte>               Show the grapheme column of a byte offset
  dump                       Print the full document content
  insert "text"               Insert text at the caret, advances the caret
  delete <n>                  Delete n bytes forward from the caret
  replace <start> <end> "text" Replace [start,end) with text
  find "needle" [-i] [-w]     Find the first match at or after the caret
  findall "needle" [-i] [-w]  Find every match
  replaceall "needle" "repl" [-i]  Replace every match
  undo                       Undo the last flushed edit
  redo                       Redo the last undone edit
  quit, exit                 Exit the REPL

Flags: -i case-insensitive, -w whole word, -r regular expression
`
	fmt.Println(help)
}

func (r *REPL) cmdNew(args []string) {
	content := strings.Join(args, " ")
	r.doc = doctree.NewDocFromText(0, content)
	r.caret = 0
	fmt.Printf("Created new document with %d bytes\n", r.doc.Read().ByteCount())
}

func (r *REPL) cmdStatus() {
	t := r.doc.Read()
	fmt.Println("Document Status:")
	fmt.Printf("  Bytes:   %d\n", t.ByteCount())
	fmt.Printf("  Chars:   %d\n", t.CharCount())
	fmt.Printf("  Lines:   %d\n", t.LineCount()+1)
	fmt.Printf("  Widgets: %d\n", t.WidgetCount())
	fmt.Printf("  Version: %d\n", r.doc.Version())
	fmt.Printf("  Caret:   byte=%d\n", r.caret)
}

func (r *REPL) cmdSeek(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: seek <byte>")
		return
	}
	pos, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Printf("Invalid position: %v\n", err)
		return
	}
	t := r.doc.Read()
	if pos < 0 || pos > t.ByteCount() {
		fmt.Println("Position out of range")
		return
	}
	r.caret = pos
	fmt.Printf("Caret moved to byte=%d\n", r.caret)
}

func (r *REPL) cmdLine(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: line <byte>")
		return
	}
	pos, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Printf("Invalid position: %v\n", err)
		return
	}
	line, err := r.doc.Read().ByteToLine(pos)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Line: %d\n", line)
}

func (r *REPL) cmdColumn(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: column <byte>")
		return
	}
	pos, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Printf("Invalid position: %v\n", err)
		return
	}
	col, err := r.doc.Read().ColumnAt(pos)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Column: %d\n", col)
}

func (r *REPL) cmdDump() {
	t := r.doc.Read()
	text, err := t.Slice(doctree.ByteRange{Start: 0, End: t.ByteCount()})
	if err != nil {
		fmt.Printf("Read error: %v\n", err)
		return
	}
	fmt.Println("Content:")
	fmt.Println("--------")
	fmt.Println(text)
	fmt.Println("--------")
}

func (r *REPL) cmdInsert(args []string) {
	fullInput := strings.Join(args, " ")
	text, _, err := parseQuotedString(fullInput)
	if err != nil {
		fmt.Printf("Parse error: %v\n", err)
		return
	}

	edit := doctree.InsertText(r.caret, []byte(text))
	deltas, err := r.doc.Edit([]doctree.Edit{edit}, r.caret)
	if err != nil {
		fmt.Printf("Insert error: %v\n", err)
		return
	}
	r.caret += int64(len(text))
	fmt.Printf("Inserted %d bytes. Caret now at byte=%d. Version=%d\n",
		len(text), r.caret, r.doc.Version())
	_ = deltas
}

func (r *REPL) cmdDelete(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: delete <n>")
		return
	}
	n, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Printf("Invalid length: %v\n", err)
		return
	}

	end := r.caret + n
	if end > r.doc.Read().ByteCount() {
		end = r.doc.Read().ByteCount()
	}
	edit := doctree.DeleteRange(r.caret, end)
	_, err = r.doc.Edit([]doctree.Edit{edit}, r.caret)
	if err != nil {
		fmt.Printf("Delete error: %v\n", err)
		return
	}
	fmt.Printf("Deleted %d bytes. Version=%d\n", end-r.caret, r.doc.Version())
}

func (r *REPL) cmdReplaceRange(args []string) {
	if len(args) < 3 {
		fmt.Println(`Usage: replace <start> <end> "text"`)
		return
	}
	start, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Printf("Invalid start: %v\n", err)
		return
	}
	end, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		fmt.Printf("Invalid end: %v\n", err)
		return
	}
	text, _, err := parseQuotedString(strings.Join(args[2:], " "))
	if err != nil {
		fmt.Printf("Parse error: %v\n", err)
		return
	}

	edit := doctree.ReplaceText(start, end, []byte(text))
	_, err = r.doc.Edit([]doctree.Edit{edit}, r.caret)
	if err != nil {
		fmt.Printf("Replace error: %v\n", err)
		return
	}
	fmt.Printf("Replaced [%d,%d) with %d bytes. Version=%d\n", start, end, len(text), r.doc.Version())
}

func (r *REPL) cmdFind(args []string) {
	pattern, opts, err := parseSearchArgs(args)
	if err != nil {
		fmt.Printf("Parse error: %v\n", err)
		return
	}
	m, ok, err := r.doc.Read().Search(pattern, r.caret, opts)
	if err != nil {
		fmt.Printf("Search error: %v\n", err)
		return
	}
	if !ok {
		fmt.Println("No match found")
		return
	}
	fmt.Printf("Match at [%d,%d): %q\n", m.Range.Start, m.Range.End, m.Text)
	r.caret = m.Range.End
}

func (r *REPL) cmdFindAll(args []string) {
	pattern, opts, err := parseSearchArgs(args)
	if err != nil {
		fmt.Printf("Parse error: %v\n", err)
		return
	}
	matches, err := r.doc.Read().SearchAll(pattern, opts)
	if err != nil {
		fmt.Printf("Search error: %v\n", err)
		return
	}
	fmt.Printf("Found %d match(es):\n", len(matches))
	for _, m := range matches {
		fmt.Printf("  [%d,%d): %q\n", m.Range.Start, m.Range.End, m.Text)
	}
}

func (r *REPL) cmdReplaceAll(args []string) {
	if len(args) < 2 {
		fmt.Println(`Usage: replaceall "needle" "repl" [-i]`)
		return
	}
	fullInput := strings.Join(args, " ")
	needle, remainder, err := parseQuotedString(fullInput)
	if err != nil {
		fmt.Printf("Parse error: %v\n", err)
		return
	}
	repl, remainder, err := parseQuotedString(remainder)
	if err != nil {
		fmt.Printf("Parse error: %v\n", err)
		return
	}
	opts := parseFlags(strings.Fields(remainder))

	edits, err := r.doc.Read().ReplaceAll(needle, repl, opts)
	if err != nil {
		fmt.Printf("ReplaceAll error: %v\n", err)
		return
	}
	if len(edits) == 0 {
		fmt.Println("No matches to replace")
		return
	}
	_, err = r.doc.Edit(edits, r.caret)
	if err != nil {
		fmt.Printf("Edit error: %v\n", err)
		return
	}
	fmt.Printf("Replaced %d occurrence(s). Version=%d\n", len(edits), r.doc.Version())
}

func (r *REPL) cmdUndo() {
	caret, err := r.doc.Undo()
	if err != nil {
		fmt.Printf("Undo error: %v\n", err)
		return
	}
	if c, ok := caret.(int64); ok {
		r.caret = c
	}
	fmt.Printf("Undid last edit. Version=%d\n", r.doc.Version())
}

func (r *REPL) cmdRedo() {
	caret, err := r.doc.Redo()
	if err != nil {
		fmt.Printf("Redo error: %v\n", err)
		return
	}
	if c, ok := caret.(int64); ok {
		r.caret = c
	}
	fmt.Printf("Redid last undone edit. Version=%d\n", r.doc.Version())
}

// parseQuotedString extracts a leading quoted string and returns its
// content plus whatever follows the closing quote.
func parseQuotedString(input string) (string, string, error) {
	input = strings.TrimSpace(input)
	if len(input) == 0 {
		return "", "", fmt.Errorf("empty input")
	}
	if input[0] != '"' {
		return "", "", fmt.Errorf("expected quoted string (starting with \")")
	}

	var result []byte
	i := 1
	for i < len(input) {
		if input[i] == '\\' && i+1 < len(input) {
			switch input[i+1] {
			case 'n':
				result = append(result, '\n')
			case 't':
				result = append(result, '\t')
			case '"':
				result = append(result, '"')
			case '\\':
				result = append(result, '\\')
			default:
				result = append(result, input[i], input[i+1])
			}
			i += 2
		} else if input[i] == '"' {
			return string(result), strings.TrimSpace(input[i+1:]), nil
		} else {
			result = append(result, input[i])
			i++
		}
	}
	return "", "", fmt.Errorf("unterminated string (missing closing \")")
}

func parseSearchArgs(args []string) (string, doctree.SearchOptions, error) {
	fullInput := strings.Join(args, " ")
	pattern, remainder, err := parseQuotedString(fullInput)
	if err != nil {
		return "", doctree.SearchOptions{}, err
	}
	return pattern, parseFlags(strings.Fields(remainder)), nil
}

func parseFlags(flags []string) doctree.SearchOptions {
	opts := doctree.SearchOptions{CaseSensitive: true}
	for _, f := range flags {
		switch f {
		case "-i":
			opts.CaseSensitive = false
		case "-w":
			opts.WholeWord = true
		case "-r":
			opts.Regex = true
		}
	}
	return opts
}
