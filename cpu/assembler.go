// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

func init() {
	for _, mnemonic := range Mnemonics() {
		format, _ := mnemonic.Format()
		if !format.Operand {
			continue
		}
		if format.Signed {
			sysEquate[mnemonic.String()+"_MIN"] = fmt.Sprintf("%d", format.Min)
		}
		sysEquate[mnemonic.String()+"_MAX"] = fmt.Sprintf("%d", format.Max)
	}
}

var (
	reParen   = regexp.MustCompile(`\$\([^\$]*\)`)
	reComment = regexp.MustCompile(`;.*$`)
)

// Assembler is a single pass assembler for the UVM instruction set.
type Assembler struct {
	Verbose  bool     // If set, verbosely logs the assembler actions.
	Warnings []string // Non-fatal diagnostics from the last Parse.

	predefine map[string]string // Predefines
	Equate    map[string]string // Map of equates.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// valueOf returns the value of a simple word. Decimal, unless the word
// carries a 0x, 0b or 0o prefix; a bare leading zero is still decimal.
func (asm *Assembler) valueOf(word string) (value int, err error) {
	base := 10
	digits := strings.TrimLeft(word, "+-")
	if len(digits) > 1 && digits[0] == '0' {
		switch digits[1] {
		case 'x', 'X', 'b', 'B', 'o', 'O':
			base = 0
		}
	}

	v64, err := strconv.ParseInt(word, base, 64)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	value = int(v64)
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var v int
		v, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt(v)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = ErrParseExpression(expr)
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

// parseLine expands a single line into words, and handles directives.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%d", lineno)

	// Do $() evaluations
	line = reParen.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			if err == nil {
				err = _err
			}
			return str
		}
		return fmt.Sprintf("%d", value)
	})
	if err != nil {
		return
	}

	words = strings.Fields(line)
	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if strings.EqualFold(words[0], ".equ") {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	// Equates only replace operands.
	for n, word := range words[1:] {
		equate, ok := asm.Equate[word]
		if ok {
			words[1+n] = equate
		}
	}

	return
}

// parseWords converts the words of a line into a statement.
func (asm *Assembler) parseWords(words []string, lineno int, line string) (stmt Statement, err error) {
	mnemonic, ok := ParseMnemonic(words[0])
	if !ok {
		err = ErrMnemonic(words[0])
		return
	}

	stmt = Statement{
		LineNo:   lineno,
		Line:     line,
		Words:    words,
		Mnemonic: mnemonic,
	}

	format, _ := mnemonic.Format()
	args := words[1:]

	if !format.Operand {
		if len(args) > 0 {
			warning := f("line %d: %v takes no operand, ignoring '%v'", lineno, mnemonic.String(), strings.Join(args, " "))
			log.Printf("asm: %v", warning)
			asm.Warnings = append(asm.Warnings, warning)
		}
		return
	}

	switch {
	case len(args) == 0:
		err = ErrOperandMissing(mnemonic)
		return
	case len(args) > 1:
		err = ErrOpcodeExtraArgs
		return
	}

	stmt.Operand, err = asm.valueOf(args[0])
	if err != nil {
		return
	}
	stmt.HasOperand = true

	return
}

// Parse parses an input stream into statements. It has no knowledge of
// the binary encoding; operand ranges are checked by Encode.
func (asm *Assembler) Parse(input io.Reader) (stmts []Statement, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
			stmts = nil
		}
	}()

	asm.Warnings = nil
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		line = strings.TrimSpace(reComment.ReplaceAllString(text, ""))

		var words []string
		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}
		if len(words) == 0 {
			continue
		}

		var stmt Statement
		stmt, err = asm.parseWords(words, lineno, line)
		if err != nil {
			return
		}

		stmts = append(stmts, stmt)
	}

	err = scanner.Err()

	return
}

// Encode converts statements to a program, validating each operand.
func (asm *Assembler) Encode(stmts []Statement) (prog *Program, err error) {
	prog = &Program{}

	pc := 0
	for _, stmt := range stmts {
		var code Code
		code, err = Encode(stmt)
		if err != nil {
			err = &ErrEncode{LineNo: stmt.LineNo, Line: stmt.Line, Err: err}
			prog = nil
			return
		}
		prog.Opcodes = append(prog.Opcodes, Opcode{
			LineNo: stmt.LineNo,
			Pc:     pc,
			Words:  stmt.Words,
			Code:   code,
		})
		pc += code.Size()
	}

	return
}

// Assemble parses and encodes an input stream.
func (asm *Assembler) Assemble(input io.Reader) (prog *Program, err error) {
	stmts, err := asm.Parse(input)
	if err != nil {
		return
	}

	prog, err = asm.Encode(stmts)

	return
}
