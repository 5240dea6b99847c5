package parsefe

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cbgeyer/sparc-ext-sim/asm"
	"github.com/cbgeyer/sparc-ext-sim/ir"
	"github.com/cbgeyer/sparc-ext-sim/target"
)

// Error reports a lexical or syntactic frontend failure; any such error
// aborts the current assembler run.
type Error struct {
	Pos     Position
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("parsefe: %s at %s", e.Message, e.Pos) }

// Parser drives an asm.Assembler from a token stream, assigning
// monotonically increasing instruction indices and data offsets as it
// goes.
type Parser struct {
	lex *Lexer
	tok Token

	asm        *asm.Assembler
	instrNo    uint32
	dataOffset uint32
	inData     bool
}

// Parse tokenizes and parses src, accumulating into a fresh asm.Assembler,
// and returns it ready for CheckLabels/EmitData/EmitInstructions.
func Parse(src string) (*asm.Assembler, error) {
	p := &Parser{lex: NewLexer(src), asm: asm.New()}
	p.advance()
	if err := p.parseProgram(); err != nil {
		return nil, err
	}
	return p.asm, nil
}

func (p *Parser) advance() { p.tok = p.lex.NextToken() }

func (p *Parser) errorf(format string, args ...interface{}) error {
	return &Error{Pos: p.tok.Pos, Message: fmt.Sprintf(format, args...)}
}

func (p *Parser) skipNewlines() {
	for p.tok.Type == TokenNewline {
		p.advance()
	}
}

func (p *Parser) parseProgram() error {
	p.skipNewlines()
	for p.tok.Type != TokenEOF {
		if err := p.parseLine(); err != nil {
			return err
		}
		p.skipNewlines()
	}
	return nil
}

func (p *Parser) parseLine() error {
	// Label definition: IDENT ':'
	if p.tok.Type == TokenIdentifier {
		save := p.tok
		next := p.peekToken()
		if next.Type == TokenColon {
			p.advance() // consume identifier
			p.advance() // consume ':'
			if err := p.asm.SaveLabel(p.currentAddr(), save.Literal, !p.inData); err != nil {
				return err
			}
			p.skipNewlines()
			if p.tok.Type == TokenEOF {
				return nil
			}
			return p.parseLine()
		}
	}

	switch p.tok.Type {
	case TokenDirective:
		return p.parseDirective()
	case TokenIdentifier:
		return p.parseInstruction()
	case TokenNewline, TokenEOF:
		return nil
	default:
		return p.errorf("unexpected token %q", p.tok.Literal)
	}
}

// peekToken looks one token ahead without consuming the current one,
// by lexing from a throwaway copy of the lexer state.
func (p *Parser) peekToken() Token {
	save := *p.lex
	tok := p.lex.NextToken()
	*p.lex = save
	return tok
}

func (p *Parser) currentAddr() uint32 {
	if p.inData {
		return p.dataOffset
	}
	return p.instrNo
}

// --- Directives (data segment) ---

func (p *Parser) parseDirective() error {
	name := p.tok.Literal
	p.advance()
	switch name {
	case ".data":
		p.inData = true
		return nil
	case ".text":
		p.inData = false
		return nil
	case ".word":
		return p.parseDataItems(4)
	case ".half":
		return p.parseDataItems(2)
	case ".byte":
		return p.parseDataItems(1)
	default:
		return p.errorf("unknown directive %q", name)
	}
}

func (p *Parser) parseDataItems(width int) error {
	for {
		if p.tok.Type == TokenIdentifier {
			label := p.tok.Literal
			p.advance()
			p.asm.SaveDataLabel(p.dataOffset, label, width)
		} else {
			v, err := p.parseIntLiteral()
			if err != nil {
				return err
			}
			p.asm.SaveData(p.dataOffset, uint32(v), width)
		}
		p.dataOffset += uint32(width)
		if p.tok.Type != TokenComma {
			break
		}
		p.advance()
	}
	return nil
}

func (p *Parser) parseIntLiteral() (int32, error) {
	if p.tok.Type != TokenNumber {
		return 0, p.errorf("expected number, got %q", p.tok.Literal)
	}
	lit := p.tok.Literal
	p.advance()
	return parseNumber(lit)
}

func parseNumber(lit string) (int32, error) {
	neg := strings.HasPrefix(lit, "-")
	if neg {
		lit = lit[1:]
	}
	var v int64
	var err error
	if strings.HasPrefix(lit, "0x") || strings.HasPrefix(lit, "0X") {
		v, err = strconv.ParseInt(lit[2:], 16, 64)
	} else {
		v, err = strconv.ParseInt(lit, 10, 64)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid integer literal %q: %w", lit, err)
	}
	if neg {
		v = -v
	}
	return int32(v), nil
}

// --- Register / operand parsing ---

func parseRegister(lit string) (int, bool) {
	lit = strings.ToLower(lit)
	switch lit {
	case "%sp":
		return target.SPRegister, true
	case "%fp":
		return target.FPRegister, true
	case "%y":
		return target.YRegisterNo, true
	}
	if len(lit) < 3 || lit[0] != '%' {
		return 0, false
	}
	class := lit[1]
	n, err := strconv.Atoi(lit[2:])
	if err != nil || n < 0 || n > 7 {
		return 0, false
	}
	switch class {
	case 'g':
		return target.GReg + n, true
	case 'o':
		return target.OReg + n, true
	case 'l':
		return target.LReg + n, true
	case 'i':
		return target.IReg + n, true
	}
	return 0, false
}

func parsePReg(lit string) (int, bool) {
	lit = strings.ToLower(lit)
	if !strings.HasPrefix(lit, "%p") {
		return 0, false
	}
	n, err := strconv.Atoi(lit[2:])
	if err != nil || n < 0 || n > 15 {
		return 0, false
	}
	return n, true
}

func (p *Parser) expectRegister() (int, error) {
	if p.tok.Type != TokenRegister {
		return 0, p.errorf("expected register, got %q", p.tok.Literal)
	}
	reg, ok := parseRegister(p.tok.Literal)
	if !ok {
		return 0, p.errorf("invalid register %q", p.tok.Literal)
	}
	p.advance()
	return reg, nil
}

func (p *Parser) expectComma() error {
	if p.tok.Type != TokenComma {
		return p.errorf("expected ',', got %q", p.tok.Literal)
	}
	p.advance()
	return nil
}

func (p *Parser) expectIdentifier() (string, error) {
	if p.tok.Type != TokenIdentifier {
		return "", p.errorf("expected identifier, got %q", p.tok.Literal)
	}
	s := p.tok.Literal
	p.advance()
	return s, nil
}

// regOrImm13 parses either a register or a simm13 literal, the common
// "reg|simm13" shape used throughout the arithmetic/logic/memory families.
func (p *Parser) regOrImm13() (ir.Operand, error) {
	if p.tok.Type == TokenRegister {
		reg, err := p.expectRegister()
		if err != nil {
			return ir.Operand{}, err
		}
		return ir.Reg(reg), nil
	}
	v, err := p.parseIntLiteral()
	if err != nil {
		return ir.Operand{}, err
	}
	if !target.IsSimm13(v) {
		return ir.Operand{}, p.errorf("immediate %d out of simm13 range", v)
	}
	return ir.Imm13(v), nil
}

// --- Condition-code mnemonic suffixes, shared by branch/mov/sel families ---

var ccSuffix = map[string]target.ConditionCode{
	"n": target.CCN, "e": target.CCE, "le": target.CCLE, "l": target.CCL,
	"leu": target.CCLEU, "cs": target.CCCS, "neg": target.CCNEG, "vs": target.CCVS,
	"a": target.CCA, "ne": target.CCNE, "g": target.CCG, "ge": target.CCGE,
	"gu": target.CCGU, "cc": target.CCCC, "pos": target.CCPOS, "vc": target.CCVC,
}

// --- Instruction mnemonics ---

var arithMnemonics = map[string]ir.Opcode{
	"add": ir.OpAdd, "addcc": ir.OpAddCC, "addx": ir.OpAddX, "addxcc": ir.OpAddXCC,
	"taddcc": ir.OpTaddCC, "sub": ir.OpSub, "subcc": ir.OpSubCC, "subx": ir.OpSubX,
	"subxcc": ir.OpSubXCC, "tsubcc": ir.OpTsubCC,
	"and": ir.OpAnd, "andcc": ir.OpAndCC, "andn": ir.OpAndN, "andncc": ir.OpAndNCC,
	"or": ir.OpOr, "orcc": ir.OpOrCC, "orn": ir.OpOrN, "orncc": ir.OpOrNCC,
	"xor": ir.OpXor, "xorcc": ir.OpXorCC, "xnor": ir.OpXnor, "xnorcc": ir.OpXnorCC,
	"sll": ir.OpSLL, "srl": ir.OpSRL, "sra": ir.OpSRA,
	"umul": ir.OpUMul, "umulcc": ir.OpUMulCC, "smul": ir.OpSMul, "smulcc": ir.OpSMulCC,
	"udiv": ir.OpUDiv, "udivcc": ir.OpUDivCC, "sdiv": ir.OpSDiv, "sdivcc": ir.OpSDivCC,
}

var loadMnemonics = map[string]ir.Opcode{
	"ldsb": ir.OpLDSB, "ldsh": ir.OpLDSH, "ldub": ir.OpLDUB, "lduh": ir.OpLDUH,
	"ld": ir.OpLD, "ldd": ir.OpLDD,
}

var storeMnemonics = map[string]ir.Opcode{
	"stb": ir.OpSTB, "sth": ir.OpSTH, "st": ir.OpST, "std": ir.OpSTD,
}

func (p *Parser) parseInstruction() error {
	mnemonic := strings.ToLower(p.tok.Literal)
	instrNo := p.instrNo
	p.advance()

	switch {
	case mnemonic == "nop":
		p.asm.SaveSethiInstr(instrNo, 0, 0)
	case mnemonic == "sethi":
		return p.parseSethi(instrNo)
	case arithMnemonics[mnemonic] != ir.OpUnknown:
		return p.parseArith(instrNo, arithMnemonics[mnemonic])
	case loadMnemonics[mnemonic] != ir.OpUnknown:
		return p.parseMemory(instrNo, loadMnemonics[mnemonic], true)
	case storeMnemonics[mnemonic] != ir.OpUnknown:
		return p.parseMemory(instrNo, storeMnemonics[mnemonic], false)
	case mnemonic == "ldstub":
		return p.parseMemory(instrNo, ir.OpLdstub, true)
	case mnemonic == "swap":
		return p.parseMemory(instrNo, ir.OpSwap, true)
	case mnemonic == "save":
		return p.parseSaveRestore(instrNo, ir.OpSave)
	case mnemonic == "restore":
		return p.parseSaveRestore(instrNo, ir.OpRestore)
	case mnemonic == "jmpl" || mnemonic == "jumpl":
		return p.parseJumpl(instrNo)
	case mnemonic == "call":
		return p.parseCall(instrNo)
	case strings.HasPrefix(mnemonic, "b") && ccFromMnemonic(mnemonic[1:]) != nil:
		return p.parseBranch(instrNo, *ccFromMnemonic(mnemonic[1:]))
	case mnemonic == "rd":
		return p.parseRd(instrNo)
	case mnemonic == "wr":
		return p.parseWr(instrNo)
	case strings.HasPrefix(mnemonic, "mov") && ccFromMnemonic(mnemonic[3:]) != nil:
		return p.parseMovCC(instrNo, *ccFromMnemonic(mnemonic[3:]))
	case strings.HasPrefix(mnemonic, "sel") && ccFromMnemonic(mnemonic[3:]) != nil:
		return p.parseSelCC(instrNo, *ccFromMnemonic(mnemonic[3:]))
	case mnemonic == "hwloop.init":
		return p.parseHWLoopInit(instrNo)
	case mnemonic == "hwloop.start":
		p.asm.SaveHWLoopStartInstr(instrNo)
	case mnemonic == "predbegin":
		return p.parsePredBegin(instrNo)
	case mnemonic == "predend":
		p.asm.SavePredEndInstr(instrNo)
	case mnemonic == "predset":
		return p.parsePredSet(instrNo)
	case mnemonic == "predclear":
		return p.parsePredClear(instrNo)
	case mnemonic == "sim-printcycles":
		p.asm.SaveSimCyclesInstr(instrNo, true)
	case mnemonic == "sim-clearcycles":
		p.asm.SaveSimCyclesInstr(instrNo, false)
	default:
		return p.errorf("unknown mnemonic %q", mnemonic)
	}
	p.instrNo++
	return nil
}

func ccFromMnemonic(suffix string) *target.ConditionCode {
	suffix = strings.ToLower(suffix)
	if cc, ok := ccSuffix[suffix]; ok {
		return &cc
	}
	return nil
}

// parseArith handles the common `op src1, src2|simm13, dst` shape shared
// by every arithmetic/logic/shift/multiply/divide mnemonic.
func (p *Parser) parseArith(instrNo uint32, op ir.Opcode) error {
	src1, err := p.expectRegister()
	if err != nil {
		return err
	}
	if err := p.expectComma(); err != nil {
		return err
	}
	src2, err := p.regOrImm13()
	if err != nil {
		return err
	}
	if err := p.expectComma(); err != nil {
		return err
	}
	dst, err := p.expectRegister()
	if err != nil {
		return err
	}
	if src2.Tag == ir.OperandRegister {
		p.asm.SaveRegRegInstr(instrNo, op, dst, src1, src2.Reg)
	} else {
		p.asm.SaveRegImmInstr(instrNo, op, dst, src1, src2.Imm)
	}
	return nil
}

// parseSethi handles `sethi label, dst` (high 22 bits of the label's
// resolved address) and `sethi imm22, dst`.
func (p *Parser) parseSethi(instrNo uint32) error {
	if p.tok.Type == TokenIdentifier {
		label, err := p.expectIdentifier()
		if err != nil {
			return err
		}
		if err := p.expectComma(); err != nil {
			return err
		}
		dst, err := p.expectRegister()
		if err != nil {
			return err
		}
		p.asm.SaveSethiLabelInstr(instrNo, dst, label)
		p.instrNo++
		return nil
	}
	imm, err := p.parseIntLiteral()
	if err != nil {
		return err
	}
	if !target.IsUImm22(imm) {
		return p.errorf("immediate %d out of imm22 range", imm)
	}
	if err := p.expectComma(); err != nil {
		return err
	}
	dst, err := p.expectRegister()
	if err != nil {
		return err
	}
	p.asm.SaveSethiInstr(instrNo, dst, imm)
	p.instrNo++
	return nil
}

// parseMemory handles `ld|ldsb|...|st|... [base + offset], reg` where
// offset is a register or simm13; stores read the value register first
// per SPARC assembly syntax (`st src, [addr]`).
func (p *Parser) parseMemory(instrNo uint32, op ir.Opcode, isLoad bool) error {
	var valueReg int
	if !isLoad {
		r, err := p.expectRegister()
		if err != nil {
			return err
		}
		valueReg = r
		if err := p.expectComma(); err != nil {
			return err
		}
	}
	if p.tok.Type != TokenLBracket {
		return p.errorf("expected '[', got %q", p.tok.Literal)
	}
	p.advance()
	base, err := p.expectRegister()
	if err != nil {
		return err
	}
	var offset ir.Operand = ir.Reg(target.GReg)
	if p.tok.Type == TokenPlus {
		p.advance()
		offset, err = p.regOrImm13()
		if err != nil {
			return err
		}
	}
	if p.tok.Type != TokenRBracket {
		return p.errorf("expected ']', got %q", p.tok.Literal)
	}
	p.advance()
	if isLoad {
		if err := p.expectComma(); err != nil {
			return err
		}
		dst, err := p.expectRegister()
		if err != nil {
			return err
		}
		p.asm.SaveAddrInstr(instrNo, op, dst, base, offset)
	} else {
		p.asm.SaveAddrInstr(instrNo, op, valueReg, base, offset)
	}
	p.instrNo++
	return nil
}

// parseSaveRestore handles `save|restore src1, src2|simm13, dst`.
func (p *Parser) parseSaveRestore(instrNo uint32, op ir.Opcode) error {
	src1, err := p.expectRegister()
	if err != nil {
		return err
	}
	if err := p.expectComma(); err != nil {
		return err
	}
	src2, err := p.regOrImm13()
	if err != nil {
		return err
	}
	if err := p.expectComma(); err != nil {
		return err
	}
	dst, err := p.expectRegister()
	if err != nil {
		return err
	}
	p.asm.SaveSaveRestoreInstr(instrNo, op, dst, src1, src2)
	p.instrNo++
	return nil
}

func (p *Parser) parseJumpl(instrNo uint32) error {
	base, err := p.expectRegister()
	if err != nil {
		return err
	}
	var offset ir.Operand = ir.Reg(target.GReg)
	if p.tok.Type == TokenPlus {
		p.advance()
		offset, err = p.regOrImm13()
		if err != nil {
			return err
		}
	}
	if err := p.expectComma(); err != nil {
		return err
	}
	dst, err := p.expectRegister()
	if err != nil {
		return err
	}
	p.asm.SaveJumplInstr(instrNo, dst, base, offset)
	p.instrNo++
	return nil
}

func (p *Parser) parseCall(instrNo uint32) error {
	label, err := p.expectIdentifier()
	if err != nil {
		return err
	}
	p.asm.SaveCallInstr(instrNo, label)
	p.instrNo++
	return nil
}

func (p *Parser) parseBranch(instrNo uint32, cc target.ConditionCode) error {
	label, err := p.expectIdentifier()
	if err != nil {
		return err
	}
	p.asm.SaveBranchInstr(instrNo, cc, label)
	p.instrNo++
	return nil
}

func (p *Parser) parseRd(instrNo uint32) error {
	src, err := p.expectRegister()
	if err != nil {
		return err
	}
	if src != target.YRegisterNo {
		return p.errorf("rd source must be %%y")
	}
	if err := p.expectComma(); err != nil {
		return err
	}
	dst, err := p.expectRegister()
	if err != nil {
		return err
	}
	p.asm.SaveRdInstr(instrNo, dst, src)
	p.instrNo++
	return nil
}

func (p *Parser) parseWr(instrNo uint32) error {
	src1, err := p.expectRegister()
	if err != nil {
		return err
	}
	if err := p.expectComma(); err != nil {
		return err
	}
	src2, err := p.expectRegister()
	if err != nil {
		return err
	}
	if err := p.expectComma(); err != nil {
		return err
	}
	dst, err := p.expectRegister()
	if err != nil {
		return err
	}
	if dst != target.YRegisterNo {
		return p.errorf("wr destination must be %%y")
	}
	p.asm.SaveWrInstr(instrNo, dst, src1, src2)
	p.instrNo++
	return nil
}

func (p *Parser) parseMovCC(instrNo uint32, cc target.ConditionCode) error {
	src1, err := p.expectRegister()
	if err != nil {
		return err
	}
	if err := p.expectComma(); err != nil {
		return err
	}
	dst, err := p.expectRegister()
	if err != nil {
		return err
	}
	p.asm.SaveMovCCInstr(instrNo, dst, src1, cc)
	p.instrNo++
	return nil
}

// parseSelCC handles all three SELcc operand shapes,
// distinguishing them by whether each source is a register or immediate.
func (p *Parser) parseSelCC(instrNo uint32, cc target.ConditionCode) error {
	src1IsReg := p.tok.Type == TokenRegister
	var src1Reg int
	var src1Imm int32
	var err error
	if src1IsReg {
		src1Reg, err = p.expectRegister()
	} else {
		src1Imm, err = p.parseIntLiteral()
	}
	if err != nil {
		return err
	}
	if err := p.expectComma(); err != nil {
		return err
	}
	src2IsReg := p.tok.Type == TokenRegister
	var src2Reg int
	var src2Imm int32
	if src2IsReg {
		src2Reg, err = p.expectRegister()
	} else {
		src2Imm, err = p.parseIntLiteral()
	}
	if err != nil {
		return err
	}
	if err := p.expectComma(); err != nil {
		return err
	}
	dst, err := p.expectRegister()
	if err != nil {
		return err
	}
	switch {
	case src1IsReg && src2IsReg:
		p.asm.SaveSelCCRegRegInstr(instrNo, dst, src1Reg, src2Reg, cc)
	case src1IsReg && !src2IsReg:
		if !target.IsSimm11(src2Imm) {
			return p.errorf("immediate %d out of simm11 range", src2Imm)
		}
		p.asm.SaveSelCCRegImmInstr(instrNo, dst, src1Reg, src2Imm, cc)
	case !src1IsReg && !src2IsReg:
		if !target.IsSimm8(src1Imm) {
			return p.errorf("immediate %d out of simm8 range", src1Imm)
		}
		if !target.IsSimm8(src2Imm) {
			return p.errorf("immediate %d out of simm8 range", src2Imm)
		}
		p.asm.SaveSelCCImmImmInstr(instrNo, dst, src1Imm, src2Imm, cc)
	default:
		return p.errorf("unsupported selcc operand shape (imm, reg)")
	}
	p.instrNo++
	return nil
}

func (p *Parser) parseHWLoopInit(instrNo uint32) error {
	selName, err := p.expectIdentifier()
	if err != nil {
		return err
	}
	var sel ir.LoopReg
	switch strings.ToLower(selName) {
	case "start":
		sel = ir.LoopRegStart
	case "end":
		sel = ir.LoopRegEnd
	case "bound":
		sel = ir.LoopRegBound
	default:
		return p.errorf("unknown hwloop.init selector %q", selName)
	}
	if err := p.expectComma(); err != nil {
		return err
	}
	switch {
	case p.tok.Type == TokenRegister:
		src, err := p.expectRegister()
		if err != nil {
			return err
		}
		p.asm.SaveHWLoopInitRegInstr(instrNo, sel, src)
	case p.tok.Type == TokenIdentifier:
		label, err := p.expectIdentifier()
		if err != nil {
			return err
		}
		p.asm.SaveHWLoopInitLabelInstr(instrNo, sel, label)
	default:
		imm, err := p.parseIntLiteral()
		if err != nil {
			return err
		}
		if !target.IsUImm22(imm) {
			return p.errorf("immediate %d out of imm22 range", imm)
		}
		p.asm.SaveHWLoopInitImmInstr(instrNo, sel, imm)
	}
	p.instrNo++
	return nil
}

func (p *Parser) parsePredBegin(instrNo uint32) error {
	if p.tok.Type == TokenRegister {
		if preg, ok := parsePReg(p.tok.Literal); ok {
			p.advance()
			if err := p.expectComma(); err != nil {
				return err
			}
			tfName, err := p.expectIdentifier()
			if err != nil {
				return err
			}
			tf := strings.EqualFold(tfName, "t")
			p.asm.SavePredBeginInstr(instrNo, preg, tf)
			p.instrNo++
			return nil
		}
	}
	ccName, err := p.expectIdentifier()
	if err != nil {
		return err
	}
	cc, ok := ccSuffix[strings.ToLower(ccName)]
	if !ok {
		return p.errorf("unknown condition code %q", ccName)
	}
	p.asm.SavePredBeginICCInstr(instrNo, cc)
	p.instrNo++
	return nil
}

func (p *Parser) parsePredSet(instrNo uint32) error {
	preg, err := p.expectPReg()
	if err != nil {
		return err
	}
	if p.tok.Type == TokenComma {
		p.advance()
		ccName, err := p.expectIdentifier()
		if err != nil {
			return err
		}
		cc, ok := ccSuffix[strings.ToLower(ccName)]
		if !ok {
			return p.errorf("unknown condition code %q", ccName)
		}
		p.asm.SavePredSetInstr(instrNo, preg, cc, true)
	} else {
		p.asm.SavePredSetInstr(instrNo, preg, target.CCA, false)
	}
	p.instrNo++
	return nil
}

func (p *Parser) parsePredClear(instrNo uint32) error {
	preg, err := p.expectPReg()
	if err != nil {
		return err
	}
	p.asm.SavePredClearInstr(instrNo, preg)
	p.instrNo++
	return nil
}

func (p *Parser) expectPReg() (int, error) {
	if p.tok.Type != TokenRegister {
		return 0, p.errorf("expected predicate register, got %q", p.tok.Literal)
	}
	preg, ok := parsePReg(p.tok.Literal)
	if !ok {
		return 0, p.errorf("invalid predicate register %q", p.tok.Literal)
	}
	p.advance()
	return preg, nil
}
