package yarel

import (
	"fmt"
	"io"
	"strconv"
)

// Compilation limits.
const (
	localsMax   = 256
	upvaluesMax = 256
	jumpMax     = 1 << 16
	argsMax     = 255
)

// precedence orders the Pratt parser's binding levels, weakest first.
type precedence int

const (
	precNone precedence = iota
	precAssignment
	precOr
	precAnd
	precEquality
	precComparison
	precTerm
	precFactor
	precUnary
	precCall
	precPrimary
)

// funcKind distinguishes the flavors of function being compiled.
type funcKind int

const (
	kindScript funcKind = iota
	kindFunction
	kindLambda
	kindMethod
	kindInitializer
)

type parseFn func(p *parser, canAssign bool)

type parseRule struct {
	prefix parseFn
	infix  parseFn
	prec   precedence
}

// rules is the Pratt table, indexed by token kind. It is populated in init
// to break the initialization cycle through the parse functions.
var rules [numTokenKinds]parseRule

func init() {
	rules[leftParenToken] = parseRule{(*parser).grouping, (*parser).call, precCall}
	rules[leftBracketToken] = parseRule{(*parser).list, (*parser).index, precCall}
	rules[dotToken] = parseRule{nil, (*parser).dot, precCall}
	rules[pipeToken] = parseRule{(*parser).lambda, nil, precNone}
	rules[minusToken] = parseRule{(*parser).unary, (*parser).binary, precTerm}
	rules[plusToken] = parseRule{nil, (*parser).binary, precTerm}
	rules[slashToken] = parseRule{nil, (*parser).binary, precFactor}
	rules[starToken] = parseRule{nil, (*parser).binary, precFactor}
	rules[bangToken] = parseRule{(*parser).unary, nil, precNone}
	rules[bangEqualToken] = parseRule{nil, (*parser).binary, precEquality}
	rules[equalEqualToken] = parseRule{nil, (*parser).binary, precEquality}
	rules[greaterToken] = parseRule{nil, (*parser).binary, precComparison}
	rules[greaterEqualToken] = parseRule{nil, (*parser).binary, precComparison}
	rules[lessToken] = parseRule{nil, (*parser).binary, precComparison}
	rules[lessEqualToken] = parseRule{nil, (*parser).binary, precComparison}
	rules[identToken] = parseRule{(*parser).variable, nil, precNone}
	rules[selfToken] = parseRule{(*parser).variable, nil, precNone}
	rules[stringToken] = parseRule{(*parser).stringLit, nil, precNone}
	rules[interpToken] = parseRule{(*parser).interpolation, nil, precNone}
	rules[numberToken] = parseRule{(*parser).number, nil, precNone}
	rules[andToken] = parseRule{nil, (*parser).and, precAnd}
	rules[orToken] = parseRule{nil, (*parser).or, precOr}
	rules[falseToken] = parseRule{(*parser).literal, nil, precNone}
	rules[trueToken] = parseRule{(*parser).literal, nil, precNone}
	rules[nilToken] = parseRule{(*parser).literal, nil, precNone}
	rules[superToken] = parseRule{(*parser).super, nil, precNone}
}

// local is one declared local variable of the function being compiled. A
// depth of -1 marks a variable whose initializer has not finished, so
// reading it from the initializer is a compile error.
type local struct {
	name       string
	depth      int
	canAssign  bool
	isCaptured bool
}

// loopScope tracks an enclosing loop for break and continue.
type loopScope struct {
	start      int
	localCount int
	breaks     []int
}

// compiler is the per-function compilation state. Nested functions push
// nested compilers; upvalue resolution walks the stack outward.
type compiler struct {
	function   *ObjFunction
	kind       funcKind
	locals     []local
	upvalues   []upvalueDesc
	scopeDepth int
	loops      []loopScope
}

// classCompiler tracks an enclosing class declaration.
type classCompiler struct {
	hasSuperclass bool
	ctorName      string
}

// classAttrs carries a class declaration's attributes.
type classAttrs struct {
	ctorName string
	derive   *token
}

type parser struct {
	vm        *VM
	tokens    <-chan token
	current   token
	previous  token
	compilers []*compiler
	classes   []*classCompiler
	errors    []string
	panicMode bool
	// singleTarget restricts the right side of a compound assignment so
	// that chained assignments cannot hide inside it.
	singleTarget bool
}

// compile parses source and returns the script function, or a
// *CompileError aggregating every diagnostic.
func compile(vm *VM, source io.Reader) (*ObjFunction, error) {
	p := &parser{vm: vm, tokens: newLexer(source).tokens}
	p.beginCompiler(kindScript, "")
	p.advance()
	for !p.match(eofToken) {
		p.declaration()
	}
	fn := p.endCompiler()
	vm.popTempRoot()
	if len(p.errors) > 0 {
		return nil, &CompileError{Messages: p.errors}
	}
	return fn, nil
}

// Token plumbing.

func (p *parser) nextToken() token {
	tok, ok := <-p.tokens
	if !ok {
		return token{Kind: eofToken, Line: p.current.Line}
	}
	return tok
}

func (p *parser) advance() {
	p.previous = p.current
	for {
		p.current = p.nextToken()
		if p.current.Kind != badToken {
			return
		}
		p.errorAtCurrent(p.current.Err.Error())
	}
}

func (p *parser) consume(kind tokenKind, message string) {
	if p.current.Kind == kind {
		p.advance()
		return
	}
	p.errorAtCurrent(message)
}

func (p *parser) check(kind tokenKind) bool {
	return p.current.Kind == kind
}

func (p *parser) match(kind tokenKind) bool {
	if !p.check(kind) {
		return false
	}
	p.advance()
	return true
}

// Error reporting.

func (p *parser) errorAtCurrent(message string) {
	p.errorAt(p.current, message)
}

func (p *parser) error(message string) {
	p.errorAt(p.previous, message)
}

func (p *parser) errorAt(tok token, message string) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	where := ""
	switch tok.Kind {
	case eofToken:
		where = " at end"
	case badToken:
	default:
		where = fmt.Sprintf(" at '%s'", tok.Value)
	}
	p.errors = append(p.errors, fmt.Sprintf("[line %d] error%s: %s", tok.Line, where, message))
}

// synchronize skips tokens to a statement boundary after an error so the
// rest of the source still produces diagnostics.
func (p *parser) synchronize() {
	p.panicMode = false
	for p.current.Kind != eofToken {
		if p.previous.Kind == semiToken {
			return
		}
		switch p.current.Kind {
		case classToken, fnToken, varToken, forToken, ifToken, whileToken,
			returnToken, attrToken:
			return
		}
		p.advance()
	}
}

// Compiler stack.

func (p *parser) compiler() *compiler {
	return p.compilers[len(p.compilers)-1]
}

func (p *parser) chunk() *Chunk {
	return p.compiler().function.chunk
}

func (p *parser) beginCompiler(kind funcKind, name string) {
	var fname *ObjString
	if name != "" {
		fname = p.vm.Intern(name)
	}
	method := kind == kindMethod || kind == kindInitializer
	fn := p.vm.newFunction(fname, method)
	p.vm.pushTempRoot(ObjValue(fn))
	c := &compiler{function: fn, kind: kind}
	if !method {
		// Slot zero holds the callee; it is unnameable from source.
		c.locals = append(c.locals, local{depth: 0})
	}
	p.compilers = append(p.compilers, c)
}

// endCompiler closes the current function and returns it. The function
// stays pinned on the temp root stack; the caller unpins it once the
// function is reachable from an enclosing chunk.
func (p *parser) endCompiler() *ObjFunction {
	p.emitReturn()
	c := p.compiler()
	fn := c.function
	fn.upvalues = c.upvalues
	p.compilers = p.compilers[:len(p.compilers)-1]
	return fn
}

// Scopes and locals.

func (p *parser) beginScope() {
	p.compiler().scopeDepth++
}

func (p *parser) endScope() {
	c := p.compiler()
	c.scopeDepth--
	for len(c.locals) > 0 {
		l := c.locals[len(c.locals)-1]
		if l.depth <= c.scopeDepth {
			break
		}
		if l.isCaptured {
			p.emitByte(byte(OpCloseUpvalue))
		} else {
			p.emitByte(byte(OpPop))
		}
		c.locals = c.locals[:len(c.locals)-1]
	}
}

// discardLocals emits pops for locals above count without forgetting them,
// for break and continue jumps out of scopes.
func (p *parser) discardLocals(count int) {
	c := p.compiler()
	for i := len(c.locals) - 1; i >= count; i-- {
		if c.locals[i].isCaptured {
			p.emitByte(byte(OpCloseUpvalue))
		} else {
			p.emitByte(byte(OpPop))
		}
	}
}

func (p *parser) addLocal(name string) {
	c := p.compiler()
	if len(c.locals) == localsMax {
		p.error("too many local variables in function")
		return
	}
	c.locals = append(c.locals, local{name: name, depth: -1, canAssign: true})
}

func (p *parser) declareVariable() {
	c := p.compiler()
	if c.scopeDepth == 0 {
		return
	}
	for i := len(c.locals) - 1; i >= 0; i-- {
		l := c.locals[i]
		if l.depth != -1 && l.depth < c.scopeDepth {
			break
		}
		if l.name == p.previous.Value {
			p.error("variable with this name already declared in this scope")
		}
	}
	p.addLocal(p.previous.Value)
}

func (p *parser) markInitialized() {
	c := p.compiler()
	if c.scopeDepth == 0 {
		return
	}
	c.locals[len(c.locals)-1].depth = c.scopeDepth
}

func (p *parser) parseVariable(message string) byte {
	p.consume(identToken, message)
	p.declareVariable()
	if p.compiler().scopeDepth > 0 {
		return 0
	}
	return p.identifierConstant(p.previous.Value)
}

func (p *parser) defineVariable(global byte) {
	if p.compiler().scopeDepth > 0 {
		p.markInitialized()
		return
	}
	p.emitBytes(byte(OpDefineGlobal), global)
}

func (c *compiler) resolveLocal(name string) (int, bool, bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		l := c.locals[i]
		if l.name == name && l.name != "" {
			if l.depth == -1 {
				return i, l.canAssign, false
			}
			return i, l.canAssign, true
		}
	}
	return -1, false, true
}

func (c *compiler) addUpvalue(index int, isLocal bool) (int, bool) {
	for i, uv := range c.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i, true
		}
	}
	if len(c.upvalues) == upvaluesMax {
		return 0, false
	}
	c.upvalues = append(c.upvalues, upvalueDesc{index: index, isLocal: isLocal})
	return len(c.upvalues) - 1, true
}

// resolveUpvalue looks for a name in the locals of the enclosing compilers.
// A hit marks the local captured and threads an upvalue descriptor through
// every compiler between the declaration and the use.
func (p *parser) resolveUpvalue(name string) (int, bool, bool) {
	if len(p.compilers) < 2 {
		return -1, false, true
	}
	for enclosing := len(p.compilers) - 2; enclosing >= 0; enclosing-- {
		index, canAssign, ok := p.compilers[enclosing].resolveLocal(name)
		if index < 0 {
			continue
		}
		if !ok {
			p.error("cannot read local variable in its own initializer")
			return -1, false, true
		}
		p.compilers[enclosing].locals[index].isCaptured = true
		for ci := enclosing + 1; ci < len(p.compilers); ci++ {
			idx, ok := p.compilers[ci].addUpvalue(index, ci == enclosing+1)
			if !ok {
				p.error("too many closure variables in function")
				return -1, false, true
			}
			index = idx
		}
		return index, canAssign, true
	}
	return -1, false, true
}

// Bytecode emission.

func (p *parser) emitByte(b byte) {
	p.chunk().write(b, p.previous.Line)
}

func (p *parser) emitBytes(b1, b2 byte) {
	p.emitByte(b1)
	p.emitByte(b2)
}

func (p *parser) emitReturn() {
	if p.compiler().kind == kindInitializer {
		p.emitBytes(byte(OpGetLocal), 0)
	} else {
		p.emitByte(byte(OpNil))
	}
	p.emitByte(byte(OpReturn))
}

func (p *parser) makeConstant(v Value) byte {
	idx := p.chunk().addConstant(v)
	if idx > 255 {
		p.error("too many constants in one chunk")
		return 0
	}
	return byte(idx)
}

func (p *parser) identifierConstant(name string) byte {
	return p.makeConstant(p.vm.StringValue(name))
}

func (p *parser) emitConstant(v Value) {
	c := p.makeConstant(v)
	p.emitBytes(byte(OpConstant), c)
}

func (p *parser) emitInvoke(name string, argc int) {
	c := p.identifierConstant(name)
	p.emitBytes(byte(OpInvoke), c)
	p.emitByte(byte(argc))
}

func (p *parser) emitJump(op Opcode) int {
	p.emitByte(byte(op))
	p.emitBytes(0xff, 0xff)
	return len(p.chunk().code) - 2
}

func (p *parser) patchJump(offset int) {
	jump := len(p.chunk().code) - offset - 2
	if jump >= jumpMax {
		p.error("too much code to jump over")
	}
	p.chunk().code[offset] = byte(jump >> 8)
	p.chunk().code[offset+1] = byte(jump)
}

func (p *parser) emitLoop(start int) {
	p.emitByte(byte(OpLoop))
	offset := len(p.chunk().code) - start + 2
	if offset >= jumpMax {
		p.error("loop body too large")
	}
	p.emitBytes(byte(offset>>8), byte(offset))
}

// Declarations.

func (p *parser) declaration() {
	switch {
	case p.match(attrToken):
		attrs := p.parseAttributes()
		p.consume(classToken, "expected 'class' after attributes")
		p.classDeclaration(attrs)
	case p.match(classToken):
		p.classDeclaration(classAttrs{})
	case p.match(fnToken):
		p.fnDeclaration()
	case p.match(varToken):
		p.varDeclaration()
	default:
		p.statement()
	}
	if p.panicMode {
		p.synchronize()
	}
}

// parseAttributes reads the items of a #[...] attribute list. Only
// constructor(name) and derive(Parent) are recognized.
func (p *parser) parseAttributes() classAttrs {
	attrs := classAttrs{}
	for {
		p.consume(identToken, "expected attribute name")
		switch p.previous.Value {
		case "constructor":
			p.consume(leftParenToken, "expected '(' after 'constructor'")
			p.consume(identToken, "expected constructor method name")
			attrs.ctorName = p.previous.Value
			p.consume(rightParenToken, "expected ')' after constructor name")
		case "derive":
			p.consume(leftParenToken, "expected '(' after 'derive'")
			p.consume(identToken, "expected parent class name")
			tok := p.previous
			attrs.derive = &tok
			p.consume(rightParenToken, "expected ')' after parent class name")
		default:
			p.error(fmt.Sprintf("unknown attribute '%s'", p.previous.Value))
		}
		if !p.match(commaToken) {
			break
		}
	}
	p.consume(rightBracketToken, "expected ']' after attributes")
	return attrs
}

func (p *parser) classDeclaration(attrs classAttrs) {
	p.consume(identToken, "expected class name")
	nameTok := p.previous
	nameConst := p.identifierConstant(nameTok.Value)
	p.declareVariable()

	p.emitBytes(byte(OpClass), nameConst)
	if attrs.ctorName != "" {
		ctorConst := p.identifierConstant(attrs.ctorName)
		p.emitBytes(byte(OpConstructor), ctorConst)
	}
	p.defineVariable(nameConst)

	cc := &classCompiler{ctorName: attrs.ctorName}
	p.classes = append(p.classes, cc)

	superTok := attrs.derive
	if p.match(lessToken) {
		p.consume(identToken, "expected superclass name")
		if superTok != nil {
			p.error("cannot combine a derive attribute with '<' inheritance")
		}
		tok := p.previous
		superTok = &tok
	}
	if superTok != nil {
		if superTok.Value == nameTok.Value {
			p.error("a class cannot inherit from itself")
		}
		p.namedVariable(*superTok, false)
		p.beginScope()
		p.addLocal("super")
		p.markInitialized()
		c := p.compiler()
		c.locals[len(c.locals)-1].canAssign = false
		p.namedVariable(nameTok, false)
		p.emitByte(byte(OpInherit))
		cc.hasSuperclass = true
	}

	p.namedVariable(nameTok, false)
	p.consume(leftBraceToken, "expected '{' before class body")
	for !p.check(rightBraceToken) && !p.check(eofToken) {
		p.method(cc)
	}
	p.consume(rightBraceToken, "expected '}' after class body")
	p.emitByte(byte(OpPop))

	if cc.hasSuperclass {
		p.endScope()
	}
	p.classes = p.classes[:len(p.classes)-1]
}

func (p *parser) method(cc *classCompiler) {
	p.consume(fnToken, "expected 'fn' before method name")
	p.consume(identToken, "expected method name")
	nameTok := p.previous
	constant := p.identifierConstant(nameTok.Value)
	kind := kindMethod
	if cc.ctorName != "" && nameTok.Value == cc.ctorName {
		kind = kindInitializer
	}
	p.function(kind, nameTok.Value)
	p.emitBytes(byte(OpMethod), constant)
}

func (p *parser) fnDeclaration() {
	global := p.parseVariable("expected function name")
	name := p.previous.Value
	p.markInitialized()
	p.function(kindFunction, name)
	p.defineVariable(global)
}

// function compiles a parameter list and body into a nested function, then
// emits the CLOSURE instruction with its upvalue descriptors.
func (p *parser) function(kind funcKind, name string) {
	p.beginCompiler(kind, name)
	p.beginScope()

	p.consume(leftParenToken, "expected '(' after function name")
	method := kind == kindMethod || kind == kindInitializer
	if method {
		p.consume(selfToken, "expected 'self' as a method's first parameter")
		p.addLocal("self")
		p.markInitialized()
		c := p.compiler()
		c.locals[len(c.locals)-1].canAssign = false
		c.function.arity++
		if !p.check(rightParenToken) {
			p.consume(commaToken, "expected ',' after 'self'")
		}
	}
	if !p.check(rightParenToken) {
		for {
			c := p.compiler()
			c.function.arity++
			if c.function.arity > argsMax {
				p.errorAtCurrent("cannot have more than 255 parameters")
			}
			p.consume(identToken, "expected parameter name")
			p.declareVariable()
			p.markInitialized()
			if !p.match(commaToken) {
				break
			}
		}
	}
	p.consume(rightParenToken, "expected ')' after parameters")

	p.consume(leftBraceToken, "expected '{' before function body")
	p.block()

	p.finishFunction()
}

// finishFunction closes the innermost compiler and emits its closure into
// the enclosing chunk.
func (p *parser) finishFunction() {
	upvalues := p.compiler().upvalues
	fn := p.endCompiler()
	constant := p.makeConstant(ObjValue(fn))
	p.vm.popTempRoot()
	p.emitBytes(byte(OpClosure), constant)
	for _, uv := range upvalues {
		isLocal := byte(0)
		if uv.isLocal {
			isLocal = 1
		}
		p.emitByte(isLocal)
		p.emitByte(byte(uv.index))
	}
}

func (p *parser) varDeclaration() {
	global := p.parseVariable("expected variable name")
	if p.match(equalToken) {
		p.expression()
	} else {
		p.emitByte(byte(OpNil))
	}
	p.consume(semiToken, "expected ';' after variable declaration")
	p.defineVariable(global)
}

// Statements.

func (p *parser) statement() {
	switch {
	case p.match(ifToken):
		p.ifStatement()
	case p.match(whileToken):
		p.whileStatement()
	case p.match(forToken):
		p.forStatement()
	case p.match(returnToken):
		p.returnStatement()
	case p.match(breakToken):
		p.breakStatement()
	case p.match(continueToken):
		p.continueStatement()
	case p.match(leftBraceToken):
		p.beginScope()
		p.block()
		p.endScope()
	default:
		p.expressionStatement()
	}
}

func (p *parser) block() {
	for !p.check(rightBraceToken) && !p.check(eofToken) {
		p.declaration()
	}
	p.consume(rightBraceToken, "expected '}' after block")
}

func (p *parser) expressionStatement() {
	p.expression()
	p.consume(semiToken, "expected ';' after expression")
	p.emitByte(byte(OpPop))
}

func (p *parser) ifStatement() {
	p.expression()
	thenJump := p.emitJump(OpJumpIfFalse)
	p.emitByte(byte(OpPop))
	p.consume(leftBraceToken, "expected '{' after condition")
	p.beginScope()
	p.block()
	p.endScope()
	elseJump := p.emitJump(OpJump)
	p.patchJump(thenJump)
	p.emitByte(byte(OpPop))
	if p.match(elseToken) {
		if p.match(ifToken) {
			p.ifStatement()
		} else {
			p.consume(leftBraceToken, "expected '{' after 'else'")
			p.beginScope()
			p.block()
			p.endScope()
		}
	}
	p.patchJump(elseJump)
}

func (p *parser) beginLoop(start int) *loopScope {
	c := p.compiler()
	c.loops = append(c.loops, loopScope{start: start, localCount: len(c.locals)})
	return &c.loops[len(c.loops)-1]
}

func (p *parser) endLoop() {
	c := p.compiler()
	loop := c.loops[len(c.loops)-1]
	for _, offset := range loop.breaks {
		p.patchJump(offset)
	}
	c.loops = c.loops[:len(c.loops)-1]
}

func (p *parser) whileStatement() {
	loopStart := len(p.chunk().code)
	p.beginLoop(loopStart)
	p.expression()
	exitJump := p.emitJump(OpJumpIfFalse)
	p.emitByte(byte(OpPop))
	p.consume(leftBraceToken, "expected '{' after condition")
	p.beginScope()
	p.block()
	p.endScope()
	p.emitLoop(loopStart)
	p.patchJump(exitJump)
	p.emitByte(byte(OpPop))
	p.endLoop()
}

// forStatement compiles `for x in expr { ... }` by desugaring to the
// iterator protocol: expr.__iter__() is stashed in a hidden local, and each
// round trips through __next__ until the sentinel comes back.
func (p *parser) forStatement() {
	p.beginScope()

	p.consume(identToken, "expected loop variable after 'for'")
	nameTok := p.previous
	p.consume(inToken, "expected 'in' after loop variable")
	p.expression()
	p.emitInvoke("__iter__", 0)
	p.addLocal("(iter)")
	p.markInitialized()
	c := p.compiler()
	iterSlot := len(c.locals) - 1

	loopStart := len(p.chunk().code)
	p.beginLoop(loopStart)
	p.emitBytes(byte(OpGetLocal), byte(iterSlot))
	p.emitInvoke("__next__", 0)
	exitJump := p.emitJump(OpJumpIfSentinel)

	p.beginScope()
	p.previous = nameTok
	p.declareVariable()
	p.markInitialized()
	p.consume(leftBraceToken, "expected '{' before loop body")
	p.block()
	p.endScope()

	p.emitLoop(loopStart)
	p.patchJump(exitJump)
	p.endLoop()

	p.endScope()
}

func (p *parser) returnStatement() {
	if p.match(semiToken) {
		p.emitReturn()
		return
	}
	if p.compiler().kind == kindInitializer {
		p.error("cannot return a value from a constructor")
	}
	p.expression()
	p.consume(semiToken, "expected ';' after return value")
	p.emitByte(byte(OpReturn))
}

func (p *parser) breakStatement() {
	p.consume(semiToken, "expected ';' after 'break'")
	c := p.compiler()
	if len(c.loops) == 0 {
		p.error("cannot use 'break' outside of a loop")
		return
	}
	loop := &c.loops[len(c.loops)-1]
	p.discardLocals(loop.localCount)
	loop.breaks = append(loop.breaks, p.emitJump(OpJump))
}

func (p *parser) continueStatement() {
	p.consume(semiToken, "expected ';' after 'continue'")
	c := p.compiler()
	if len(c.loops) == 0 {
		p.error("cannot use 'continue' outside of a loop")
		return
	}
	loop := &c.loops[len(c.loops)-1]
	p.discardLocals(loop.localCount)
	p.emitLoop(loop.start)
}

// Expressions.

func (p *parser) expression() {
	if p.singleTarget {
		p.parsePrecedence(precTerm)
		return
	}
	p.parsePrecedence(precAssignment)
}

func (p *parser) parsePrecedence(prec precedence) {
	p.advance()
	rule := rules[p.previous.Kind].prefix
	if rule == nil {
		p.error("expected expression")
		return
	}
	canAssign := prec <= precAssignment
	rule(p, canAssign)

	for prec <= rules[p.current.Kind].prec {
		p.advance()
		infix := rules[p.previous.Kind].infix
		infix(p, canAssign)
	}

	if canAssign && p.match(equalToken) {
		p.error("invalid assignment target")
	}
}

func (p *parser) grouping(canAssign bool) {
	p.expression()
	p.consume(rightParenToken, "expected ')' after expression")
}

func (p *parser) number(canAssign bool) {
	f, err := strconv.ParseFloat(p.previous.Value, 64)
	if err != nil {
		p.error("invalid numeric literal")
		return
	}
	p.emitConstant(Number(f))
}

func (p *parser) stringLit(canAssign bool) {
	p.emitConstant(p.vm.StringValue(p.previous.Value))
}

// interpolation compiles `"a${x}b"` into its segments and expressions
// followed by a BUILD_STRING that concatenates them.
func (p *parser) interpolation(canAssign bool) {
	argc := 0
	for {
		if p.previous.Value != "" {
			p.emitConstant(p.vm.StringValue(p.previous.Value))
			argc++
		}
		p.expression()
		argc++
		if !p.match(interpToken) {
			break
		}
	}
	p.consume(stringToken, "expected end of interpolated string")
	if p.previous.Value != "" {
		p.emitConstant(p.vm.StringValue(p.previous.Value))
		argc++
	}
	if argc > argsMax {
		p.error("too many segments in interpolated string")
		return
	}
	p.emitBytes(byte(OpBuildString), byte(argc))
}

func (p *parser) literal(canAssign bool) {
	switch p.previous.Kind {
	case falseToken:
		p.emitByte(byte(OpFalse))
	case trueToken:
		p.emitByte(byte(OpTrue))
	case nilToken:
		p.emitByte(byte(OpNil))
	}
}

func (p *parser) variable(canAssign bool) {
	p.namedVariable(p.previous, canAssign)
}

// matchBinaryAssignment consumes one of the compound assignment operators.
func (p *parser) matchBinaryAssignment() bool {
	return p.match(minusEqualToken) || p.match(plusEqualToken) ||
		p.match(slashEqualToken) || p.match(starEqualToken)
}

// binaryAssign lowers `x op= e` to a load, the expression, the binary
// operation, and a store.
func (p *parser) binaryAssign(getOp Opcode, arg byte) {
	p.singleTarget = true
	opKind := p.previous.Kind
	p.emitBytes(byte(getOp), arg)
	p.expression()
	switch opKind {
	case minusEqualToken:
		p.emitByte(byte(OpSubtract))
	case plusEqualToken:
		p.emitByte(byte(OpAdd))
	case slashEqualToken:
		p.emitByte(byte(OpDivide))
	case starEqualToken:
		p.emitByte(byte(OpMultiply))
	}
	p.singleTarget = false
}

func (p *parser) namedVariable(tok token, canAssign bool) {
	var getOp, setOp Opcode
	var arg byte
	index, assignable, ok := p.compiler().resolveLocal(tok.Value)
	switch {
	case index >= 0:
		if !ok {
			p.error("cannot read local variable in its own initializer")
			return
		}
		getOp, setOp = OpGetLocal, OpSetLocal
		arg = byte(index)
		canAssign = canAssign && assignable
	default:
		uvIndex, assignable, _ := p.resolveUpvalue(tok.Value)
		if uvIndex >= 0 {
			getOp, setOp = OpGetUpvalue, OpSetUpvalue
			arg = byte(uvIndex)
			canAssign = canAssign && assignable
		} else {
			getOp, setOp = OpGetGlobal, OpSetGlobal
			arg = p.identifierConstant(tok.Value)
		}
	}

	switch {
	case canAssign && p.match(equalToken):
		p.expression()
		p.emitBytes(byte(setOp), arg)
	case canAssign && p.matchBinaryAssignment():
		p.binaryAssign(getOp, arg)
		p.emitBytes(byte(setOp), arg)
	default:
		p.emitBytes(byte(getOp), arg)
	}
}

func (p *parser) binary(canAssign bool) {
	opKind := p.previous.Kind
	rule := rules[opKind]
	p.parsePrecedence(rule.prec + 1)

	switch opKind {
	case bangEqualToken:
		p.emitBytes(byte(OpEqual), byte(OpNot))
	case equalEqualToken:
		p.emitByte(byte(OpEqual))
	case greaterToken:
		p.emitByte(byte(OpGreater))
	case greaterEqualToken:
		p.emitBytes(byte(OpLess), byte(OpNot))
	case lessToken:
		p.emitByte(byte(OpLess))
	case lessEqualToken:
		p.emitBytes(byte(OpGreater), byte(OpNot))
	case plusToken:
		p.emitByte(byte(OpAdd))
	case minusToken:
		p.emitByte(byte(OpSubtract))
	case starToken:
		p.emitByte(byte(OpMultiply))
	case slashToken:
		p.emitByte(byte(OpDivide))
	}
}

func (p *parser) unary(canAssign bool) {
	opKind := p.previous.Kind
	p.parsePrecedence(precUnary)
	switch opKind {
	case minusToken:
		p.emitByte(byte(OpNegate))
	case bangToken:
		p.emitByte(byte(OpNot))
	}
}

func (p *parser) argumentList(right tokenKind, closeMsg string) byte {
	argc := 0
	if !p.check(right) {
		for {
			p.expression()
			if argc == argsMax {
				p.error("cannot have more than 255 arguments")
			}
			argc++
			if !p.match(commaToken) {
				break
			}
		}
	}
	p.consume(right, closeMsg)
	return byte(argc)
}

func (p *parser) call(canAssign bool) {
	argc := p.argumentList(rightParenToken, "expected ')' after arguments")
	p.emitBytes(byte(OpCall), argc)
}

func (p *parser) dot(canAssign bool) {
	p.consume(identToken, "expected property name after '.'")
	name := p.identifierConstant(p.previous.Value)

	switch {
	case canAssign && p.match(equalToken):
		p.expression()
		p.emitBytes(byte(OpSetField), name)
	case p.match(leftParenToken):
		argc := p.argumentList(rightParenToken, "expected ')' after arguments")
		p.emitBytes(byte(OpInvoke), name)
		p.emitByte(argc)
	default:
		p.emitBytes(byte(OpGetField), name)
	}
}

func (p *parser) index(canAssign bool) {
	p.expression()
	p.consume(rightBracketToken, "expected ']' after index")
	if canAssign && p.match(equalToken) {
		p.expression()
		p.emitByte(byte(OpSetIndex))
		return
	}
	p.emitByte(byte(OpGetIndex))
}

// list compiles a `[a, b, c]` literal.
func (p *parser) list(canAssign bool) {
	n := p.argumentList(rightBracketToken, "expected ']' after list elements")
	p.emitBytes(byte(OpBuildList), n)
}

// lambda compiles `|params| expr` and `|params| { ... }` literals.
func (p *parser) lambda(canAssign bool) {
	p.beginCompiler(kindLambda, "")
	p.beginScope()
	if !p.check(pipeToken) {
		for {
			c := p.compiler()
			c.function.arity++
			if c.function.arity > argsMax {
				p.errorAtCurrent("cannot have more than 255 parameters")
			}
			p.consume(identToken, "expected parameter name")
			p.declareVariable()
			p.markInitialized()
			if !p.match(commaToken) {
				break
			}
		}
	}
	p.consume(pipeToken, "expected '|' after lambda parameters")
	if p.match(leftBraceToken) {
		p.block()
	} else {
		p.expression()
		p.emitByte(byte(OpReturn))
	}
	p.finishFunction()
}

func (p *parser) and(canAssign bool) {
	endJump := p.emitJump(OpJumpIfFalse)
	p.emitByte(byte(OpPop))
	p.parsePrecedence(precAnd)
	p.patchJump(endJump)
}

func (p *parser) or(canAssign bool) {
	elseJump := p.emitJump(OpJumpIfFalse)
	endJump := p.emitJump(OpJump)
	p.patchJump(elseJump)
	p.emitByte(byte(OpPop))
	p.parsePrecedence(precOr)
	p.patchJump(endJump)
}

// super compiles `super.name` and `super.name(args)`. The enclosing
// method's receiver and the statically recorded parent class feed the
// GET_SUPER and SUPER_INVOKE instructions, so the lookup binds to the
// parent of the class the method is declared on, never the receiver's
// dynamic class.
func (p *parser) super(canAssign bool) {
	if len(p.classes) == 0 {
		p.error("cannot use 'super' outside of a class")
	} else if !p.classes[len(p.classes)-1].hasSuperclass {
		p.error("cannot use 'super' in a class with no superclass")
	}

	p.consume(dotToken, "expected '.' after 'super'")
	p.consume(identToken, "expected superclass method name")
	name := p.identifierConstant(p.previous.Value)

	p.namedVariable(token{Kind: identToken, Value: "self", Line: p.previous.Line}, false)
	if p.match(leftParenToken) {
		argc := p.argumentList(rightParenToken, "expected ')' after arguments")
		p.namedVariable(token{Kind: identToken, Value: "super", Line: p.previous.Line}, false)
		p.emitBytes(byte(OpSuperInvoke), name)
		p.emitByte(argc)
	} else {
		p.namedVariable(token{Kind: identToken, Value: "super", Line: p.previous.Line}, false)
		p.emitBytes(byte(OpGetSuper), name)
	}
}
