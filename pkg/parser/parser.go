// Package parser implements a recursive-descent parser over pkg/lexer's
// token stream, producing pkg/ast statements.
package parser

import (
	"fmt"

	"github.com/Chahine-tech/simpledb-go/pkg/ast"
	dberrors "github.com/Chahine-tech/simpledb-go/pkg/errors"
	"github.com/Chahine-tech/simpledb-go/pkg/lexer"
)

// Parser consumes a fixed token slice with a two-token cur/peek lookahead.
type Parser struct {
	tokens []lexer.Token
	pos    int
}

func newParser(tokens []lexer.Token) *Parser {
	return &Parser{tokens: tokens, pos: 0}
}

func (p *Parser) cur() lexer.Token {
	return p.tokens[p.pos]
}

func (p *Parser) peek(offset int) lexer.Token {
	i := p.pos + offset
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[i]
}

func (p *Parser) at(tt lexer.TokenType) bool {
	return p.cur().Type == tt
}

// advance consumes and returns the current token.
func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

// expect consumes the current token if it matches tt, else raises a
// SqlSyntaxError with msg at the current token's position.
func (p *Parser) expect(tt lexer.TokenType, msg string) (lexer.Token, error) {
	if !p.at(tt) {
		t := p.cur()
		return lexer.Token{}, dberrors.NewSqlSyntaxError(msg, dberrors.Position{Line: t.Line, Column: t.Column})
	}
	return p.advance(), nil
}

// match consumes the current token and returns true if it matches tt.
func (p *Parser) match(tt lexer.TokenType) bool {
	if p.at(tt) {
		p.advance()
		return true
	}
	return false
}

func syntaxErrorAt(t lexer.Token, format string, args ...any) error {
	return dberrors.NewSqlSyntaxError(fmt.Sprintf(format, args...), dberrors.Position{Line: t.Line, Column: t.Column})
}

// ParseOne parses exactly one statement, with an optional trailing
// semicolon, and rejects any trailing content.
func ParseOne(sql string) (ast.Statement, error) {
	tokens, err := lexer.Tokenize(sql)
	if err != nil {
		return nil, err
	}
	p := newParser(tokens)

	if p.at(lexer.EOF) {
		return nil, dberrors.NewSqlSyntaxError("Empty input", dberrors.Position{Line: 1, Column: 1})
	}

	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}

	p.match(lexer.SEMI)

	if !p.at(lexer.EOF) {
		return nil, syntaxErrorAt(p.cur(), "Expected a single statement")
	}

	return stmt, nil
}

// ParseScript parses zero or more semicolon-separated statements. Empty
// `;;` runs are skipped; a trailing semicolon is optional.
func ParseScript(sql string) ([]ast.Statement, error) {
	tokens, err := lexer.Tokenize(sql)
	if err != nil {
		return nil, err
	}
	p := newParser(tokens)

	var stmts []ast.Statement
	for {
		for p.match(lexer.SEMI) {
		}
		if p.at(lexer.EOF) {
			break
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		p.match(lexer.SEMI)
	}
	return stmts, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	switch p.cur().Type {
	case lexer.CREATE:
		return p.parseCreate()
	case lexer.INSERT:
		return p.parseInsert()
	case lexer.SELECT:
		return p.parseSelect()
	case lexer.UPDATE:
		return p.parseUpdate()
	case lexer.DELETE:
		return p.parseDelete()
	default:
		t := p.cur()
		return nil, syntaxErrorAt(t, "Unexpected token: %q", t.Lexeme)
	}
}

func (p *Parser) parseCreate() (ast.Statement, error) {
	p.advance() // CREATE
	switch p.cur().Type {
	case lexer.TABLE:
		p.advance()
		return p.parseCreateTableAfterKeyword()
	case lexer.INDEX:
		p.advance()
		return p.parseCreateIndexAfterKeyword()
	default:
		t := p.cur()
		return nil, syntaxErrorAt(t, "Expected TABLE or INDEX after CREATE")
	}
}

func (p *Parser) parseCreateTableAfterKeyword() (ast.Statement, error) {
	nameTok, err := p.expect(lexer.IDENT, "Expected table name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LPAREN, "Expected '(' after table name"); err != nil {
		return nil, err
	}

	var columns []ast.ColumnDef
	for {
		col, err := p.parseColumnDef()
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)
		if !p.match(lexer.COMMA) {
			break
		}
	}

	if _, err := p.expect(lexer.RPAREN, "Expected ')' to close column list"); err != nil {
		return nil, err
	}

	return &ast.CreateTable{TableName: nameTok.Lexeme, Columns: columns}, nil
}

func (p *Parser) parseColumnDef() (ast.ColumnDef, error) {
	nameTok, err := p.expect(lexer.IDENT, "Expected column name")
	if err != nil {
		return ast.ColumnDef{}, err
	}
	typ, err := p.parseTypeSpec()
	if err != nil {
		return ast.ColumnDef{}, err
	}

	col := ast.ColumnDef{Name: nameTok.Lexeme, Type: typ}

	for {
		switch p.cur().Type {
		case lexer.NOT:
			p.advance()
			if _, err := p.expect(lexer.NULL, "Expected NULL after NOT"); err != nil {
				return ast.ColumnDef{}, err
			}
			col.NotNull = true
		case lexer.UNIQUE:
			p.advance()
			col.Unique = true
		case lexer.PRIMARY:
			p.advance()
			if _, err := p.expect(lexer.KEY, "Expected KEY after PRIMARY"); err != nil {
				return ast.ColumnDef{}, err
			}
			col.PrimaryKey = true
		default:
			return col, nil
		}
	}
}

func (p *Parser) parseTypeSpec() (ast.TypeSpec, error) {
	nameTok, err := p.expect(lexer.IDENT, "Expected type name")
	if err != nil {
		return ast.TypeSpec{}, err
	}
	typ := ast.TypeSpec{Name: upper(nameTok.Lexeme)}

	if p.match(lexer.LPAREN) {
		for {
			numTok, err := p.expect(lexer.INT, "Expected integer type parameter")
			if err != nil {
				return ast.TypeSpec{}, err
			}
			typ.Params = append(typ.Params, numTok.Value.(int64))
			if !p.match(lexer.COMMA) {
				break
			}
		}
		if _, err := p.expect(lexer.RPAREN, "Expected ')' to close type parameters"); err != nil {
			return ast.TypeSpec{}, err
		}
	}

	return typ, nil
}

func (p *Parser) parseCreateIndexAfterKeyword() (ast.Statement, error) {
	indexTok, err := p.expect(lexer.IDENT, "Expected index name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.ON, "Expected ON after index name"); err != nil {
		return nil, err
	}
	tableTok, err := p.expect(lexer.IDENT, "Expected table name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LPAREN, "Expected '(' before column name"); err != nil {
		return nil, err
	}
	colTok, err := p.expect(lexer.IDENT, "Expected column name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RPAREN, "Expected ')' after column name"); err != nil {
		return nil, err
	}

	return &ast.CreateIndex{
		IndexName:  indexTok.Lexeme,
		TableName:  tableTok.Lexeme,
		ColumnName: colTok.Lexeme,
	}, nil
}

func (p *Parser) parseInsert() (ast.Statement, error) {
	p.advance() // INSERT
	if _, err := p.expect(lexer.INTO, "Expected INTO after INSERT"); err != nil {
		return nil, err
	}
	tableTok, err := p.expect(lexer.IDENT, "Expected table name")
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.LPAREN, "Expected '(' before column list"); err != nil {
		return nil, err
	}
	var columns []string
	for {
		colTok, err := p.expect(lexer.IDENT, "Expected column name")
		if err != nil {
			return nil, err
		}
		columns = append(columns, colTok.Lexeme)
		if !p.match(lexer.COMMA) {
			break
		}
	}
	if _, err := p.expect(lexer.RPAREN, "Expected ')' after column list"); err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.VALUES, "Expected VALUES after column list"); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LPAREN, "Expected '(' before value list"); err != nil {
		return nil, err
	}
	var values []any
	for {
		val, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		values = append(values, val)
		if !p.match(lexer.COMMA) {
			break
		}
	}
	closeTok, err := p.expect(lexer.RPAREN, "Expected ')' after value list")
	if err != nil {
		return nil, err
	}

	if len(columns) != len(values) {
		return nil, syntaxErrorAt(closeTok, "Number of columns does not match number of values")
	}

	return &ast.Insert{TableName: tableTok.Lexeme, Columns: columns, Values: values}, nil
}

func (p *Parser) parseSelect() (ast.Statement, error) {
	p.advance() // SELECT
	columns, err := p.parseSelectList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.FROM, "Expected FROM after select list"); err != nil {
		return nil, err
	}
	tableTok, err := p.expect(lexer.IDENT, "Expected table name")
	if err != nil {
		return nil, err
	}

	var joins []ast.JoinClause
	for p.at(lexer.JOIN) {
		join, err := p.parseJoinClause()
		if err != nil {
			return nil, err
		}
		joins = append(joins, join)
	}

	var where *ast.WhereClause
	if p.match(lexer.WHERE) {
		w, err := p.parseWhereClauseAfterWhere()
		if err != nil {
			return nil, err
		}
		where = w
	}

	return &ast.Select{Columns: columns, FromTable: tableTok.Lexeme, Joins: joins, Where: where}, nil
}

// parseSelectList returns nil (meaning SELECT *) or a list of column refs.
func (p *Parser) parseSelectList() ([]ast.ColumnRef, error) {
	if p.match(lexer.STAR) {
		return nil, nil
	}
	var cols []ast.ColumnRef
	for {
		ref, err := p.parseColumnRef()
		if err != nil {
			return nil, err
		}
		cols = append(cols, ref)
		if !p.match(lexer.COMMA) {
			break
		}
	}
	return cols, nil
}

func (p *Parser) parseJoinClause() (ast.JoinClause, error) {
	p.advance() // JOIN
	tableTok, err := p.expect(lexer.IDENT, "Expected table name after JOIN")
	if err != nil {
		return ast.JoinClause{}, err
	}
	if _, err := p.expect(lexer.ON, "Expected ON after JOIN table"); err != nil {
		return ast.JoinClause{}, err
	}
	left, err := p.parseColumnRef()
	if err != nil {
		return ast.JoinClause{}, err
	}
	if _, err := p.expect(lexer.EQ, "Expected '=' in JOIN condition"); err != nil {
		return ast.JoinClause{}, err
	}
	right, err := p.parseColumnRef()
	if err != nil {
		return ast.JoinClause{}, err
	}
	return ast.JoinClause{TableName: tableTok.Lexeme, Left: left, Right: right}, nil
}

func (p *Parser) parseUpdate() (ast.Statement, error) {
	p.advance() // UPDATE
	tableTok, err := p.expect(lexer.IDENT, "Expected table name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.SET, "Expected SET after table name"); err != nil {
		return nil, err
	}

	var assignments []ast.Assignment
	for {
		a, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
		if !p.match(lexer.COMMA) {
			break
		}
	}

	var where *ast.WhereClause
	if p.match(lexer.WHERE) {
		w, err := p.parseWhereClauseAfterWhere()
		if err != nil {
			return nil, err
		}
		where = w
	}

	return &ast.Update{TableName: tableTok.Lexeme, Assignments: assignments, Where: where}, nil
}

func (p *Parser) parseAssignment() (ast.Assignment, error) {
	colTok, err := p.expect(lexer.IDENT, "Expected column name in SET clause")
	if err != nil {
		return ast.Assignment{}, err
	}
	if _, err := p.expect(lexer.EQ, "Expected '=' in SET clause"); err != nil {
		return ast.Assignment{}, err
	}
	val, err := p.parseLiteral()
	if err != nil {
		return ast.Assignment{}, err
	}
	return ast.Assignment{Column: colTok.Lexeme, Value: val}, nil
}

func (p *Parser) parseDelete() (ast.Statement, error) {
	p.advance() // DELETE
	if _, err := p.expect(lexer.FROM, "Expected FROM after DELETE"); err != nil {
		return nil, err
	}
	tableTok, err := p.expect(lexer.IDENT, "Expected table name")
	if err != nil {
		return nil, err
	}

	var where *ast.WhereClause
	if p.match(lexer.WHERE) {
		w, err := p.parseWhereClauseAfterWhere()
		if err != nil {
			return nil, err
		}
		where = w
	}

	return &ast.Delete{TableName: tableTok.Lexeme, Where: where}, nil
}

func (p *Parser) parseWhereClauseAfterWhere() (*ast.WhereClause, error) {
	var conds []ast.Condition
	for {
		cond, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		conds = append(conds, cond)
		if !p.match(lexer.AND) {
			break
		}
	}
	return &ast.WhereClause{Conditions: conds}, nil
}

func (p *Parser) parseCondition() (ast.Condition, error) {
	left, err := p.parseColumnRef()
	if err != nil {
		return ast.Condition{}, err
	}
	if _, err := p.expect(lexer.EQ, "Expected '=' in condition"); err != nil {
		return ast.Condition{}, err
	}
	right, err := p.parseLiteral()
	if err != nil {
		return ast.Condition{}, err
	}
	return ast.Condition{Left: left, Op: "=", Right: right}, nil
}

func (p *Parser) parseColumnRef() (ast.ColumnRef, error) {
	firstTok, err := p.expect(lexer.IDENT, "Expected column name")
	if err != nil {
		return ast.ColumnRef{}, err
	}
	if p.match(lexer.DOT) {
		colTok, err := p.expect(lexer.IDENT, "Expected column name after '.'")
		if err != nil {
			return ast.ColumnRef{}, err
		}
		return ast.ColumnRef{Table: firstTok.Lexeme, Column: colTok.Lexeme}, nil
	}
	return ast.ColumnRef{Column: firstTok.Lexeme}, nil
}

func (p *Parser) parseLiteral() (any, error) {
	switch p.cur().Type {
	case lexer.INT:
		t := p.advance()
		return t.Value, nil
	case lexer.STRING:
		t := p.advance()
		return t.Value, nil
	case lexer.BOOL:
		t := p.advance()
		return t.Value, nil
	default:
		t := p.cur()
		return nil, syntaxErrorAt(t, "Expected a literal value")
	}
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}
