// Package lexer scans C and C++ source text into preprocessing tokens
package lexer

import (
	"fmt"

	"cppparser/pkg/diag"

	"modernc.org/token"
)

// TokenType represents the type of a token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenError
	TokenNewline
	TokenLineComment    // //
	TokenBlockComment   // /* */
	TokenDoxygenComment // /** */ or ///

	// Literals
	TokenIdentifier
	TokenNumber
	TokenString
	TokenCharLiteral
	TokenUnknown // stray character such as @ or `

	// Operators and punctuation
	TokenLeftParen        // (
	TokenRightParen       // )
	TokenLeftBrace        // {
	TokenRightBrace       // }
	TokenLeftBracket      // [
	TokenRightBracket     // ]
	TokenSemicolon        // ;
	TokenColon            // :
	TokenDoubleColon      // ::
	TokenComma            // ,
	TokenDot              // .
	TokenDotStar          // .*
	TokenEllipsis         // ...
	TokenArrow            // ->
	TokenArrowStar        // ->*
	TokenEquals           // =
	TokenDoubleEquals     // ==
	TokenNotEquals        // !=
	TokenLess             // <
	TokenGreater          // >
	TokenLessEqual        // <=
	TokenGreaterEqual     // >=
	TokenSpaceship        // <=>
	TokenAmpersand        // &
	TokenDoubleAmp        // &&
	TokenPipe             // |
	TokenDoublePipe       // ||
	TokenCaret            // ^
	TokenTilde            // ~
	TokenExclamation      // !
	TokenQuestion         // ?
	TokenPlus             // +
	TokenMinus            // -
	TokenStar             // *
	TokenSlash            // /
	TokenPercent          // %
	TokenPlusPlus         // ++
	TokenMinusMinus       // --
	TokenPlusEquals       // +=
	TokenMinusEquals      // -=
	TokenStarEquals       // *=
	TokenSlashEquals      // /=
	TokenPercentEquals    // %=
	TokenAmpEquals        // &=
	TokenPipeEquals       // |=
	TokenCaretEquals      // ^=
	TokenLeftShift        // <<
	TokenRightShift       // >>
	TokenLeftShiftEquals  // <<=
	TokenRightShiftEquals // >>=

	// Preprocessor
	TokenHash      // #
	TokenHashHash  // ##
	TokenBackslash // \

	// Keywords
	TokenKeywordStart // Marker for start of keywords
	TokenAlignas
	TokenAlignof
	TokenAsm
	TokenAuto
	TokenBool
	TokenBreak
	TokenCase
	TokenCatch
	TokenChar
	TokenChar8
	TokenChar16
	TokenChar32
	TokenClass
	TokenConcept
	TokenConst
	TokenConsteval
	TokenConstexpr
	TokenConstinit
	TokenConstCast
	TokenContinue
	TokenCoAwait
	TokenCoReturn
	TokenCoYield
	TokenDecltype
	TokenDefault
	TokenDelete
	TokenDo
	TokenDouble
	TokenDynamicCast
	TokenElse
	TokenEnum
	TokenExplicit
	TokenExport
	TokenExtern
	TokenFalse
	TokenFloat
	TokenFor
	TokenFriend
	TokenGoto
	TokenIf
	TokenInline
	TokenInt
	TokenLong
	TokenMutable
	TokenNamespace
	TokenNew
	TokenNoexcept
	TokenNullptr
	TokenOperator
	TokenPrivate
	TokenProtected
	TokenPublic
	TokenPublished
	TokenRegister
	TokenReinterpretCast
	TokenRequires
	TokenReturn
	TokenShort
	TokenSigned
	TokenSizeof
	TokenStatic
	TokenStaticAssert
	TokenStaticCast
	TokenStruct
	TokenSwitch
	TokenTemplate
	TokenThis
	TokenThreadLocal
	TokenThrow
	TokenTrue
	TokenTry
	TokenTypedef
	TokenTypeid
	TokenTypename
	TokenUnion
	TokenUnsigned
	TokenUsing
	TokenVirtual
	TokenVoid
	TokenVolatile
	TokenWchar
	TokenWhile
	TokenKeywordEnd // Marker for end of keywords
)

// Token represents a single preprocessing token
type Token struct {
	Type  TokenType
	Value string
	Pos   token.Pos
	File  *token.File
	Space bool // preceded by whitespace or a comment
	BOL   bool // first token on its line
}

// String returns a string representation of the token
func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "EOF"
	case TokenError:
		return fmt.Sprintf("ERROR:%s", t.Value)
	case TokenNewline:
		return "NEWLINE"
	case TokenLineComment:
		return fmt.Sprintf("LINE_COMMENT:%s", t.Value)
	case TokenBlockComment:
		return fmt.Sprintf("BLOCK_COMMENT:%s", t.Value)
	case TokenDoxygenComment:
		return fmt.Sprintf("DOXYGEN_COMMENT:%s", t.Value)
	case TokenIdentifier:
		return fmt.Sprintf("IDENTIFIER:%s", t.Value)
	case TokenNumber:
		return fmt.Sprintf("NUMBER:%s", t.Value)
	case TokenString:
		return fmt.Sprintf("STRING:%s", t.Value)
	case TokenCharLiteral:
		return fmt.Sprintf("CHAR:%s", t.Value)
	default:
		if t.IsKeyword() {
			return fmt.Sprintf("KEYWORD:%s", t.Value)
		}
		return fmt.Sprintf("%s:%s", tokenTypeNames[t.Type], t.Value)
	}
}

// IsKeyword reports whether the token is a reserved word
func (t Token) IsKeyword() bool {
	return t.Type > TokenKeywordStart && t.Type < TokenKeywordEnd
}

// IsIdentifierLike reports whether the token could name a macro: identifiers and keywords
func (t Token) IsIdentifierLike() bool {
	return t.Type == TokenIdentifier || t.IsKeyword()
}

// IsComment reports whether the token is any kind of comment
func (t Token) IsComment() bool {
	return t.Type == TokenLineComment || t.Type == TokenBlockComment || t.Type == TokenDoxygenComment
}

// Is reports whether the token has one of the given types
func (t Token) Is(types ...TokenType) bool {
	for _, tt := range types {
		if t.Type == tt {
			return true
		}
	}
	return false
}

// Position resolves the token position through the file's line table, honoring #line
func (t Token) Position() token.Position {
	if t.File == nil || !t.Pos.IsValid() {
		return token.Position{}
	}
	return t.File.PositionFor(t.Pos, true)
}

// Location returns the token position as a diagnostic location
func (t Token) Location() diag.Location {
	pos := t.Position()
	return diag.Location{File: pos.Filename, Line: pos.Line, Column: pos.Column}
}

// Offset returns the byte offset of the token in its file
func (t Token) Offset() int {
	if t.File == nil || !t.Pos.IsValid() {
		return 0
	}
	return t.File.Offset(t.Pos)
}

// Spelling returns the canonical text of a punctuator or keyword type
func Spelling(tt TokenType) string {
	if s, ok := spellings[tt]; ok {
		return s
	}
	return ""
}

var spellings = map[TokenType]string{
	TokenLeftParen:        "(",
	TokenRightParen:       ")",
	TokenLeftBrace:        "{",
	TokenRightBrace:       "}",
	TokenLeftBracket:      "[",
	TokenRightBracket:     "]",
	TokenSemicolon:        ";",
	TokenColon:            ":",
	TokenDoubleColon:      "::",
	TokenComma:            ",",
	TokenDot:              ".",
	TokenDotStar:          ".*",
	TokenEllipsis:         "...",
	TokenArrow:            "->",
	TokenArrowStar:        "->*",
	TokenEquals:           "=",
	TokenDoubleEquals:     "==",
	TokenNotEquals:        "!=",
	TokenLess:             "<",
	TokenGreater:          ">",
	TokenLessEqual:        "<=",
	TokenGreaterEqual:     ">=",
	TokenSpaceship:        "<=>",
	TokenAmpersand:        "&",
	TokenDoubleAmp:        "&&",
	TokenPipe:             "|",
	TokenDoublePipe:       "||",
	TokenCaret:            "^",
	TokenTilde:            "~",
	TokenExclamation:      "!",
	TokenQuestion:         "?",
	TokenPlus:             "+",
	TokenMinus:            "-",
	TokenStar:             "*",
	TokenSlash:            "/",
	TokenPercent:          "%",
	TokenPlusPlus:         "++",
	TokenMinusMinus:       "--",
	TokenPlusEquals:       "+=",
	TokenMinusEquals:      "-=",
	TokenStarEquals:       "*=",
	TokenSlashEquals:      "/=",
	TokenPercentEquals:    "%=",
	TokenAmpEquals:        "&=",
	TokenPipeEquals:       "|=",
	TokenCaretEquals:      "^=",
	TokenLeftShift:        "<<",
	TokenRightShift:       ">>",
	TokenLeftShiftEquals:  "<<=",
	TokenRightShiftEquals: ">>=",
	TokenHash:             "#",
	TokenHashHash:         "##",
	TokenBackslash:        "\\",
}

// tokenTypeNames maps token types to their names for debugging
var tokenTypeNames = map[TokenType]string{
	TokenUnknown:          "UNKNOWN",
	TokenLeftParen:        "LEFT_PAREN",
	TokenRightParen:       "RIGHT_PAREN",
	TokenLeftBrace:        "LEFT_BRACE",
	TokenRightBrace:       "RIGHT_BRACE",
	TokenLeftBracket:      "LEFT_BRACKET",
	TokenRightBracket:     "RIGHT_BRACKET",
	TokenSemicolon:        "SEMICOLON",
	TokenColon:            "COLON",
	TokenDoubleColon:      "DOUBLE_COLON",
	TokenComma:            "COMMA",
	TokenDot:              "DOT",
	TokenDotStar:          "DOT_STAR",
	TokenEllipsis:         "ELLIPSIS",
	TokenArrow:            "ARROW",
	TokenArrowStar:        "ARROW_STAR",
	TokenEquals:           "EQUALS",
	TokenDoubleEquals:     "DOUBLE_EQUALS",
	TokenNotEquals:        "NOT_EQUALS",
	TokenLess:             "LESS",
	TokenGreater:          "GREATER",
	TokenLessEqual:        "LESS_EQUAL",
	TokenGreaterEqual:     "GREATER_EQUAL",
	TokenSpaceship:        "SPACESHIP",
	TokenAmpersand:        "AMPERSAND",
	TokenDoubleAmp:        "DOUBLE_AMP",
	TokenPipe:             "PIPE",
	TokenDoublePipe:       "DOUBLE_PIPE",
	TokenCaret:            "CARET",
	TokenTilde:            "TILDE",
	TokenExclamation:      "EXCLAMATION",
	TokenQuestion:         "QUESTION",
	TokenPlus:             "PLUS",
	TokenMinus:            "MINUS",
	TokenStar:             "STAR",
	TokenSlash:            "SLASH",
	TokenPercent:          "PERCENT",
	TokenPlusPlus:         "PLUS_PLUS",
	TokenMinusMinus:       "MINUS_MINUS",
	TokenPlusEquals:       "PLUS_EQUALS",
	TokenMinusEquals:      "MINUS_EQUALS",
	TokenStarEquals:       "STAR_EQUALS",
	TokenSlashEquals:      "SLASH_EQUALS",
	TokenPercentEquals:    "PERCENT_EQUALS",
	TokenAmpEquals:        "AMP_EQUALS",
	TokenPipeEquals:       "PIPE_EQUALS",
	TokenCaretEquals:      "CARET_EQUALS",
	TokenLeftShift:        "LEFT_SHIFT",
	TokenRightShift:       "RIGHT_SHIFT",
	TokenLeftShiftEquals:  "LEFT_SHIFT_EQUALS",
	TokenRightShiftEquals: "RIGHT_SHIFT_EQUALS",
	TokenHash:             "HASH",
	TokenHashHash:         "HASH_HASH",
	TokenBackslash:        "BACKSLASH",
}

// Keywords map for quick lookup. The alternative operator spellings map onto the
// punctuator they stand for.
var keywords = map[string]TokenType{
	"alignas":          TokenAlignas,
	"alignof":          TokenAlignof,
	"asm":              TokenAsm,
	"auto":             TokenAuto,
	"bool":             TokenBool,
	"break":            TokenBreak,
	"case":             TokenCase,
	"catch":            TokenCatch,
	"char":             TokenChar,
	"char8_t":          TokenChar8,
	"char16_t":         TokenChar16,
	"char32_t":         TokenChar32,
	"class":            TokenClass,
	"concept":          TokenConcept,
	"const":            TokenConst,
	"consteval":        TokenConsteval,
	"constexpr":        TokenConstexpr,
	"constinit":        TokenConstinit,
	"const_cast":       TokenConstCast,
	"continue":         TokenContinue,
	"co_await":         TokenCoAwait,
	"co_return":        TokenCoReturn,
	"co_yield":         TokenCoYield,
	"decltype":         TokenDecltype,
	"default":          TokenDefault,
	"delete":           TokenDelete,
	"do":               TokenDo,
	"double":           TokenDouble,
	"dynamic_cast":     TokenDynamicCast,
	"else":             TokenElse,
	"enum":             TokenEnum,
	"explicit":         TokenExplicit,
	"export":           TokenExport,
	"extern":           TokenExtern,
	"false":            TokenFalse,
	"float":            TokenFloat,
	"for":              TokenFor,
	"friend":           TokenFriend,
	"goto":             TokenGoto,
	"if":               TokenIf,
	"inline":           TokenInline,
	"int":              TokenInt,
	"long":             TokenLong,
	"mutable":          TokenMutable,
	"namespace":        TokenNamespace,
	"new":              TokenNew,
	"noexcept":         TokenNoexcept,
	"nullptr":          TokenNullptr,
	"operator":         TokenOperator,
	"private":          TokenPrivate,
	"protected":        TokenProtected,
	"public":           TokenPublic,
	"__published":      TokenPublished,
	"register":         TokenRegister,
	"reinterpret_cast": TokenReinterpretCast,
	"requires":         TokenRequires,
	"return":           TokenReturn,
	"short":            TokenShort,
	"signed":           TokenSigned,
	"sizeof":           TokenSizeof,
	"static":           TokenStatic,
	"static_assert":    TokenStaticAssert,
	"static_cast":      TokenStaticCast,
	"struct":           TokenStruct,
	"switch":           TokenSwitch,
	"template":         TokenTemplate,
	"this":             TokenThis,
	"thread_local":     TokenThreadLocal,
	"throw":            TokenThrow,
	"true":             TokenTrue,
	"try":              TokenTry,
	"typedef":          TokenTypedef,
	"typeid":           TokenTypeid,
	"typename":         TokenTypename,
	"union":            TokenUnion,
	"unsigned":         TokenUnsigned,
	"using":            TokenUsing,
	"virtual":          TokenVirtual,
	"void":             TokenVoid,
	"volatile":         TokenVolatile,
	"wchar_t":          TokenWchar,
	"while":            TokenWhile,

	"and":    TokenDoubleAmp,
	"or":     TokenDoublePipe,
	"not":    TokenExclamation,
	"not_eq": TokenNotEquals,
	"bitand": TokenAmpersand,
	"bitor":  TokenPipe,
	"xor":    TokenCaret,
	"compl":  TokenTilde,
	"and_eq": TokenAmpEquals,
	"or_eq":  TokenPipeEquals,
	"xor_eq": TokenCaretEquals,
}

// KeywordType returns the token type for a reserved word, or TokenIdentifier
func KeywordType(word string) TokenType {
	if tt, ok := keywords[word]; ok {
		return tt
	}
	return TokenIdentifier
}
