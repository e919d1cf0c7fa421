package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScanTokensBasic(t *testing.T) {
	toks, err := NewScanner("(TSMean 5 :close)").ScanTokens()
	require.NoError(t, err)

	require.Equal(t, []TokenType{
		TokenLParen, TokenAtom, TokenNumber, TokenColumn, TokenRParen, TokenEOF,
	}, typesOf(toks))
	require.Equal(t, "TSMean", toks[1].Lexeme)
	require.Equal(t, "5", toks[2].Lexeme)
	require.Equal(t, "close", toks[3].Lexeme)
}

func TestScanTokensPunctuationOperators(t *testing.T) {
	cases := map[string][]string{
		"(+ :a :b)":  {"+"},
		"(<= :a :b)": {"<="},
		"(== :a :b)": {"=="},
		"(! :a)":     {"!"},
	}
	for src, want := range cases {
		toks, err := NewScanner(src).ScanTokens()
		require.NoError(t, err, src)
		var atoms []string
		for _, tok := range toks {
			if tok.Type == TokenAtom {
				atoms = append(atoms, tok.Lexeme)
			}
		}
		require.Equal(t, want, atoms, src)
	}
}

func TestScanNumberForms(t *testing.T) {
	toks, err := NewScanner("1 -2 3.5 -4.25 1e3 2.5e-2").ScanTokens()
	require.NoError(t, err)
	var got []string
	for _, tok := range toks {
		if tok.Type == TokenNumber {
			got = append(got, tok.Lexeme)
		}
	}
	require.Equal(t, []string{"1", "-2", "3.5", "-4.25", "1e3", "2.5e-2"}, got)
}

func TestScanEmptyColumnNameFails(t *testing.T) {
	_, err := NewScanner("(Abs :)").ScanTokens()
	require.Error(t, err)
}

func TestScanUnexpectedCharacterFails(t *testing.T) {
	_, err := NewScanner("(Abs $foo)").ScanTokens()
	require.Error(t, err)
}

func TestScanTracksLineAndColumn(t *testing.T) {
	toks, err := NewScanner("(+\n  :a :b)").ScanTokens()
	require.NoError(t, err)
	// :a is on line 2.
	for _, tok := range toks {
		if tok.Type == TokenColumn && tok.Lexeme == "a" {
			require.Equal(t, 2, tok.Pos.Line)
			return
		}
	}
	t.Fatal("column token :a not found")
}

func typesOf(toks []Token) []TokenType {
	out := make([]TokenType, len(toks))
	for i, t := range toks {
		out[i] = t.Type
	}
	return out
}
