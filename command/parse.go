package command

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/budgetbot/budget"
)

// =============================================================================
// FIELD EXTRACTION
// =============================================================================
//
// Commands are free text, not a grammar. Fields are pulled out with a few
// positional rules:
//
//   keyword token:   the token N positions after the FIRST exact occurrence
//                    of a keyword ("ldap jdoe" -> "jdoe")
//   quoted marker:   the text between a marker such as `name "` and the next
//                    double quote
//   inline marker:   the first whitespace-delimited word after the FIRST
//                    occurrence of a substring such as "amount "
//
// Messages are lowercased before they get here.

// tokens is a message split on whitespace.
type tokens []string

func tokenize(msg string) tokens {
	return strings.Fields(msg)
}

func (t tokens) index(keyword string) int {
	for i, tok := range t {
		if tok == keyword {
			return i
		}
	}
	return -1
}

func (t tokens) lastIndex(keyword string) int {
	for i := len(t) - 1; i >= 0; i-- {
		if t[i] == keyword {
			return i
		}
	}
	return -1
}

// after returns the token offset positions after the first keyword.
func (t tokens) after(keyword string, offset int) (string, bool) {
	i := t.index(keyword)
	if i < 0 || i+offset >= len(t) {
		return "", false
	}
	return t[i+offset], true
}

// afterPhrase returns the token following the first occurrence of the
// two-word phrase first+second, e.g. "cost center eng" -> "eng".
func (t tokens) afterPhrase(first, second string) (string, bool) {
	for i := 0; i+2 < len(t); i++ {
		if t[i] == first && t[i+1] == second {
			return t[i+2], true
		}
	}
	return "", false
}

func (t tokens) intAfter(keyword string) (int, bool) {
	s, ok := t.after(keyword, 1)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (t tokens) idAfter(keyword string) (int64, bool) {
	s, ok := t.after(keyword, 1)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (t tokens) amountAfter(keyword string) (decimal.Decimal, bool) {
	s, ok := t.after(keyword, 1)
	if !ok {
		return decimal.Zero, false
	}
	d, err := budget.ParseAmount(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// quoted returns the text between marker and the next double quote.
func quoted(msg, marker string) (string, bool) {
	start := strings.Index(msg, marker)
	if start < 0 {
		return "", false
	}
	start += len(marker)
	end := strings.IndexByte(msg[start:], '"')
	if end < 0 {
		return "", false
	}
	return msg[start : start+end], true
}

// wordAfter returns the first whitespace-delimited word after marker.
func wordAfter(msg, marker string) (string, bool) {
	start := strings.Index(msg, marker)
	if start < 0 {
		return "", false
	}
	fields := strings.Fields(msg[start+len(marker):])
	if len(fields) == 0 {
		return "", false
	}
	return fields[0], true
}
