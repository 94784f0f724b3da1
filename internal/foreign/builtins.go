package foreign

import (
	"math"
	"regexp"
	"salinas/internal/dec"
	"salinas/internal/object"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var builtins = GetBuiltinFunctions()

// GetBuiltinFunctions returns a fresh table of the built-in functions keyed
// by upper case name.
func GetBuiltinFunctions() map[string]*object.Native {
	return map[string]*object.Native{
		// string functions
		"UPPER":  fnUpper(),
		"LOWER":  fnLower(),
		"LEFT":   fnLeft(),
		"RIGHT":  fnRight(),
		"SUBSTR": fnSubstr(),
		"AT":     fnAt(),
		"RAT":    fnRat(),
		"CHR":    fnChr(),
		"CENTER": fnCenter(),

		// numeric functions
		"ASC":    fnAsc(),
		"ABS":    fnAbs(),
		"VAL":    fnVal(),
		"RANDOM": fnRandom(),
		"INT":    fnInt(),
		"ROUND":  fnRound(),
		"PI":     fnPi(),

		"IIF": fnIif(),

		"SQLCONNECT":    fnSqlConnect(),
		"SQLDISCONNECT": fnSqlDisconnect(),
		"SQLEXEC":       fnSqlExec(),
		"SQLQUERY":      fnSqlQuery(),
		"SQLBEGIN":      fnSqlBegin(),
		"SQLCOMMIT":     fnSqlCommit(),
		"SQLROLLBACK":   fnSqlRollback(),
	}
}

// LookupBuiltin finds a built-in function by name, ignoring case.
func LookupBuiltin(name string) (*object.Native, bool) {
	fn, ok := builtins[strings.ToUpper(name)]
	return fn, ok
}

func checkParameterCount(name string, count int, args []*object.Value) error {
	if len(args) != count {
		return object.NewFunctionCallError("Function %s must be called with %d parameters", name, count)
	}
	return nil
}

func checkParameterRange(name string, from, to int, args []*object.Value) error {
	if len(args) < from || len(args) > to {
		return object.NewFunctionCallError("Function %s must be called with between %d and %d parameters", name, from, to)
	}
	return nil
}

// callError turns a conversion failure inside a function into a function
// call error that still matches the original kind.
func callError(name string, err error) error {
	return &object.RuntimeError{
		Kind:    object.ErrFunctionCall,
		Message: "Function " + name + ": " + object.AsRuntimeError(err).Message,
		Cause:   err,
	}
}

func stringArg(name string, arg *object.Value) (string, error) {
	s, err := arg.AsString()
	if err != nil {
		return "", callError(name, err)
	}
	return s, nil
}

func numberArg(name string, arg *object.Value) (decimal.Decimal, error) {
	n, err := arg.AsNumber()
	if err != nil {
		return dec.Zero, callError(name, err)
	}
	return n, nil
}

// intArg converts arg to a whole number, truncating toward zero.
func intArg(name string, arg *object.Value) (int, error) {
	n, err := numberArg(name, arg)
	if err != nil {
		return 0, err
	}
	return int(n.IntPart()), nil
}

func fnUpper() *object.Native {
	return &object.Native{
		FnName: "UPPER",
		Fn: func(ctx object.EvaluatorContext, args ...*object.Value) (*object.Value, error) {
			if err := checkParameterCount("UPPER", 1, args); err != nil {
				return nil, err
			}
			s, err := stringArg("UPPER", args[0])
			if err != nil {
				return nil, err
			}
			return object.String(strings.ToUpper(s)), nil
		},
	}
}

func fnLower() *object.Native {
	return &object.Native{
		FnName: "LOWER",
		Fn: func(ctx object.EvaluatorContext, args ...*object.Value) (*object.Value, error) {
			if err := checkParameterCount("LOWER", 1, args); err != nil {
				return nil, err
			}
			s, err := stringArg("LOWER", args[0])
			if err != nil {
				return nil, err
			}
			return object.String(strings.ToLower(s)), nil
		},
	}
}

func fnLeft() *object.Native {
	return &object.Native{
		FnName: "LEFT",
		Fn: func(ctx object.EvaluatorContext, args ...*object.Value) (*object.Value, error) {
			if err := checkParameterCount("LEFT", 2, args); err != nil {
				return nil, err
			}
			s, err := stringArg("LEFT", args[0])
			if err != nil {
				return nil, err
			}
			amount, err := intArg("LEFT", args[1])
			if err != nil {
				return nil, err
			}
			runes := []rune(s)
			if amount >= len(runes) {
				return args[0], nil
			}
			return object.String(string(runes[:max(amount, 0)])), nil
		},
	}
}

func fnRight() *object.Native {
	return &object.Native{
		FnName: "RIGHT",
		Fn: func(ctx object.EvaluatorContext, args ...*object.Value) (*object.Value, error) {
			if err := checkParameterCount("RIGHT", 2, args); err != nil {
				return nil, err
			}
			s, err := stringArg("RIGHT", args[0])
			if err != nil {
				return nil, err
			}
			amount, err := intArg("RIGHT", args[1])
			if err != nil {
				return nil, err
			}
			runes := []rune(s)
			if amount >= len(runes) {
				return args[0], nil
			}
			return object.String(string(runes[len(runes)-max(amount, 0):])), nil
		},
	}
}

// SUBSTR(s, start, length) with a 1-based start. Out of range positions are
// clamped to the string.
func fnSubstr() *object.Native {
	return &object.Native{
		FnName: "SUBSTR",
		Fn: func(ctx object.EvaluatorContext, args ...*object.Value) (*object.Value, error) {
			if err := checkParameterCount("SUBSTR", 3, args); err != nil {
				return nil, err
			}
			s, err := stringArg("SUBSTR", args[0])
			if err != nil {
				return nil, err
			}
			start, err := intArg("SUBSTR", args[1])
			if err != nil {
				return nil, err
			}
			amount, err := intArg("SUBSTR", args[2])
			if err != nil {
				return nil, err
			}

			runes := []rune(s)
			from := min(max(start, 1), len(runes)+1) - 1
			to := from + min(max(amount, 0), len(runes)-from)
			return object.String(string(runes[from:to])), nil
		},
	}
}

func fnAt() *object.Native {
	return &object.Native{
		FnName: "AT",
		Fn: func(ctx object.EvaluatorContext, args ...*object.Value) (*object.Value, error) {
			needle, haystack, occurrence, err := searchArgs("AT", args)
			if err != nil || needle == "" || haystack == "" {
				return object.NumberFromInt(0), err
			}

			pos := -1
			for ; occurrence > 0; occurrence-- {
				next := strings.Index(haystack[pos+1:], needle)
				if next < 0 {
					return object.NumberFromInt(0), nil
				}
				pos += next + 1
			}
			return object.NumberFromInt(int64(utf8.RuneCountInString(haystack[:pos]) + 1)), nil
		},
	}
}

// RAT is AT searching from the right end of the haystack.
func fnRat() *object.Native {
	return &object.Native{
		FnName: "RAT",
		Fn: func(ctx object.EvaluatorContext, args ...*object.Value) (*object.Value, error) {
			needle, haystack, occurrence, err := searchArgs("RAT", args)
			if err != nil || needle == "" || haystack == "" {
				return object.NumberFromInt(0), err
			}

			end := len(haystack) + len(needle) - 1
			pos := -1
			for ; occurrence > 0; occurrence-- {
				pos = strings.LastIndex(haystack[:min(end, len(haystack))], needle)
				if pos < 0 {
					return object.NumberFromInt(0), nil
				}
				end = pos + len(needle) - 1
			}
			return object.NumberFromInt(int64(utf8.RuneCountInString(haystack[:pos]) + 1)), nil
		},
	}
}

func searchArgs(name string, args []*object.Value) (needle, haystack string, occurrence int, err error) {
	if err = checkParameterRange(name, 2, 3, args); err != nil {
		return
	}
	if needle, err = stringArg(name, args[0]); err != nil {
		return
	}
	if haystack, err = stringArg(name, args[1]); err != nil {
		return
	}
	occurrence = 1
	if len(args) == 3 {
		occurrence, err = intArg(name, args[2])
	}
	return
}

func fnChr() *object.Native {
	return &object.Native{
		FnName: "CHR",
		Fn: func(ctx object.EvaluatorContext, args ...*object.Value) (*object.Value, error) {
			if err := checkParameterCount("CHR", 1, args); err != nil {
				return nil, err
			}
			code, err := intArg("CHR", args[0])
			if err != nil {
				return nil, err
			}
			return object.String(string(rune(code))), nil
		},
	}
}

// CENTER(s[, width[, pad]]) pads s on both sides to width columns. The
// extra column of an odd split goes to the right.
func fnCenter() *object.Native {
	return &object.Native{
		FnName: "CENTER",
		Fn: func(ctx object.EvaluatorContext, args ...*object.Value) (*object.Value, error) {
			if err := checkParameterRange("CENTER", 1, 3, args); err != nil {
				return nil, err
			}
			s, err := stringArg("CENTER", args[0])
			if err != nil {
				return nil, err
			}
			columns := 20
			if len(args) >= 2 {
				if columns, err = intArg("CENTER", args[1]); err != nil {
					return nil, err
				}
			}
			pad := " "
			if len(args) >= 3 {
				p, err := stringArg("CENTER", args[2])
				if err != nil {
					return nil, err
				}
				if r, size := utf8.DecodeRuneInString(p); size > 0 {
					pad = string(r)
				}
			}

			width := utf8.RuneCountInString(s)
			if width >= columns {
				return args[0], nil
			}
			extra := columns - width
			padding := int(float64(columns)/2 - float64(width)/2)
			return object.String(strings.Repeat(pad, padding) + s + strings.Repeat(pad, extra-padding)), nil
		},
	}
}

func fnAsc() *object.Native {
	return &object.Native{
		FnName: "ASC",
		Fn: func(ctx object.EvaluatorContext, args ...*object.Value) (*object.Value, error) {
			if err := checkParameterCount("ASC", 1, args); err != nil {
				return nil, err
			}
			s, err := stringArg("ASC", args[0])
			if err != nil {
				return nil, err
			}
			if s == "" {
				return object.Null(), nil
			}
			r, _ := utf8.DecodeRuneInString(s)
			return object.NumberFromInt(int64(r)), nil
		},
	}
}

func fnAbs() *object.Native {
	return &object.Native{
		FnName: "ABS",
		Fn: func(ctx object.EvaluatorContext, args ...*object.Value) (*object.Value, error) {
			if err := checkParameterCount("ABS", 1, args); err != nil {
				return nil, err
			}
			n, err := numberArg("ABS", args[0])
			if err != nil {
				return nil, err
			}
			return object.Number(n.Abs()), nil
		},
	}
}

var trailingNonDigits = regexp.MustCompile(`\D+$`)

// VAL parses the leading number of a string; NULL when there is none.
func fnVal() *object.Native {
	return &object.Native{
		FnName: "VAL",
		Fn: func(ctx object.EvaluatorContext, args ...*object.Value) (*object.Value, error) {
			if err := checkParameterCount("VAL", 1, args); err != nil {
				return nil, err
			}
			s, err := stringArg("VAL", args[0])
			if err != nil {
				return nil, err
			}
			n, err := decimal.NewFromString(trailingNonDigits.ReplaceAllString(s, ""))
			if err != nil {
				return object.Null(), nil
			}
			return object.Number(n), nil
		},
	}
}

// RANDOM([seed]) returns a number in [0, 1). A negative seed reseeds from
// host entropy; a new nonzero seed reseeds deterministically.
func fnRandom() *object.Native {
	return &object.Native{
		FnName: "RANDOM",
		Fn: func(ctx object.EvaluatorContext, args ...*object.Value) (*object.Value, error) {
			if err := checkParameterRange("RANDOM", 0, 1, args); err != nil {
				return nil, err
			}
			if len(args) == 1 {
				n, err := numberArg("RANDOM", args[0])
				if err != nil {
					return nil, err
				}
				seed := n.IntPart()
				if seed < 0 {
					ctx.Reseed(-1)
				} else if seed != 0 && seed != ctx.RandomSeed() {
					ctx.Reseed(seed)
				}
			}
			return object.Number(decimal.NewFromFloat(ctx.NextRandom())), nil
		},
	}
}

func fnInt() *object.Native {
	return &object.Native{
		FnName: "INT",
		Fn: func(ctx object.EvaluatorContext, args ...*object.Value) (*object.Value, error) {
			if err := checkParameterCount("INT", 1, args); err != nil {
				return nil, err
			}
			n, err := numberArg("INT", args[0])
			if err != nil {
				return nil, err
			}
			return object.Number(dec.Round(n, 0, dec.RoundDown)), nil
		},
	}
}

// ROUND(n[, decimals]) rounds half-up. Negative decimals round to tens,
// hundreds and so on.
func fnRound() *object.Native {
	return &object.Native{
		FnName: "ROUND",
		Fn: func(ctx object.EvaluatorContext, args ...*object.Value) (*object.Value, error) {
			if err := checkParameterRange("ROUND", 1, 2, args); err != nil {
				return nil, err
			}
			decimals := 0
			if len(args) == 2 {
				var err error
				if decimals, err = intArg("ROUND", args[1]); err != nil {
					return nil, err
				}
			}
			n, err := numberArg("ROUND", args[0])
			if err != nil {
				return nil, err
			}
			return object.Number(dec.Round(n, int32(decimals), dec.RoundHalfUp)), nil
		},
	}
}

var pi = decimal.NewFromFloat(math.Pi)

func fnPi() *object.Native {
	return &object.Native{
		FnName: "PI",
		Fn: func(ctx object.EvaluatorContext, args ...*object.Value) (*object.Value, error) {
			if err := checkParameterCount("PI", 0, args); err != nil {
				return nil, err
			}
			return object.Number(pi), nil
		},
	}
}

func fnIif() *object.Native {
	return &object.Native{
		FnName: "IIF",
		Fn: func(ctx object.EvaluatorContext, args ...*object.Value) (*object.Value, error) {
			if err := checkParameterCount("IIF", 3, args); err != nil {
				return nil, err
			}
			cond, err := args[0].AsBool()
			if err != nil {
				return nil, callError("IIF", err)
			}
			if cond {
				return args[1], nil
			}
			return args[2], nil
		},
	}
}
