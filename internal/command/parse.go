package command

import (
	"strconv"
	"strings"

	"github.com/mattn/go-shellwords"
	"github.com/spf13/pflag"

	"github.com/san-kum/atomscene/internal/errs"
)

// Quote joins words as single-quoted command words that Split reads back
// unchanged.
func Quote(words ...string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = "'" + strings.ReplaceAll(w, "'", `'\''`) + "'"
	}
	return strings.Join(quoted, " ")
}

// Split tokenises a command line into commands separated by ';'. A command
// whose first word starts with '#' comments out the rest of the line.
func Split(line string) ([][]string, error) {
	var out [][]string
	rest := line
	for {
		trimmed := strings.TrimSpace(rest)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			return out, nil
		}
		p := shellwords.NewParser()
		words, err := p.Parse(rest)
		if err != nil {
			return nil, errs.Invalid("cannot parse %q: %v", strings.TrimSpace(line), err)
		}
		if len(words) > 0 {
			out = append(out, words)
		}
		if p.Position < 0 {
			return out, nil
		}
		runes := []rune(rest)
		if sep := runes[p.Position]; sep != ';' {
			return nil, errs.Invalid("unexpected %q in %q", sep, strings.TrimSpace(line))
		}
		rest = string(runes[p.Position+1:])
	}
}

const nargsKey = "nargs"

// oneOrMore marks a flag that takes values up to the next flag.
const oneOrMore = -1

// nargs makes flag name consume n following words.
func nargs(fs *pflag.FlagSet, name string, n int) {
	_ = fs.SetAnnotation(name, nargsKey, []string{strconv.Itoa(n)})
}

func arity(f *pflag.Flag) int {
	if f.Value.Type() == "bool" {
		return 0
	}
	if v, ok := f.Annotations[nargsKey]; ok && len(v) == 1 {
		if n, err := strconv.Atoi(v[0]); err == nil {
			return n
		}
	}
	return 1
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// isFlag reports whether word names a flag. Negative numbers and a lone
// dash are values.
func isFlag(word string) bool {
	return len(word) > 1 && word[0] == '-' && !isNumber(word)
}

// normalize rewrites words into "--name=value" arguments pflag can parse
// and the positional words, in order. Flags may be written with one dash
// or two; a flag with arity n repeats its name once per value.
func normalize(fs *pflag.FlagSet, words []string) (flags, positional []string, help bool, err error) {
	for i := 0; i < len(words); i++ {
		w := words[i]
		if !isFlag(w) {
			positional = append(positional, w)
			continue
		}
		name, inline, hasInline := strings.Cut(strings.TrimLeft(w, "-"), "=")
		if name == "h" || name == "help" {
			return nil, nil, true, nil
		}
		f := fs.Lookup(name)
		if f == nil {
			return nil, nil, false, errs.Invalid("unknown flag -%s", name)
		}
		if hasInline {
			flags = append(flags, "--"+name+"="+inline)
			continue
		}
		n := arity(f)
		switch {
		case n == 0:
			flags = append(flags, "--"+name)
		case n == oneOrMore:
			start := i
			for i+1 < len(words) && !isFlag(words[i+1]) {
				i++
				flags = append(flags, "--"+name+"="+words[i])
			}
			if i == start {
				return nil, nil, false, errs.Invalid("flag -%s needs at least one value", name)
			}
		default:
			if i+n >= len(words) {
				return nil, nil, false, errs.Invalid("flag -%s needs %d value(s)", name, n)
			}
			for k := 0; k < n; k++ {
				i++
				if n > 1 && isFlag(words[i]) {
					return nil, nil, false, errs.Invalid("flag -%s needs %d values, got %q", name, n, words[i])
				}
				flags = append(flags, "--"+name+"="+words[i])
			}
		}
	}
	return flags, positional, false, nil
}

func parseInts(what string, words []string) ([]int, error) {
	out := make([]int, len(words))
	for i, w := range words {
		v, err := strconv.Atoi(w)
		if err != nil {
			return nil, errs.Invalid("%s: %q is not an integer", what, w)
		}
		out[i] = v
	}
	return out, nil
}

// parseRanges expands a comma separated list of indices and
// start:stop[:step] slices over n atoms. Negative values count from the
// end and slice bounds are clipped the way Python clips them.
func parseRanges(spec string, n int) ([]int, error) {
	var out []int
	for _, item := range strings.Split(spec, ",") {
		item = strings.TrimSpace(item)
		if !strings.Contains(item, ":") {
			i, err := strconv.Atoi(item)
			if err != nil {
				return nil, errs.Invalid("range %q: %q is not an integer", spec, item)
			}
			if i < 0 {
				i += n
			}
			if i < 0 || i >= n {
				return nil, errs.Reference("atom index %s out of range [0,%d)", item, n)
			}
			out = append(out, i)
			continue
		}

		parts := strings.Split(item, ":")
		if len(parts) > 3 {
			return nil, errs.Invalid("range %q: %q has too many colons", spec, item)
		}
		var bound [3]*int
		for k, p := range parts {
			if p = strings.TrimSpace(p); p == "" {
				continue
			}
			v, err := strconv.Atoi(p)
			if err != nil {
				return nil, errs.Invalid("range %q: %q is not an integer", spec, p)
			}
			bound[k] = &v
		}
		step := 1
		if bound[2] != nil {
			step = *bound[2]
		}
		if step == 0 {
			return nil, errs.Invalid("range %q: step is zero", spec)
		}
		lo, hi := 0, n
		if step < 0 {
			lo, hi = -1, n-1
		}
		clip := func(b *int, def int) int {
			if b == nil {
				return def
			}
			v := *b
			if v < 0 {
				v += n
			}
			return max(lo, min(v, hi))
		}
		if step > 0 {
			for i := clip(bound[0], 0); i < clip(bound[1], n); i += step {
				out = append(out, i)
			}
		} else {
			for i := clip(bound[0], n-1); i > clip(bound[1], -1); i += step {
				out = append(out, i)
			}
		}
	}
	return out, nil
}

func parseFloats(what string, words []string) ([]float64, error) {
	out := make([]float64, len(words))
	for i, w := range words {
		v, err := strconv.ParseFloat(w, 64)
		if err != nil {
			return nil, errs.Invalid("%s: %q is not a number", what, w)
		}
		out[i] = v
	}
	return out, nil
}

// triple expands one value to three or passes three through.
func triple[T any](what string, vals []T) ([3]T, error) {
	switch len(vals) {
	case 1:
		return [3]T{vals[0], vals[0], vals[0]}, nil
	case 3:
		return [3]T{vals[0], vals[1], vals[2]}, nil
	}
	return [3]T{}, errs.Invalid("%s needs 1 or 3 values, got %d", what, len(vals))
}

func onOff(what string, words []string, cur bool) (bool, error) {
	if len(words) == 0 {
		return !cur, nil
	}
	if len(words) > 1 {
		return false, errs.Invalid("%s takes on, off or nothing", what)
	}
	switch strings.ToLower(words[0]) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, errs.Invalid("%s: expected on or off, got %q", what, words[0])
}
