package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/oceanplexian/naemon/internal/kvvector"
)

// ParseError enumerates every terminal outcome of parsing a command line,
// in place of exceptions: callers switch on this value rather than
// inspecting error strings.
type ParseError int

const (
	OK ParseError = iota
	Failure
	InternalError
	UnknownCommand
	MalformedCommand
	ParseMissingArg
	ParseExcessArg
	ParseTypeMismatch
	UnsupportedArgType
	ValidationFailure
	UnsupportedParseMode
	CustomCommand
)

func (e ParseError) String() string {
	switch e {
	case OK:
		return "OK"
	case Failure:
		return "FAILURE"
	case InternalError:
		return "INTERNAL_ERROR"
	case UnknownCommand:
		return "UNKNOWN_COMMAND"
	case MalformedCommand:
		return "MALFORMED_COMMAND"
	case ParseMissingArg:
		return "PARSE_MISSING_ARG"
	case ParseExcessArg:
		return "PARSE_EXCESS_ARG"
	case ParseTypeMismatch:
		return "PARSE_TYPE_MISMATCH"
	case UnsupportedArgType:
		return "UNSUPPORTED_ARG_TYPE"
	case ValidationFailure:
		return "VALIDATION_FAILURE"
	case UnsupportedParseMode:
		return "UNSUPPORTED_PARSE_MODE"
	case CustomCommand:
		return "CUSTOM_COMMAND"
	default:
		return "UNKNOWN"
	}
}

// ParseResult carries both the enumerated outcome and a human-readable
// detail, the way the upstream GError message trails the enum code.
type ParseResult struct {
	Code    ParseError
	Message string
}

func (r ParseResult) Error() string { return fmt.Sprintf("%s: %s", r.Code, r.Message) }

func fail(code ParseError, format string, args ...interface{}) (*BoundCommand, ParseResult) {
	return nil, ParseResult{Code: code, Message: fmt.Sprintf(format, args...)}
}

// BoundCommand is a descriptor plus concrete argument values, an entry
// time and the original raw argument tail. It is consumed once by the
// dispatcher; the Descriptor it points to is never owned by it.
type BoundCommand struct {
	Descriptor *Descriptor
	Values     []Value
	EntryTime  time.Time
	RawTail    string
	// Custom is true for a "_"-prefixed command name: the parser still
	// accepts and binds it (name plus entry time), but Descriptor is
	// nil and no built-in handler may be invoked — only external
	// observers act on it.
	Custom     bool
	CustomName string
}

// Arg returns the bound value for the named argument, or false if no
// such argument exists on the descriptor.
func (b *BoundCommand) Arg(name string) (Value, bool) {
	if b.Descriptor == nil {
		return Value{}, false
	}
	for i, a := range b.Descriptor.Args {
		if a.Name == name {
			return b.Values[i], true
		}
	}
	return Value{}, false
}

// SyntaxMode selects which wire grammars the parser will try, in order:
// positional before key=value, matching upstream command_syntax order.
type SyntaxMode int

const (
	SyntaxPositional SyntaxMode = 1 << iota
	SyntaxKeyValue
)

// Parser binds raw command lines against a Catalog.
type Parser struct {
	catalog  *Catalog
	resolver Resolver
}

// NewParser builds a parser over the given catalog. resolver may be nil,
// in which case object-typed argument validators always pass (useful in
// tests that only exercise grammar, not live-object validation).
func NewParser(catalog *Catalog, resolver Resolver) *Parser {
	return &Parser{catalog: catalog, resolver: resolver}
}

// Parse binds a raw external-command line against the catalog, trying
// the syntaxes enabled in mode in order (positional, then key=value) and
// stopping at the first one that matches without a grammar-level error.
func (p *Parser) Parse(line string) (*BoundCommand, ParseResult) {
	return p.ParseMode(line, SyntaxPositional|SyntaxKeyValue)
}

func (p *Parser) ParseMode(line string, mode SyntaxMode) (*BoundCommand, ParseResult) {
	if mode&SyntaxPositional != 0 {
		cmd, res := p.parsePositional(line)
		if res.Code != MalformedCommand || mode&SyntaxKeyValue == 0 {
			return cmd, res
		}
		// Fall through to key=value only on a grammar-level mismatch
		// (not found the leading timestamp bracket at all), matching
		// upstream's XOR'd retry across enabled syntaxes.
	}
	if mode&SyntaxKeyValue != 0 {
		return p.parseKeyValue(line)
	}
	return fail(UnsupportedParseMode, "no parse syntax enabled")
}

// parsePositional implements 4.C's positional grammar:
// "[<timestamp>] <NAME>;<arg1>;<arg2>;..."
func (p *Parser) parsePositional(line string) (*BoundCommand, ParseResult) {
	line = strings.TrimSpace(line)
	if line == "" {
		return fail(MalformedCommand, "empty command line")
	}
	if line[0] != '[' {
		return fail(MalformedCommand, "commands must begin with a timestamp inside square brackets")
	}
	closeIdx := strings.IndexByte(line, ']')
	if closeIdx < 0 {
		return fail(MalformedCommand, "missing closing bracket for timestamp")
	}
	tsStr := line[1:closeIdx]
	ts, err := strictParseULong(tsStr)
	if err != nil {
		return fail(MalformedCommand, "failed to parse command timestamp: %v", err)
	}
	entryTime := time.Unix(int64(ts), 0)

	rest := strings.TrimSpace(line[closeIdx+1:])
	if rest == "" {
		return fail(MalformedCommand, "no command name found")
	}

	semiIdx := strings.IndexByte(rest, ';')
	var name, tail string
	if semiIdx < 0 {
		name = rest
	} else {
		name = rest[:semiIdx]
		tail = rest[semiIdx+1:]
	}

	if strings.HasPrefix(name, "_") {
		return &BoundCommand{Custom: true, CustomName: name, EntryTime: entryTime, RawTail: tail}, ParseResult{Code: CustomCommand}
	}

	desc, ok := p.catalog.ByName(name)
	if !ok {
		return fail(UnknownCommand, "unrecognized command %q", name)
	}

	values, res := p.bindPositionalArgs(desc, tail)
	if res.Code != OK {
		return nil, res
	}
	if validationErr := p.validate(desc, values); validationErr != nil {
		return fail(ValidationFailure, "%v", validationErr)
	}
	return &BoundCommand{Descriptor: desc, Values: values, EntryTime: entryTime, RawTail: tail}, ParseResult{Code: OK}
}

// bindPositionalArgs consumes "remaining" left to right, one token per
// declared argument, except: a Service argument consumes two tokens
// (host, then description, rejoining the intervening ';' as a value
// boundary rather than a field separator), and the final declared
// argument — if it's a plain string — absorbs the rest of the tail
// verbatim, unescaped semicolons and all.
func (p *Parser) bindPositionalArgs(desc *Descriptor, tail string) ([]Value, ParseResult) {
	values := make([]Value, len(desc.Args))

	if len(desc.Args) == 0 {
		// Zero declared arguments: remaining text, if any, is ignored.
		return values, ParseResult{Code: OK}
	}

	remaining := tail
	for i, argDesc := range desc.Args {
		isLast := i == len(desc.Args)-1

		if argDesc.Type == Service {
			hostTok, rest, found := cutToken(remaining)
			if !found {
				return failValues(ParseMissingArg, "missing host for service argument %q", argDesc.Name)
			}
			var descTok string
			if isLast {
				descTok = rest
			} else {
				var found2 bool
				descTok, rest, found2 = cutToken(rest)
				if !found2 {
					return failValues(ParseMissingArg, "missing service description for argument %q", argDesc.Name)
				}
			}
			values[i] = Value{StringV: descTok, HostName: hostTok}
			remaining = rest
			continue
		}

		var token string
		if isLast && argDesc.Type == String {
			token = remaining
			remaining = ""
		} else {
			var found bool
			token, remaining, found = cutToken(remaining)
			if !found {
				if argDesc.Default != nil {
					token = *argDesc.Default
				} else {
					return failValues(ParseMissingArg, "missing required argument %q", argDesc.Name)
				}
			}
		}

		if token == "" && argDesc.Default != nil && !isLast {
			token = *argDesc.Default
		}

		v, err := ParseValue(argDesc.Type, token)
		if err != nil {
			return failValues(ParseTypeMismatch, "argument %q: %v", argDesc.Name, err)
		}
		values[i] = v
	}

	if remaining != "" {
		return failValues(ParseExcessArg, "excess argument data: %q", remaining)
	}

	return values, ParseResult{Code: OK}
}

func failValues(code ParseError, format string, args ...interface{}) ([]Value, ParseResult) {
	return nil, ParseResult{Code: code, Message: fmt.Sprintf(format, args...)}
}

// cutToken splits on the next ';'. found is false only when the input is
// already fully exhausted (no more tokens at all to offer).
func cutToken(s string) (token, rest string, found bool) {
	if s == "" {
		return "", "", false
	}
	idx := strings.IndexByte(s, ';')
	if idx < 0 {
		return s, "", true
	}
	return s[:idx], s[idx+1:], true
}

func (p *Parser) validate(desc *Descriptor, values []Value) error {
	for i, argDesc := range desc.Args {
		if argDesc.Validator == nil {
			continue
		}
		v := values[i]
		if !argDesc.Validator(&v, p.resolver) {
			return fmt.Errorf("validation failed for argument %q", argDesc.Name)
		}
	}
	return nil
}

// parseKeyValue implements 4.C's key=value grammar: the whole body is a
// KV-vector "k=v;k=v;..." with a mandatory command=<name> pair.
func (p *Parser) parseKeyValue(line string) (*BoundCommand, ParseResult) {
	line = strings.TrimSpace(line)
	entryTime := time.Now()

	// Allow (and strip) a leading "[ts] " the same as positional, since
	// key=value commands may still arrive timestamped over the FIFO.
	if strings.HasPrefix(line, "[") {
		if closeIdx := strings.IndexByte(line, ']'); closeIdx > 0 {
			if ts, err := strictParseULong(line[1:closeIdx]); err == nil {
				entryTime = time.Unix(int64(ts), 0)
				line = strings.TrimSpace(line[closeIdx+1:])
			}
		}
	}

	vec, err := kvvector.Decode([]byte(line), '=', ';', kvvector.Assign)
	if err != nil {
		return fail(MalformedCommand, "key=value decode failed: %v", err)
	}

	name, ok := vec.LookupString("command")
	if !ok {
		return fail(MalformedCommand, "missing mandatory 'command' key")
	}

	if strings.HasPrefix(name, "_") {
		return &BoundCommand{Custom: true, CustomName: name, EntryTime: entryTime, RawTail: line}, ParseResult{Code: CustomCommand}
	}

	desc, ok := p.catalog.ByName(name)
	if !ok {
		return fail(UnknownCommand, "unrecognized command %q", name)
	}

	values := make([]Value, len(desc.Args))
	for i, argDesc := range desc.Args {
		raw, present := vec.LookupString(argDesc.Name)
		if !present {
			if argDesc.Default == nil {
				return fail(ParseMissingArg, "missing required argument %q", argDesc.Name)
			}
			raw = *argDesc.Default
		}
		v, perr := ParseValue(argDesc.Type, raw)
		if perr != nil {
			return fail(ParseTypeMismatch, "argument %q: %v", argDesc.Name, perr)
		}
		if argDesc.Type == Service {
			// key=value service args carry "host;description" in one value.
			hostTok, descTok, ok := strings.Cut(raw, ";")
			if !ok {
				return fail(ParseTypeMismatch, "argument %q: service value must be host;description", argDesc.Name)
			}
			v = Value{StringV: descTok, HostName: hostTok}
		}
		values[i] = v
	}

	if validationErr := p.validate(desc, values); validationErr != nil {
		return fail(ValidationFailure, "%v", validationErr)
	}

	return &BoundCommand{Descriptor: desc, Values: values, EntryTime: entryTime, RawTail: line}, ParseResult{Code: OK}
}
