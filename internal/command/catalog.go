// Package command implements the external command catalog and parser: a
// typed, registered set of command descriptors and the two wire syntaxes
// (positional and key=value) that bind a raw line to a concrete,
// validated command instance.
package command

import (
	"fmt"
	"strings"
)

// ArgType identifies the typed slot an argument descriptor binds to.
// TIMESTAMP is its own terminal case, never falling through to ULONG's
// parse path even though both use the same strict unsigned-integer
// scanner underneath — see ParseValue.
type ArgType int

const (
	Bool ArgType = iota
	Int
	ULong
	Timestamp
	Double
	String
	Host
	HostGroup
	Service
	ServiceGroup
	Contact
	ContactGroup
	Timeperiod
	CustomVar
)

func (t ArgType) String() string {
	switch t {
	case Bool:
		return "bool"
	case Int:
		return "int"
	case ULong:
		return "ulong"
	case Timestamp:
		return "timestamp"
	case Double:
		return "double"
	case String:
		return "string"
	case Host:
		return "host"
	case HostGroup:
		return "hostgroup"
	case Service:
		return "service"
	case ServiceGroup:
		return "servicegroup"
	case Contact:
		return "contact"
	case ContactGroup:
		return "contactgroup"
	case Timeperiod:
		return "timeperiod"
	case CustomVar:
		return "customvar"
	default:
		return "unknown"
	}
}

// Validator checks a bound argument value against live object state. The
// resolver callback lets validators for object-typed arguments query the
// object store without the catalog package importing it directly.
type Validator func(v *Value, resolve Resolver) bool

// Resolver looks up live objects by name so object-typed arguments
// ("does this host exist") can be validated without this package
// depending on internal/objects.
type Resolver interface {
	HostExists(name string) bool
	HostGroupExists(name string) bool
	ServiceExists(hostName, desc string) bool
	ServiceGroupExists(name string) bool
	ContactExists(name string) bool
	ContactGroupExists(name string) bool
	TimeperiodExists(name string) bool
}

// ArgDescriptor describes one positional/keyed argument slot.
type ArgDescriptor struct {
	Name      string
	Type      ArgType
	Default   *string // nil means no default: the argument is required
	Validator Validator
}

func defaultValidator(t ArgType) Validator {
	switch t {
	case Bool:
		return func(v *Value, _ Resolver) bool { return v.BoolV == false || v.BoolV == true }
	case Host:
		return func(v *Value, r Resolver) bool { return r == nil || r.HostExists(v.StringV) }
	case HostGroup:
		return func(v *Value, r Resolver) bool { return r == nil || r.HostGroupExists(v.StringV) }
	case Service:
		return func(v *Value, r Resolver) bool {
			return r == nil || r.ServiceExists(v.HostName, v.StringV)
		}
	case ServiceGroup:
		return func(v *Value, r Resolver) bool { return r == nil || r.ServiceGroupExists(v.StringV) }
	case Contact:
		return func(v *Value, r Resolver) bool { return r == nil || r.ContactExists(v.StringV) }
	case ContactGroup:
		return func(v *Value, r Resolver) bool { return r == nil || r.ContactGroupExists(v.StringV) }
	case Timeperiod:
		return func(v *Value, r Resolver) bool { return r == nil || r.TimeperiodExists(v.StringV) }
	default:
		return func(*Value, Resolver) bool { return true }
	}
}

// HandlerFunc processes a BoundCommand and reports success.
type HandlerFunc func(cmd *BoundCommand) error

// Descriptor is a named, registered command: its id, handler and
// argument spec. Descriptors are not owned by a BoundCommand — the
// catalog keeps them alive for the process lifetime.
type Descriptor struct {
	Name        string
	ID          int
	Handler     HandlerFunc
	Args        []ArgDescriptor
	Description string
}

// Catalog is the process-wide registry of command descriptors, indexed
// by name and by id (both map lookups).
type Catalog struct {
	byName map[string]*Descriptor
	byID   map[int]*Descriptor
	nextID int
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		byName: make(map[string]*Descriptor),
		byID:   make(map[int]*Descriptor),
	}
}

// Register parses argspec (a ";"-separated list of "TYPE=NAME" tokens)
// and installs a new descriptor under the given name. If id < 0 the
// catalog assigns the smallest free id; if id >= 0 that exact id is used
// and registration fails if occupied.
func (c *Catalog) Register(name string, id int, handler HandlerFunc, description, argspec string) (*Descriptor, error) {
	if _, exists := c.byName[name]; exists {
		return nil, fmt.Errorf("command: duplicate command name %q", name)
	}

	args, err := parseArgSpec(argspec)
	if err != nil {
		return nil, fmt.Errorf("command: %s: %w", name, err)
	}

	if id < 0 {
		id = 0
		for c.byID[id] != nil {
			id++
		}
	} else if c.byID[id] != nil {
		return nil, fmt.Errorf("command: id %d already occupied (registering %q)", id, name)
	}
	if id >= c.nextID {
		c.nextID = id + 1
	}

	d := &Descriptor{Name: name, ID: id, Handler: handler, Args: args, Description: description}
	c.byName[name] = d
	c.byID[id] = d
	return d, nil
}

// ByName looks up a descriptor by its registered name.
func (c *Catalog) ByName(name string) (*Descriptor, bool) {
	d, ok := c.byName[name]
	return d, ok
}

// ByID looks up a descriptor by its stable integer id.
func (c *Catalog) ByID(id int) (*Descriptor, bool) {
	d, ok := c.byID[id]
	return d, ok
}

// parseArgSpec turns "TYPE=NAME;TYPE=NAME" into argument descriptors,
// each defaulted according to its type. A name may carry a trailing
// ":default" to mark the argument optional when it isn't the argspec's
// last entry (a last STRING entry is always optional: it simply absorbs an
// empty tail) — e.g. "STRING=comment:" for a field Nagios clients often
// omit entirely rather than send empty.
func parseArgSpec(spec string) ([]ArgDescriptor, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}
	tokens := strings.Split(spec, ";")
	args := make([]ArgDescriptor, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		parts := strings.SplitN(tok, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed argspec token %q", tok)
		}
		typeName, argName := parts[0], parts[1]
		t, ok := argTypeByName(typeName)
		if !ok {
			return nil, fmt.Errorf("unknown argument type %q in token %q", typeName, tok)
		}
		var def *string
		if idx := strings.IndexByte(argName, ':'); idx >= 0 {
			d := argName[idx+1:]
			argName = argName[:idx]
			def = &d
		}
		args = append(args, ArgDescriptor{
			Name:      argName,
			Type:      t,
			Default:   def,
			Validator: defaultValidator(t),
		})
	}
	return args, nil
}

func argTypeByName(s string) (ArgType, bool) {
	switch strings.ToUpper(s) {
	case "BOOL":
		return Bool, true
	case "INT", "INTEGER":
		return Int, true
	case "ULONG":
		return ULong, true
	case "TIMESTAMP":
		return Timestamp, true
	case "DOUBLE":
		return Double, true
	case "STRING":
		return String, true
	case "HOST":
		return Host, true
	case "HOSTGROUP":
		return HostGroup, true
	case "SERVICE":
		return Service, true
	case "SERVICEGROUP":
		return ServiceGroup, true
	case "CONTACT":
		return Contact, true
	case "CONTACTGROUP":
		return ContactGroup, true
	case "TIMEPERIOD":
		return Timeperiod, true
	case "CUSTOMVAR":
		return CustomVar, true
	default:
		return 0, false
	}
}
