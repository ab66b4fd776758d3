package driver

import (
	"strings"

	uuid "github.com/satori/go.uuid"
)

// Definition is a parsed definition string, per spec §4.5/§6:
// "<interface>[:<opt>=<val>(,<opt>=<val>)*]".
type Definition struct {
	Raw       string
	Interface string
	Name      string
	UUID      string
	Retry     bool
}

// parseDefinition parses def. Parse failure of any option rejects the
// whole definition (spec §4.5); a malformed uuid option rejects the
// whole definition with a MalformedDefinition error naming the bad value
// rather than being silently dropped. parseDefinition does not log; the
// caller receives the error text through its completion callback.
func parseDefinition(def string) (Definition, error) {
	if def == "" {
		return Definition{}, newError(KindMalformedDefinition, "empty definition")
	}

	iface, rest, hasOpts := strings.Cut(def, ":")
	if iface == "" {
		return Definition{}, newError(KindMalformedDefinition, "missing interface name in %q", def)
	}

	d := Definition{Raw: def, Interface: iface, Name: iface}
	if !hasOpts {
		return d, nil
	}

	for _, pair := range strings.Split(rest, ",") {
		if pair == "" {
			continue
		}
		key, val, ok := strings.Cut(pair, "=")
		if !ok {
			return Definition{}, newError(KindMalformedDefinition, "malformed option %q in %q", pair, def)
		}
		switch key {
		case "name":
			d.Name = val
		case "uuid":
			if _, err := uuid.FromString(val); err != nil {
				return Definition{}, newError(KindMalformedDefinition, "invalid uuid %q: %v", val, err)
			}
			d.UUID = val
		case "retry":
			b, err := parseBoolOption(val)
			if err != nil {
				return Definition{}, newError(KindMalformedDefinition, "invalid retry value %q in %q", val, def)
			}
			d.Retry = b
		default:
			return Definition{}, newError(KindMalformedDefinition, "unrecognized option %q in %q", key, def)
		}
	}

	return d, nil
}

func parseBoolOption(val string) (bool, error) {
	switch strings.ToLower(val) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	default:
		return false, newError(KindMalformedDefinition, "not a bool: %q", val)
	}
}
