package reflection

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/wippyai/metareflect/errors"
	"github.com/wippyai/metareflect/metadata"
)

// AssemblyName is the identity of an assembly.
type AssemblyName struct {
	Name    string
	Culture string
	// PublicKey is the full key; PublicKeyToken is derived from it when unset.
	PublicKey      []byte
	PublicKeyToken []byte
	Version        metadata.Version
	Flags          metadata.AssemblyFlags
}

// ParseAssemblyName parses a display name such as
// "Lib, Version=1.0.0.0, Culture=neutral, PublicKeyToken=b77a5c561934e089".
func ParseAssemblyName(s string) (AssemblyName, error) {
	parts := strings.Split(s, ",")
	name := strings.TrimSpace(parts[0])
	if name == "" {
		return AssemblyName{}, errors.InvalidInput(errors.PhaseResolve, "assembly name is empty")
	}

	n := AssemblyName{Name: name}
	for _, part := range parts[1:] {
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			return AssemblyName{}, errors.InvalidInput(errors.PhaseResolve, "malformed assembly name component: "+strings.TrimSpace(part))
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)

		switch strings.ToLower(key) {
		case "version":
			v, ok := ParseVersion(val)
			if !ok {
				return AssemblyName{}, errors.InvalidInput(errors.PhaseResolve, "invalid assembly version: "+val)
			}
			n.Version = v
		case "culture":
			if !strings.EqualFold(val, "neutral") {
				n.Culture = val
			}
		case "publickeytoken":
			if strings.EqualFold(val, "null") {
				continue
			}
			tok, err := hex.DecodeString(val)
			if err != nil || len(tok) != 8 {
				return AssemblyName{}, errors.InvalidInput(errors.PhaseResolve, "invalid public key token: "+val)
			}
			n.PublicKeyToken = tok
		case "publickey":
			if strings.EqualFold(val, "null") {
				continue
			}
			key, err := hex.DecodeString(val)
			if err != nil {
				return AssemblyName{}, errors.InvalidInput(errors.PhaseResolve, "invalid public key: "+val)
			}
			n.PublicKey = key
			n.Flags |= metadata.AssemblyPublicKey
		case "retargetable":
			if strings.EqualFold(val, "yes") {
				n.Flags |= metadata.AssemblyRetargetable
			}
		case "contenttype", "processorarchitecture", "custom":
			// accepted, not part of the binding identity
		default:
			return AssemblyName{}, errors.InvalidInput(errors.PhaseResolve, "unknown assembly name component: "+key)
		}
	}
	return n, nil
}

// MustParseAssemblyName is ParseAssemblyName for literals.
func MustParseAssemblyName(s string) AssemblyName {
	n, err := ParseAssemblyName(s)
	if err != nil {
		panic(err)
	}
	return n
}

// ParseVersion parses a version with two to four dot-separated parts.
func ParseVersion(s string) (metadata.Version, bool) {
	parts := strings.Split(s, ".")
	if len(parts) < 2 || len(parts) > 4 {
		return metadata.Version{}, false
	}

	var fields [4]uint16
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return metadata.Version{}, false
		}
		fields[i] = uint16(n)
	}
	return metadata.Version{Major: fields[0], Minor: fields[1], Build: fields[2], Revision: fields[3]}, true
}

// PublicKeyToken derives the 8-byte token of a public key: the last eight
// bytes of its SHA-1 hash, reversed.
func PublicKeyToken(key []byte) []byte {
	if len(key) == 0 {
		return nil
	}
	sum := sha1.Sum(key)
	tok := make([]byte, 8)
	for i := range tok {
		tok[i] = sum[len(sum)-1-i]
	}
	return tok
}

// Token returns the public key token, deriving it from the key if needed.
func (n AssemblyName) Token() []byte {
	if len(n.PublicKeyToken) > 0 {
		return n.PublicKeyToken
	}
	return PublicKeyToken(n.PublicKey)
}

// String returns the display name.
func (n AssemblyName) String() string {
	var b strings.Builder
	b.WriteString(n.Name)
	b.WriteString(", Version=")
	b.WriteString(n.Version.String())
	b.WriteString(", Culture=")
	if n.Culture == "" {
		b.WriteString("neutral")
	} else {
		b.WriteString(n.Culture)
	}
	b.WriteString(", PublicKeyToken=")
	if tok := n.Token(); len(tok) > 0 {
		b.WriteString(hex.EncodeToString(tok))
	} else {
		b.WriteString("null")
	}
	if n.Flags&metadata.AssemblyRetargetable != 0 {
		b.WriteString(", Retargetable=Yes")
	}
	return b.String()
}

// Equal reports whether two names denote the same identity.
// Names and cultures compare case-insensitively.
func (n AssemblyName) Equal(o AssemblyName) bool {
	return strings.EqualFold(n.Name, o.Name) &&
		n.Version == o.Version &&
		strings.EqualFold(n.Culture, o.Culture) &&
		bytes.Equal(n.Token(), o.Token())
}

// key is the normalized identity used by the bind and loaded-identity caches.
func (n AssemblyName) key() string {
	return strings.ToLower(n.Name) + "," + n.Version.String() + "," +
		strings.ToLower(n.Culture) + "," + hex.EncodeToString(n.Token())
}

func nameFromDef(def metadata.AssemblyDef) AssemblyName {
	return AssemblyName{
		Name:      def.Name,
		Version:   def.Version,
		Culture:   def.Culture,
		PublicKey: def.PublicKey,
		Flags:     def.Flags,
	}
}

func nameFromRef(ref metadata.AssemblyRefRow) AssemblyName {
	n := AssemblyName{
		Name:    ref.Name,
		Version: ref.Version,
		Culture: ref.Culture,
		Flags:   ref.Flags,
	}
	if ref.Flags&metadata.AssemblyPublicKey != 0 {
		n.PublicKey = ref.PublicKeyOrToken
	} else {
		n.PublicKeyToken = ref.PublicKeyOrToken
	}
	return n
}
