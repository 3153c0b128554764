package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RefKind tags a reference as personal or business.
type RefKind string

const (
	RefPersonal RefKind = "personal"
	RefBusiness RefKind = "business"
)

// Ref identifies the target of an operation: a personal account by user id or a
// business by normalized name. On the wire it is a single string such as
// "personal:1042" or "business:corner cafe".
type Ref struct {
	Kind RefKind
	Key  string
}

func PersonalRef(account string) Ref {
	return Ref{Kind: RefPersonal, Key: account}
}

func BusinessRef(name string) Ref {
	return Ref{Kind: RefBusiness, Key: NormalizeName(name)}
}

func ParseRef(s string) (Ref, error) {
	kind, key, ok := strings.Cut(s, ":")
	if !ok || key == "" {
		return Ref{}, fmt.Errorf("malformed reference %q", s)
	}
	switch RefKind(kind) {
	case RefPersonal:
		return PersonalRef(key), nil
	case RefBusiness:
		return BusinessRef(key), nil
	}
	return Ref{}, fmt.Errorf("unknown reference kind %q", kind)
}

func (r Ref) String() string {
	return string(r.Kind) + ":" + r.Key
}

// LockKey is the composite key used to order cross-entity lock acquisition.
func (r Ref) LockKey() string {
	if r.Kind == RefBusiness {
		return "business:" + r.Key
	}
	return "account:" + r.Key
}

func (r Ref) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Ref) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	ref, err := ParseRef(s)
	if err != nil {
		return err
	}
	*r = ref
	return nil
}

// NormalizeName canonicalizes a business name. Every entry point that takes a
// business name goes through here, so the key space is unambiguous.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
