// Package hostlang describes the languages generated state machines can be
// embedded in.
package hostlang

import (
	"fmt"
	"strings"
)

// Lang identifies a host language
type Lang int

const (
	Unknown Lang = iota
	C
	D
	Java
	Ruby
	CSharp
)

// Info holds the per-language file naming data
type Info struct {
	Lang       Lang
	Name       string
	Aliases    []string
	DefaultExt string
	HeaderExt  string
}

// Java, Ruby and C# are known only so that they can be named and rejected;
// they have no header form.
var table = []Info{
	{Lang: C, Name: "C", Aliases: []string{"c", "c++", "cpp", "objc"}, DefaultExt: ".c", HeaderExt: ".h"},
	{Lang: D, Name: "D", Aliases: []string{"d"}, DefaultExt: ".d", HeaderExt: ".h"},
	{Lang: Java, Name: "Java", Aliases: []string{"java"}, DefaultExt: ".java"},
	{Lang: Ruby, Name: "Ruby", Aliases: []string{"ruby", "rb"}, DefaultExt: ".rb"},
	{Lang: CSharp, Name: "C#", Aliases: []string{"c#", "csharp", "cs"}, DefaultExt: ".cs"},
}

// Lookup returns the naming data for a language
func Lookup(l Lang) (Info, bool) {
	for _, info := range table {
		if info.Lang == l {
			return info, true
		}
	}
	return Info{}, false
}

// Parse maps a user-supplied name onto a language. Matching is case-insensitive.
func Parse(s string) (Lang, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, info := range table {
		if strings.ToLower(info.Name) == name {
			return info.Lang, nil
		}
		for _, alias := range info.Aliases {
			if alias == name {
				return info.Lang, nil
			}
		}
	}
	return Unknown, fmt.Errorf("unknown host language: %q", s)
}

// String returns the display name of the language
func (l Lang) String() string {
	if info, ok := Lookup(l); ok {
		return info.Name
	}
	return "unknown"
}

// DefaultExt returns the extension used for generated source files
func (l Lang) DefaultExt() string {
	info, _ := Lookup(l)
	return info.DefaultExt
}

// HeaderExt returns the extension used when the source is a header, or ""
// when the language has none
func (l Lang) HeaderExt() string {
	info, _ := Lookup(l)
	return info.HeaderExt
}
