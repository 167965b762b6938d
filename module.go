package logq

import (
	"net/url"
	"path"
	"strings"
)

// ModuleDelimiter joins the namespace and class parts of a derived module.
const ModuleDelimiter = "-"

// scopeSeparator separates qualifiers in a function signature.
const scopeSeparator = "::"

// maxQualifiers is the number of leading qualifiers kept in a module name.
const maxQualifiers = 2

// DeriveModule produces a module name from a function signature and a file path.
//
// When signature contains a parameter list and a qualified name, the
// outermost namespace and class are kept and joined with ModuleDelimiter:
//
//	DeriveModule("void foonm::Foo::bar(void*)", "foo.cpp") // "foonm-Foo"
//
// Otherwise the base name of file is used:
//
//	DeriveModule("", "/src/main.cpp") // "main.cpp"
func DeriveModule(signature, file string) string {
	if module, ok := moduleFromSignature(signature); ok {
		return module
	}
	return strings.TrimSpace(fileBase(file))
}

// moduleFromSignature extracts the qualifier part of a signature.
func moduleFromSignature(signature string) (string, bool) {
	paren := strings.Index(signature, "(")
	if paren < 0 {
		return "", false
	}

	name := strings.TrimSpace(signature[:paren])
	if i := strings.LastIndexAny(name, " \t*&"); i >= 0 {
		name = name[i+1:]
	}

	parts := strings.Split(name, scopeSeparator)
	if len(parts) < 2 {
		return "", false
	}

	// Drop the function itself, then collapse deeper nesting.
	parts = parts[:len(parts)-1]
	if len(parts) > maxQualifiers {
		parts = parts[:maxQualifiers]
	}

	module := strings.TrimSpace(strings.Join(parts, ModuleDelimiter))
	if module == "" {
		return "", false
	}
	return module, true
}

// fileBase strips everything up to the last path separator of either style.
func fileBase(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		return name[i+1:]
	}
	return name
}

// FuncSignature rewrites a Go runtime function name into the qualified form
// understood by DeriveModule.
//
//	"github.com/acme/app/store.(*Cache).Get" -> "store::Cache::Get()"
//	"main.main"                               -> "main::main()"
//	"github.com/acme/app/store.New.func1"     -> "store::New()"
func FuncSignature(funcName string) string {
	if funcName == "" {
		return ""
	}

	pkgPath, rest := funcName, ""
	slash := strings.LastIndex(funcName, "/")
	if dot := strings.Index(funcName[slash+1:], "."); dot >= 0 {
		pkgPath = funcName[:slash+1+dot]
		rest = funcName[slash+1+dot+1:]
	}
	// The linker escapes dots in the last path element: "yaml%2ev3".
	pkg := path.Base(pkgPath)
	if unescaped, err := url.PathUnescape(pkg); err == nil {
		pkg = unescaped
	}
	rest = strings.ReplaceAll(rest, "[...]", "")

	var parts []string
	for _, p := range strings.Split(rest, ".") {
		p = strings.Trim(p, "(*)")
		if p == "" || isClosureName(p) {
			break
		}
		parts = append(parts, p)
	}
	if len(parts) == 0 {
		return pkg + "()"
	}

	// Package-level functions get the package as their only qualifier.
	return pkg + scopeSeparator + strings.Join(parts, scopeSeparator) + "()"
}

// isClosureName reports whether p is a compiler-generated closure segment
// such as "func1" or "gowrap2".
func isClosureName(p string) bool {
	for _, prefix := range []string{"func", "gowrap"} {
		if strings.HasPrefix(p, prefix) && len(p) > len(prefix) && p[len(prefix)] >= '0' && p[len(prefix)] <= '9' {
			return true
		}
	}
	return false
}
