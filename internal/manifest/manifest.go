// Package manifest renders the barrel module and the ambient type declaration
// for a list of component records. Rendering is pure: the same records always
// yield the same text, in record order.
package manifest

import (
	"fmt"
	"strings"

	"github.com/lithammer/dedent"

	"componentgen/internal/pathmap"
	"componentgen/internal/registry"
)

// DefaultHeader is the fixed boilerplate that opens the barrel module.
var DefaultHeader = strings.TrimLeft(dedent.Dedent(`
	import "./style/common.css";
	export * from "./events";
	export * from "./utils";
	export * from "./types";
`), "\n")

const (
	DefaultDistTypesPath = "./dist/types/index"
	DefaultHostModule    = "vue"
	DefaultPluginName    = "QyaniComponents"
)

// EmptyManifestError is returned when no component was discovered and the
// synthesizer requires at least one.
type EmptyManifestError struct {
	Artifact string
}

func (e *EmptyManifestError) Error() string {
	return "manifest: no components discovered for " + e.Artifact
}

// Synthesizer holds the fixed strings threaded into both artifacts.
type Synthesizer struct {
	Prefix            string
	Header            string
	DistTypesPath     string
	HostModule        string
	PluginName        string
	RequireComponents bool
}

// New returns a Synthesizer with the default boilerplate.
func New(prefix string) *Synthesizer {
	return &Synthesizer{
		Prefix:        prefix,
		Header:        DefaultHeader,
		DistTypesPath: DefaultDistTypesPath,
		HostModule:    DefaultHostModule,
		PluginName:    DefaultPluginName,
	}
}

func (s *Synthesizer) check(records []registry.Record, artifact string) error {
	if len(records) == 0 && s.RequireComponents {
		return &EmptyManifestError{Artifact: artifact}
	}
	for _, r := range records {
		if !strings.HasPrefix(r.Identifier, s.Prefix) || len(r.Identifier) == len(s.Prefix) {
			return &pathmap.InvalidNameError{Name: r.Identifier, Reason: "missing component prefix " + s.Prefix}
		}
	}
	return nil
}

// RenderBarrel emits the header, one default import per record, a plugin
// object whose install registers every record on the host app, and a named
// re-export of every identifier.
func (s *Synthesizer) RenderBarrel(records []registry.Record) (string, error) {
	if err := s.check(records, "barrel"); err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString(s.Header)
	if s.Header != "" && !strings.HasSuffix(s.Header, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	for _, r := range records {
		fmt.Fprintf(&sb, "import {default as %s} from '%s';\n", r.Identifier, r.ImportPath)
	}
	sb.WriteString("\nexport default {\n")
	sb.WriteString("\tinstall(app: any) {\n")
	for _, r := range records {
		fmt.Fprintf(&sb, "\t\tapp.component('%s', %s);\n", r.Identifier, r.Identifier)
	}
	sb.WriteString("\t},\n};\n\n")
	sb.WriteString("export {\n")
	if len(records) > 0 {
		sb.WriteString("\t" + strings.Join(registry.Identifiers(records), ",\n\t") + "\n")
	}
	sb.WriteString("};\n")
	return sb.String(), nil
}

// RenderTypeDeclaration emits a type-only import of every identifier, a
// GlobalComponents augmentation with one field per record and the declared
// plugin constant with its default export.
func (s *Synthesizer) RenderTypeDeclaration(records []registry.Record) (string, error) {
	if err := s.check(records, "type declaration"); err != nil {
		return "", err
	}
	ids := registry.Identifiers(records)
	var sb strings.Builder
	sb.WriteString("import type {\n")
	if len(ids) > 0 {
		sb.WriteString("\t" + strings.Join(ids, ",\n\t") + "\n")
	}
	fmt.Fprintf(&sb, "} from '%s';\n", s.DistTypesPath)
	fmt.Fprintf(&sb, "import type { Plugin } from '%s';\n\n", s.HostModule)
	fmt.Fprintf(&sb, "declare module '%s' {\n", s.HostModule)
	sb.WriteString("\texport interface GlobalComponents {\n")
	for _, id := range ids {
		fmt.Fprintf(&sb, "\t\t%s: typeof %s\n", id, id)
	}
	sb.WriteString("\t}\n}\n\n")
	fmt.Fprintf(&sb, "declare const %s: Plugin;\n", s.PluginName)
	fmt.Fprintf(&sb, "export default %s;\n", s.PluginName)
	return sb.String(), nil
}
