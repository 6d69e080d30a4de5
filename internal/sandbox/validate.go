// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sandbox runs model-generated Python source in a restricted
// subprocess (spec.md §4.7): used by the Grover solver to execute
// candidate transform programs, and by the ARC-3 agent's analyze_grid
// tool to run ad hoc grid analysis.
package sandbox

import (
	"regexp"
	"strings"

	"github.com/82deutschmark/arc-explainer/internal/apperrors"
)

// whitelistedModules is the only set of top-level modules a sandboxed
// program may import.
var whitelistedModules = map[string]bool{
	"numpy":              true,
	"scipy":              true,
	"scipy.ndimage":      true,
	"math":               true,
	"itertools":          true,
	"collections":        true,
}

// forbiddenNames catches file I/O, process control, and dynamic-code
// execution primitives regardless of how they're imported or referenced.
var forbiddenNames = []string{
	"open(", "file(", "exec(", "eval(", "__import__(",
	"compile(", "input(",
	"os.system", "os.popen", "subprocess",
	"socket", "urllib", "http.client", "requests",
}

var (
	importRe     = regexp.MustCompile(`(?m)^\s*import\s+([a-zA-Z0-9_.]+)`)
	fromImportRe = regexp.MustCompile(`(?m)^\s*from\s+([a-zA-Z0-9_.]+)\s+import`)
)

// Validate performs a lexical approximation of AST validation: real
// Python AST parsing has no Go-native library in this pack (no embedded
// CPython, no pure-Go Python parser), so imports and forbidden
// identifiers are checked textually instead. This is deliberately
// conservative — it rejects some legal-but-suspicious-looking strings
// (e.g. the substring "open(" inside a string literal) in favor of never
// letting a disallowed capability slip through.
func Validate(source string) error {
	for _, m := range importRe.FindAllStringSubmatch(source, -1) {
		if !isWhitelisted(m[1]) {
			return apperrors.Sandbox("validation", forbiddenImportError(m[1]))
		}
	}
	for _, m := range fromImportRe.FindAllStringSubmatch(source, -1) {
		if !isWhitelisted(m[1]) {
			return apperrors.Sandbox("validation", forbiddenImportError(m[1]))
		}
	}
	for _, name := range forbiddenNames {
		if strings.Contains(source, name) {
			return apperrors.Sandbox("validation", forbiddenNameError(name))
		}
	}
	return nil
}

func isWhitelisted(module string) bool {
	if whitelistedModules[module] {
		return true
	}
	// A dotted submodule of a whitelisted package (e.g. "scipy.ndimage"
	// matches directly above; "numpy.linalg" falls through to its
	// top-level "numpy" prefix here).
	if dot := strings.IndexByte(module, '.'); dot != -1 {
		return whitelistedModules[module[:dot]]
	}
	return false
}

type validationError struct{ msg string }

func (e *validationError) Error() string { return e.msg }

func forbiddenImportError(module string) error {
	return &validationError{msg: "import of non-whitelisted module: " + module}
}

func forbiddenNameError(name string) error {
	return &validationError{msg: "use of forbidden construct: " + strings.TrimSuffix(name, "(")}
}
