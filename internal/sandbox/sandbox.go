package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/82deutschmark/arc-explainer/internal/apperrors"
)

const (
	// GroverTimeout bounds one candidate-program execution during the
	// Grover solver's training-set scoring pass.
	GroverTimeout = 5 * time.Second

	// AnalyzeGridTimeout bounds one analyze_grid tool invocation from the
	// ARC-3 agent.
	AnalyzeGridTimeout = 10 * time.Second

	// maxOutputBytes truncates captured stdout/stderr, per spec.md §4.7.
	maxOutputBytes = 8 * 1024
)

// pythonBinary is the interpreter invoked for every sandboxed execution.
// Overridable in tests.
var pythonBinary = "python3"

// Executor runs validated Python source in a subprocess.
type Executor struct{}

func NewExecutor() *Executor { return &Executor{} }

// ExecResult is the outcome of one sandboxed run.
type ExecResult struct {
	Stdout    string
	Truncated bool
	Duration  time.Duration
}

// groverHarness wraps a Grover candidate program so it can be invoked as a
// pure function: the program MUST define `transform(grid)` taking a 2D
// list of ints and returning one. The harness reads the input grid as
// JSON on stdin, calls transform, and prints the result as JSON on a
// single stdout line — the only output this harness's caller parses.
const groverHarness = `
import json, sys
import numpy
import scipy.ndimage
import math
import itertools
import collections

%s

_input_grid = json.loads(sys.stdin.read())
_result = transform(_input_grid)
if hasattr(_result, "tolist"):
    _result = _result.tolist()
print(json.dumps(_result))
`

// RunTransform executes a Grover candidate program against one input grid,
// returning the program's predicted output grid as raw JSON text (decoded
// by the caller into puzzle.Grid, so that decode failures are reported
// alongside Python runtime failures uniformly by the solver's scorer).
func (e *Executor) RunTransform(ctx context.Context, code string, inputGrid any) (string, error) {
	if err := Validate(code); err != nil {
		return "", err
	}

	inputJSON, err := json.Marshal(inputGrid)
	if err != nil {
		return "", apperrors.Sandbox("encode-input", err)
	}

	source := fmt.Sprintf(groverHarness, code)
	result, err := e.run(ctx, source, inputJSON, GroverTimeout)
	if err != nil {
		return "", err
	}
	return result.Stdout, nil
}

// analyzeGridHarness wraps an analyze_grid tool invocation: the model's
// code runs with `grid`, `current_layer`, numpy, and scipy.ndimage bound
// as globals, plus a handful of named helpers the tool registry advertises.
// Its printed stdout (not a JSON return value) is the observation returned
// to the agent.
const analyzeGridHarness = `
import json, sys
import numpy
import scipy.ndimage
import math
import itertools
import collections

_ctx = json.loads(sys.stdin.read())
grid = _ctx.get("grid")
current_layer = _ctx.get("current_layer")

def get_bounding_box(cells):
    rows = [r for r, _ in cells]
    cols = [c for _, c in cells]
    return min(rows), min(cols), max(rows), max(cols)

def color_counts(g):
    counts = collections.Counter()
    for row in g:
        counts.update(row)
    return dict(counts)

def find_connected_components(g, background=0):
    arr = numpy.array(g)
    mask = arr != background
    labeled, n = scipy.ndimage.label(mask)
    components = []
    for i in range(1, n + 1):
        ys, xs = numpy.where(labeled == i)
        components.append(list(zip(ys.tolist(), xs.tolist())))
    return components

def detect_symmetry(g):
    arr = numpy.array(g)
    return {
        "horizontal": bool(numpy.array_equal(arr, numpy.flip(arr, axis=0))),
        "vertical": bool(numpy.array_equal(arr, numpy.flip(arr, axis=1))),
    }

%s
`

// RunAnalysis executes arbitrary analyze_grid code with execContext bound
// as named globals, returning its captured stdout.
func (e *Executor) RunAnalysis(ctx context.Context, code string, execContext map[string]any) (string, error) {
	if err := Validate(code); err != nil {
		return "", err
	}

	ctxJSON, err := json.Marshal(execContext)
	if err != nil {
		return "", apperrors.Sandbox("encode-context", err)
	}

	source := fmt.Sprintf(analyzeGridHarness, code)
	result, err := e.run(ctx, source, ctxJSON, AnalyzeGridTimeout)
	if err != nil {
		return "", err
	}
	return result.Stdout, nil
}

func (e *Executor) run(ctx context.Context, source string, stdin []byte, timeout time.Duration) (*ExecResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, pythonBinary, "-c", source)
	cmd.Stdin = bytes.NewReader(stdin)

	start := time.Now()
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	duration := time.Since(start)

	if runCtx.Err() == context.DeadlineExceeded {
		return nil, apperrors.Sandbox("timeout", runCtx.Err())
	}

	output := out.String()
	truncated := false
	if len(output) > maxOutputBytes {
		output = output[:maxOutputBytes]
		truncated = true
	}

	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return nil, apperrors.Sandbox("runtime", fmt.Errorf("%s", output))
		}
		return nil, apperrors.Sandbox("spawn", err)
	}

	return &ExecResult{Stdout: output, Truncated: truncated, Duration: duration}, nil
}
