package builtin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"

	"github.com/h9-tec/AI-agent-explained/pkg/tools/toolbox"
)

type calculateInput struct {
	Expression string `tool:"expression" desc:"Arithmetic expression to evaluate, e.g. (3 + 4) * 2"`
}

// Calculate returns the calculate tool. Expressions are evaluated by an
// embedded JavaScript runtime, one runtime per call, and interrupted when
// timeout elapses or the context is cancelled.
func Calculate(timeout time.Duration) toolbox.Tool {
	return toolbox.MustFromFunc("calculate", "Evaluates a mathematical expression and returns the result.",
		func(ctx context.Context, in calculateInput) (string, error) {
			return Eval(ctx, in.Expression, timeout)
		})
}

// Eval evaluates expr and returns its value rendered as a string.
func Eval(ctx context.Context, expr string, timeout time.Duration) (string, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return "", errors.New("empty expression")
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	vm := goja.New()
	stop := context.AfterFunc(ctx, func() {
		vm.Interrupt(ctx.Err())
	})
	defer stop()

	v, err := vm.RunString(expr)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return "", fmt.Errorf("evaluation interrupted: %v", interrupted.Value())
		}
		return "", fmt.Errorf("evaluating expression: %w", err)
	}

	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return "", fmt.Errorf("expression %q produced no value", expr)
	}

	return v.String(), nil
}
