package formula

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"unsafe"

	"github.com/astarte-platform/sdkbuild/pkgs/buildsys"
	"github.com/qiniu/x/gsh"
)

// SetStdout sets the stdout writer of the recipe's gsh.App.
// A nil writer keeps the current one.
func (r *Recipe) SetStdout(w io.Writer) {
	setAppWriter(&r.App, "fout", w)
}

// SetStderr sets the stderr writer of the recipe's gsh.App.
// A nil writer keeps the current one.
func (r *Recipe) SetStderr(w io.Writer) {
	setAppWriter(&r.App, "ferr", w)
}

// setAppWriter assigns an unexported stream field of gsh.App.
func setAppWriter(app *gsh.App, name string, w io.Writer) {
	if w == nil {
		return
	}
	field := reflect.ValueOf(app).Elem().FieldByName(name)
	field = reflect.NewAt(field.Type(), unsafe.Pointer(field.UnsafeAddr())).Elem()
	field.Set(reflect.ValueOf(&w).Elem())
}

// Shell returns a runner that executes commands through the recipe's
// gsh.App. Output goes to the App streams, not to the command's own
// writers, and the process working directory is used, so commands must
// carry absolute paths. The exit status of the last command is kept by
// the App (see LastErr and ExitCode).
func (r *Recipe) Shell() buildsys.Runner {
	return shellRunner{r}
}

type shellRunner struct {
	r *Recipe
}

func (s shellRunner) Run(ctx context.Context, cmd buildsys.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.r.Exec__0(cmd.Env, cmd.Name, cmd.Args...); err != nil {
		return fmt.Errorf("%s: %w", cmd, err)
	}
	return nil
}
