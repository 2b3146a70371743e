package bundle

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaSource string

// validateSchema unifies the raw bundle bytes with the embedded CUE
// schema and converts every unification failure into an E100 with the
// offending path and source line. Uses the CUE SDK's Go API directly
// (not a CLI subprocess).
func validateSchema(filename string, data []byte) []ValidationError {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	def := schema.LookupPath(cue.ParsePath("#Bundle"))
	if err := def.Err(); err != nil {
		// The schema is compiled in; failure here is a build defect,
		// not a user input problem.
		panic("bundle: embedded schema is invalid: " + err.Error())
	}

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return cueErrors(err)
	}

	unified := def.Unify(ctx.BuildFile(file))
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueErrors(err)
	}
	return nil
}

// cueErrors flattens a CUE error list into E100 validation errors,
// keeping each error's path and first source position.
func cueErrors(err error) []ValidationError {
	list := cueerrors.Errors(err)
	if len(list) == 0 {
		return []ValidationError{{
			Field:   "bundle",
			Message: err.Error(),
			Code:    ErrSchemaViolation,
		}}
	}

	out := make([]ValidationError, 0, len(list))
	for _, e := range list {
		ve := ValidationError{
			Field:   strings.Join(e.Path(), "."),
			Message: errMessage(e),
			Code:    ErrSchemaViolation,
		}
		if positions := cueerrors.Positions(e); len(positions) > 0 {
			ve.Line = positions[0].Line()
		}
		if ve.Field == "" {
			ve.Field = "bundle"
		}
		out = append(out, ve)
	}
	return out
}

// errMessage renders the bare message without the path prefix Error()
// would repeat; the path already travels in Field.
func errMessage(e cueerrors.Error) string {
	format, args := e.Msg()
	return fmt.Sprintf(format, args...)
}
