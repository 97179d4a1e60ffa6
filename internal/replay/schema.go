package replay

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/transitions/internal/ir"
)

//go:embed schema.cue
var schemaSource string

// ErrInvalidLog is matched by every *InvalidLogError.
var ErrInvalidLog = errors.New("invalid action log")

// InvalidLogError reports a record that is not well-formed: unparsable
// JSON, a schema violation, or a digest that does not match its content.
type InvalidLogError struct {
	// Source names the record, usually its file path.
	Source string
	Reason string
}

func (e *InvalidLogError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("%s: %s", ErrInvalidLog, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrInvalidLog, e.Source, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidLog.
func (e *InvalidLogError) Unwrap() error {
	return ErrInvalidLog
}

// definitions maps each accepted discriminator to its schema definition.
var definitions = map[string]string{
	string(ir.ActionAdd):        "#Add",
	string(ir.ActionTransition): "#Transition",
	string(ir.ActionTransit):    "#Transition",
	string(ir.ActionRemove):     "#Remove",
}

// schema is the compiled record schema. A single cue.Context is not safe
// for concurrent use, so access is serialized.
type schema struct {
	mu   sync.Mutex
	ctx  *cue.Context
	root cue.Value
}

var loadSchema = sync.OnceValues(func() (*schema, error) {
	ctx := cuecontext.New()
	root := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("compile record schema: %w", err)
	}
	return &schema{ctx: ctx, root: root}, nil
})

// check validates raw JSON against the definition selected by its action.
func (s *schema) check(source string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !json.Valid(data) {
		return &InvalidLogError{Source: source, Reason: "not valid JSON"}
	}

	v := s.ctx.CompileBytes(data, cue.Filename(source))
	if err := v.Err(); err != nil {
		return &InvalidLogError{Source: source, Reason: formatCUEError(err)}
	}
	if v.IncompleteKind() != cue.StructKind {
		return &InvalidLogError{Source: source, Reason: "record is not a JSON object"}
	}

	actionVal := v.LookupPath(cue.ParsePath("action"))
	if !actionVal.Exists() {
		return &InvalidLogError{Source: source, Reason: "missing action"}
	}
	action, err := actionVal.String()
	if err != nil {
		return &InvalidLogError{Source: source, Reason: "action is not a string"}
	}
	def, ok := definitions[action]
	if !ok {
		return &InvalidLogError{Source: source, Reason: fmt.Sprintf("unknown action %q", action)}
	}

	unified := s.root.LookupPath(cue.ParsePath(def)).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return &InvalidLogError{Source: source, Reason: formatCUEError(err)}
	}
	return nil
}

// formatCUEError flattens CUE's error list into one line.
func formatCUEError(err error) string {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err.Error()
	}

	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// Decode parses one record file and validates it against the record
// schema. The legacy "transit" discriminator is normalized to
// "transition". When the record carries a digest it must match.
//
// source names the record in errors.
func Decode(source string, data []byte) (ir.ActionRecord, error) {
	s, err := loadSchema()
	if err != nil {
		return ir.ActionRecord{}, err
	}
	if err := s.check(source, data); err != nil {
		return ir.ActionRecord{}, err
	}

	var rec ir.ActionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return ir.ActionRecord{}, &InvalidLogError{Source: source, Reason: err.Error()}
	}
	if err := checkDigest(source, rec); err != nil {
		return ir.ActionRecord{}, err
	}

	if rec.Action == ir.ActionTransit {
		rec.Action = ir.ActionTransition
	}
	return rec, nil
}

// Validate applies the record schema and digest check to an in-memory
// record.
func Validate(rec ir.ActionRecord) error {
	source := rec.ID
	if source == "" {
		source = string(rec.Action) + " record"
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return &InvalidLogError{Source: source, Reason: err.Error()}
	}

	s, err := loadSchema()
	if err != nil {
		return err
	}
	if err := s.check(source, data); err != nil {
		return err
	}
	return checkDigest(source, rec)
}

func checkDigest(source string, rec ir.ActionRecord) error {
	if rec.Digest == "" {
		return nil
	}
	want, err := ir.RecordDigest(rec)
	if err != nil {
		return &InvalidLogError{Source: source, Reason: err.Error()}
	}
	if want != rec.Digest {
		return &InvalidLogError{Source: source, Reason: "digest mismatch"}
	}
	return nil
}
