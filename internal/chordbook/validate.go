package chordbook

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ChordRoots lists the accepted root and bass spellings.
var ChordRoots = []string{
	"C", "C#", "Db", "D", "D#", "Eb", "E", "F", "F#",
	"Gb", "G", "G#", "Ab", "A", "A#", "Bb", "B",
}

var (
	entityValidateOnce sync.Once
	entityValidate     *validator.Validate
)

func entityValidator() *validator.Validate {
	entityValidateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("chordroot", func(fl validator.FieldLevel) bool {
			return slices.Contains(ChordRoots, fl.Field().String())
		})
		entityValidate = v
	})
	return entityValidate
}

// ValidatePlaybook checks a playbook's caller-editable fields.
func ValidatePlaybook(pb *Playbook) error {
	if err := validateStruct(pb); err != nil {
		return err
	}
	for _, ref := range pb.Songs {
		if ref.ID().IsZero() {
			if _, ok := ref.Song(); !ok {
				return fmt.Errorf("%w: songs: empty song reference", ErrInvalid)
			}
		}
	}
	return nil
}

// ValidateSong checks a song's fields and every chord in it.
func ValidateSong(s *Song) error {
	return validateStruct(s)
}

func validateStruct(v any) error {
	err := entityValidator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fieldPath(fe.Namespace()), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

// fieldPath drops the top-level type name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}
